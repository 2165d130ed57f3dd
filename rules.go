package annotate

import (
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-annotate/pkg/activity"
)

// RuleContext carries inputs needed when evaluating a rule.
type RuleContext struct {
	Snapshot any
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaults()
	return *ctx.Now
}

// Evaluator executes rule expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, rule string) (any, error)
	Compile(rule string) (CompiledRule, error)
}

// CompiledRule is a reusable rule program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// normalizeFunction is the built in rule function wrapping Normalize, so
// rules can compare external ids the way FindGroupByExternalID does:
// normalize(external_id) == normalize("06").
const normalizeFunction = "normalize"

// ruleVariables declares every name a rule can reference, with a zero value
// carrying its type. Engines compile against this set, so a misspelled field
// is a compile error rather than a nil that matches everything.
func ruleVariables() map[string]any {
	return map[string]any{
		"id":            0,
		"label":         "",
		"status":        "",
		"tipo":          "",
		"external_id":   "",
		"normalized_id": "",
		"page":          0,
		"crops":         0,
		"tags":          []string{},
		"origin":        "",
		"mode":          "",
		"active":        false,
		"now":           time.Time{},
		"args":          map[string]any{},
		"metadata":      map[string]any{},
	}
}

// reservedRuleName reports whether name is taken by a rule variable or a
// built in function.
func reservedRuleName(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == normalizeFunction {
		return true
	}
	_, ok := ruleVariables()[name]
	return ok
}

// ruleEnvironment merges the group binding in ctx with the context values.
func ruleEnvironment(ctx RuleContext) map[string]any {
	env := map[string]any{
		"now":      ctx.timestamp(),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
	}
	if binding, ok := ctx.Snapshot.(map[string]any); ok {
		for key, value := range binding {
			env[key] = value
		}
	}
	return env
}

// ProgramCache stores compiled rule programs keyed by rule text.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// FindGroups returns copies of the groups matching rule, in display order.
// Rules see one group at a time through the variables documented on
// GroupBinding and must evaluate to a boolean.
func (s *Store) FindGroups(rule string) ([]Group, error) {
	indexes, err := s.matchRule("find_groups", rule)
	if err != nil {
		return nil, err
	}
	out := make([]Group, 0, len(indexes))
	for _, idx := range indexes {
		out = append(out, s.groups[idx].Clone())
	}
	return out, nil
}

// RemoveGroupsWhere deletes every group matching rule. History is saved
// before anything is removed, so the removal can be undone. Returns the
// number of removed groups.
func (s *Store) RemoveGroupsWhere(rule string) (int, error) {
	indexes, err := s.matchRule("remove_groups_where", rule)
	if err != nil || len(indexes) == 0 {
		return 0, err
	}
	start := s.cfg.now()
	doomed := make(map[int]struct{}, len(indexes))
	for _, idx := range indexes {
		doomed[s.groups[idx].ID] = struct{}{}
	}
	s.SaveHistory()
	removed := s.removeWhere(func(g *Group) bool {
		_, ok := doomed[g.ID]
		return ok
	})
	s.notify()
	s.finish(start, LogEvent{Op: "remove_groups_where", Rule: rule, Changed: true},
		activity.BuildGroupsRemovedEvent(activity.AnnotationEventInput{
			ActorID:  s.cfg.actorID,
			Metadata: map[string]any{"group_ids": removed, "rule": rule},
		}))
	return len(removed), nil
}

// GroupBinding exposes g to rule engines. Keys: id, label, status, tipo,
// external_id, normalized_id, page (first crop page, 0 when empty), crops
// (count), tags, origin, mode, active.
func GroupBinding(g Group, activeID int) map[string]any {
	page, _ := g.FirstPage()
	return map[string]any{
		"id":            g.ID,
		"label":         g.Label,
		"status":        string(g.Status),
		"tipo":          g.Tipo,
		"external_id":   g.ExternalID,
		"normalized_id": Normalize(g.ExternalID),
		"page":          page,
		"crops":         len(g.Crops),
		"tags":          g.AllTags(),
		"origin":        g.Origin.String(),
		"mode":          g.Mode.String(),
		"active":        g.ID != NoGroup && g.ID == activeID,
	}
}

func (s *Store) matchRule(op, rule string) ([]int, error) {
	start := s.cfg.now()
	if rule == "" {
		s.cfg.logger.LogEvent(LogEvent{Op: op, Err: ErrEmptyRule})
		return nil, ErrEmptyRule
	}
	evaluator, err := s.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	engine := evaluatorEngineName(evaluator)
	indexes, err := s.evaluateRule(evaluator, engine, rule)
	s.cfg.logger.LogEvent(LogEvent{
		Op:       op,
		Rule:     rule,
		Engine:   engine,
		Duration: s.since(start),
		Err:      err,
	})
	return indexes, err
}

func (s *Store) evaluateRule(evaluator Evaluator, engine, rule string) ([]int, error) {
	compiled, err := evaluator.Compile(rule)
	if err != nil {
		return nil, wrapRuleError(engine, rule, NoGroup, err)
	}
	now := s.cfg.now()
	var matched []int
	for i := range s.groups {
		ctx := RuleContext{
			Snapshot: GroupBinding(s.groups[i], s.active),
			Now:      &now,
		}
		value, err := compiled.Evaluate(ctx)
		if err != nil {
			return nil, wrapRuleError(engine, rule, s.groups[i].ID, err)
		}
		ok, isBool := value.(bool)
		if !isBool {
			return nil, wrapRuleError(engine, rule, s.groups[i].ID, fmt.Errorf("%w: got %T", ErrRuleResult, value))
		}
		if ok {
			matched = append(matched, i)
		}
	}
	return matched, nil
}

func (s *Store) resolveEvaluator() (Evaluator, error) {
	if s.cfg.evaluator != nil {
		return s.cfg.evaluator, nil
	}
	var exprOpts []ExprEvaluatorOption
	if s.cfg.programCache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(s.cfg.programCache))
	}
	if s.cfg.functions != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(s.cfg.functions))
	}
	evaluator := NewExprEvaluator(exprOpts...)
	if evaluator == nil {
		return nil, ErrNoEvaluator
	}
	s.cfg.evaluator = evaluator
	return evaluator, nil
}

func evaluatorEngineName(e Evaluator) string {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return "expr"
	case *celEvaluator:
		return "cel"
	default:
		if name := jsEngineName(e); name != "" {
			return name
		}
		return "custom"
	}
}
