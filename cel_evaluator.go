package annotate

import (
	"fmt"
	"sort"
	"sync"
	"time"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// maxCELArity bounds the overloads declared for registry functions. CEL has
// no variadic calls, so one overload is declared per arity.
const maxCELArity = 4

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry exposes registry functions to CEL rules.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.registry = registry.Clone()
	}
}

// celEvaluator runs group selection rules with cel-go. Rule variables are
// declared with concrete types, so `page == "2"` or an unknown field fails
// the type check, and rules whose static type is neither bool nor dyn are
// rejected before they run.
type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry

	once   sync.Once
	env    *celgo.Env
	envErr error
}

// NewCELEvaluator constructs an Evaluator backed by cel-go.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) Evaluate(ctx RuleContext, rule string) (any, error) {
	compiled, err := e.Compile(rule)
	if err != nil {
		return nil, err
	}
	return compiled.Evaluate(ctx)
}

func (e *celEvaluator) Compile(rule string) (CompiledRule, error) {
	if rule == "" {
		return nil, wrapEvaluatorError("cel", ErrEmptyRule)
	}
	if e.cache != nil {
		if cached, ok := e.cache.Get(rule); ok {
			if program, ok := cached.(celgo.Program); ok {
				return celRule{rule: rule, program: program}, nil
			}
		}
	}
	env, err := e.environment()
	if err != nil {
		return nil, wrapRuleError("cel", rule, NoGroup, err)
	}
	ast, issues := env.Compile(rule)
	if issues != nil && issues.Err() != nil {
		return nil, wrapRuleError("cel", rule, NoGroup, issues.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(celgo.BoolType) && !out.IsExactType(celgo.DynType) {
		return nil, wrapRuleError("cel", rule, NoGroup, fmt.Errorf("%w: got %s", ErrRuleResult, out))
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, wrapRuleError("cel", rule, NoGroup, err)
	}
	if e.cache != nil {
		e.cache.Set(rule, program)
	}
	return celRule{rule: rule, program: program}, nil
}

func (e *celEvaluator) environment() (*celgo.Env, error) {
	e.once.Do(func() {
		variables := ruleVariables()
		names := make([]string, 0, len(variables))
		for name := range variables {
			names = append(names, name)
		}
		sort.Strings(names)

		opts := make([]celgo.EnvOption, 0, len(names)+1)
		for _, name := range names {
			opts = append(opts, celgo.Variable(name, celType(variables[name])))
		}
		opts = append(opts, celgo.Function(normalizeFunction,
			celgo.Overload("normalize_string", []*celgo.Type{celgo.StringType}, celgo.StringType,
				celgo.UnaryBinding(func(value ref.Val) ref.Val {
					s, ok := value.Value().(string)
					if !ok {
						return types.NewErr("normalize expects a string, got %s", value.Type())
					}
					return types.String(Normalize(s))
				}),
			),
		))
		for _, name := range e.registry.Names() {
			opts = append(opts, e.functionDecl(name))
		}
		e.env, e.envErr = celgo.NewEnv(opts...)
	})
	return e.env, e.envErr
}

// celType maps the Go zero values of ruleVariables to CEL types.
func celType(sample any) *celgo.Type {
	switch sample.(type) {
	case int:
		return celgo.IntType
	case string:
		return celgo.StringType
	case bool:
		return celgo.BoolType
	case []string:
		return celgo.ListType(celgo.StringType)
	case time.Time:
		return celgo.TimestampType
	case map[string]any:
		return celgo.MapType(celgo.StringType, celgo.DynType)
	default:
		return celgo.DynType
	}
}

func (e *celEvaluator) functionDecl(name string) celgo.EnvOption {
	binding := e.registry.bind(name)
	call := func(values ...ref.Val) ref.Val {
		args := make([]any, len(values))
		for i, value := range values {
			args[i] = value.Value()
		}
		result, err := binding(args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
	overloads := make([]celgo.FunctionOpt, 0, maxCELArity+1)
	for arity := 0; arity <= maxCELArity; arity++ {
		args := make([]*celgo.Type, arity)
		for i := range args {
			args[i] = celgo.DynType
		}
		overloads = append(overloads, celgo.Overload(
			fmt.Sprintf("%s_dyn_%d", name, arity),
			args,
			celgo.DynType,
			celgo.FunctionBinding(call),
		))
	}
	return celgo.Function(name, overloads...)
}

type celRule struct {
	rule    string
	program celgo.Program
}

func (r celRule) Evaluate(ctx RuleContext) (any, error) {
	out, _, err := r.program.Eval(ruleEnvironment(ctx.withDefaults()))
	if err != nil {
		return nil, wrapRuleError("cel", r.rule, NoGroup, err)
	}
	return out.Value(), nil
}
