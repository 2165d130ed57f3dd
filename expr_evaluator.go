package annotate

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprEvaluatorOption configures an expr evaluator instance.
type ExprEvaluatorOption func(*exprEvaluator)

// ExprWithProgramCache wires a ProgramCache into the expr evaluator.
func ExprWithProgramCache(cache ProgramCache) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		e.cache = cache
	}
}

// ExprWithFunctionRegistry exposes registry functions to expr rules.
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		e.registry = registry.Clone()
	}
}

// exprEvaluator compiles group selection rules with github.com/expr-lang/expr
// against the typed rule variables. Rules must yield a boolean; expressions
// of another static type are rejected at compile time.
type exprEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewExprEvaluator constructs an Evaluator backed by expr-lang/expr.
func NewExprEvaluator(opts ...ExprEvaluatorOption) Evaluator {
	e := &exprEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *exprEvaluator) Evaluate(ctx RuleContext, rule string) (any, error) {
	compiled, err := e.Compile(rule)
	if err != nil {
		return nil, err
	}
	return compiled.Evaluate(ctx)
}

func (e *exprEvaluator) Compile(rule string) (CompiledRule, error) {
	if rule == "" {
		return nil, wrapEvaluatorError("expr", ErrEmptyRule)
	}
	if e.cache != nil {
		if cached, ok := e.cache.Get(rule); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return exprRule{rule: rule, program: program}, nil
			}
		}
	}
	program, err := exprlang.Compile(rule, e.options()...)
	if err != nil {
		return nil, wrapRuleError("expr", rule, NoGroup, err)
	}
	if e.cache != nil {
		e.cache.Set(rule, program)
	}
	return exprRule{rule: rule, program: program}, nil
}

func (e *exprEvaluator) options() []exprlang.Option {
	options := []exprlang.Option{
		exprlang.Env(ruleVariables()),
		exprlang.AsBool(),
		exprlang.Function(normalizeFunction, func(params ...any) (any, error) {
			value, ok := params[0].(string)
			if !ok {
				return nil, fmt.Errorf("normalize expects a string, got %T", params[0])
			}
			return Normalize(value), nil
		}, new(func(string) string)),
	}
	for _, name := range e.registry.Names() {
		options = append(options, exprlang.Function(name, e.registry.bind(name)))
	}
	return options
}

type exprRule struct {
	rule    string
	program *exprvm.Program
}

func (r exprRule) Evaluate(ctx RuleContext) (any, error) {
	result, err := exprlang.Run(r.program, ruleEnvironment(ctx.withDefaults()))
	if err != nil {
		return nil, wrapRuleError("expr", r.rule, NoGroup, err)
	}
	return result, nil
}
