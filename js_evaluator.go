//go:build js_eval

package annotate

import (
	"fmt"

	"github.com/dop251/goja"
)

// jsEvaluator runs rules as JavaScript expressions with goja. JavaScript has
// no static types, but only rule variables and functions are defined in the
// runtime, so a misspelled field throws a ReferenceError on the first group
// instead of matching.
type jsEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewJSEvaluator constructs an Evaluator backed by goja. Rules are wrapped
// in a function so a bare expression such as `page === 2` is enough.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	cfg := applyJSEvaluatorOptions(opts)
	return &jsEvaluator{cache: cfg.cache, registry: cfg.registry}
}

func (e *jsEvaluator) Evaluate(ctx RuleContext, rule string) (any, error) {
	compiled, err := e.Compile(rule)
	if err != nil {
		return nil, err
	}
	return compiled.Evaluate(ctx)
}

func (e *jsEvaluator) Compile(rule string) (CompiledRule, error) {
	if rule == "" {
		return nil, wrapEvaluatorError("js", ErrEmptyRule)
	}
	if e.cache != nil {
		if cached, ok := e.cache.Get(rule); ok {
			if program, ok := cached.(*goja.Program); ok {
				return jsRule{evaluator: e, rule: rule, program: program}, nil
			}
		}
	}
	program, err := goja.Compile(rule, fmt.Sprintf("(function(){ return (%s); })()", rule), true)
	if err != nil {
		return nil, wrapRuleError("js", rule, NoGroup, err)
	}
	if e.cache != nil {
		e.cache.Set(rule, program)
	}
	return jsRule{evaluator: e, rule: rule, program: program}, nil
}

// runtime builds a fresh VM holding the rule environment, normalize and the
// registry functions.
func (e *jsEvaluator) runtime(ctx RuleContext) (*goja.Runtime, error) {
	vm := goja.New()
	for name, value := range ruleEnvironment(ctx) {
		if err := vm.Set(name, value); err != nil {
			return nil, err
		}
	}
	if err := vm.Set(normalizeFunction, Normalize); err != nil {
		return nil, err
	}
	for _, name := range e.registry.Names() {
		if err := vm.Set(name, e.registry.bind(name)); err != nil {
			return nil, err
		}
	}
	return vm, nil
}

type jsRule struct {
	evaluator *jsEvaluator
	rule      string
	program   *goja.Program
}

func (r jsRule) Evaluate(ctx RuleContext) (any, error) {
	vm, err := r.evaluator.runtime(ctx.withDefaults())
	if err != nil {
		return nil, wrapRuleError("js", r.rule, NoGroup, err)
	}
	value, err := vm.RunProgram(r.program)
	if err != nil {
		return nil, wrapRuleError("js", r.rule, NoGroup, err)
	}
	return value.Export(), nil
}

func jsEvaluatorAvailable() bool {
	return true
}

func jsEngineName(e Evaluator) string {
	if _, ok := e.(*jsEvaluator); ok {
		return "js"
	}
	return ""
}
