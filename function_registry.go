package annotate

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Function is a custom helper callable from rules, e.g. a host supplied
// answer key lookup: in_answer_key(external_id).
type Function func(args ...any) (any, error)

// FunctionRegistry holds rule functions by lower case name. Names may not
// shadow rule variables (id, page, tags, ...) or the built in normalize.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{functions: make(map[string]Function)}
}

// Register adds fn under name. Empty names, nil functions, reserved names and
// duplicates (compared case insensitively) are rejected.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	key := strings.ToLower(strings.TrimSpace(name))
	switch {
	case key == "":
		return fmt.Errorf("annotate: rule function name must not be empty")
	case fn == nil:
		return fmt.Errorf("annotate: rule function %q is nil", name)
	case reservedRuleName(key):
		return fmt.Errorf("annotate: rule function %q shadows a rule variable or built in", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]Function)
	}
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("annotate: rule function %q already registered", name)
	}
	r.functions[key] = fn
	return nil
}

// Clone returns a copy that no longer sees later registrations.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := &FunctionRegistry{functions: make(map[string]Function, len(r.functions))}
	for name, fn := range r.functions {
		out.functions[name] = fn
	}
	return out
}

// Call runs the function registered under name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("annotate: rule function %q not registered", name)
	}
	r.mu.RLock()
	fn := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("annotate: rule function %q not registered", name)
	}
	return fn(args...)
}

// Names returns the registered names sorted alphabetically. A nil registry
// has none.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// bind returns a closure calling name, in the variadic shape the rule engines
// expect.
func (r *FunctionRegistry) bind(name string) func(...any) (any, error) {
	return func(args ...any) (any, error) {
		return r.Call(name, args...)
	}
}

// WithFunctionRegistry exposes the functions in registry to rules run by the
// default evaluator.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *storeConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithRuleFunction registers fn under name for the default evaluator. A
// rejected registration makes New fail.
func WithRuleFunction(name string, fn Function) Option {
	return func(cfg *storeConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		if err := cfg.functions.Register(name, fn); err != nil {
			cfg.errs = append(cfg.errs, err)
		}
	}
}
