//go:build !js_eval

package annotate

import "testing"

func TestJSEvaluatorUnavailableWithoutTag(t *testing.T) {
	if jsEvaluatorAvailable() {
		t.Fatalf("expected js evaluator to be disabled")
	}
	if NewJSEvaluator(JSWithProgramCache(NewMemoryProgramCache())) != nil {
		t.Fatalf("expected nil evaluator without js_eval")
	}
	s := seedRuleStore(t, WithEvaluator(NewJSEvaluator()))
	if _, err := s.FindGroups(`page == 1`); err != nil {
		t.Fatalf("expected fallback to expr, got %v", err)
	}
}
