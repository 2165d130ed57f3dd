//go:build js_eval

package annotate

import (
	"errors"
	"reflect"
	"testing"
)

func TestFindGroupsWithJS(t *testing.T) {
	if !jsEvaluatorAvailable() {
		t.Fatalf("expected js evaluator in js_eval builds")
	}
	cache := NewMemoryProgramCache()
	s := seedRuleStore(t, WithEvaluator(NewJSEvaluator(JSWithProgramCache(cache))))

	groups, err := s.FindGroups(`page === 2 && tags.indexOf("ia") >= 0`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := groupIDs(groups); !reflect.DeepEqual(got, []int{2, 3}) {
		t.Fatalf("unexpected matches %v", got)
	}
	if cache.Len() != 1 {
		t.Fatalf("expected cached program, got %d", cache.Len())
	}

	_, err = s.FindGroups(`label`)
	var ruleErr *RuleError
	if !errors.As(err, &ruleErr) || ruleErr.Engine != "js" || !errors.Is(err, ErrRuleResult) {
		t.Fatalf("expected js RuleError, got %v", err)
	}
}

func TestJSMisspelledFieldRemovesNothing(t *testing.T) {
	s := newTestStore(t, WithEvaluator(NewJSEvaluator()))
	s.CreateGroup(GroupOptions{Status: StatusSent})
	s.CreateGroup(GroupOptions{Status: StatusSent})

	removed, err := s.RemoveGroupsWhere(`stauts !== "sent"`)
	var ruleErr *RuleError
	if !errors.As(err, &ruleErr) || ruleErr.Engine != "js" || ruleErr.GroupID != 1 {
		t.Fatalf("expected reference error on the first group, got %v", err)
	}
	if removed != 0 || s.Len() != 2 || s.CanUndo() {
		t.Fatalf("store must be untouched, removed=%d len=%d", removed, s.Len())
	}
}

func TestJSNormalize(t *testing.T) {
	s := seedRuleStore(t, WithEvaluator(NewJSEvaluator()))
	groups, err := s.FindGroups(`external_id !== "" && normalize(external_id) === normalize("0006")`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := groupIDs(groups); !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("expected group 1, got %v", got)
	}
}
