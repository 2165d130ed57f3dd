package annotate

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPaletteSize indicates a palette that does not hold exactly PaletteSize colors.
	ErrPaletteSize = errors.New("annotate: palette must hold exactly 16 colors")
	// ErrPaletteDuplicate indicates a palette with repeated colors.
	ErrPaletteDuplicate = errors.New("annotate: palette colors must be distinct")
	// ErrHistoryCap indicates a non positive history cap.
	ErrHistoryCap = errors.New("annotate: history cap must be at least 1")
	// ErrEmptyRule indicates an empty rule expression.
	ErrEmptyRule = errors.New("annotate: rule must not be empty")
	// ErrNoEvaluator indicates that no rule evaluator could be resolved.
	ErrNoEvaluator = errors.New("annotate: rule evaluator not configured")
	// ErrRuleResult indicates a rule that did not produce a boolean.
	ErrRuleResult = errors.New("annotate: rule must evaluate to a boolean")
	// ErrProposalID indicates an AI proposal without an external id.
	ErrProposalID = errors.New("annotate: proposal external id is required")
)

// RuleError captures rule metadata alongside the originating error.
type RuleError struct {
	Engine  string
	Rule    string
	GroupID int
	Err     error
}

func (e *RuleError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("annotate: %s evaluator %s group=%d: %v", e.Engine, describeRule(e.Rule), e.GroupID, e.Err)
}

func (e *RuleError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeRule(rule string) string {
	if rule == "" {
		return "rule=<empty>"
	}
	return fmt.Sprintf("rule=%q", rule)
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var ruleErr *RuleError
	if errors.As(err, &ruleErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "annotate:") {
		return err
	}
	return fmt.Errorf("annotate: %s evaluator: %w", engine, err)
}

func wrapRuleError(engine, rule string, groupID int, err error) error {
	if err == nil {
		return nil
	}

	var ruleErr *RuleError
	if errors.As(err, &ruleErr) {
		if ruleErr.Engine == "" {
			ruleErr.Engine = engine
		}
		if ruleErr.Rule == "" {
			ruleErr.Rule = rule
		}
		if ruleErr.GroupID == NoGroup {
			ruleErr.GroupID = groupID
		}
		return ruleErr
	}

	return &RuleError{
		Engine:  engine,
		Rule:    rule,
		GroupID: groupID,
		Err:     err,
	}
}
