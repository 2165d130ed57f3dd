package annotate

import "github.com/goliatone/go-annotate/pkg/activity"

// SaveHistory pushes the current state onto the undo stack and clears the
// redo stack.
func (s *Store) SaveHistory() {
	s.history.Push(s.Snapshot())
}

// Undo restores the most recent undo entry. Returns false when the undo
// stack is empty.
func (s *Store) Undo() bool {
	start := s.cfg.now()
	previous, ok := s.history.Undo(s.Snapshot())
	if !ok {
		s.finish(start, LogEvent{Op: "undo"}, activity.Event{})
		return false
	}
	s.restore(previous)
	s.notify()
	s.finish(start, LogEvent{Op: "undo", GroupID: s.active, Changed: true},
		activity.BuildHistoryEvent(activity.VerbHistoryUndo, s.historyEventInput()))
	return true
}

// Redo re-applies the most recently undone state. Returns false when there
// is nothing to redo.
func (s *Store) Redo() bool {
	start := s.cfg.now()
	next, ok := s.history.Redo(s.Snapshot())
	if !ok {
		s.finish(start, LogEvent{Op: "redo"}, activity.Event{})
		return false
	}
	s.restore(next)
	s.notify()
	s.finish(start, LogEvent{Op: "redo", GroupID: s.active, Changed: true},
		activity.BuildHistoryEvent(activity.VerbHistoryRedo, s.historyEventInput()))
	return true
}

// CanUndo reports whether Undo would change state.
func (s *Store) CanUndo() bool { return s.history.CanUndo() }

// CanRedo reports whether Redo would change state.
func (s *Store) CanRedo() bool { return s.history.CanRedo() }

// HistoryLen returns the number of undo entries.
func (s *Store) HistoryLen() int { return s.history.Len() }

// ResetHistory clears the undo and redo stacks. The editing baseline is kept.
func (s *Store) ResetHistory() {
	s.history.Reset()
}

// SaveEditingSnapshot captures the current state as the editing baseline.
// SetActiveGroup calls it when a session opens.
func (s *Store) SaveEditingSnapshot() {
	s.history.SetBaseline(s.Snapshot())
}

// ClearEditingSnapshot drops the editing baseline.
func (s *Store) ClearEditingSnapshot() {
	s.history.ClearBaseline()
}

// HasEditingSnapshot reports whether a baseline is available for Revert.
func (s *Store) HasEditingSnapshot() bool {
	_, ok := s.history.Baseline()
	return ok
}

// Revert restores the editing baseline and clears both history stacks,
// discarding every step of the session. The baseline stays so the session
// can be reverted again. Returns false when no baseline was captured.
func (s *Store) Revert() bool {
	start := s.cfg.now()
	baseline, ok := s.history.Baseline()
	if !ok {
		s.finish(start, LogEvent{Op: "revert"}, activity.Event{})
		return false
	}
	s.restore(baseline)
	s.history.Reset()
	s.notify()
	s.finish(start, LogEvent{Op: "revert", GroupID: s.active, Changed: true},
		activity.BuildHistoryEvent(activity.VerbSessionReverted, s.historyEventInput()))
	return true
}

func (s *Store) historyEventInput() activity.AnnotationEventInput {
	return activity.AnnotationEventInput{
		ActorID: s.cfg.actorID,
		GroupID: s.active,
		Metadata: map[string]any{
			"undo": s.history.Len(),
			"redo": len(s.history.redo),
		},
	}
}
