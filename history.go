package annotate

// History keeps bounded linear undo/redo stacks plus an independent editing
// baseline. It stores snapshots only; the Store decides when to capture and
// what to restore.
type History struct {
	limit    int
	undo     []Snapshot
	redo     []Snapshot
	baseline *Snapshot
}

// NewHistory builds a History whose undo stack holds at most limit entries.
// Limits below 1 fall back to DefaultHistoryCap.
func NewHistory(limit int) *History {
	if limit < 1 {
		limit = DefaultHistoryCap
	}
	return &History{limit: limit}
}

// Push records snapshot as the newest undo entry, evicting the oldest entry
// past the limit. Any redo entries are discarded.
func (h *History) Push(snapshot Snapshot) {
	h.undo = append(h.undo, snapshot.Clone())
	if over := len(h.undo) - h.limit; over > 0 {
		h.undo = append([]Snapshot(nil), h.undo[over:]...)
	}
	h.redo = nil
}

// Undo swaps current for the newest undo entry. current moves to the redo
// stack. Returns false when there is nothing to undo.
func (h *History) Undo(current Snapshot) (Snapshot, bool) {
	if len(h.undo) == 0 {
		return Snapshot{}, false
	}
	last := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, current.Clone())
	return last.Clone(), true
}

// Redo is the mirror of Undo.
func (h *History) Redo(current Snapshot) (Snapshot, bool) {
	if len(h.redo) == 0 {
		return Snapshot{}, false
	}
	last := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, current.Clone())
	if over := len(h.undo) - h.limit; over > 0 {
		h.undo = append([]Snapshot(nil), h.undo[over:]...)
	}
	return last.Clone(), true
}

// Reset clears both stacks. The baseline is kept.
func (h *History) Reset() {
	h.undo = nil
	h.redo = nil
}

// SetBaseline captures the editing baseline.
func (h *History) SetBaseline(snapshot Snapshot) {
	s := snapshot.Clone()
	h.baseline = &s
}

// Baseline returns a copy of the editing baseline.
func (h *History) Baseline() (Snapshot, bool) {
	if h.baseline == nil {
		return Snapshot{}, false
	}
	return h.baseline.Clone(), true
}

// ClearBaseline drops the editing baseline.
func (h *History) ClearBaseline() {
	h.baseline = nil
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }

func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Len returns the number of undo entries.
func (h *History) Len() int { return len(h.undo) }

// Limit returns the undo cap.
func (h *History) Limit() int { return h.limit }
