// Package annotate is the in-memory state engine behind question annotation
// of scanned exam pages.
//
// A Store owns an ordered list of groups. Each group is one logical question
// made of crops, rectangular regions drawn on rendered pages. The store keeps
// the display labels ("Questão N") in step with group order, hands out stable
// internal ids and maps every group to a deterministic palette color.
//
// Editing model:
//
//	Idle --SetActiveGroup(id)--> Editing --SetActiveGroup(NoGroup)--> Idle
//
// Opening a session resets undo/redo and captures a baseline that Revert
// restores. Crop edits on the active group are undoable; AddCropToGroup and
// CreateGroup are not.
//
// External ids (question numbers from an AI pass or a host system) are
// matched exactly first and then after Normalize, so "06" finds "6".
// Ingest merges a page of AI proposals as a single undo step.
//
// Rules passed to FindGroups and RemoveGroupsWhere are expr expressions by
// default; NewCELEvaluator and NewJSEvaluator (js_eval build tag) provide
// alternatives. Every group is exposed to rules through GroupBinding.
//
// Mutations notify subscribers synchronously, are reported to the configured
// Logger and, when activity hooks are registered, emit events from
// pkg/activity. A Store is not safe for concurrent use.
package annotate
