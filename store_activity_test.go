package annotate

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/goliatone/go-annotate/pkg/activity"
)

func TestStoreEmitsActivity(t *testing.T) {
	capture := &activity.CaptureHook{}
	clock := fixedClock()
	s := newTestStore(t,
		WithActivityHooks(activity.Hooks{capture}),
		WithActor(" operator-1 "),
		WithDocumentID("prova-2024"),
	)

	g := s.CreateGroup(GroupOptions{ExternalID: "7"})
	crop, _ := s.AddCropToActiveGroup(cropOn(4))
	s.Undo()
	s.SetActiveGroup(NoGroup)
	s.SetActiveGroup(g.ID)
	s.Ingest(4, []Proposal{{ExternalID: "8"}})

	wantVerbs := []string{
		activity.VerbGroupCreated,
		activity.VerbCropAdded,
		activity.VerbHistoryUndo,
		activity.VerbSessionClosed,
		activity.VerbSessionOpened,
		activity.VerbIngestApplied,
	}
	if got := capture.Verbs(); !reflect.DeepEqual(got, wantVerbs) {
		t.Fatalf("expected verbs %v, got %v", wantVerbs, got)
	}

	created := capture.Events[0]
	if created.ActorID != "operator-1" || created.DocumentID != "prova-2024" {
		t.Fatalf("expected identity stamped, got %+v", created)
	}
	if created.Channel != activity.DefaultChannel || !created.OccurredAt.Equal(clock()) {
		t.Fatalf("expected defaults applied, got %+v", created)
	}
	if created.ObjectType != activity.ObjectGroup || created.ObjectID != "1" {
		t.Fatalf("unexpected object %s/%s", created.ObjectType, created.ObjectID)
	}
	if created.Metadata["external_id"] != "7" || created.Metadata["label"] != "Questão 1" {
		t.Fatalf("unexpected metadata %+v", created.Metadata)
	}

	added := capture.Events[1]
	if added.ObjectType != activity.ObjectCrop || added.ObjectID != crop.ID || added.Metadata["page"] != 4 {
		t.Fatalf("unexpected crop event %+v", added)
	}

	ingest := capture.Events[5]
	if ingest.ObjectID != "page:4" {
		t.Fatalf("unexpected ingest object %q", ingest.ObjectID)
	}
}

func TestNoOpsEmitNothing(t *testing.T) {
	capture := &activity.CaptureHook{}
	s := newTestStore(t, WithActivityHooks(activity.Hooks{capture}))

	s.Undo()
	s.Redo()
	s.Revert()
	s.DeleteGroup(5)
	s.RemoveLastCropFromActiveGroup()
	s.SetActiveGroup(12)

	if len(capture.Events) != 0 {
		t.Fatalf("expected no events, got %v", capture.Verbs())
	}
}

func TestActivityCanBeDisabled(t *testing.T) {
	capture := &activity.CaptureHook{}
	s := newTestStore(t,
		WithActivityHooks(activity.Hooks{capture}),
		WithActivityConfig(activity.Config{Enabled: false}),
	)
	s.CreateGroup(GroupOptions{})
	if len(capture.Events) != 0 {
		t.Fatalf("expected disabled emitter to stay silent")
	}
}

func TestActivityHookErrorsAreLogged(t *testing.T) {
	hookErr := errors.New("sink offline")
	failing := activity.HookFunc(func(context.Context, activity.Event) error { return hookErr })
	var logged []LogEvent
	s := newTestStore(t,
		WithActivityHooks(activity.Hooks{failing, nil}),
		WithLogger(LoggerFunc(func(e LogEvent) { logged = append(logged, e) })),
	)

	g := s.CreateGroup(GroupOptions{})
	if g.ID != 1 || s.Len() != 1 {
		t.Fatalf("hook failure must not fail the mutation")
	}
	if len(s.ActivityHooks()) != 1 {
		t.Fatalf("expected nil hooks dropped")
	}
	var found bool
	for _, entry := range logged {
		if entry.Op == "activity" && errors.Is(entry.Err, hookErr) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected hook error to be logged, got %+v", logged)
	}
}
