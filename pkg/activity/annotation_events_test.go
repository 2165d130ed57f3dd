package activity

import (
	"context"
	"testing"
)

func TestBuildGroupEventIncludesMetadata(t *testing.T) {
	meta := map[string]any{"origin": "ia"}
	input := AnnotationEventInput{
		ActorID:    " operator ",
		DocumentID: " prova ",
		GroupID:    7,
		ExternalID: " 06 ",
		Label:      "Questão 2",
		Page:       3,
		Status:     "draft",
		Metadata:   meta,
	}

	event := BuildGroupEvent(VerbGroupCreated, input)

	if event.Verb != VerbGroupCreated || event.ObjectType != ObjectGroup || event.ObjectID != "7" {
		t.Fatalf("unexpected object fields: %+v", event)
	}
	if event.ActorID != "operator" || event.DocumentID != "prova" {
		t.Fatalf("unexpected identity fields: %+v", event)
	}
	want := map[string]any{
		"origin":      "ia",
		"group_id":    7,
		"external_id": "06",
		"label":       "Questão 2",
		"page":        3,
		"status":      "draft",
	}
	for key, value := range want {
		if event.Metadata[key] != value {
			t.Fatalf("metadata %q: expected %v, got %v", key, value, event.Metadata[key])
		}
	}
	if _, ok := meta["group_id"]; ok {
		t.Fatalf("expected input metadata untouched: %+v", meta)
	}
}

func TestBuildCropEventFallsBackToGroup(t *testing.T) {
	event := BuildCropEvent(VerbCropRemoved, AnnotationEventInput{GroupID: 4})
	if event.ObjectType != ObjectCrop || event.ObjectID != "4" {
		t.Fatalf("expected group fallback, got %+v", event)
	}
	event = BuildCropEvent(VerbCropAdded, AnnotationEventInput{GroupID: 4, CropID: "c-9"})
	if event.ObjectID != "c-9" || event.Metadata["group_id"] != 4 {
		t.Fatalf("expected crop object id, got %+v", event)
	}
}

func TestBuildHistoryEventIdleSession(t *testing.T) {
	event := BuildHistoryEvent(VerbHistoryUndo, AnnotationEventInput{})
	if event.ObjectType != ObjectSession || event.ObjectID != "session" {
		t.Fatalf("unexpected session event: %+v", event)
	}
	if event.Metadata != nil {
		t.Fatalf("expected nil metadata, got %+v", event.Metadata)
	}
}

func TestBuildPageEvents(t *testing.T) {
	removed := BuildGroupsRemovedEvent(AnnotationEventInput{Page: 2, Status: "draft"})
	if removed.Verb != VerbGroupsRemoved || removed.ObjectID != "page:2" || removed.ObjectType != ObjectPage {
		t.Fatalf("unexpected removal event: %+v", removed)
	}
	ingest := BuildIngestEvent(AnnotationEventInput{Page: 5})
	if ingest.Verb != VerbIngestApplied || ingest.ObjectID != "page:5" {
		t.Fatalf("unexpected ingest event: %+v", ingest)
	}
}

func TestBuildEventsWorkWithHooks(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}

	if err := hooks.Notify(context.Background(), BuildGroupEvent(VerbGroupDeleted, AnnotationEventInput{GroupID: 1})); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(capture.Events) != 1 || capture.Events[0].Verb != VerbGroupDeleted {
		t.Fatalf("expected capture to record event, got %+v", capture.Events)
	}
}
