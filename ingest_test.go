package annotate

import (
	"errors"
	"reflect"
	"testing"
)

func TestDecodeProposals(t *testing.T) {
	region := map[string]any{"x": 1.5, "y": 2.0, "width": 30.0, "height": 40.0}
	payload := map[string]any{
		"questions": []any{
			map[string]any{"id": 6.0, "regions": []any{region}},
			map[string]any{
				"id":   "Q2",
				"tipo": "enunciado",
				"tags": []any{"revisar"},
				"regions": []any{
					map[string]any{"page": 3.0, "tipo": "alternativas", "meta": map[string]any{"score": 0.9}},
				},
			},
		},
	}

	proposals, err := DecodeProposals(2, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Proposal{
		{
			ExternalID: "6",
			Crops: []CropData{
				{Anchor: Anchor{Page: 2, X: 1.5, Y: 2, Width: 30, Height: 40}},
			},
		},
		{
			ExternalID: "Q2",
			Tipo:       "enunciado",
			Tags:       []string{"revisar"},
			Crops: []CropData{
				{Anchor: Anchor{Page: 3, Meta: map[string]any{"score": 0.9}}, Tipo: "alternativas"},
			},
		},
	}
	if !reflect.DeepEqual(proposals, want) {
		t.Fatalf("unexpected proposals:\nwant %#v\n got %#v", want, proposals)
	}
	if _, ok := region["page"]; ok {
		t.Fatalf("decode must not modify the caller payload")
	}
}

func TestDecodeProposalsRequiresID(t *testing.T) {
	payload := map[string]any{
		"questions": []any{map[string]any{"regions": []any{}}},
	}
	if _, err := DecodeProposals(1, payload); !errors.Is(err, ErrProposalID) {
		t.Fatalf("expected ErrProposalID, got %v", err)
	}
	if _, err := DecodeProposals(1, nil); err == nil {
		t.Fatalf("expected error for nil payload")
	}
}

func TestIngestMergesProposals(t *testing.T) {
	s := newTestStore(t)
	manual := s.CreateGroup(GroupOptions{ExternalID: "6"})
	s.AddCropToActiveGroup(cropOn(2))
	staleAI := s.CreateGroup(GroupOptions{Origin: OriginAI, ExternalID: "9"})
	s.AddCropToActiveGroup(cropOn(2))
	verifiedAI := s.CreateGroup(GroupOptions{Origin: OriginAI, Status: StatusVerified})
	s.AddCropToActiveGroup(cropOn(2))
	otherPage := s.CreateGroup(GroupOptions{Origin: OriginAI})
	s.AddCropToActiveGroup(cropOn(5))
	s.SetActiveGroup(manual.ID)

	before := s.Snapshot()
	calls := 0
	s.Subscribe(func(*Store) { calls++ })

	result := s.Ingest(2, []Proposal{
		{ExternalID: "06", Crops: []CropData{cropOn(2)}},
		{ExternalID: "9", Tipo: "enunciado", Crops: []CropData{cropOn(2), cropOn(2)}},
	})

	if !reflect.DeepEqual(result.Removed, []int{staleAI.ID}) {
		t.Fatalf("expected stale AI draft removed, got %v", result.Removed)
	}
	if !reflect.DeepEqual(result.Matched, []int{manual.ID}) {
		t.Fatalf("expected manual group matched, got %v", result.Matched)
	}
	if len(result.Created) != 1 {
		t.Fatalf("expected 1 created group, got %v", result.Created)
	}
	if calls != 1 {
		t.Fatalf("expected a single notification, got %d", calls)
	}

	ids := groupIDs(s.Groups())
	wantIDs := []int{manual.ID, verifiedAI.ID, otherPage.ID, result.Created[0]}
	if !reflect.DeepEqual(ids, wantIDs) {
		t.Fatalf("expected groups %v, got %v", wantIDs, ids)
	}
	assertLabels(t, s)

	merged, _ := s.Group(manual.ID)
	if len(merged.Crops) != 2 || merged.Origin != OriginManual {
		t.Fatalf("expected matched group to gain a crop, got %+v", merged)
	}
	created, _ := s.Group(result.Created[0])
	if created.Origin != OriginAI || created.Status != StatusDraft || !created.HasTag(TagNew) {
		t.Fatalf("unexpected created group %+v", created)
	}
	if created.ExternalID != "9" || created.Tipo != "enunciado" || len(created.Crops) != 2 {
		t.Fatalf("unexpected created group %+v", created)
	}
	if active, _ := s.ActiveGroupID(); active != manual.ID {
		t.Fatalf("expected active pointer untouched, got %d", active)
	}

	if !s.Undo() {
		t.Fatalf("expected ingest to be undoable")
	}
	if got := s.Snapshot(); !reflect.DeepEqual(got.Groups, before.Groups) {
		t.Fatalf("undo should restore pre-ingest groups")
	}
	if s.NextID() <= result.Created[0] {
		t.Fatalf("ids must not be reused after undo, next id %d", s.NextID())
	}
}

func TestIngestIsRepeatable(t *testing.T) {
	s := newTestStore(t)
	proposals := []Proposal{{ExternalID: "1", Crops: []CropData{cropOn(3)}}}

	first := s.Ingest(3, proposals)
	second := s.Ingest(3, proposals)

	if len(first.Created) != 1 || len(second.Created) != 1 {
		t.Fatalf("expected one creation per run, got %v and %v", first.Created, second.Created)
	}
	if !reflect.DeepEqual(second.Removed, first.Created) {
		t.Fatalf("expected rerun to replace previous drafts, got %v", second.Removed)
	}
	if s.Len() != 1 {
		t.Fatalf("expected a single group after rerun, got %d", s.Len())
	}
}

func TestIngestWithoutChanges(t *testing.T) {
	s := newTestStore(t)
	s.CreateGroup(GroupOptions{})
	calls := 0
	s.Subscribe(func(*Store) { calls++ })

	result := s.Ingest(1, nil)
	if result.Changed() || calls != 0 || s.CanUndo() {
		t.Fatalf("expected silent no-op, got %+v", result)
	}
}

func TestDecodeProposalsNumericIDs(t *testing.T) {
	payload := map[string]any{
		"questions": []any{
			map[string]any{"id": 1e20},
			map[string]any{"id": -12.0},
			map[string]any{"id": 2.5},
			map[string]any{"id": 7},
		},
	}
	proposals, err := DecodeProposals(1, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var ids []string
	for _, p := range proposals {
		ids = append(ids, p.ExternalID)
	}
	want := []string{"100000000000000000000", "-12", "2.5", "7"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("expected ids %v, got %v", want, ids)
	}
}
