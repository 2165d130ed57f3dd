package annotate

import (
	"fmt"
	"testing"
	"time"
)

func sequentialCropIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("crop-%d", n)
	}
}

func fixedClock() func() time.Time {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	base := []Option{WithCropIDGenerator(sequentialCropIDs()), WithClock(fixedClock())}
	store, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func cropOn(page int) CropData {
	return CropData{Anchor: Anchor{Page: page, X: 10, Y: 20, Width: 100, Height: 50}}
}

func assertLabels(t *testing.T, s *Store) {
	t.Helper()
	for i, g := range s.Groups() {
		want := fmt.Sprintf("Questão %d", i+1)
		if g.Label != want {
			t.Fatalf("group %d at position %d: expected label %q, got %q", g.ID, i, want, g.Label)
		}
	}
}
