package annotate

import "testing"

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"06":                         "6",
		" 6 ":                        "6",
		"000":                        "0",
		"0":                          "0",
		"Q4a":                        "Q4a",
		" Q4a ":                      "Q4a",
		"":                           "",
		"   ":                        "",
		"-3":                         "-3",
		"007b":                       "007b",
		"00000000000000000000000012": "12",
	}
	for input, want := range cases {
		if got := Normalize(input); got != want {
			t.Fatalf("Normalize(%q): expected %q, got %q", input, want, got)
		}
	}
}

func TestFindGroupByExternalIDPrefersExactMatch(t *testing.T) {
	s := newTestStore(t)
	padded := s.CreateGroup(GroupOptions{ExternalID: "06"})
	plain := s.CreateGroup(GroupOptions{ExternalID: "6"})

	got, ok := s.FindGroupByExternalID("6")
	if !ok || got.ID != plain.ID {
		t.Fatalf("expected exact match on %d, got %+v", plain.ID, got)
	}
	got, ok = s.FindGroupByExternalID("06")
	if !ok || got.ID != padded.ID {
		t.Fatalf("expected exact match on %d, got %+v", padded.ID, got)
	}
	got, ok = s.FindGroupByExternalID("006")
	if !ok || got.ID != padded.ID {
		t.Fatalf("expected first normalized match %d, got %+v", padded.ID, got)
	}
}

func TestFindGroupByExternalIDNormalizes(t *testing.T) {
	s := newTestStore(t)
	g := s.CreateGroup(GroupOptions{ExternalID: "6"})
	s.CreateGroup(GroupOptions{})

	if got, ok := s.FindGroupByExternalID("06"); !ok || got.ID != g.ID {
		t.Fatalf("expected normalized match, got %+v", got)
	}
	if got, ok := s.FindGroupByExternalID(" 6 "); !ok || got.ID != g.ID {
		t.Fatalf("expected trimmed match, got %+v", got)
	}
	for _, query := range []string{"", "  ", "7", "Q6"} {
		if _, ok := s.FindGroupByExternalID(query); ok {
			t.Fatalf("expected no match for %q", query)
		}
	}
}
