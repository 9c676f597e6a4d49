package model

import (
	"encoding/json"
	"testing"
)

// TestTermHasRelatedTerms tests the leaf check.
func TestTermHasRelatedTerms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		term *Term
		want bool
	}{
		{name: "nil term", term: nil, want: false},
		{name: "absent related terms", term: &Term{UID: "A"}, want: false},
		{name: "empty related terms", term: &Term{UID: "A", RelatedTerms: []*Term{}}, want: false},
		{name: "one related term", term: &Term{UID: "A", RelatedTerms: []*Term{{UID: "B"}}}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.term.HasRelatedTerms(); got != tt.want {
				t.Errorf("HasRelatedTerms() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestVisitCount tests that shared subtrees are counted once per path.
func TestVisitCount(t *testing.T) {
	t.Parallel()

	t.Run("empty forest", func(t *testing.T) {
		t.Parallel()
		if got := VisitCount(nil); got != 0 {
			t.Errorf("expected 0, got %d", got)
		}
	})

	t.Run("nested terms", func(t *testing.T) {
		t.Parallel()
		forest := []*Term{
			{UID: "A", RelatedTerms: []*Term{{UID: "B"}, {UID: "C", RelatedTerms: []*Term{{UID: "D"}}}}},
			{UID: "E"},
		}
		if got := VisitCount(forest); got != 5 {
			t.Errorf("expected 5, got %d", got)
		}
	})

	t.Run("shared subtree is counted per parent", func(t *testing.T) {
		t.Parallel()
		shared := &Term{UID: "S", RelatedTerms: []*Term{{UID: "S1"}}}
		forest := []*Term{
			{UID: "A", RelatedTerms: []*Term{shared}},
			{UID: "B", RelatedTerms: []*Term{shared}},
		}
		if got := VisitCount(forest); got != 6 {
			t.Errorf("expected 6, got %d", got)
		}
	})

	t.Run("nil entries are skipped", func(t *testing.T) {
		t.Parallel()
		forest := []*Term{nil, {UID: "A", RelatedTerms: []*Term{nil}}}
		if got := VisitCount(forest); got != 1 {
			t.Errorf("expected 1, got %d", got)
		}
	})
}

// TestTermUnmarshal tests decoding of the taxonomy service payload.
func TestTermUnmarshal(t *testing.T) {
	t.Parallel()

	payload := `[{"Name":"Alpha","Uid":"A","VocabName":"Topics","RelatedTerms":[{"Name":"Beta","Uid":"B","VocabName":"Topics"}]}]`

	var terms []*Term
	if err := json.Unmarshal([]byte(payload), &terms); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(terms) != 1 {
		t.Fatalf("expected 1 term, got %d", len(terms))
	}
	root := terms[0]
	if root.UID != "A" || root.Name != "Alpha" || root.VocabName != "Topics" {
		t.Errorf("unexpected root term: %+v", root)
	}
	if !root.HasRelatedTerms() {
		t.Fatal("expected related terms")
	}
	if child := root.RelatedTerms[0]; child.UID != "B" || child.Name != "Beta" {
		t.Errorf("unexpected child term: %+v", child)
	}
	if root.RelatedTerms[0].HasRelatedTerms() {
		t.Error("expected child to be a leaf")
	}
}
