package model

// Term is a single taxonomy term and the terms related to it.
// The JSON field names match the taxonomy service payload.
//
// A Term may be reachable from more than one parent through related-term
// links. The tree is treated as read-only after it has been fetched; nothing
// generated during flattening is stored back on the term.
type Term struct {
	// UID is the identifier assigned by the taxonomy service.
	// It is stable but not guaranteed to be unique within a fetched forest.
	UID string `json:"Uid"`

	// Name is the human-readable label of the term.
	Name string `json:"Name"`

	// VocabName is the vocabulary the term belongs to. Informational only.
	VocabName string `json:"VocabName,omitempty"`

	// RelatedTerms are the child terms in source order.
	// A nil and an empty slice both mean "no related terms".
	RelatedTerms []*Term `json:"RelatedTerms,omitempty"`
}

// HasRelatedTerms reports whether the term has at least one related term.
func (t *Term) HasRelatedTerms() bool {
	return t != nil && len(t.RelatedTerms) > 0
}

// VisitCount returns the number of nodes a depth-first walk over terms
// visits. A term reachable through N related-term links counts N times.
// Nil entries are skipped.
func VisitCount(terms []*Term) int {
	count := 0
	for _, t := range terms {
		if t == nil {
			continue
		}
		count++
		count += VisitCount(t.RelatedTerms)
	}
	return count
}
