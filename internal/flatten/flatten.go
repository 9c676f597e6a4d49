// Package flatten turns a taxonomy forest into the flat, ordered list of
// dimension nodes written to the dimension file.
//
// The walk is depth-first and pre-order: a term is emitted before its
// related terms, and related terms keep their source order. Every visit
// gets a freshly generated id. A term reachable from two parents is
// therefore emitted twice, each time with its own id and unique path.
package flatten

import (
	"slices"

	"github.com/google/uuid"
	"github.com/nao1215/taxocrawl/internal/model"
)

// IDGenerator produces the identifiers assigned to each visit.
// Implementations must not return the same id twice within a run.
type IDGenerator interface {
	NextID() string
}

// IDGeneratorFunc adapts a plain function to IDGenerator.
type IDGeneratorFunc func() string

// NextID calls f.
func (f IDGeneratorFunc) NextID() string {
	return f()
}

// UUIDGenerator generates random (version 4) UUID strings.
type UUIDGenerator struct{}

// NextID returns a new random UUID.
func (UUIDGenerator) NextID() string {
	return uuid.NewString()
}

// Flattener walks taxonomy forests. It holds no per-walk state and can be
// reused.
type Flattener struct {
	ids IDGenerator
}

// New creates a Flattener using ids for visit identifiers.
// A nil ids falls back to UUIDGenerator.
func New(ids IDGenerator) *Flattener {
	if ids == nil {
		ids = UUIDGenerator{}
	}
	return &Flattener{ids: ids}
}

// Flatten returns one DimensionNode per visit of roots.
// Top-level visits have dimension as their parent. The source terms are
// not modified.
func (f *Flattener) Flatten(dimension string, roots []*model.Term) []model.DimensionNode {
	nodes := make([]model.DimensionNode, 0, model.VisitCount(roots))
	return f.walk(nodes, roots, dimension, nil)
}

// walk appends the visits of terms and their descendants to nodes.
// basePath is the unique path of the parent visit and is never mutated.
func (f *Flattener) walk(nodes []model.DimensionNode, terms []*model.Term, parent string, basePath []string) []model.DimensionNode {
	for _, term := range terms {
		if term == nil {
			continue
		}

		id := f.ids.NextID()
		path := append(slices.Clip(basePath), id)

		nodes = append(nodes, model.DimensionNode{
			ID:         id,
			Name:       term.Name,
			Parent:     parent,
			UID:        term.UID,
			UniquePath: path,
		})

		if term.HasRelatedTerms() {
			nodes = f.walk(nodes, term.RelatedTerms, id, path)
		}
	}
	return nodes
}
