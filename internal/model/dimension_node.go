package model

import "strings"

// UniquePathSeparator joins the generated ids of a unique path.
const UniquePathSeparator = ","

// DimensionNode is one visit of a Term produced by flattening.
// Each visit gets its own generated ID, so a term reachable from two
// parents yields two DimensionNodes with different IDs and paths.
type DimensionNode struct {
	// ID is the identifier generated for this visit.
	ID string `json:"id"`

	// Name is copied from Term.Name.
	Name string `json:"name"`

	// Parent is the ID of the parent visit, or the dimension name
	// for top-level terms.
	Parent string `json:"parent"`

	// UID is copied from Term.UID. It is emitted as the synonym name
	// and as the SID property.
	UID string `json:"uid"`

	// UniquePath holds the generated ids from the top-level visit down to
	// and including this visit.
	UniquePath []string `json:"unique_path"`
}

// UniquePathString returns the comma-joined unique path.
func (n DimensionNode) UniquePathString() string {
	return strings.Join(n.UniquePath, UniquePathSeparator)
}

// Depth returns the depth of the visit, starting at 1 for top-level terms.
func (n DimensionNode) Depth() int {
	return len(n.UniquePath)
}
