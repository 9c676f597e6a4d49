// Package model defines the core data structures used throughout taxocrawl.
//
// This package contains the following main types:
//   - Term: One taxonomy term as returned by the taxonomy service
//   - DimensionNode: One flattened visit of a term, ready for XML output
//   - Run: The state and outcome of a single crawl run
//
// Models live in their own package so that fetch, flatten, dimension,
// pipeline and database can share them without import cycles.
package model
