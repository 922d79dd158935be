// Package directory holds the hierarchical reference data of Atrium Core:
// system menus and departments, both flat self-referencing record sets, and
// the generic tree builder that nests them.
//
// The tree builder sorts the whole flat set once by (order, created_at) and
// then partitions recursively, so sibling order is consistent at every level.
// Leaves carry no children key in JSON output.
package directory
