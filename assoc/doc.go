// Package assoc holds the association graph: URL schemes, file extensions,
// handlers, applications, and their shell verbs.
//
// A Graph is built in one pass by package scan and then published as a
// whole. Records are not modified after publication, so a reader holding a
// *Graph sees a consistent state for as long as it keeps the pointer.
//
// Every map in the graph is keyed by the Unicode case-folded form of the
// record's identifier (see internal/ustr.Fold).
package assoc
