// Package pipeline builds and queries the shared dependency graph that a
// generation run operates on.
//
// The graph is a forest in the loose sense: multiple independent roots may be
// declared, but subgraphs reachable from more than one root are shared, not
// copied. Nodes live in a flat table keyed by content hash, and edges are
// stored as hash references in both directions, which makes deduplication a
// table lookup and keeps the structure free of ownership cycles.
//
// A Graph is immutable once Build returns. Per-run mutable state, such as the
// pruning status of each node, lives outside this package in separate
// hash-keyed maps.
package pipeline
