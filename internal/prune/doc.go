// Package prune decides, per pipeline node, whether the node still needs its
// own build job or can be skipped for this run.
//
// Pruning never touches the graph structure. The outcome of a run is a
// separate status table keyed by node identity; a pruned node stays fully
// queryable so dependents can keep referencing its hash. Policies run in a
// fixed order and a node keeps the status of the first policy that claims
// it.
package prune
