package prune

// Status is the per-run pruning state of one pipeline node. Every node
// starts at Keep; the pruner only ever moves a node out of Keep, and at most
// once per run.
type Status int

const (
	// Keep means the node requires its own job in the generated pipeline.
	Keep Status = iota
	// PrunedBroken means the node is externally flagged as known-broken.
	PrunedBroken
	// PrunedAvailable means a cache already satisfies the node, so its hash
	// remains referenceable but no job is emitted.
	PrunedAvailable
	// PrunedUnaffected means the node is outside the affected closure of the
	// externally supplied change set.
	PrunedUnaffected
)

// String returns the human-readable name of the status.
func (s Status) String() string {
	switch s {
	case Keep:
		return "keep"
	case PrunedBroken:
		return "pruned-broken"
	case PrunedAvailable:
		return "pruned-available"
	case PrunedUnaffected:
		return "pruned-unaffected"
	default:
		return "unknown"
	}
}

// Result maps node identity to the status assigned during one pruner run.
type Result map[string]Status

// Status returns the recorded status for a node. Nodes absent from the
// table default to Keep.
func (r Result) Status(id string) Status {
	return r[id]
}

// IsKeep reports whether the node still requires its own job.
func (r Result) IsKeep(id string) bool {
	return r[id] == Keep
}

// KeepCount returns the number of nodes left with status Keep.
func (r Result) KeepCount() int {
	count := 0
	for _, s := range r {
		if s == Keep {
			count++
		}
	}
	return count
}
