package pipeline

// TopoLevels partitions the graph into stages consistent with a valid
// topological ordering. Level 0 holds the leaves (nodes with no
// dependencies); every other node sits one level above its deepest
// dependency, so a node never shares a level with, or sits below, anything
// it depends on. Within a level, identities are sorted by (name, hash), so
// the result is deterministic for a given graph.
func (g *Graph) TopoLevels() [][]string {
	if len(g.nodes) == 0 {
		return nil
	}

	level := make(map[string]int, len(g.nodes))
	remaining := make(map[string]int, len(g.nodes))

	var ready []string
	for id, n := range g.nodes {
		remaining[id] = len(n.deps)
		if len(n.deps) == 0 {
			ready = append(ready, id)
			level[id] = 0
		}
	}

	maxLevel := 0
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]

		for dependent := range g.nodes[id].dependents {
			if level[id]+1 > level[dependent] {
				level[dependent] = level[id] + 1
			}
			remaining[dependent]--
			if remaining[dependent] == 0 {
				ready = append(ready, dependent)
				if level[dependent] > maxLevel {
					maxLevel = level[dependent]
				}
			}
		}
	}

	levels := make([][]string, maxLevel+1)
	for id, lvl := range level {
		levels[lvl] = append(levels[lvl], id)
	}
	for _, ids := range levels {
		g.sortIDs(ids)
	}
	return levels
}

// LevelIndex returns a map from node identity to topological level, computed
// once. Callers that need per-node levels for every node should prefer this
// over repeated TopoLevels scans.
func (g *Graph) LevelIndex() map[string]int {
	index := make(map[string]int, len(g.nodes))
	for lvl, ids := range g.TopoLevels() {
		for _, id := range ids {
			index[id] = lvl
		}
	}
	return index
}
