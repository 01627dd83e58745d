package armerge

import "sort"

// orderIndex maps a base name (as recovered by objectNameFromPath) to its
// priority: lower sorts first. Names absent from the order file implicitly
// get +∞ priority, i.e. they sort after every named object.
type orderIndex map[string]int

// buildOrderIndex converts an ordered list of base names (as already parsed
// from the optional order file by an external collaborator) into a priority
// map. Later entries get strictly higher (lower-priority) indices.
func buildOrderIndex(names []string) orderIndex {
	idx := make(orderIndex, len(names))
	for i, name := range names {
		idx[name] = i
	}
	return idx
}

const unordered = int(^uint(0) >> 1) // math.MaxInt, avoiding the import for one constant

// sortObjects orders the retained objects by (orderIndex.get(baseName) ??
// +∞, discovery order). discoveryOrder gives each path its
// position in the original (parallel-extraction-then-concatenated, so
// already deterministic) discovery sequence, which is what makes the sort
// stable in the absence of (or beyond) an order file.
func sortObjects(objects []string, discoveryOrder map[string]int, order orderIndex) []string {
	sorted := make([]string, len(objects))
	copy(sorted, objects)

	priority := func(path string) int {
		name := objectNameFromPath(path)
		if p, ok := order[name]; ok {
			return p
		}
		return unordered
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := priority(sorted[i]), priority(sorted[j])
		if pi != pj {
			return pi < pj
		}
		return discoveryOrder[sorted[i]] < discoveryOrder[sorted[j]]
	})
	return sorted
}
