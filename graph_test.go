package armerge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fact(path string, defined, undefined []string, keptExport bool) *symbolFact {
	f := &symbolFact{
		path:           path,
		definedGlobals: make(map[string]bool),
		undefined:      make(map[string]bool),
		hasKeptExport:  keptExport,
	}
	for _, n := range defined {
		f.definedGlobals[n] = true
	}
	for _, n := range undefined {
		f.undefined[n] = true
	}
	return f
}

func TestBuildDependencyGraphEdgesAndNoSelfEdges(t *testing.T) {
	facts := map[string]*symbolFact{
		"a.o": fact("a.o", []string{"pub"}, []string{"aux"}, true),
		"b.o": fact("b.o", []string{"aux"}, nil, false),
		"c.o": fact("c.o", []string{"dead"}, nil, false),
	}

	graph := buildDependencyGraph(facts)

	assert.True(t, graph["a.o"]["b.o"])
	assert.False(t, graph["a.o"]["a.o"], "no self-edges")
	assert.False(t, graph["a.o"]["c.o"])
	assert.Empty(t, graph["b.o"])
	assert.Empty(t, graph["c.o"])
}

func TestReachableClosureOverCycle(t *testing.T) {
	// a -> b -> c -> b (cycle between b and c); reachability from {a} must
	// still terminate and include b and c.
	graph := dependencyGraph{
		"a.o": {"b.o": true},
		"b.o": {"c.o": true},
		"c.o": {"b.o": true},
		"d.o": {}, // unreachable
	}

	got := reachable(graph, []string{"a.o"})
	assert.True(t, got["a.o"])
	assert.True(t, got["b.o"])
	assert.True(t, got["c.o"])
	assert.False(t, got["d.o"])
}

func TestReachableDeadCodePruning(t *testing.T) {
	// Mirrors scenario S3: a.o defines pub and calls aux; b.o defines aux;
	// c.o defines an unused symbol with no incoming edge.
	facts := map[string]*symbolFact{
		"a.o": fact("a.o", []string{"pub"}, []string{"aux"}, true),
		"b.o": fact("b.o", []string{"aux"}, nil, false),
		"c.o": fact("c.o", []string{"dead"}, nil, false),
	}
	graph := buildDependencyGraph(facts)

	var roots []string
	for path, f := range facts {
		if f.hasKeptExport {
			roots = append(roots, path)
		}
	}
	keep := reachable(graph, roots)

	assert.True(t, keep["a.o"])
	assert.True(t, keep["b.o"])
	assert.False(t, keep["c.o"])
}
