package armerge

import (
	"regexp"

	"golang.org/x/sync/errgroup"
)

// buildSymbolFacts parses every given object's symbol table in parallel
// and returns one symbolFact per object, keyed by
// path.
func buildSymbolFacts(objects []string, keepOrRemove KeepOrRemove, regexes []*regexp.Regexp) (map[string]*symbolFact, error) {
	facts := make([]*symbolFact, len(objects))

	g := new(errgroup.Group)
	for i, obj := range objects {
		i, obj := i, obj
		g.Go(func() error {
			fact, err := buildSymbolFact(obj, keepOrRemove, regexes)
			if err != nil {
				return err
			}
			facts[i] = fact
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*symbolFact, len(objects))
	for i, obj := range objects {
		out[obj] = facts[i]
	}
	return out, nil
}

// dependencyGraph maps an object path to the set of object paths it depends
// on: a directed graph of which objects' undefined symbols are satisfied
// by which other objects' defined symbols.
type dependencyGraph map[string]map[string]bool

// buildDependencyGraph computes, for every object A, the set of objects B
// such that some name A references (undefined) is defined (global or weak)
// by B. This is an embarrassingly-parallel all-pairs computation over the
// symbol-fact map; no self-edges are produced.
func buildDependencyGraph(facts map[string]*symbolFact) dependencyGraph {
	paths := make([]string, 0, len(facts))
	for p := range facts {
		paths = append(paths, p)
	}

	deps := make([][]string, len(paths))
	g := new(errgroup.Group)
	for i, left := range paths {
		i, left := i, left
		g.Go(func() error {
			leftFact := facts[left]
			var found []string
			for _, right := range paths {
				if right == left {
					continue
				}
				if hasDependency(leftFact, facts[right]) {
					found = append(found, right)
				}
			}
			deps[i] = found
			return nil
		})
	}
	_ = g.Wait() // hasDependency never errors

	graph := make(dependencyGraph, len(paths))
	for i, p := range paths {
		set := make(map[string]bool, len(deps[i]))
		for _, d := range deps[i] {
			set[d] = true
		}
		graph[p] = set
	}
	return graph
}

// hasDependency reports whether any name undefined in left is defined
// (global or weak) in right.
func hasDependency(left, right *symbolFact) bool {
	for name := range left.undefined {
		if right.definedGlobals[name] {
			return true
		}
	}
	return false
}

// reachable performs the transitive closure over graph starting from roots,
// guarding against cycles with a visited set. Returns the set of reachable
// object paths, roots included.
func reachable(graph dependencyGraph, roots []string) map[string]bool {
	visited := make(map[string]bool, len(roots))
	var visit func(string)
	visit = func(p string) {
		if visited[p] {
			return
		}
		visited[p] = true
		for dep := range graph[p] {
			visit(dep)
		}
	}
	for _, r := range roots {
		visit(r)
	}
	return visited
}
