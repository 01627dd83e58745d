package armerge

import (
	"regexp"
)

// filterRequiredObjects implements ObjectSymbolIndex + DependencyGraph +
// ReachabilityFilter end to end: parse every object's symbols, build the
// dependency graph, then keep exactly the objects transitively reachable
// from those flagged has-kept-export. Returns ErrNoObjectsLeft if nothing
// survives.
func filterRequiredObjects(objects []string, keepOrRemove KeepOrRemove, regexes []*regexp.Regexp, log Logger) (map[string]*symbolFact, error) {
	log = loggerOrNoop(log)

	facts, err := buildSymbolFacts(objects, keepOrRemove, regexes)
	if err != nil {
		return nil, err
	}

	graph := buildDependencyGraph(facts)

	var roots []string
	for path, fact := range facts {
		if fact.hasKeptExport {
			roots = append(roots, path)
			log.Infof("will merge %q and its dependencies, as it contains global kept symbols", objectNameFromPath(path))
		}
	}

	keep := reachable(graph, roots)

	for path := range facts {
		if !keep[path] {
			log.Infof("%q is not used by any kept objects, it will be skipped", objectNameFromPath(path))
		}
	}

	if len(keep) == 0 {
		return nil, ErrNoObjectsLeft
	}

	required := make(map[string]*symbolFact, len(keep))
	for path := range keep {
		required[path] = facts[path]
	}
	return required, nil
}
