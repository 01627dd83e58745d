package armerge

import (
	"os"
	"path/filepath"
	"regexp"
)

// buildSymbolFilterList walks every retained object's symbol table and
// writes the newline-separated, deduplicated list of symbol names the
// post-link rewriter must localize. It returns the path
// of the written file and, for logging purposes, how many globals were
// kept.
func buildSymbolFilterList(objectDir string, objects []string, keepOrRemove KeepOrRemove, regexes []*regexp.Regexp, log Logger) (string, int, error) {
	filterPath := filepath.Join(objectDir, "localize.syms")

	toLocalize := make(map[string]bool)
	kept := 0

	for _, objPath := range objects {
		data, err := os.ReadFile(objPath)
		if err != nil {
			return "", 0, &InvalidObjectError{Path: objPath, Err: err}
		}
		syms, err := parseObjectSymbols(data)
		if err != nil {
			return "", 0, &InvalidObjectError{Path: objPath, Err: err}
		}

		for _, s := range syms {
			localize, isKept, applies := symbolFilterDecision(s, keepOrRemove, regexes)
			if !applies {
				continue
			}
			if localize {
				toLocalize[s.name] = true
			}
			if isKept {
				kept++
			}
		}
	}

	if err := writeSymbolList(filterPath, toLocalize); err != nil {
		return "", 0, &WritingArchiveError{Err: err}
	}

	loggerOrNoop(log).Infof("localizing %d symbols, keeping %d globals", len(toLocalize), kept)

	return filterPath, kept, nil
}

// symbolFilterDecision applies the per-symbol keep/localize predicate. applies
// reports whether the symbol is even a candidate (kind filter, and under
// KeepMatching also the global/defined/non-undefined constraint); when
// applies is false the caller must skip the symbol entirely. localize and
// isKept are mutually exclusive among applicable symbols.
func symbolFilterDecision(s genericSymbol, keepOrRemove KeepOrRemove, regexes []*regexp.Regexp) (localize, isKept, applies bool) {
	if s.kind != symText && s.kind != symData && s.kind != symUnknown {
		return false, false, false
	}
	if keepOrRemove == KeepMatching && (!s.global || s.undefined) {
		return false, false, false
	}
	if s.name == "" {
		return false, false, false
	}

	matched := false
	for _, re := range regexes {
		if re.MatchString(s.name) {
			matched = true
			break
		}
	}

	switch keepOrRemove {
	case KeepMatching:
		if matched {
			return false, true, true
		}
		return true, false, true
	case RemoveMatching:
		if matched {
			return true, false, true
		}
		return false, true, true
	default:
		return false, false, false
	}
}

// localizedNamesFromFilterList re-reads a previously written symbol filter
// list, for callers that need the localized-name set after the fact (e.g.
// to drive SectionGroupDemoter once the external-tool rewriter backend has
// already consumed the file).
func localizedNamesFromFilterList(path string) (map[string]bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool)
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				names[string(data[start:i])] = true
			}
			start = i + 1
		}
	}
	if start < len(data) {
		names[string(data[start:])] = true
	}
	return names, nil
}

func writeSymbolList(path string, names map[string]bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	for name := range names {
		if _, err := f.WriteString(name + "\n"); err != nil {
			return err
		}
	}
	return nil
}
