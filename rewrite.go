package armerge

import (
	"os"
	"regexp"

	"github.com/arl/armerge/internal/objformat"
)

// RewriterBackend selects which SymbolRewriter implementation localizes
// symbols in the merged object.
type RewriterBackend int

const (
	// ExternalObjcopyBackend shells out to $OBJCOPY --localize-symbols.
	// Works for both KeepMatching and RemoveMatching.
	ExternalObjcopyBackend RewriterBackend = iota
	// BuiltinELFBackend rewrites the ELF symbol table in-process. Only
	// supports KeepMatching; RemoveMatching requests fail cleanly.
	BuiltinELFBackend
)

// filterSymbolsExternal localizes the symbols named in filterListPath by
// invoking $OBJCOPY --localize-symbols, the external-tool SymbolRewriter
// backend.
func filterSymbolsExternal(objectPath, filterListPath string) error {
	objcopy := envOr("OBJCOPY", "llvm-objcopy")
	args := []string{"--localize-symbols", filterListPath, objectPath}
	_, err := runToolNamed("Failed to filter symbols", objcopy, args)
	return err
}

// filterSymbolsBuiltin is the builtin ELF-only SymbolRewriter backend: it
// reads the merged object, demotes every global/weak symbol that should be
// localized under the given KeepPolicy, and writes the result back in
// place. Returns the set of symbol names actually localized, which the
// caller passes on to the section-group demoter.
func filterSymbolsBuiltin(objectPath string, keepOrRemove KeepOrRemove, regexes []*regexp.Regexp) (map[string]bool, error) {
	if keepOrRemove == RemoveMatching {
		return nil, &InternalError{
			Context: "builtin filter",
			Err:     errBuiltinRemoveUnsupported,
		}
	}

	data, err := os.ReadFile(objectPath)
	if err != nil {
		return nil, err
	}

	shouldLocalize := func(name string) bool {
		for _, re := range regexes {
			if re.MatchString(name) {
				return false // matches a keep-regex: stays global
			}
		}
		return true
	}

	localized, err := objformat.LocalizeSymbols(data, shouldLocalize)
	if err != nil {
		return nil, &InternalError{Context: "localizing ELF symbols", Err: err}
	}

	if err := os.WriteFile(objectPath, data, 0644); err != nil {
		return nil, err
	}
	return localized, nil
}
