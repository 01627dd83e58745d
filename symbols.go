package armerge

import (
	"debug/elf"
	"debug/macho"
	"os"
	"regexp"
)

// KeepOrRemove selects which direction the KeepPolicy regexes apply: either
// an allowlist of symbols to keep global (localizing everything else), or a
// denylist of symbols to localize (keeping everything else global).
type KeepOrRemove int

const (
	KeepMatching KeepOrRemove = iota
	RemoveMatching
)

// symbolKind collapses every object-format-specific symbol kind down to the
// three buckets that matter for retention and localization; Unknown is
// included on purpose, since hand-written assembly frequently produces
// symbols with no recognizable kind.
type symbolKind int

const (
	symText symbolKind = iota
	symData
	symUnknown
	symOther // anything else: ignored entirely
)

// symbolFact is the per-object SymbolFact: the defined and undefined name
// sets, and whether this object alone justifies retention under the active
// KeepPolicy.
type symbolFact struct {
	path           string
	definedGlobals map[string]bool // global or weak, defined
	undefined      map[string]bool
	hasKeptExport  bool
}

// buildSymbolFact parses one object file and produces its SymbolFact. Only
// Text/Data/Unknown-kind symbols are considered.
func buildSymbolFact(path string, keepOrRemove KeepOrRemove, regexes []*regexp.Regexp) (*symbolFact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &InvalidObjectError{Path: path, Err: err}
	}

	syms, err := parseObjectSymbols(data)
	if err != nil {
		return nil, &InvalidObjectError{Path: path, Err: err}
	}

	fact := &symbolFact{
		path:           path,
		definedGlobals: make(map[string]bool),
		undefined:      make(map[string]bool),
	}

	for _, s := range syms {
		if s.kind != symText && s.kind != symData && s.kind != symUnknown {
			continue
		}

		if s.name == "" {
			continue
		}

		if s.undefined {
			fact.undefined[s.name] = true
		} else if s.global || s.weak {
			fact.definedGlobals[s.name] = true
		}

		// "has kept export" is evaluated independently, only for symbols
		// that are global, defined, and named.
		if !s.global || s.undefined {
			continue
		}
		for _, re := range regexes {
			matches := re.MatchString(s.name)
			keepCondition := matches
			if keepOrRemove == RemoveMatching {
				keepCondition = !matches
			}
			if keepCondition {
				fact.hasKeptExport = true
				break
			}
		}
	}

	return fact, nil
}

// genericSymbol is the format-neutral view one raw symbol is reduced to
// before kind/bucket classification.
type genericSymbol struct {
	name      string
	kind      symbolKind
	global    bool
	weak      bool
	undefined bool
}

// parseObjectSymbols dispatches to the ELF or Mach-O symbol reader
// depending on the object's magic bytes. Anything else is reported as
// InvalidObject, matching armerge's object::Error path. A run whose
// ArchiveContents is Other never gets here: runMerge (objects.go) packs it
// as a passthrough merge instead. A Mixed run that includes an object of
// neither format fails here.
func parseObjectSymbols(data []byte) ([]genericSymbol, error) {
	switch classifyObject(firstSixteen(data)) {
	case ContentsELF:
		return parseELFSymbols(data)
	case ContentsMachO:
		return parseMachOSymbols(data)
	default:
		return nil, errUnsupportedObjectFormat
	}
}

func firstSixteen(data []byte) [16]byte {
	var hint [16]byte
	copy(hint[:], data)
	return hint
}

func parseELFSymbols(data []byte) ([]genericSymbol, error) {
	f, err := elf.NewFile(bytesReaderAt(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	syms, err := f.Symbols()
	if err != nil && len(syms) == 0 {
		// A relocatable object with no .symtab at all is degenerate but not
		// an error: it simply contributes nothing.
		syms = nil
	}

	out := make([]genericSymbol, 0, len(syms))
	for _, s := range syms {
		bind := elf.ST_BIND(s.Info)
		typ := elf.ST_TYPE(s.Info)

		g := genericSymbol{
			name:      s.Name,
			undefined: s.Section == elf.SHN_UNDEF,
			global:    bind == elf.STB_GLOBAL,
			weak:      bind == elf.STB_WEAK,
		}
		switch typ {
		case elf.STT_FUNC:
			g.kind = symText
		case elf.STT_OBJECT:
			g.kind = symData
		case elf.STT_NOTYPE:
			g.kind = symUnknown
		default:
			g.kind = symOther
		}
		out = append(out, g)
	}
	return out, nil
}

func parseMachOSymbols(data []byte) ([]genericSymbol, error) {
	f, err := macho.NewFile(bytesReaderAt(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if f.Symtab == nil {
		return nil, nil
	}

	out := make([]genericSymbol, 0, len(f.Symtab.Syms))
	for _, s := range f.Symtab.Syms {
		const (
			nExt  = 0x01 // N_EXT: external symbol
			nType = 0x0e // N_TYPE mask
			nUndf = 0x00
			nSect = 0x0e
		)
		isExternal := s.Type&nExt != 0
		typeField := s.Type & nType

		g := genericSymbol{
			name:      s.Name,
			global:    isExternal,
			undefined: typeField == nUndf && s.Sect == 0,
		}
		if g.undefined {
			g.kind = symUnknown
		} else if typeField == nSect {
			g.kind = symUnknown // Mach-O doesn't cheaply distinguish text/data here
		} else {
			g.kind = symOther
		}
		out = append(out, g)
	}
	return out, nil
}
