package armerge

import (
	"path/filepath"
	"regexp"
)

// unwindRegex protects stack-unwinding entry points: appended to the
// KeepPolicy's regex list BEFORE reachability is evaluated, so that an
// object containing only unwind symbols can anchor its own retention (and
// that of its dependencies).
var unwindRegex = regexp.MustCompile(`^_?_Unwind_.*`)

// personalityRegex protects language personality routines: appended AFTER
// reachability is evaluated, so they survive localization but are never by
// themselves sufficient to root an object's retention. This split is
// intentional and load-bearing.
var personalityRegex = regexp.MustCompile(`_?__g.._personality_.*`)

// mergeParams bundles everything runMerge needs; it exists mainly so
// MergeAndLocalizeOrdered doesn't need an 8-argument call.
type mergeParams struct {
	builder      arBuilder
	contents     ArchiveContents
	objects      ObjectTempDir
	keepOrRemove KeepOrRemove
	regexes      []*regexp.Regexp
	order        orderIndex
	log          Logger
	useBuiltin   bool
}

// runMerge is the MergeOrchestrator's hide-symbols flow: INDEX_SYMBOLS →
// BUILD_GRAPH → FILTER → ORDER → MERGE_RELOCATABLE → REWRITE_SYMBOLS →
// DEMOTE_GROUPS → PACKAGE_MERGED → INDEX. When no object is ELF or Mach-O
// (ArchiveContents Other), symbols can't be read, so every object is packed
// as is, without localizing any symbol.
func runMerge(p mergeParams) error {
	if p.contents == ContentsOther {
		p.log.Infof("objects are neither ELF nor Mach-O, merging them without localizing any symbol")
		return mergePassthrough(p.builder, p.objects)
	}

	mergedPath := filepath.Join(p.objects.Dir, "merged.o")

	regexes := append([]*regexp.Regexp(nil), p.regexes...)
	if p.keepOrRemove == KeepMatching {
		regexes = append(regexes, unwindRegex)
	}

	required, err := filterRequiredObjects(p.objects.Objects, p.keepOrRemove, regexes, p.log)
	if err != nil {
		return err
	}

	discoveryOrder := make(map[string]int, len(p.objects.Objects))
	for i, path := range p.objects.Objects {
		discoveryOrder[path] = i
	}

	requiredPaths := make([]string, 0, len(required))
	for path := range required {
		requiredPaths = append(requiredPaths, path)
	}
	sorted := sortObjects(requiredPaths, discoveryOrder, p.order)

	if p.keepOrRemove == KeepMatching {
		// Personality routines must survive localization but must not, by
		// themselves, justify retaining an object: hence added only now,
		// after the reachability filter has already run.
		regexes = append(regexes, personalityRegex)
	}

	if err := mergeRequiredObjects(p.contents, p.objects.Dir, mergedPath, sorted, p.keepOrRemove, regexes, p.useBuiltin, p.log); err != nil {
		return err
	}

	if err := p.builder.AppendObj(mergedPath); err != nil {
		return &WritingArchiveError{Err: err}
	}
	return p.builder.Close()
}

// mergeRequiredObjects dispatches RelocatableMerger + SymbolRewriter +
// SectionGroupDemoter across three sub-protocols: ELF, Mach-O, and a generic
// external-tool path for everything else.
func mergeRequiredObjects(contents ArchiveContents, objDir, mergedPath string, objects []string, keepOrRemove KeepOrRemove, regexes []*regexp.Regexp, useBuiltin bool, log Logger) error {
	switch contents {
	case ContentsELF:
		return mergeRequiredELFObjects(objDir, mergedPath, objects, keepOrRemove, regexes, useBuiltin, log)
	case ContentsMachO:
		return mergeRequiredMachoObjects(objDir, mergedPath, objects, keepOrRemove, regexes, log)
	default:
		// Mixed (Other never reaches here, see runMerge): fall back to the
		// generic external-tool path. There is
		// no COMDAT concept to demote outside ELF, so that step is skipped.
		return mergeRequiredGenericObjects(objDir, mergedPath, objects, keepOrRemove, regexes, log)
	}
}

func mergeRequiredELFObjects(objDir, mergedPath string, objects []string, keepOrRemove KeepOrRemove, regexes []*regexp.Regexp, useBuiltin bool, log Logger) error {
	if useBuiltin {
		if err := createMergedObject(mergedPath, nil, objects); err != nil {
			return err
		}
		localized, err := filterSymbolsBuiltin(mergedPath, keepOrRemove, regexes)
		if err != nil {
			return err
		}
		return demoteELFComdatGroups(mergedPath, localized)
	}

	filterPath, _, err := buildSymbolFilterList(objDir, objects, keepOrRemove, regexes, log)
	if err != nil {
		return err
	}
	if err := createFilteredMergedObject(mergedPath, objects); err != nil {
		return err
	}
	if err := filterSymbolsExternal(mergedPath, filterPath); err != nil {
		return err
	}

	localized, err := localizedNamesFromFilterList(filterPath)
	if err != nil {
		return err
	}
	return demoteELFComdatGroups(mergedPath, localized)
}

func mergeRequiredMachoObjects(objDir, mergedPath string, objects []string, keepOrRemove KeepOrRemove, regexes []*regexp.Regexp, log Logger) error {
	filterPath, _, err := buildSymbolFilterList(objDir, objects, keepOrRemove, regexes, log)
	if err != nil {
		return err
	}
	return createFilteredMergedMachoObject(mergedPath, objects, filterPath)
}

func mergeRequiredGenericObjects(objDir, mergedPath string, objects []string, keepOrRemove KeepOrRemove, regexes []*regexp.Regexp, log Logger) error {
	filterPath, _, err := buildSymbolFilterList(objDir, objects, keepOrRemove, regexes, log)
	if err != nil {
		return err
	}
	if err := createFilteredMergedObject(mergedPath, objects); err != nil {
		return err
	}
	return filterSymbolsExternal(mergedPath, filterPath)
}
