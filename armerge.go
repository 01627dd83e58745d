// Package armerge implements the symbol-aware merge engine: it combines
// several ar-format static libraries into one, optionally localizing every
// global symbol that doesn't match a caller-supplied keep policy. See
// SPEC_FULL.md for the full design.
package armerge

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/arl/armerge/internal/arbuilder"
)

// ArMerger holds the extracted contents of a set of input static libraries,
// ready to be merged either verbatim or with symbol localization. Each
// value owns a scratch directory that MUST be released via its merge method
// (every merge method releases it on every exit path) or, if no merge is
// ever attempted, by calling Close directly.
type ArMerger struct {
	extracted ExtractedArchive
	builder   arBuilder
	log       Logger

	useBuiltinFilter bool
}

// Option configures an ArMerger at construction time.
type Option func(*ArMerger)

// WithLogger supplies the Logger used for informational output (e.g. which
// objects were dropped by the reachability filter). Passing nil (the
// default) disables logging.
func WithLogger(l Logger) Option {
	return func(m *ArMerger) { m.log = loggerOrNoop(l) }
}

// WithBuiltinELFFilter selects the builtin in-process ELF symbol rewriter
// instead of shelling out to $OBJCOPY. Only applies to ELF inputs; other
// formats ignore it. On ELF inputs under RemoveMatching, the merge fails with
// an InternalError, since the builtin rewriter only supports KeepMatching.
func WithBuiltinELFFilter() Option {
	return func(m *ArMerger) { m.useBuiltinFilter = true }
}

// New opens and extracts the contents of the given input libraries into a
// fresh scratch directory, and selects the output archive builder
// appropriate for the detected object format.
func New(libs []InputLibrary, output string, opts ...Option) (*ArMerger, error) {
	extracted, err := extractObjects(libs)
	if err != nil {
		return nil, err
	}

	m := &ArMerger{extracted: extracted, log: noopLogger{}}
	for _, opt := range opts {
		opt(m)
	}

	builder, err := createArBuilder(extracted.Contents, output, m.log)
	if err != nil {
		extracted.Objects.Close()
		return nil, err
	}
	m.builder = builder
	return m, nil
}

// NewFromPaths is New, but opens each input path as a file and derives a
// display name from its base name (slashes replaced with underscores, so a
// path component never collides with the "@" scratch-name separator).
func NewFromPaths(inputPaths []string, output string, opts ...Option) (*ArMerger, error) {
	libs := make([]InputLibrary, 0, len(inputPaths))
	var openFiles []*os.File
	closeAll := func() {
		for _, f := range openFiles {
			f.Close()
		}
	}

	for _, path := range inputPaths {
		f, err := os.Open(path)
		if err != nil {
			closeAll()
			return nil, &ProcessInputError{Op: "open", Name: path, Err: err}
		}
		openFiles = append(openFiles, f)

		name := strings.ReplaceAll(baseName(path), "/", "_")
		libs = append(libs, NewInputLibrary(name, f))
	}

	m, err := New(libs, output, opts...)
	closeAll()
	return m, err
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}

func createArBuilder(contents ArchiveContents, output string, log Logger) (arBuilder, error) {
	switch contents {
	case ContentsEmpty:
		return nil, ErrEmptyInput
	case ContentsELF:
		return arbuilder.NewCommonBuilder(output), nil
	case ContentsMachO:
		return arbuilder.NewMacBuilder(output), nil
	case ContentsOther:
		log.Infof("input archives contain neither ELF nor Mach-O files, trying to continue with your host toolchain")
		return arbuilder.HostPlatformBuilder(output), nil
	case ContentsMixed:
		log.Infof("input archives contain different object file formats, trying to continue with your host toolchain")
		return arbuilder.HostPlatformBuilder(output), nil
	default:
		return nil, fmt.Errorf("unknown archive contents classification %v", contents)
	}
}

// ArchiveContents reports the object file format detected across all input
// archives.
func (m *ArMerger) ArchiveContents() ArchiveContents { return m.extracted.Contents }

// Close releases the scratch directory without performing any merge. It is
// safe to call after a merge method has already released it.
func (m *ArMerger) Close() error { return m.extracted.Objects.Close() }

// MergeSimple re-packs the extracted object files into the output archive
// verbatim, without localizing any symbols and without invoking a linker:
// the ArchivePackager's Passthrough mode.
func (m *ArMerger) MergeSimple() error {
	defer m.extracted.Objects.Close()
	return mergePassthrough(m.builder, m.extracted.Objects)
}

// MergeAndLocalize merges the input libraries and localizes every symbol
// that the given KeepPolicy (keepOrRemove + symbolRegexes) says should not
// remain global, in discovery order.
func (m *ArMerger) MergeAndLocalize(keepOrRemove KeepOrRemove, symbolRegexes []*regexp.Regexp) error {
	return m.MergeAndLocalizeOrdered(keepOrRemove, symbolRegexes, nil)
}

// MergeAndLocalizeOrdered is MergeAndLocalize, additionally sorting the
// retained objects according to objectOrder (a list of base names; unlisted
// objects are appended in stable discovery order).
func (m *ArMerger) MergeAndLocalizeOrdered(keepOrRemove KeepOrRemove, symbolRegexes []*regexp.Regexp, objectOrder []string) error {
	defer m.extracted.Objects.Close()
	return runMerge(mergeParams{
		builder:      m.builder,
		contents:     m.extracted.Contents,
		objects:      m.extracted.Objects,
		keepOrRemove: keepOrRemove,
		regexes:      symbolRegexes,
		order:        buildOrderIndex(objectOrder),
		log:          loggerOrNoop(m.log),
		useBuiltin:   m.useBuiltinFilter,
	})
}
