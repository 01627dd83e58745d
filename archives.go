package armerge

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/blakesmith/ar"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ArchiveContents classifies the object file format found while extracting
// an archive, per a small monoid: Empty is the
// identity element, equal classes combine to themselves, and any mismatch
// (other than Empty) collapses to Mixed.
type ArchiveContents int

const (
	ContentsEmpty ArchiveContents = iota
	ContentsELF
	ContentsMachO
	ContentsOther
	ContentsMixed
)

func (c ArchiveContents) String() string {
	switch c {
	case ContentsEmpty:
		return "empty"
	case ContentsELF:
		return "elf"
	case ContentsMachO:
		return "macho"
	case ContentsOther:
		return "other"
	case ContentsMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// mergeContents implements the FormatClass monoid: identity = Empty,
// Empty∘x = x, x∘x = x, otherwise Mixed.
func mergeContents(a, b ArchiveContents) ArchiveContents {
	switch {
	case a == ContentsMixed || b == ContentsMixed:
		return ContentsMixed
	case a == ContentsEmpty:
		return b
	case b == ContentsEmpty:
		return a
	case a == b:
		return a
	default:
		return ContentsMixed
	}
}

// magic byte prefixes used to classify an object's format from its first 16
// bytes, without invoking a full ELF/Mach-O parser on what may be malformed
// input.
var (
	elfMagic     = []byte{0x7f, 'E', 'L', 'F'}
	machO32      = []byte{0xfe, 0xed, 0xfa, 0xce}
	machO64      = []byte{0xfe, 0xed, 0xfa, 0xcf}
	machO32Rev   = []byte{0xce, 0xfa, 0xed, 0xfe}
	machO64Rev   = []byte{0xcf, 0xfa, 0xed, 0xfe}
	machOFat     = []byte{0xca, 0xfe, 0xba, 0xbe}
	machOFatRev  = []byte{0xbe, 0xba, 0xfe, 0xca}
)

func hasPrefix(buf, prefix []byte) bool {
	if len(buf) < len(prefix) {
		return false
	}
	for i, b := range prefix {
		if buf[i] != b {
			return false
		}
	}
	return true
}

// classifyObject inspects a 16-byte header-hint buffer and returns the
// object format it identifies. Malformed or unrecognized magic always
// yields ContentsOther: classification must never fail extraction.
func classifyObject(header [16]byte) ArchiveContents {
	buf := header[:]
	switch {
	case hasPrefix(buf, elfMagic):
		return ContentsELF
	case hasPrefix(buf, machO32), hasPrefix(buf, machO64),
		hasPrefix(buf, machO32Rev), hasPrefix(buf, machO64Rev),
		hasPrefix(buf, machOFat), hasPrefix(buf, machOFatRev):
		return ContentsMachO
	default:
		return ContentsOther
	}
}

// ObjectTempDir is the ScratchDirectory: a directory exclusively owned by
// one merge run, holding every object extracted from the input libraries.
// It must be released via Close on every exit path.
type ObjectTempDir struct {
	Dir     string
	Objects []string // paths, in stable discovery order
}

// Close recursively removes the scratch directory. It is safe to call on a
// zero-value or already-closed ObjectTempDir.
func (d *ObjectTempDir) Close() error {
	if d == nil || d.Dir == "" {
		return nil
	}
	return os.RemoveAll(d.Dir)
}

// ExtractedArchive is the result of extracting every member from every
// input library: a scratch directory of objects, and the aggregate format
// classification of those objects.
type ExtractedArchive struct {
	Objects  ObjectTempDir
	Contents ArchiveContents
}

// extractObjects streams every member out of every input library into a
// fresh scratch directory, in parallel across libraries (members within one
// library are processed sequentially, since archive iteration is stateful).
// Results are merge-reduced in library order: this is the data-parallel
// region for extraction, with one goroutine per input library.
func extractObjects(libs []InputLibrary) (ExtractedArchive, error) {
	dir, err := os.MkdirTemp("", "armerge.")
	if err != nil {
		return ExtractedArchive{}, &ProcessInputError{Op: "tempdir", Err: err}
	}

	perLib := make([][]string, len(libs))
	perLibContents := make([]ArchiveContents, len(libs))

	g := new(errgroup.Group)
	for i, lib := range libs {
		i, lib := i, lib
		g.Go(func() error {
			objs, contents, err := extractOneLibrary(dir, lib)
			if err != nil {
				return err
			}
			perLib[i] = objs
			perLibContents[i] = contents
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		os.RemoveAll(dir)
		return ExtractedArchive{}, err
	}

	var objects []string
	contents := ContentsEmpty
	for i := range libs {
		objects = append(objects, perLib[i]...)
		contents = mergeContents(contents, perLibContents[i])
	}

	return ExtractedArchive{
		Objects:  ObjectTempDir{Dir: dir, Objects: objects},
		Contents: contents,
	}, nil
}

// extractOneLibrary streams every member of one ar archive into dir, naming
// each with a collision-resistant filename so concurrent extraction never collides.
func extractOneLibrary(dir string, lib InputLibrary) ([]string, ArchiveContents, error) {
	reader := ar.NewReader(lib.Reader)
	var objects []string
	contents := ContentsEmpty

	for {
		header, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, ContentsEmpty, &ProcessInputError{Op: "read", Name: lib.Name, Err: err}
		}

		token := uuid.New().String()[:8]
		objPath := filepath.Join(dir, fmt.Sprintf("%s@%s.%s.o", lib.Name, header.Name, token))

		var hint [16]byte
		n, err := io.ReadFull(reader, hint[:])
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return nil, ContentsEmpty, &ProcessInputError{Op: "read", Name: lib.Name, Err: err}
		}
		contents = mergeContents(contents, classifyObject(hint))

		if err := writeObject(objPath, hint[:n], reader); err != nil {
			return nil, ContentsEmpty, &ProcessInputError{Op: "extract", Name: objPath, Err: err}
		}
		objects = append(objects, objPath)
	}

	return objects, contents, nil
}

func writeObject(path string, hint []byte, rest io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(hint); err != nil {
		return err
	}
	_, err = io.Copy(f, rest)
	return err
}

// objectNameFromPath recovers the library-qualified base name embedded in a
// scratch filename of the form "<lib>@<member>.<token>.o", stripping the
// trailing ".<token>.o" suffix added during extraction.
func objectNameFromPath(path string) string {
	base := filepath.Base(path)
	// Strip exactly the last two dot-separated components ("<token>.o").
	for i := 0; i < 2; i++ {
		if idx := lastDot(base); idx >= 0 {
			base = base[:idx]
		}
	}
	return base
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}

// mergePassthrough appends every extracted object as its own archive member
// and finalizes the index: the no-KeepPolicy flow (ArchivePackager's
// Passthrough mode).
func mergePassthrough(builder arBuilder, objects ObjectTempDir) error {
	for _, obj := range objects.Objects {
		if err := builder.AppendObj(obj); err != nil {
			return err
		}
	}
	return builder.Close()
}
