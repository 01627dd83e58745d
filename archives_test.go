package armerge

import (
	"bytes"
	"strings"
	"testing"

	"github.com/blakesmith/ar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeContentsMonoid(t *testing.T) {
	cases := []struct {
		a, b ArchiveContents
		want ArchiveContents
	}{
		{ContentsEmpty, ContentsEmpty, ContentsEmpty},
		{ContentsEmpty, ContentsELF, ContentsELF},
		{ContentsMachO, ContentsEmpty, ContentsMachO},
		{ContentsELF, ContentsELF, ContentsELF},
		{ContentsELF, ContentsMachO, ContentsMixed},
		{ContentsMixed, ContentsELF, ContentsMixed},
		{ContentsOther, ContentsOther, ContentsOther},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, mergeContents(c.a, c.b), "mergeContents(%v, %v)", c.a, c.b)
	}
}

func TestClassifyObject(t *testing.T) {
	mk := func(b ...byte) [16]byte {
		var h [16]byte
		copy(h[:], b)
		return h
	}
	assert.Equal(t, ContentsELF, classifyObject(mk(0x7f, 'E', 'L', 'F')))
	assert.Equal(t, ContentsMachO, classifyObject(mk(0xfe, 0xed, 0xfa, 0xce)))
	assert.Equal(t, ContentsMachO, classifyObject(mk(0xcf, 0xfa, 0xed, 0xfe)))
	assert.Equal(t, ContentsOther, classifyObject(mk('P', 'K', 0x03, 0x04)))
	assert.Equal(t, ContentsOther, classifyObject(mk()))
}

func TestObjectNameFromPath(t *testing.T) {
	assert.Equal(t, "liba@a.o", objectNameFromPath("/tmp/armerge.123/liba@a.o.deadbeef.o"))
	assert.Equal(t, "x", objectNameFromPath("x.abcd1234.o"))
}

// buildTestArchive writes an in-memory ar archive with the given named
// members, using the same ar.Writer the output builders use.
func buildTestArchive(t *testing.T, members map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := ar.NewWriter(&buf)
	require.NoError(t, w.WriteGlobalHeader())
	for name, data := range members {
		require.NoError(t, w.WriteHeader(&ar.Header{
			Name: name,
			Size: int64(len(data)),
			Mode: 0644,
		}))
		_, err := w.Write(data)
		require.NoError(t, err)
	}
	return buf.Bytes()
}

func TestExtractObjectsPassthrough(t *testing.T) {
	aData := append([]byte{0x7f, 'E', 'L', 'F'}, []byte("obj-a-payload")...)
	bData := append([]byte{0x7f, 'E', 'L', 'F'}, []byte("obj-b-payload")...)

	libA := buildTestArchive(t, map[string][]byte{"a.o": aData})
	libB := buildTestArchive(t, map[string][]byte{"b.o": bData})

	extracted, err := extractObjects([]InputLibrary{
		NewInputLibrary("liba", bytes.NewReader(libA)),
		NewInputLibrary("libb", bytes.NewReader(libB)),
	})
	require.NoError(t, err)
	defer extracted.Objects.Close()

	assert.Equal(t, ContentsELF, extracted.Contents)
	require.Len(t, extracted.Objects.Objects, 2)

	for _, p := range extracted.Objects.Objects {
		assert.True(t, strings.HasSuffix(p, ".o"))
	}
}

func TestExtractObjectsMixedFormat(t *testing.T) {
	elfData := append([]byte{0x7f, 'E', 'L', 'F'}, []byte("elf-object")...)
	machOData := append([]byte{0xfe, 0xed, 0xfa, 0xcf}, []byte("macho-object")...)

	lib := buildTestArchive(t, map[string][]byte{"a.o": elfData, "b.o": machOData})

	extracted, err := extractObjects([]InputLibrary{NewInputLibrary("mixlib", bytes.NewReader(lib))})
	require.NoError(t, err)
	defer extracted.Objects.Close()

	assert.Equal(t, ContentsMixed, extracted.Contents)
}

func TestExtractObjectsEmptyArchive(t *testing.T) {
	lib := buildTestArchive(t, map[string][]byte{})

	extracted, err := extractObjects([]InputLibrary{NewInputLibrary("empty", bytes.NewReader(lib))})
	require.NoError(t, err)
	defer extracted.Objects.Close()

	assert.Equal(t, ContentsEmpty, extracted.Contents)
	assert.Empty(t, extracted.Objects.Objects)
}
