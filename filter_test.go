package armerge

import (
	"debug/elf"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFilterRequiredObjectsDeadCodePruning mirrors scenario S3: a.o defines
// pub and calls aux; b.o defines aux; c.o defines an unreferenced symbol.
// Only a.o and b.o should survive.
func TestFilterRequiredObjectsDeadCodePruning(t *testing.T) {
	dir := t.TempDir()

	aPath := filepath.Join(dir, "a.tok1.o")
	bPath := filepath.Join(dir, "b.tok2.o")
	cPath := filepath.Join(dir, "c.tok3.o")

	writeFixture(t, aPath, []elfTestSymbol{
		{name: "pub", bind: elf.STB_GLOBAL, typ: elf.STT_FUNC},
		{name: "aux", bind: elf.STB_GLOBAL, typ: elf.STT_FUNC, undefined: true},
	})
	writeFixture(t, bPath, []elfTestSymbol{
		{name: "aux", bind: elf.STB_GLOBAL, typ: elf.STT_FUNC},
	})
	writeFixture(t, cPath, []elfTestSymbol{
		{name: "dead", bind: elf.STB_GLOBAL, typ: elf.STT_FUNC},
	})

	regexes := []*regexp.Regexp{regexp.MustCompile(`^pub$`)}
	required, err := filterRequiredObjects([]string{aPath, bPath, cPath}, KeepMatching, regexes, nil)
	require.NoError(t, err)

	assert.Contains(t, required, aPath)
	assert.Contains(t, required, bPath)
	assert.NotContains(t, required, cPath)
}

// TestFilterRequiredObjectsNoKeptSymbols mirrors scenario S5: the keep regex
// matches nothing, so every object is dropped and ErrNoObjectsLeft fires.
func TestFilterRequiredObjectsNoKeptSymbols(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.tok1.o")
	writeFixture(t, path, []elfTestSymbol{
		{name: "foo", bind: elf.STB_GLOBAL, typ: elf.STT_FUNC},
		{name: "bar", bind: elf.STB_GLOBAL, typ: elf.STT_FUNC},
	})

	regexes := []*regexp.Regexp{regexp.MustCompile(`^nonexistent$`)}
	_, err := filterRequiredObjects([]string{path}, KeepMatching, regexes, nil)
	assert.ErrorIs(t, err, ErrNoObjectsLeft)
}

// TestFilterRequiredObjectsRemoveMode mirrors scenario S4: x.o defines
// keep_me and hide_me; RemoveMatching ^hide_me$ must retain the object
// (keep_me survives) without needing any dependency edge.
func TestFilterRequiredObjectsRemoveMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.tok1.o")
	writeFixture(t, path, []elfTestSymbol{
		{name: "keep_me", bind: elf.STB_GLOBAL, typ: elf.STT_FUNC},
		{name: "hide_me", bind: elf.STB_GLOBAL, typ: elf.STT_FUNC},
	})

	regexes := []*regexp.Regexp{regexp.MustCompile(`^hide_me$`)}
	required, err := filterRequiredObjects([]string{path}, RemoveMatching, regexes, nil)
	require.NoError(t, err)
	assert.Contains(t, required, path)
}

func writeFixture(t *testing.T, path string, syms []elfTestSymbol) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, buildTestELFObject(syms), 0644))
}
