package arbuilder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/blakesmith/ar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommonBuilderAppendObjWritesMember(t *testing.T) {
	dir := t.TempDir()
	objPath := filepath.Join(dir, "a.tok1.o")
	require.NoError(t, os.WriteFile(objPath, []byte("payload"), 0644))

	outPath := filepath.Join(dir, "out.a")
	b := NewCommonBuilder(outPath)
	require.NoError(t, b.AppendObj(objPath))
	// Flush without going through Close, which would shell out to ranlib.
	require.NoError(t, b.f.Close())

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()

	r := ar.NewReader(f)
	hdr, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "a.tok1.o", hdr.Name)
	assert.EqualValues(t, len("payload"), hdr.Size)

	buf := make([]byte, hdr.Size)
	_, err = r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(buf))
}

func TestMemberNameStripsDirectory(t *testing.T) {
	assert.Equal(t, "a.tok1.o", memberName("/scratch/dir/a.tok1.o"))
	assert.Equal(t, "a.o", memberName("a.o"))
}

func TestEnvOrFallsBackToDefault(t *testing.T) {
	os.Unsetenv("ARMERGE_TEST_ENV_VAR")
	assert.Equal(t, "default", envOr("ARMERGE_TEST_ENV_VAR", "default"))

	os.Setenv("ARMERGE_TEST_ENV_VAR", "custom")
	defer os.Unsetenv("ARMERGE_TEST_ENV_VAR")
	assert.Equal(t, "custom", envOr("ARMERGE_TEST_ENV_VAR", "default"))
}
