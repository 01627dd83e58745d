package arbuilder

import (
	"fmt"
	"os"

	"github.com/arl/armerge/internal/toolexec"
	"github.com/blakesmith/ar"
)

// CommonBuilder is the portable ArBuilder: it writes a standard ar archive
// directly (valid on ELF hosts and anywhere else a classic archiver is
// available) and finalizes the symbol index by shelling out to the
// ranlib-equivalent external tool, since the ar writer here doesn't embed
// one itself.
type CommonBuilder struct {
	outputPath string
	f          *os.File
	writer     *ar.Writer
	closed     bool
	err        error
}

// NewCommonBuilder creates (but does not yet open) a builder writing to
// path.
func NewCommonBuilder(path string) *CommonBuilder {
	return &CommonBuilder{outputPath: path}
}

func (b *CommonBuilder) ensureOpen() error {
	if b.f != nil || b.err != nil {
		return b.err
	}
	f, err := os.Create(b.outputPath)
	if err != nil {
		b.err = fmt.Errorf("failed to create output library: %w", err)
		return b.err
	}
	b.f = f
	b.writer = ar.NewWriter(f)
	if err := b.writer.WriteGlobalHeader(); err != nil {
		b.err = err
		return err
	}
	return nil
}

// AppendObj appends the object at path as a new archive member.
func (b *CommonBuilder) AppendObj(path string) error {
	if err := b.ensureOpen(); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	header := &ar.Header{
		Name:    memberName(path),
		ModTime: info.ModTime().Unix(),
		Size:    int64(len(data)),
		Mode:    0644,
	}
	if err := b.writer.WriteHeader(header); err != nil {
		return err
	}
	_, err = b.writer.Write(data)
	return err
}

// Close finalizes the archive and writes its symbol index via the external
// ranlib-equivalent tool. It is idempotent.
func (b *CommonBuilder) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	if b.f != nil {
		if err := b.f.Close(); err != nil {
			return err
		}
	}
	return createIndex(b.outputPath)
}

func createIndex(archivePath string) error {
	ranlib := envOr("RANLIB", "ranlib")
	_, err := toolexec.Run("Failed to create archive index", ranlib, []string{archivePath})
	return err
}

func memberName(path string) string {
	// ar member names are just the base filename; the scratch path already
	// guarantees uniqueness within the run.
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
