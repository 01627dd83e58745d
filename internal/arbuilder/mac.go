package arbuilder

import (
	"github.com/arl/armerge/internal/toolexec"
)

// MacBuilder is the Mach-O ArBuilder: it defers writing any output until
// Close, then invokes the system `libtool -static` to both pack the
// objects and embed a valid archive symbol index in one step — on macOS,
// indexing is implicit in that tool invocation.
type MacBuilder struct {
	outputPath string
	objPaths   []string
	closed     bool
}

// NewMacBuilder creates a builder writing to path.
func NewMacBuilder(path string) *MacBuilder {
	return &MacBuilder{outputPath: path}
}

// AppendObj records path to be included in the eventual libtool invocation.
func (b *MacBuilder) AppendObj(path string) error {
	b.objPaths = append(b.objPaths, path)
	return nil
}

// Close invokes libtool to produce the final static archive. Idempotent.
func (b *MacBuilder) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true

	args := append([]string{"-static", "-o", b.outputPath}, b.objPaths...)
	_, err := toolexec.Run("Failed to merge object files with `libtool`", "libtool", args)
	return err
}
