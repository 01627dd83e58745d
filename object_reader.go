package armerge

import (
	"bytes"
	"errors"
	"io"
)

var errUnsupportedObjectFormat = errors.New("object file is neither ELF nor Mach-O")

// bytesReaderAt adapts a byte slice to io.ReaderAt, as required by
// elf.NewFile and macho.NewFile.
func bytesReaderAt(data []byte) io.ReaderAt {
	return bytes.NewReader(data)
}
