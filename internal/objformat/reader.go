package objformat

import (
	"bytes"
	"io"
)

func newReaderAt(data []byte) io.ReaderAt {
	return bytes.NewReader(data)
}
