package armerge

import "io"

// InputLibrary is a static library (ar archive) to be merged.
//
// Name is used only to produce more meaningful messages in case of errors,
// and as a prefix for the scratch filenames of the objects extracted from
// it.
type InputLibrary struct {
	Name   string
	Reader io.Reader
}

// NewInputLibrary builds an InputLibrary from a display name and a reader
// over the raw bytes of an ar archive.
func NewInputLibrary(name string, r io.Reader) InputLibrary {
	return InputLibrary{Name: name, Reader: r}
}
