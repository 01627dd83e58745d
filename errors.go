package armerge

import (
	"errors"
	"fmt"
)

// errBuiltinRemoveUnsupported is returned when the builtin ELF rewriter
// backend is asked to operate in RemoveMatching mode, which it does not
// implement.
var errBuiltinRemoveUnsupported = errors.New("--remove-symbols is not supported with the builtin filter")

// ProcessInputError is returned while opening and extracting the contents of
// the input static libraries, before any symbol analysis has happened.
type ProcessInputError struct {
	Op   string // "open", "tempdir", "read", "extract"
	Name string // library name or path, whichever is known
	Err  error
}

func (e *ProcessInputError) Error() string {
	switch e.Op {
	case "tempdir":
		return fmt.Sprintf("failed to create temp dir to extract objects: %s", e.Err)
	case "open":
		return fmt.Sprintf("failed to open input file %s: %s", e.Name, e.Err)
	case "read":
		return fmt.Sprintf("error reading input library %s: %s", e.Name, e.Err)
	case "extract":
		return fmt.Sprintf("error writing extracted object file %s: %s", e.Name, e.Err)
	default:
		return fmt.Sprintf("error processing input %s: %s", e.Name, e.Err)
	}
}

func (e *ProcessInputError) Unwrap() error { return e.Err }

// ErrEmptyInput is returned when the input archives don't seem to contain
// any objects at all.
var ErrEmptyInput = fmt.Errorf("input archives don't seem to contain any objects")

// InvalidObjectError means an extracted object file could not be parsed by
// the symbol reader.
type InvalidObjectError struct {
	Path string
	Err  error
}

func (e *InvalidObjectError) Error() string {
	return fmt.Sprintf("failed to parse extracted object file at %s: %s", e.Path, e.Err)
}

func (e *InvalidObjectError) Unwrap() error { return e.Err }

// ExternalToolLaunchError means a collaborator process (ld, objcopy, ranlib,
// libtool) could not even be spawned.
type ExternalToolLaunchError struct {
	Tool string
	Err  error
}

func (e *ExternalToolLaunchError) Error() string {
	return fmt.Sprintf("failed to launch external tool `%s`: %s", e.Tool, e.Err)
}

func (e *ExternalToolLaunchError) Unwrap() error { return e.Err }

// ExternalToolError means a collaborator process ran and exited non-zero.
type ExternalToolError struct {
	Reason string
	Tool   string
	Args   []string
	Stdout string
	Stderr string
}

func (e *ExternalToolError) Error() string {
	return fmt.Sprintf("%s: %q %q\nstdout: %s\nstderr: %s", e.Reason, e.Tool, e.Args, e.Stdout, e.Stderr)
}

// ErrNoObjectsLeft is returned when the reachability filter eliminated every
// extracted object: the caller filtered away everything and must keep at
// least one public symbol.
var ErrNoObjectsLeft = fmt.Errorf("zero objects left after filtering! Make sure to keep at least one public symbol")

// WritingArchiveError wraps a failure while emitting the output archive.
type WritingArchiveError struct {
	Err error
}

func (e *WritingArchiveError) Error() string {
	return fmt.Sprintf("failed to write merged output: %s", e.Err)
}

func (e *WritingArchiveError) Unwrap() error { return e.Err }

// InternalError wraps an anomaly raised by the builtin symbol rewriter or
// section-group demoter, as opposed to a failure in an external collaborator
// process.
type InternalError struct {
	Context string
	Err     error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error while merging libraries (%s): %s", e.Context, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }
