// Package arbuilder implements the two ArBuilder backends used to write
// the final output archive: a portable ar-format builder for ELF (and
// other) hosts, and a libtool-based builder for Mach-O hosts. The
// two variants differ only in how the archive's symbol index gets
// materialized, so a small tagged interface is all that's needed — no base
// class, no shared struct.
package arbuilder

import "runtime"

// Builder appends object files to a not-yet-finalized output archive, and
// finalizes it (writing the archive's symbol index) exactly once.
type Builder interface {
	AppendObj(path string) error
	Close() error
}

// HostPlatformBuilder returns the Builder appropriate for the aggregate
// format classification falling back to "Other" or "Mixed": on macOS hosts
// that means the libtool-based builder, everywhere else the portable
// ar-format builder.
func HostPlatformBuilder(outputPath string) Builder {
	if runtime.GOOS == "darwin" {
		return NewMacBuilder(outputPath)
	}
	return NewCommonBuilder(outputPath)
}
