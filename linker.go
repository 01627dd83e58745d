package armerge

import (
	"path/filepath"
)

// createMergedObject invokes $LD (default "ld") in relocatable mode to
// combine objects into a single object at mergedPath.
// extraArgs are inserted between "-r -o <merged>" and $ARMERGE_LDFLAGS.
func createMergedObject(mergedPath string, extraArgs []string, objects []string) error {
	ld := envOr("LD", "ld")

	args := []string{"-r", "-o", mergedPath}
	args = append(args, extraArgs...)
	args = append(args, ldflagsFromEnv()...)
	args = append(args, objects...)

	_, err := runToolNamed("Failed to merge object files", ld, args)
	return err
}

// createFilteredMergedObject is the ELF path of RelocatableMerger: one
// linker invocation, followed by symbol filtering performed separately by
// the caller.
func createFilteredMergedObject(mergedPath string, objects []string) error {
	return createMergedObject(mergedPath, nil, objects)
}

// createFilteredMergedMachoObject is the Mach-O path of RelocatableMerger:
// two linker invocations. The first applies -unexported_symbols_list,
// producing merged_firstpass.o; the second normalizes that single file into
// the final merged object, since the Mach-O linker only performs symbol
// hiding during the first pass.
func createFilteredMergedMachoObject(mergedPath string, objects []string, filterListPath string) error {
	firstPassPath := filepath.Join(filepath.Dir(mergedPath), "merged_firstpass.o")

	extraArgs := []string{"-unexported_symbols_list", filterListPath}
	if err := createMergedObject(firstPassPath, extraArgs, objects); err != nil {
		return err
	}
	return createMergedObject(mergedPath, nil, []string{firstPassPath})
}
