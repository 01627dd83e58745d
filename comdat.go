package armerge

import (
	"os"

	"github.com/arl/armerge/internal/objformat"
)

// demoteELFComdatGroups reads mergedPath, and — if it is an ELF object —
// clears the COMDAT flag of any section group whose signature symbol was
// localized. Non-ELF formats (and objects whose format
// can't be classified at all) are left untouched; this is not an error.
func demoteELFComdatGroups(mergedPath string, localizedNames map[string]bool) error {
	if len(localizedNames) == 0 {
		return nil
	}

	data, err := os.ReadFile(mergedPath)
	if err != nil {
		return err
	}

	if classifyObject(firstSixteen(data)) != ContentsELF {
		return nil
	}

	if err := objformat.DemoteComdatGroups(data, localizedNames); err != nil {
		return &InternalError{Context: "demoting ELF COMDAT groups", Err: err}
	}

	return os.WriteFile(mergedPath, data, 0644)
}
