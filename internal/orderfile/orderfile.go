// Package orderfile parses the --order-file format: one object base name per
// line, '#' starting a comment, blank lines ignored. Order is significant;
// duplicates keep their first occurrence.
package orderfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Parse reads an order file from path and returns the base names in the
// order they appear.
func Parse(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading order file %s: %w", path, err)
	}
	defer f.Close()
	return ParseReader(f)
}

// ParseReader is Parse, reading from an already-open io.Reader.
func ParseReader(r io.Reader) ([]string, error) {
	var names []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if seen[line] {
			continue
		}
		seen[line] = true
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return names, nil
}
