//go:build windows

package carver

import (
	"path/filepath"
	"strings"
)

// longPath applies the \\?\ long-path prefix spec.md §4.5 requires on
// Windows so filenames built from long signature/offset/length
// combinations are never silently truncated by MAX_PATH.
func longPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if strings.HasPrefix(abs, `\\?\`) {
		return abs
	}
	return `\\?\` + abs
}
