package carver

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// maxFilenameLength is the spec.md §4.5 truncation bound.
const maxFilenameLength = 180

var illegalFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_.@-]`)

// safeName sanitizes s for use as a path component on any of the
// platforms this engine targets, mirroring the teacher/original's
// _safe_name regex substitution.
func safeName(s string) string {
	return illegalFilenameChars.ReplaceAllString(s, "_")
}

// outputPath builds the <output_dir>/<sig>/<sig>_<offset>_len<length>.<ext>
// layout from spec.md §4.5, truncating the filename (not the
// directory) to maxFilenameLength.
func outputPath(outputDir, sigName, ext string, start, length int64) string {
	fname := safeName(fmt.Sprintf("%s_%d_len%d%s", sigName, start, length, ext))
	if len(fname) > maxFilenameLength {
		// keep the extension intact when truncating the middle out.
		extLen := len(ext)
		if extLen > maxFilenameLength {
			extLen = 0
		}
		fname = fname[:maxFilenameLength-extLen] + ext
	}
	return filepath.Join(outputDir, safeName(sigName), fname)
}

// writeFile writes data to path, creating parent directories as
// needed. Write errors are returned, never panicked on; callers turn
// them into a CarveResult with OK=false per spec.md §7.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(longPath(path), data, 0o644); err != nil {
		return fmt.Errorf("write error: %w", err)
	}
	return nil
}
