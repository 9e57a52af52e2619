//go:build !windows

package carver

// longPath is a no-op outside Windows, which has no equivalent
// MAX_PATH limitation to work around.
func longPath(path string) string {
	return path
}
