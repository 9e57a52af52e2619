// Package byteunit parses the k/m/g byte-size suffix grammar used by
// the carve command's size-limit flags.
package byteunit

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	kib = 1024
	mib = 1024 * kib
	gib = 1024 * mib
)

// Parse converts a byte-size string into a count of bytes. An empty
// string, "0", or "none" (case-insensitive) means "no limit" and
// returns 0, nil. Otherwise s is a decimal number optionally suffixed
// with k, m, or g (case-insensitive), e.g. "512", "64k", "4M", "2g".
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" || strings.EqualFold(s, "none") {
		return 0, nil
	}

	mult := int64(1)
	switch last := s[len(s)-1]; last {
	case 'k', 'K':
		mult = kib
		s = s[:len(s)-1]
	case 'm', 'M':
		mult = mib
		s = s[:len(s)-1]
	case 'g', 'G':
		mult = gib
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("byteunit: invalid size %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("byteunit: negative size %q", s)
	}
	return n * mult, nil
}
