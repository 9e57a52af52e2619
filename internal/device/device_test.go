package device

import "testing"

func TestParseSize(t *testing.T) {
	tests := []struct {
		value string
		unit  string
		want  int64
	}{
		{"1", "B", 1},
		{"1", "KB", 1024},
		{"1", "MB", 1024 * 1024},
		{"1.5", "GB", int64(1.5 * 1024 * 1024 * 1024)},
	}
	for _, tt := range tests {
		if got := parseSize(tt.value, tt.unit); got != tt.want {
			t.Errorf("parseSize(%q, %q) = %d, want %d", tt.value, tt.unit, got, tt.want)
		}
	}
}

func TestHumanSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1024 * 1024, "1.0 MB"},
	}
	for _, tt := range tests {
		if got := humanSize(tt.bytes); got != tt.want {
			t.Errorf("humanSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}
