package byteunit

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int64
		wantErr bool
	}{
		{name: "empty means no limit", in: "", want: 0},
		{name: "zero means no limit", in: "0", want: 0},
		{name: "none means no limit", in: "none", want: 0},
		{name: "None is case-insensitive", in: "NONE", want: 0},
		{name: "bare bytes", in: "512", want: 512},
		{name: "kilobytes lowercase", in: "64k", want: 64 * 1024},
		{name: "megabytes uppercase", in: "4M", want: 4 * 1024 * 1024},
		{name: "gigabytes", in: "2g", want: 2 * 1024 * 1024 * 1024},
		{name: "whitespace tolerated", in: " 16m ", want: 16 * 1024 * 1024},
		{name: "garbage", in: "abc", wantErr: true},
		{name: "negative", in: "-5", wantErr: true},
		{name: "bad suffix only", in: "k", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
