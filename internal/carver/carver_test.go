package carver

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shubham/sigcarve/internal/signature"
)

func writeTestImage(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.img")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to create test image: %v", err)
	}
	return path
}

func onlySignature(name string) []signature.Signature {
	for _, sig := range signature.DefaultSet() {
		if sig.Name == name {
			return []signature.Signature{sig}
		}
	}
	panic("unknown signature: " + name)
}

func drain(t *testing.T, c *Carver, ctx context.Context) []CarveResult {
	t.Helper()
	var results []CarveResult
	for res := range c.Scan(ctx) {
		results = append(results, res)
	}
	return results
}

func TestScanFindsEmbeddedJPEG(t *testing.T) {
	sig := onlySignature("jpeg")[0]
	data := make([]byte, 64*1024)
	copy(data[100:], sig.Header)
	copy(data[100+len(sig.Header)+50:], sig.Footer)

	path := writeTestImage(t, data)
	outDir := filepath.Join(t.TempDir(), "out")

	opts := NewOptions()
	opts.MinSize = 1
	c, err := New(path, outDir, onlySignature("jpeg"), opts, Hooks{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	results := drain(t, c, context.Background())
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	res := results[0]
	if !res.OK {
		t.Fatalf("result not OK: %s", res.Note)
	}
	if res.StartOffset != 100 {
		t.Errorf("StartOffset = %d, want 100", res.StartOffset)
	}
	if _, err := os.Stat(res.OutPath); err != nil {
		t.Errorf("output file missing: %v", err)
	}
}

func TestScanDeduplicatesIdenticalContent(t *testing.T) {
	sig := onlySignature("jpeg")[0]
	file := append([]byte{}, sig.Header...)
	file = append(file, bytes.Repeat([]byte{0x42}, 50)...)
	file = append(file, sig.Footer...)

	data := make([]byte, 64*1024)
	copy(data[0:], file)
	copy(data[10000:], file) // identical content carved twice

	path := writeTestImage(t, data)
	outDir := filepath.Join(t.TempDir(), "out")

	opts := NewOptions()
	opts.MinSize = 1
	opts.Deduplicate = true
	c, err := New(path, outDir, onlySignature("jpeg"), opts, Hooks{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	results := drain(t, c, context.Background())
	if len(results) != 1 {
		t.Errorf("expected dedup to collapse to 1 result, got %d", len(results))
	}
}

func TestScanWithoutDedupEmitsBoth(t *testing.T) {
	sig := onlySignature("jpeg")[0]
	file := append([]byte{}, sig.Header...)
	file = append(file, bytes.Repeat([]byte{0x42}, 50)...)
	file = append(file, sig.Footer...)

	data := make([]byte, 64*1024)
	copy(data[0:], file)
	copy(data[10000:], file)

	path := writeTestImage(t, data)
	outDir := filepath.Join(t.TempDir(), "out")

	opts := NewOptions()
	opts.MinSize = 1
	opts.Deduplicate = false
	c, err := New(path, outDir, onlySignature("jpeg"), opts, Hooks{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	results := drain(t, c, context.Background())
	if len(results) != 2 {
		t.Errorf("expected 2 results without dedup, got %d", len(results))
	}
}

func TestScanMinSizeDropsUndersizedCandidates(t *testing.T) {
	sig := onlySignature("jpeg")[0]
	file := append([]byte{}, sig.Header...)
	file = append(file, sig.Footer...) // tiny candidate, no body

	data := make([]byte, 4096)
	copy(data[0:], file)

	path := writeTestImage(t, data)
	outDir := filepath.Join(t.TempDir(), "out")

	opts := NewOptions()
	opts.MinSize = 1000 // larger than the candidate
	c, err := New(path, outDir, onlySignature("jpeg"), opts, Hooks{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	results := drain(t, c, context.Background())
	if len(results) != 0 {
		t.Errorf("expected the undersized candidate to be dropped, got %d results", len(results))
	}
}

func TestScanMaxFilesStopsEarly(t *testing.T) {
	sig := onlySignature("jpeg")[0]
	file := append([]byte{}, sig.Header...)
	file = append(file, bytes.Repeat([]byte{0x42}, 50)...)
	file = append(file, sig.Footer...)

	data := make([]byte, 64*1024)
	copy(data[0:], file)
	copy(data[10000:], file)
	copy(data[20000:], file)

	path := writeTestImage(t, data)
	outDir := filepath.Join(t.TempDir(), "out")

	opts := NewOptions()
	opts.MinSize = 1
	opts.Deduplicate = false
	opts.MaxFiles = 1
	c, err := New(path, outDir, onlySignature("jpeg"), opts, Hooks{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	results := drain(t, c, context.Background())
	if len(results) != 1 {
		t.Errorf("expected MaxFiles to cap results at 1, got %d", len(results))
	}
}

func TestScanWithoutWriteOutputReturnsData(t *testing.T) {
	sig := onlySignature("jpeg")[0]
	file := append([]byte{}, sig.Header...)
	file = append(file, bytes.Repeat([]byte{0x42}, 50)...)
	file = append(file, sig.Footer...)

	data := make([]byte, 4096)
	copy(data[0:], file)

	path := writeTestImage(t, data)

	opts := NewOptions()
	opts.MinSize = 1
	opts.WriteOutput = false
	c, err := New(path, "", onlySignature("jpeg"), opts, Hooks{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	results := drain(t, c, context.Background())
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].OutPath != "" {
		t.Errorf("expected no OutPath when WriteOutput is false, got %q", results[0].OutPath)
	}
	if !bytes.Equal(results[0].Data, file) {
		t.Errorf("Data = %v, want %v", results[0].Data, file)
	}
}

func TestNewRejectsEmptySignatureSet(t *testing.T) {
	path := writeTestImage(t, make([]byte, 1024))
	_, err := New(path, t.TempDir(), nil, NewOptions(), Hooks{})
	if err == nil {
		t.Fatal("expected an error for an empty signature set")
	}
}

func TestNewRejectsMissingSource(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.img"), t.TempDir(), onlySignature("jpeg"), NewOptions(), Hooks{})
	if err == nil {
		t.Fatal("expected an error opening a missing source")
	}
}
