package diskio

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestOpenReportsLength(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "test.img")

	testData := make([]byte, 1024*1024)
	for i := range testData {
		testData[i] = byte(i % 256)
	}
	if err := os.WriteFile(tmpFile, testData, 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	reader, err := Open(tmpFile)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer reader.Close()

	if reader.Length() != int64(len(testData)) {
		t.Errorf("expected length %d, got %d", len(testData), reader.Length())
	}
}

func TestReadAt(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "test.img")

	testData := []byte("Hello, World! This is a test file for the raw reader.")
	if err := os.WriteFile(tmpFile, testData, 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	reader, err := Open(tmpFile)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer reader.Close()

	got, err := reader.ReadAt(0, 5)
	if err != nil {
		t.Fatalf("ReadAt failed: %v", err)
	}
	if string(got) != "Hello" {
		t.Errorf("expected %q, got %q", "Hello", got)
	}

	got, err = reader.ReadAt(7, 5)
	if err != nil {
		t.Fatalf("ReadAt failed: %v", err)
	}
	if string(got) != "World" {
		t.Errorf("expected %q, got %q", "World", got)
	}
}

func TestReadAtAcrossSectorBoundary(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "test.img")

	sector0 := bytes.Repeat([]byte{0xAA}, SectorSize)
	sector1 := bytes.Repeat([]byte{0xBB}, SectorSize)
	if err := os.WriteFile(tmpFile, append(sector0, sector1...), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	reader, err := Open(tmpFile)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer reader.Close()

	got, err := reader.ReadAt(SectorSize-4, 8)
	if err != nil {
		t.Fatalf("ReadAt failed: %v", err)
	}
	want := append(bytes.Repeat([]byte{0xAA}, 4), bytes.Repeat([]byte{0xBB}, 4)...)
	if !bytes.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestReadAtTruncatesAtEndOfSource(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "test.img")

	testData := []byte("short")
	if err := os.WriteFile(tmpFile, testData, 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	reader, err := Open(tmpFile)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer reader.Close()

	got, err := reader.ReadAt(0, 4096)
	if err != nil {
		t.Fatalf("ReadAt failed: %v", err)
	}
	if !bytes.Equal(got, testData) {
		t.Errorf("expected %q, got %q", testData, got)
	}
}

func TestToRawPathRewritesDriveLetterOnWindowsOnly(t *testing.T) {
	got := ToRawPath(`E:\`)
	if runtime.GOOS == "windows" {
		if got != `\\.\E:` {
			t.Errorf("expected raw device path, got %q", got)
		}
		return
	}
	if got != `E:\` {
		t.Errorf("expected path to pass through unchanged on %s, got %q", runtime.GOOS, got)
	}
}

func TestOpenMissingSourceFails(t *testing.T) {
	tmpDir := t.TempDir()
	if _, err := Open(filepath.Join(tmpDir, "does-not-exist.img")); err == nil {
		t.Error("expected an error opening a missing source")
	}
}
