package carver

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/shubham/sigcarve/internal/signature"
)

// fakeSource is a byte-slice backed Source for extent resolver tests.
type fakeSource struct {
	data []byte
}

func (f *fakeSource) ReadAt(offset int64, size int) ([]byte, error) {
	if offset < 0 || offset >= int64(len(f.data)) {
		return nil, nil
	}
	end := offset + int64(size)
	if end > int64(len(f.data)) {
		end = int64(len(f.data))
	}
	return f.data[offset:end], nil
}

func (f *fakeSource) Length() int64 { return int64(len(f.data)) }

func jpegSig() signature.Signature {
	for _, s := range signature.DefaultSet() {
		if s.Name == "jpeg" {
			return s
		}
	}
	panic("jpeg signature missing from DefaultSet")
}

func pngSig() signature.Signature {
	for _, s := range signature.DefaultSet() {
		if s.Name == "png" {
			return s
		}
	}
	panic("png signature missing from DefaultSet")
}

func mp4Sig() signature.Signature {
	for _, s := range signature.DefaultSet() {
		if s.Name == "mp4" {
			return s
		}
	}
	panic("mp4 signature missing from DefaultSet")
}

func wavSig() signature.Signature {
	for _, s := range signature.DefaultSet() {
		if s.Name == "wav" {
			return s
		}
	}
	panic("wav signature missing from DefaultSet")
}

func TestResolveFooterWindowFindsFooter(t *testing.T) {
	sig := jpegSig()
	data := append([]byte{}, sig.Header...)
	data = append(data, bytes.Repeat([]byte{0x42}, 100)...)
	data = append(data, sig.Footer...)
	data = append(data, bytes.Repeat([]byte{0x00}, 4096)...) // trailing garbage on the "device"

	src := &fakeSource{data: data}
	end, ok := resolveExtent(src, 0, sig, 4096)
	if !ok {
		t.Fatal("expected a resolved extent")
	}
	want := int64(len(sig.Header) + 100 + len(sig.Footer))
	if end != want {
		t.Errorf("end = %d, want %d", end, want)
	}
}

func TestResolveFooterWindowMissingFooterUsesWholeWindow(t *testing.T) {
	sig := jpegSig()
	data := append([]byte{}, sig.Header...)
	data = append(data, bytes.Repeat([]byte{0x42}, 4096)...)

	src := &fakeSource{data: data}
	end, ok := resolveExtent(src, 0, sig, 1024)
	if !ok {
		t.Fatal("expected a best-effort extent even without a footer")
	}
	if end <= 0 || end > src.Length() {
		t.Errorf("end = %d out of range", end)
	}
}

func TestResolvePngAddsTrailingCRC(t *testing.T) {
	sig := pngSig()
	data := append([]byte{}, sig.Header...)
	data = append(data, bytes.Repeat([]byte{0x01}, 20)...)
	data = append(data, sig.Footer...)      // "IEND"
	data = append(data, []byte{1, 2, 3, 4}...) // CRC
	data = append(data, bytes.Repeat([]byte{0xFF}, 32)...)

	src := &fakeSource{data: data}
	end, ok := resolveExtent(src, 0, sig, 4096)
	if !ok {
		t.Fatal("expected a resolved extent")
	}
	want := int64(len(sig.Header) + 20 + len(sig.Footer) + 4)
	if end != want {
		t.Errorf("end = %d, want %d (footer + CRC)", end, want)
	}
}

func TestResolveIsoBmffValidatesBrandAndWalksBoxes(t *testing.T) {
	sig := mp4Sig()
	// ftyp box: size(4) + "ftyp"(4) + major brand(4) + minor version(4)
	ftyp := make([]byte, 16)
	binary.BigEndian.PutUint32(ftyp[0:4], 16)
	copy(ftyp[4:8], "ftyp")
	copy(ftyp[8:12], "isom")

	// a following moov box covering the rest.
	moov := make([]byte, 32)
	binary.BigEndian.PutUint32(moov[0:4], 32)
	copy(moov[4:8], "moov")

	data := append(ftyp, moov...)
	src := &fakeSource{data: data}

	end, ok := resolveExtent(src, 0, sig, 4096)
	if !ok {
		t.Fatal("expected a resolved extent for a valid ftyp/moov pair")
	}
	if end != int64(len(data)) {
		t.Errorf("end = %d, want %d", end, len(data))
	}
}

func TestResolveIsoBmffRejectsUnknownBrand(t *testing.T) {
	sig := mp4Sig()
	ftyp := make([]byte, 16)
	binary.BigEndian.PutUint32(ftyp[0:4], 16)
	copy(ftyp[4:8], "ftyp")
	copy(ftyp[8:12], "bogus")

	src := &fakeSource{data: ftyp}
	if _, ok := resolveExtent(src, 0, sig, 4096); ok {
		t.Error("expected rejection for an unrecognised brand")
	}
}

func TestResolveRiffReadsDeclaredSize(t *testing.T) {
	sig := wavSig()
	hdr := make([]byte, 12)
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], 100)
	copy(hdr[8:12], "WAVE")

	data := append(hdr, bytes.Repeat([]byte{0x00}, 200)...)
	src := &fakeSource{data: data}

	end, ok := resolveExtent(src, 0, sig, 4096)
	if !ok {
		t.Fatal("expected a resolved extent")
	}
	if want := int64(108); end != want {
		t.Errorf("end = %d, want %d", end, want)
	}
}

func TestResolveRiffRejectsWrongSubtype(t *testing.T) {
	sig := wavSig()
	hdr := make([]byte, 12)
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], 100)
	copy(hdr[8:12], "AVI ")

	src := &fakeSource{data: hdr}
	if _, ok := resolveExtent(src, 0, sig, 4096); ok {
		t.Error("expected rejection for a mismatched RIFF subtype")
	}
}

func TestResolveZipEocd(t *testing.T) {
	sigs := signature.DefaultSet()
	var zip signature.Signature
	for _, s := range sigs {
		if s.Name == "zip" {
			zip = s
		}
	}

	data := append([]byte{}, zip.Header...)
	data = append(data, bytes.Repeat([]byte{0x00}, 50)...)
	eocd := make([]byte, 22)
	copy(eocd[0:4], zipEOCDSignature)
	binary.LittleEndian.PutUint16(eocd[20:22], 3) // 3-byte comment
	data = append(data, eocd...)
	data = append(data, []byte("abc")...)
	data = append(data, bytes.Repeat([]byte{0xFF}, 16)...) // trailing noise

	src := &fakeSource{data: data}
	end, ok := resolveExtent(src, 0, zip, 4096)
	if !ok {
		t.Fatal("expected a resolved extent")
	}
	want := int64(len(zip.Header) + 50 + 22 + 3)
	if end != want {
		t.Errorf("end = %d, want %d", end, want)
	}
}

func TestCanonicalizeIsoBmffWalksFullBoxChain(t *testing.T) {
	sig := mp4Sig()

	ftyp := make([]byte, 16)
	binary.BigEndian.PutUint32(ftyp[0:4], 16)
	copy(ftyp[4:8], "ftyp")
	copy(ftyp[8:12], "isom")

	moov := make([]byte, 24)
	binary.BigEndian.PutUint32(moov[0:4], 24)
	copy(moov[4:8], "moov")
	copy(moov[8:], bytes.Repeat([]byte{0x11}, 16))

	mdat := make([]byte, 40)
	binary.BigEndian.PutUint32(mdat[0:4], 40)
	copy(mdat[4:8], "mdat")
	copy(mdat[8:], bytes.Repeat([]byte{0x99}, 32))

	full := append(append(append([]byte{}, ftyp...), moov...), mdat...)
	padded := append(append([]byte{}, full...), bytes.Repeat([]byte{0xCD}, 64)...)

	a := canonicalize(full, sig)
	b := canonicalize(padded, sig)
	if !bytes.Equal(a, full) {
		t.Errorf("canonicalize trimmed the ftyp/moov/mdat chain short: got %d bytes, want %d", len(a), len(full))
	}
	if !bytes.Equal(a, b) {
		t.Errorf("canonicalize produced different output for the same logical mp4 with trailing padding:\n%v\n%v", a, b)
	}
}

func TestCanonicalizeIsIdempotentForDedup(t *testing.T) {
	sig := jpegSig()
	full := append([]byte{}, sig.Header...)
	full = append(full, bytes.Repeat([]byte{0x42}, 50)...)
	full = append(full, sig.Footer...)
	padded := append(append([]byte{}, full...), bytes.Repeat([]byte{0xAB}, 30)...)

	a := canonicalize(full, sig)
	b := canonicalize(padded, sig)
	if !bytes.Equal(a, b) {
		t.Errorf("canonicalize produced different output for the same logical file:\n%v\n%v", a, b)
	}
}
