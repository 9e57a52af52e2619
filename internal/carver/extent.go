package carver

import (
	"bytes"
	"encoding/binary"

	"github.com/shubham/sigcarve/internal/signature"
)

// Source is the minimal read surface the extent resolver needs. It is
// satisfied by *diskio.Reader; tests substitute a byte-slice backed
// fake.
type Source interface {
	ReadAt(offset int64, size int) ([]byte, error)
	Length() int64
}

var zipEOCDSignature = []byte{0x50, 0x4B, 0x05, 0x06}

// resolveExtent determines where the file starting at absolute offset
// p (a header hit for sig) ends, per the table in spec.md §4.3. It
// returns ok=false when the hit cannot be validated (ParseRejected) or
// no size rule applies.
func resolveExtent(src Source, p int64, sig signature.Signature, chunkSize int) (end int64, ok bool) {
	switch sig.SizeRule.Kind {
	case signature.SizeRuleIsoBmff:
		end, ok = resolveIsoBmff(src, p, sig)
	case signature.SizeRuleRiffWithSubtype:
		end, ok = resolveRiff(src, p, sig)
	case signature.SizeRuleZipEocd:
		end, ok = resolveZipEocd(src, p, sig)
	default:
		if len(sig.Footer) == 0 {
			return 0, false
		}
		end, ok = resolveFooterWindow(src, p, sig, chunkSize)
	}
	if !ok {
		return 0, false
	}
	if sig.MaxSize > 0 && end-p > sig.MaxSize {
		return 0, false
	}
	if srcLen := src.Length(); srcLen > 0 && end > srcLen {
		end = srcLen
	}
	if end <= p {
		return 0, false
	}
	return end, true
}

// resolveFooterWindow performs the spec's bounded re-read: 2x chunk
// size from p, searching for the footer; if the footer is missing the
// whole window is returned as a best-effort extent.
func resolveFooterWindow(src Source, p int64, sig signature.Signature, chunkSize int) (int64, bool) {
	window := int64(2 * chunkSize)
	if sig.MaxSize > 0 && window > sig.MaxSize {
		window = sig.MaxSize
	}
	data, err := src.ReadAt(p, int(window))
	if err != nil || len(data) <= len(sig.Header) {
		return 0, false
	}
	idx := bytes.Index(data[len(sig.Header):], sig.Footer)
	if idx < 0 {
		return p + int64(len(data)), true
	}
	end := p + int64(len(sig.Header)+idx+len(sig.Footer))
	if sig.Name == "png" {
		end += 4 // IEND chunk's trailing CRC
	}
	return end, true
}

// resolveIsoBmff verifies the ftyp box's brand and walks the
// subsequent box chain, returning the end of the last fully-readable
// box before the scan limit, source end, or an invalid box size.
func resolveIsoBmff(src Source, p int64, sig signature.Signature) (int64, bool) {
	limit := sig.SizeRule.ScanLimit
	if limit <= 0 {
		limit = sig.MaxSize
	}
	maxEnd := p + limit
	if sig.MaxSize > 0 && p+sig.MaxSize < maxEnd {
		maxEnd = p + sig.MaxSize
	}
	if srcLen := src.Length(); srcLen > 0 && maxEnd > srcLen {
		maxEnd = srcLen
	}

	hdr, err := src.ReadAt(p, 16)
	if err != nil || len(hdr) < 16 {
		return 0, false
	}
	if string(hdr[4:8]) != "ftyp" {
		return 0, false
	}
	boxSize := int64(binary.BigEndian.Uint32(hdr[0:4]))
	if boxSize < 16 || p+boxSize > maxEnd {
		return 0, false
	}
	full, err := src.ReadAt(p, int(boxSize))
	if err != nil || int64(len(full)) < boxSize {
		return 0, false
	}
	if !brandAllowed(full[8:boxSize], sig.SizeRule.AllowedBrands) {
		return 0, false
	}

	cur := p + boxSize
	lastEnd := cur
	for cur < maxEnd {
		hdr, err := src.ReadAt(cur, 16)
		if err != nil || len(hdr) < 8 {
			break
		}
		size32 := binary.BigEndian.Uint32(hdr[0:4])
		var bsize int64
		switch {
		case size32 == 1:
			if len(hdr) < 16 {
				return lastEnd, true
			}
			bsize = int64(binary.BigEndian.Uint64(hdr[8:16]))
		case size32 == 0:
			return lastEnd, true
		default:
			bsize = int64(size32)
		}
		if bsize < 8 {
			break
		}
		next := cur + bsize
		if next > maxEnd {
			break
		}
		cur = next
		lastEnd = cur
	}
	return lastEnd, true
}

// brandAllowed reports whether the major brand (the first four bytes
// of payload) or any compatible brand (every four-byte field after
// the four-byte minor version) matches one of allowed.
func brandAllowed(payload []byte, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	matches := func(b []byte) bool {
		for _, a := range allowed {
			if string(b) == a {
				return true
			}
		}
		return false
	}
	if len(payload) >= 4 && matches(payload[0:4]) {
		return true
	}
	for off := 8; off+4 <= len(payload); off += 4 {
		if matches(payload[off : off+4]) {
			return true
		}
	}
	return false
}

// resolveRiff validates the 12-byte RIFF/FORM header and its subtype,
// returning declared-size+8 as the extent.
func resolveRiff(src Source, p int64, sig signature.Signature) (int64, bool) {
	hdr, err := src.ReadAt(p, 12)
	if err != nil || len(hdr) < 12 {
		return 0, false
	}
	if string(hdr[0:4]) != "RIFF" && string(hdr[0:4]) != "FORM" {
		return 0, false
	}
	if !bytes.Equal(hdr[8:12], sig.SizeRule.Subtype) {
		return 0, false
	}
	size := binary.LittleEndian.Uint32(hdr[4:8])
	return p + int64(size) + 8, true
}

// resolveZipEocd scans forward from p+4 for the End-Of-Central-
// Directory record and computes the archive's end from its comment
// length field.
func resolveZipEocd(src Source, p int64, sig signature.Signature) (int64, bool) {
	limit := sig.SizeRule.ScanLimit
	if limit <= 0 {
		limit = 8 * 1024 * 1024
	}
	searchStart := p + 4
	data, err := src.ReadAt(searchStart, int(limit))
	if err != nil || len(data) == 0 {
		return 0, false
	}
	idx := bytes.Index(data, zipEOCDSignature)
	if idx < 0 {
		return 0, false
	}
	eocdOffset := searchStart + int64(idx)
	rec, err := src.ReadAt(eocdOffset, 22)
	if err != nil || len(rec) < 22 {
		return 0, false
	}
	commentLen := binary.LittleEndian.Uint16(rec[20:22])
	return eocdOffset + 22 + int64(commentLen), true
}

// sliceSource adapts an in-memory byte slice to the Source interface
// so canonicalize can re-run the same resolver logic ReadAt-backed
// scans use, rather than a cheaper approximation of it.
type sliceSource []byte

func (s sliceSource) ReadAt(offset int64, size int) ([]byte, error) {
	if offset < 0 || offset >= int64(len(s)) {
		return nil, nil
	}
	end := offset + int64(size)
	if end > int64(len(s)) {
		end = int64(len(s))
	}
	return s[offset:end], nil
}

func (s sliceSource) Length() int64 { return int64(len(s)) }

// canonicalize re-trims a fully materialized candidate slice using
// the same rule resolveExtent would apply, operating purely on the
// bytes already in memory. Two hits on byte-identical embedded files,
// however they were discovered, always canonicalize to the same
// slice, which is what makes dedup a function of content rather than
// of where in the sweep a hit happened to land.
func canonicalize(data []byte, sig signature.Signature) []byte {
	switch sig.SizeRule.Kind {
	case signature.SizeRuleIsoBmff:
		// Walk the full ftyp->...->box chain exactly as resolveIsoBmff
		// would on a live source; trimming to just the ftyp box's
		// declared size (typically 16-32 bytes) would hash only that
		// leading box, and ftyp boxes sharing a brand are frequently
		// byte-identical across unrelated files.
		end, ok := resolveIsoBmff(sliceSource(data), 0, sig)
		if ok && end > 0 && end <= int64(len(data)) {
			return data[:end]
		}
		return data
	case signature.SizeRuleRiffWithSubtype:
		if len(data) >= 8 {
			size := int64(binary.LittleEndian.Uint32(data[4:8])) + 8
			if size > 0 && size <= int64(len(data)) {
				return data[:size]
			}
		}
		return data
	default:
		if len(sig.Footer) == 0 {
			return data
		}
		idx := bytes.Index(data, sig.Footer)
		if idx < 0 {
			return data
		}
		end := idx + len(sig.Footer)
		if sig.Name == "png" {
			end += 4
		}
		if end > len(data) {
			end = len(data)
		}
		return data[:end]
	}
}
