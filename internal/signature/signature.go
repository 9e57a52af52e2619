// Package signature declares the catalogue of file formats the carver
// knows how to recognise and extract.
package signature

// SizeRuleKind tags how an ExtentResolver determines where a carved
// file ends once its header has been matched.
type SizeRuleKind int

const (
	// SizeRuleNone means no special size rule applies; the resolver
	// searches a bounded window for the footer. A signature with
	// neither a footer nor another size rule has its hits skipped.
	SizeRuleNone SizeRuleKind = iota
	// SizeRuleIsoBmff parses an ISO Base Media File Format box chain
	// (mp4, mov, heic, avif, ...) starting at the header hit.
	SizeRuleIsoBmff
	// SizeRuleRiffWithSubtype parses a RIFF container's 12-byte header
	// and declared chunk size, verifying a specific four-byte subtype
	// (e.g. "WAVE" for wav, "AVI " for avi).
	SizeRuleRiffWithSubtype
	// SizeRuleZipEocd scans forward for a ZIP End-Of-Central-Directory
	// record to determine the archive's total length.
	SizeRuleZipEocd
)

// SizeRule is a tagged union describing how to resolve a signature's
// extent. Only the fields relevant to Kind are meaningful.
type SizeRule struct {
	Kind SizeRuleKind

	// AllowedBrands restricts SizeRuleIsoBmff hits to a known set of
	// major/compatible brands (e.g. "isom", "mp42", "qt  ", "heic").
	AllowedBrands []string
	// ScanLimit bounds how far SizeRuleIsoBmff's box walk or
	// SizeRuleZipEocd's EOCD search may advance past the header hit.
	ScanLimit int64
	// Subtype is the four-byte RIFF form type required for
	// SizeRuleRiffWithSubtype (e.g. []byte("WAVE")).
	Subtype []byte
}

// Signature is an immutable description of a recognised file format.
// Signatures are built once at start-up by DefaultSet and are safe to
// share read-only across concurrent Carvers.
type Signature struct {
	Name      string
	Extension string
	Header    []byte
	Footer    []byte // nil if the format has no reliable footer
	MaxSize   int64

	// HeaderAdjust is subtracted from the chunk-local hit index to
	// locate the true start of the file when Header does not begin at
	// byte zero of the format (the ISO-BMFF entries of the default
	// catalogue set it to 4, since "ftyp" follows the box size field).
	HeaderAdjust int

	SizeRule SizeRule
}

const (
	kib = 1024
	mib = 1024 * kib
	gib = 1024 * mib
)

// DefaultSet returns the built-in signature catalogue in priority
// order. Callers that only want a subset (the CLI's --types flag, for
// instance) should filter the returned slice rather than rebuild it.
func DefaultSet() []Signature {
	return []Signature{
		{
			Name:      "jpeg",
			Extension: ".jpg",
			Header:    []byte{0xFF, 0xD8, 0xFF},
			Footer:    []byte{0xFF, 0xD9},
			MaxSize:   50 * mib,
		},
		{
			Name:      "png",
			Extension: ".png",
			Header:    []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
			Footer:    []byte("IEND"),
			MaxSize:   50 * mib,
		},
		{
			Name:      "gif",
			Extension: ".gif",
			Header:    []byte("GIF8"),
			Footer:    []byte{0x00, 0x3B},
			MaxSize:   20 * mib,
		},
		{
			Name:      "bmp",
			Extension: ".bmp",
			Header:    []byte{0x42, 0x4D},
			MaxSize:   50 * mib,
		},
		{
			Name:      "pdf",
			Extension: ".pdf",
			Header:    []byte("%PDF-"),
			Footer:    []byte("%%EOF"),
			MaxSize:   500 * mib,
		},
		{
			Name:      "zip",
			Extension: ".zip",
			Header:    []byte{0x50, 0x4B, 0x03, 0x04},
			MaxSize:   1 * gib,
			SizeRule:  SizeRule{Kind: SizeRuleZipEocd, ScanLimit: 8 * mib},
		},
		{
			Name:      "docx",
			Extension: ".docx",
			Header:    []byte{0x50, 0x4B, 0x03, 0x04},
			MaxSize:   100 * mib,
			SizeRule:  SizeRule{Kind: SizeRuleZipEocd, ScanLimit: 8 * mib},
		},
		{
			Name:      "xlsx",
			Extension: ".xlsx",
			Header:    []byte{0x50, 0x4B, 0x03, 0x04},
			MaxSize:   100 * mib,
			SizeRule:  SizeRule{Kind: SizeRuleZipEocd, ScanLimit: 8 * mib},
		},
		{
			Name:      "pptx",
			Extension: ".pptx",
			Header:    []byte{0x50, 0x4B, 0x03, 0x04},
			MaxSize:   500 * mib,
			SizeRule:  SizeRule{Kind: SizeRuleZipEocd, ScanLimit: 8 * mib},
		},
		{
			Name:      "rar",
			Extension: ".rar",
			Header:    []byte{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07},
			MaxSize:   1 * gib,
		},
		{
			Name:      "7z",
			Extension: ".7z",
			Header:    []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C},
			MaxSize:   1 * gib,
		},
		{
			Name:      "wav",
			Extension: ".wav",
			Header:    []byte("RIFF"),
			MaxSize:   500 * mib,
			SizeRule:  SizeRule{Kind: SizeRuleRiffWithSubtype, Subtype: []byte("WAVE")},
		},
		{
			Name:      "avi",
			Extension: ".avi",
			Header:    []byte("RIFF"),
			MaxSize:   4 * gib,
			SizeRule:  SizeRule{Kind: SizeRuleRiffWithSubtype, Subtype: []byte("AVI ")},
		},
		{
			Name:      "webp",
			Extension: ".webp",
			Header:    []byte("RIFF"),
			MaxSize:   50 * mib,
			SizeRule:  SizeRule{Kind: SizeRuleRiffWithSubtype, Subtype: []byte("WEBP")},
		},
		{
			Name:      "mp3",
			Extension: ".mp3",
			Header:    []byte{0xFF, 0xFB},
			MaxSize:   100 * mib,
		},
		{
			Name:      "mp3-id3",
			Extension: ".mp3",
			Header:    []byte("ID3"),
			MaxSize:   100 * mib,
		},
		{
			Name:      "flac",
			Extension: ".flac",
			Header:    []byte("fLaC"),
			MaxSize:   500 * mib,
		},
		{
			Name:      "ogg",
			Extension: ".ogg",
			Header:    []byte("OggS"),
			MaxSize:   200 * mib,
		},
		{
			Name:      "mp4",
			Extension: ".mp4",
			Header:    []byte("ftyp"),
			// the "ftyp" atom name sits at byte offset 4 of the box;
			// HeaderAdjust walks back to the box's 4-byte size field.
			HeaderAdjust: 4,
			MaxSize:      4 * gib,
			SizeRule: SizeRule{
				Kind:          SizeRuleIsoBmff,
				ScanLimit:     256 * mib,
				AllowedBrands: []string{"isom", "iso2", "mp41", "mp42", "M4V ", "M4A "},
			},
		},
		{
			Name:         "mov",
			Extension:    ".mov",
			Header:       []byte("ftyp"),
			HeaderAdjust: 4,
			MaxSize:      4 * gib,
			SizeRule: SizeRule{
				Kind:          SizeRuleIsoBmff,
				ScanLimit:     256 * mib,
				AllowedBrands: []string{"qt  "},
			},
		},
		{
			Name:         "3gp",
			Extension:    ".3gp",
			Header:       []byte("ftyp"),
			HeaderAdjust: 4,
			MaxSize:      4 * gib,
			SizeRule: SizeRule{
				Kind:          SizeRuleIsoBmff,
				ScanLimit:     256 * mib,
				AllowedBrands: []string{"3gp5", "3g2a"},
			},
		},
		{
			Name:         "heic",
			Extension:    ".heic",
			Header:       []byte("ftyp"),
			HeaderAdjust: 4,
			MaxSize:      100 * mib,
			SizeRule: SizeRule{
				Kind:          SizeRuleIsoBmff,
				ScanLimit:     64 * mib,
				AllowedBrands: []string{"heic", "heix", "hevc", "hevx", "mif1", "msf1"},
			},
		},
		{
			Name:         "avif",
			Extension:    ".avif",
			Header:       []byte("ftyp"),
			HeaderAdjust: 4,
			MaxSize:      100 * mib,
			SizeRule: SizeRule{
				Kind:          SizeRuleIsoBmff,
				ScanLimit:     64 * mib,
				AllowedBrands: []string{"avif"},
			},
		},
		{
			Name:      "cr2",
			Extension: ".cr2",
			Header:    []byte{0x49, 0x49, 0x2A, 0x00},
			MaxSize:   100 * mib,
		},
		{
			Name:      "nef",
			Extension: ".nef",
			Header:    []byte{0x4D, 0x4D, 0x00, 0x2A},
			MaxSize:   100 * mib,
		},
		{
			Name:      "arw",
			Extension: ".arw",
			Header:    []byte{0x49, 0x49, 0x2A, 0x00},
			MaxSize:   100 * mib,
		},
		{
			Name:      "mkv",
			Extension: ".mkv",
			Header:    []byte{0x1A, 0x45, 0xDF, 0xA3},
			MaxSize:   4 * gib,
		},
		{
			Name:      "exe",
			Extension: ".exe",
			Header:    []byte{0x4D, 0x5A},
			MaxSize:   500 * mib,
		},
		{
			Name:      "elf",
			Extension: ".elf",
			Header:    []byte{0x7F, 0x45, 0x4C, 0x46},
			MaxSize:   500 * mib,
		},
		{
			Name:      "pst",
			Extension: ".pst",
			Header:    []byte("!BDN"),
			MaxSize:   4 * gib,
		},
		{
			Name:      "sqlite",
			Extension: ".sqlite",
			Header:    []byte("SQLite format 3\x00"),
			MaxSize:   1 * gib,
		},
	}
}
