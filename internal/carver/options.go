package carver

// CarveOptions controls a single Carver.Scan invocation. Zero values
// are not valid on their own; use NewOptions to get sane defaults and
// override only the fields a caller cares about.
type CarveOptions struct {
	// ChunkSize is the size of each read window, in bytes. Must be
	// >= 4096.
	ChunkSize int
	// Overlap is the number of trailing bytes of one chunk re-read at
	// the start of the next, so a header straddling a chunk boundary
	// is still found. Clamped internally to ChunkSize/2 per chunk to
	// guarantee forward progress (see Carver.Scan).
	Overlap int
	// MaxFiles stops the scan once this many results have been
	// emitted. Zero means unlimited.
	MaxFiles int
	// MaxBytes ends the sweep at this absolute offset of the source
	// (it is not counted from StartOffset). Zero means the whole
	// source.
	MaxBytes int64
	// MinSize discards any candidate shorter than this, in bytes.
	MinSize int64
	// StartOffset is where the sweep begins.
	StartOffset int64
	// Deduplicate, when true, drops any candidate whose canonical
	// bytes were already emitted earlier in the same scan.
	Deduplicate bool
	// WriteOutput, when true, writes carved bytes under the output
	// directory passed to New. When
	// false, CarveResult.Data carries the bytes instead and nothing is
	// written to disk (useful for dry-run scans and tests).
	WriteOutput bool
}

const (
	// DefaultChunkSize matches the teacher's 1 MiB sweep buffer.
	DefaultChunkSize = 1024 * 1024
	// DefaultOverlap is large enough to catch any signature in the
	// default catalogue straddling a chunk boundary.
	DefaultOverlap = 64 * 1024
	// DefaultMinSize mirrors the CLI default in spec.md §6.
	DefaultMinSize = 256
	sectorSize     = 4096
)

// NewOptions returns CarveOptions with the engine's defaults; fields
// the caller does not overwrite keep them. Apart from a ChunkSize
// below 4096, a field the caller sets to zero stays zero.
func NewOptions() CarveOptions {
	return CarveOptions{
		ChunkSize:   DefaultChunkSize,
		Overlap:     DefaultOverlap,
		MinSize:     DefaultMinSize,
		Deduplicate: true,
		WriteOutput: true,
	}
}

// normalize clamps options to the invariants spec.md §3 requires and
// returns the result; it never mutates the receiver.
func (o CarveOptions) normalize() CarveOptions {
	out := o
	if out.ChunkSize < sectorSize {
		out.ChunkSize = DefaultChunkSize
	}
	if out.Overlap < 0 {
		out.Overlap = 0
	}
	if out.Overlap > out.ChunkSize/2 {
		out.Overlap = out.ChunkSize / 2
	}
	if out.MinSize < 0 {
		out.MinSize = 0
	}
	return out
}

// CarveResult is one candidate file produced by a scan.
type CarveResult struct {
	SignatureName string
	StartOffset   int64
	EndOffset     int64
	OutPath       string
	OK            bool
	Note          string
	SHA256        string
	// Data carries the carved bytes when CarveOptions.WriteOutput is
	// false. It is always a fresh copy, never a view into the
	// Carver's internal chunk buffer.
	Data []byte
}

// Length returns the byte length of the candidate's extent.
func (r CarveResult) Length() int64 {
	return r.EndOffset - r.StartOffset
}
