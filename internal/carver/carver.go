// Package carver implements the signature-based file carving sweep:
// a chunked-with-overlap scan over a raw source that recognises known
// file-format headers, resolves each candidate's extent, deduplicates
// by content, and writes recovered bytes to an output directory.
package carver

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/shubham/sigcarve/internal/diskio"
	"github.com/shubham/sigcarve/internal/signature"
)

// ErrNoSignatures is a Fatal error per spec.md §7: the signature
// table must not be empty.
var ErrNoSignatures = errors.New("carver: no signatures configured")

const pauseTick = 20 * time.Millisecond

// Hooks bundles the three control-plane collaborators a front end
// drives a scan with: a progress sink and two cooperative flags.
type Hooks struct {
	// Progress is invoked synchronously from the worker goroutine at
	// least once per chunk and once at termination. It must not
	// block; front ends typically send on a buffered channel or
	// update an atomic counter here.
	Progress func(current, total int64)
	// Stop, when set, ends the scan within one chunk read plus one
	// signature pass.
	Stop *atomic.Bool
	// Pause, while set, suspends the sweep between chunk boundaries;
	// progress keeps being reported while paused.
	Pause *atomic.Bool
}

func (h *Hooks) normalize() {
	if h.Progress == nil {
		h.Progress = func(int64, int64) {}
	}
	if h.Stop == nil {
		h.Stop = new(atomic.Bool)
	}
	if h.Pause == nil {
		h.Pause = new(atomic.Bool)
	}
}

// Carver owns a RawReader, the dedup set, and the current chunk for
// the lifetime of one scan. Construct with New, consume the channel
// Scan returns, and the reader is released automatically when the
// scan terminates (or call Close to release it early).
type Carver struct {
	sourcePath string
	outputDir  string
	sigs       []signature.Signature
	opts       CarveOptions
	hooks      Hooks

	reader *diskio.Reader
	state  atomic.Int32
}

// New opens the source and constructs a Carver ready to scan it. A
// failure to open the source or the output directory is OpenFailed
// per spec.md §7 and is returned directly; the scan never starts.
// When opts.WriteOutput is set, an empty outputDir is rejected and the
// directory is created if it does not exist yet.
func New(sourcePath, outputDir string, sigs []signature.Signature, opts CarveOptions, hooks Hooks) (*Carver, error) {
	if len(sigs) == 0 {
		return nil, fmt.Errorf("carver: %w", ErrNoSignatures)
	}
	if opts.WriteOutput {
		if outputDir == "" {
			return nil, fmt.Errorf("carver: output directory required when WriteOutput is set")
		}
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return nil, fmt.Errorf("carver: open output dir: %w", err)
		}
	}
	reader, err := diskio.Open(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("carver: open source: %w", err)
	}
	hooks.normalize()
	c := &Carver{
		sourcePath: sourcePath,
		outputDir:  outputDir,
		sigs:       sigs,
		opts:       opts.normalize(),
		hooks:      hooks,
		reader:     reader,
	}
	c.state.Store(int32(StateIdle))
	return c, nil
}

// State reports where this Carver's single scan currently sits in the
// spec.md §4.6 state machine.
func (c *Carver) State() ScanState {
	return ScanState(c.state.Load())
}

// Close releases the underlying raw handle. Safe to call more than
// once and safe to call after Scan's channel has already closed.
func (c *Carver) Close() error {
	return c.reader.Close()
}

// Scan runs the chunked sweep described in spec.md §4.1 and returns a
// channel of CarveResult that closes when the scan terminates: the
// source is exhausted, the stop flag (or ctx) fires, MaxFiles results
// have been emitted, or MaxBytes have been consumed.
func (c *Carver) Scan(ctx context.Context) <-chan CarveResult {
	out := make(chan CarveResult)
	c.state.Store(int32(StateRunning))
	scanID := uuid.New().String()
	go c.run(ctx, out, scanID)
	return out
}

func (c *Carver) stopped(ctx context.Context) bool {
	return c.hooks.Stop.Load() || ctx.Err() != nil
}

func (c *Carver) run(ctx context.Context, out chan<- CarveResult, scanID string) {
	defer close(out)
	defer c.reader.Close()

	log.Info("scan starting", "scan_id", scanID, "source", c.sourcePath, "signatures", len(c.sigs))

	total := c.reader.Length()
	if c.opts.MaxBytes > 0 && c.opts.MaxBytes < total {
		total = c.opts.MaxBytes
	}
	cur := c.opts.StartOffset
	dedup := make(map[string]struct{})
	emitted := 0
	finalState := StateCompleted

scan:
	for cur < total {
		for c.hooks.Pause.Load() {
			c.state.Store(int32(StatePaused))
			c.hooks.Progress(cur, total)
			if c.stopped(ctx) {
				break
			}
			time.Sleep(pauseTick)
		}
		if c.stopped(ctx) {
			finalState = StateStopped
			break
		}
		c.state.Store(int32(StateRunning))

		readSize := c.opts.ChunkSize
		if int64(readSize) > total-cur {
			readSize = int(total - cur)
		}
		buf, err := c.reader.ReadAt(cur, readSize)
		if err != nil {
			log.Debug("chunk read failed, advancing one sector", "scan_id", scanID, "offset", cur, "err", err)
			cur += sectorSize
			continue
		}
		if len(buf) == 0 {
			break
		}

		for _, sig := range c.sigs {
			i := 0
			for i < len(buf) {
				idx := bytes.Index(buf[i:], sig.Header)
				if idx < 0 {
					break
				}
				hitIndex := i + idx
				i = hitIndex + 1
				global := cur + int64(hitIndex) - int64(sig.HeaderAdjust)
				if global < 0 {
					continue
				}
				res, emit := c.processHit(global, sig, dedup)
				if !emit {
					continue
				}
				select {
				case out <- res:
				case <-ctx.Done():
					finalState = StateStopped
					break scan
				}
				emitted++
				if c.opts.MaxFiles > 0 && emitted >= c.opts.MaxFiles {
					c.hooks.Progress(cur+int64(len(buf)), total)
					break scan
				}
			}
			if c.stopped(ctx) {
				finalState = StateStopped
				break scan
			}
		}

		c.hooks.Progress(cur+int64(len(buf)), total)

		effectiveOverlap := c.opts.Overlap
		if effectiveOverlap > len(buf)/2 {
			effectiveOverlap = len(buf) / 2
		}
		advance := len(buf) - effectiveOverlap
		if advance <= 0 {
			advance = len(buf)
		}
		cur += int64(advance)
	}

	c.hooks.Progress(total, total)
	c.state.Store(int32(finalState))
	log.Info("scan finished", "scan_id", scanID, "state", finalState.String(), "emitted", emitted)
}

// processHit resolves, validates, canonicalizes, dedups, and (if
// configured) writes a single header hit. It returns emit=false for
// any ParseRejected, undersized, format-invalid, or duplicate
// candidate — spec.md's silent-skip path.
func (c *Carver) processHit(start int64, sig signature.Signature, dedup map[string]struct{}) (CarveResult, bool) {
	end, ok := resolveExtent(c.reader, start, sig, c.opts.ChunkSize)
	if !ok {
		return CarveResult{}, false
	}
	length := end - start
	if length < c.opts.MinSize {
		return CarveResult{}, false
	}

	data, err := c.reader.ReadAt(start, int(length))
	if err != nil || int64(len(data)) < length {
		return CarveResult{}, false
	}
	// defensive copy: never let a CarveResult reference memory owned
	// by the sliding chunk buffer.
	data = append([]byte(nil), data...)

	canon := canonicalize(data, sig)
	if !formatSane(sig.Name, canon) {
		return CarveResult{}, false
	}

	sum := sha256.Sum256(canon)
	hexSum := hex.EncodeToString(sum[:])
	if c.opts.Deduplicate {
		if _, seen := dedup[hexSum]; seen {
			return CarveResult{}, false
		}
		dedup[hexSum] = struct{}{}
	}

	res := CarveResult{
		SignatureName: sig.Name,
		StartOffset:   start,
		EndOffset:     end,
		OK:            true,
		SHA256:        hexSum,
	}

	if c.opts.WriteOutput {
		path := outputPath(c.outputDir, sig.Name, sig.Extension, start, length)
		if err := writeFile(path, data); err != nil {
			res.OK = false
			res.Note = err.Error()
		} else {
			res.OutPath = path
		}
	} else {
		res.Data = data
	}
	return res, true
}

// formatSane applies the §4.4 sanity check for image formats whose
// magic bytes alone are too weak a signal.
func formatSane(sigName string, data []byte) bool {
	switch sigName {
	case "jpeg":
		return len(data) >= 5 &&
			bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}) &&
			bytes.HasSuffix(data, []byte{0xFF, 0xD9})
	case "png":
		return len(data) >= 12 &&
			bytes.HasPrefix(data, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}) &&
			bytes.Contains(data[len(data)-8:], []byte("IEND"))
	case "gif":
		return len(data) >= 6 &&
			bytes.HasPrefix(data, []byte("GIF8")) &&
			bytes.HasSuffix(data, []byte{0x00, 0x3B})
	default:
		return true
	}
}
