package bpx

import (
	"fmt"
	"io"
	"os"
)

// DefaultSpillThreshold is the size, in bytes, past which an AutoSectionData
// promotes itself from an in-memory buffer to a temp file.
const DefaultSpillThreshold = 100 * 1024 * 1024

// SectionData is the read/write/seek surface exposed for a materialized
// section payload.
type SectionData interface {
	io.Reader
	io.Writer
	io.Seeker
	// Size returns the maximum file-position ever reached by a completed
	// write, not the current seek position.
	Size() uint64
	// LoadInMemory returns a fresh owned copy of the full contents
	// regardless of whether the payload currently lives in memory or on
	// disk.
	LoadInMemory() ([]byte, error)
}

// AutoSectionData is a seekable section payload buffer that starts as an
// in-memory slice and transparently spills to a temp file once its logical
// size would cross threshold. Once spilled, it never demotes back.
type AutoSectionData struct {
	mem       []byte
	pos       int64
	size      int64
	file      *os.File
	spilled   bool
	threshold int64
}

// NewAutoSectionData returns an empty, in-memory AutoSectionData using the
// default spill threshold.
func NewAutoSectionData() *AutoSectionData {
	return &AutoSectionData{threshold: DefaultSpillThreshold}
}

// NewAutoSectionDataWithSize returns an empty AutoSectionData with its
// in-memory buffer pre-sized to capacityHint bytes, to avoid reallocation
// when the final size is already known (e.g. loading an existing section).
func NewAutoSectionDataWithSize(capacityHint uint32) *AutoSectionData {
	return &AutoSectionData{
		mem:       make([]byte, 0, capacityHint),
		threshold: DefaultSpillThreshold,
	}
}

// Read implements io.Reader. A read at or past Size returns (0, io.EOF)
// rather than failing.
func (d *AutoSectionData) Read(p []byte) (int, error) {
	if d.pos >= d.size {
		return 0, io.EOF
	}
	max := d.size - d.pos
	if int64(len(p)) > max {
		p = p[:max]
	}
	if d.spilled {
		n, err := d.file.ReadAt(p, d.pos)
		d.pos += int64(n)
		if err == io.EOF {
			err = nil
		}
		return n, err
	}
	n := copy(p, d.mem[d.pos:])
	d.pos += int64(n)
	return n, nil
}

// Write implements io.Writer, promoting to a temp file if this write would
// push Size past the configured spill threshold.
func (d *AutoSectionData) Write(p []byte) (int, error) {
	end := d.pos + int64(len(p))
	if !d.spilled && end > d.threshold {
		if err := d.promote(); err != nil {
			return 0, err
		}
	}
	if d.spilled {
		n, err := d.file.WriteAt(p, d.pos)
		d.pos += int64(n)
		if d.pos > d.size {
			d.size = d.pos
		}
		return n, err
	}
	if end > int64(cap(d.mem)) {
		grown := make([]byte, end)
		copy(grown, d.mem)
		d.mem = grown
	} else if end > int64(len(d.mem)) {
		d.mem = d.mem[:end]
	}
	copy(d.mem[d.pos:end], p)
	d.pos = end
	if d.pos > d.size {
		d.size = d.pos
	}
	return len(p), nil
}

// promote flushes the current in-memory content to a fresh temp file and
// switches variant, preserving the current seek position.
func (d *AutoSectionData) promote() error {
	f, err := os.CreateTemp("", "bpx-section-*")
	if err != nil {
		return fmt.Errorf("bpx: spilling section to temp file: %w", err)
	}
	if d.size > 0 {
		if _, err := f.WriteAt(d.mem[:d.size], 0); err != nil {
			f.Close()
			os.Remove(f.Name())
			return fmt.Errorf("bpx: spilling section to temp file: %w", err)
		}
	}
	d.file = f
	d.spilled = true
	d.mem = nil
	return nil
}

// Seek implements io.Seeker. Seeking past Size is allowed; a subsequent
// write there extends the payload and reads there return EOF until written.
func (d *AutoSectionData) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = d.pos + offset
	case io.SeekEnd:
		target = d.size + offset
	default:
		return 0, fmt.Errorf("bpx: invalid seek whence %d", whence)
	}
	if target < 0 {
		return 0, fmt.Errorf("bpx: negative seek position")
	}
	d.pos = target
	return d.pos, nil
}

// Size returns the maximum file-position ever reached by a completed write.
func (d *AutoSectionData) Size() uint64 {
	return uint64(d.size)
}

// LoadInMemory returns a fresh copy of the full payload regardless of
// whether it currently lives in memory or on disk.
func (d *AutoSectionData) LoadInMemory() ([]byte, error) {
	if !d.spilled {
		out := make([]byte, d.size)
		copy(out, d.mem)
		return out, nil
	}
	out := make([]byte, d.size)
	if _, err := d.file.ReadAt(out, 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("bpx: loading section into memory: %w", err)
	}
	return out, nil
}

// Close releases the backing temp file, if any was allocated. Errors from
// the best-effort unlink are swallowed: a leaked temp file is not worth
// surfacing as a caller-visible failure.
func (d *AutoSectionData) Close() error {
	if d.spilled && d.file != nil {
		name := d.file.Name()
		d.file.Close()
		os.Remove(name)
		d.file = nil
	}
	return nil
}
