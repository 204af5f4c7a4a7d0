package bpx

import (
	"fmt"
	"io"
	"sync"
)

// Handle is an opaque, stable key into a container's section table. It does
// not equal the section's index and is never reused within a container's
// lifetime.
type Handle uint32

// HandleFromRaw constructs a Handle from a raw value without checking that
// it identifies a live section. Feeding the result to a SectionTable
// operation for a handle that does not exist is a programmer error and will
// panic, exactly like any other invalid handle.
func HandleFromRaw(raw uint32) Handle {
	return Handle(raw)
}

// Raw extracts the underlying key from h.
func (h Handle) Raw() uint32 {
	return uint32(h)
}

// sectionEntry is the in-memory bookkeeping record for one section: its
// last-persisted header, its lazily materialized payload, and the
// write-time policy applied on the next Save.
type sectionEntry struct {
	header    SectionHeader
	data      *AutoSectionData
	modified  bool
	inUse     bool
	index     uint32
	flags     uint8
	threshold uint32
}

// effectiveFlags computes the write-time flags for this entry given the
// current payload size: the checksum bit passes through unconditionally,
// the compression bit is kept only if size exceeds threshold.
func (e *sectionEntry) effectiveFlags(size uint32) uint8 {
	var flags uint8
	if e.flags&FlagCheckWeak != 0 {
		flags |= FlagCheckWeak
	} else if e.flags&FlagCheckCrc32 != 0 {
		flags |= FlagCheckCrc32
	}
	if e.flags&FlagCompressXz != 0 && size > e.threshold {
		flags |= FlagCompressXz
	} else if e.flags&FlagCompressZlib != 0 && size > e.threshold {
		flags |= FlagCompressZlib
	}
	return flags
}

// Backend is the seekable byte store a Container operates over. Write is
// only required for Save.
type Backend interface {
	io.Reader
	io.Writer
	io.Seeker
}

// SectionTable is the ordered map from Handle to section entry owned by a
// Container. Iteration order is ascending by handle.
type SectionTable struct {
	mu         sync.Mutex
	ioMu       sync.Mutex
	backend    Backend
	entries    map[uint32]*sectionEntry
	handles    []uint32
	count      uint32
	modified   bool
	nextHandle uint32
}

func newSectionTable(backend Backend) *SectionTable {
	return &SectionTable{backend: backend, entries: map[uint32]*sectionEntry{}}
}

// Len returns the number of sections currently in the table.
func (t *SectionTable) Len() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// IsEmpty reports whether the table holds no sections.
func (t *SectionTable) IsEmpty() bool {
	return t.Len() == 0
}

// Iter returns the handles of all sections, in ascending handle order.
func (t *SectionTable) Iter() []Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Handle, len(t.handles))
	for i, raw := range t.handles {
		out[i] = Handle(raw)
	}
	return out
}

func (t *SectionTable) mustGet(h Handle) *sectionEntry {
	entry, ok := t.entries[uint32(h)]
	if !ok {
		panic(fmt.Sprintf("bpx: invalid section handle %d", uint32(h)))
	}
	return entry
}

// Create allocates a fresh handle and an empty section with the given
// header, returning the new handle.
func (t *SectionTable) Create(header SectionHeader) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	raw := t.nextHandle
	t.nextHandle++
	entry := &sectionEntry{
		header:    header,
		data:      NewAutoSectionData(),
		index:     t.count,
		flags:     header.Flags,
		threshold: DefaultCompressionThreshold,
	}
	t.entries[raw] = entry
	t.handles = append(t.handles, raw)
	t.count++
	t.modified = true
	return Handle(raw)
}

// Remove deletes a section from the table, closing its payload (releasing
// any spill temp file) and renumbering the index of every section that
// followed it.
//
// Panics if handle is unknown.
func (t *SectionTable) Remove(handle Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry := t.mustGet(handle)
	delete(t.entries, uint32(handle))
	for i, raw := range t.handles {
		if raw == uint32(handle) {
			t.handles = append(t.handles[:i], t.handles[i+1:]...)
			break
		}
	}
	t.count--
	t.modified = true
	for _, raw := range t.handles {
		other := t.entries[raw]
		if other.index > entry.index {
			other.index--
		}
	}
	if entry.data != nil {
		entry.data.Close()
	}
}

// Header returns the last-persisted header of a section.
//
// Panics if handle is unknown.
func (t *SectionTable) Header(handle Handle) SectionHeader {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mustGet(handle).header
}

// Index returns a section's ordinal position in the section-header table.
//
// Panics if handle is unknown.
func (t *SectionTable) Index(handle Handle) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mustGet(handle).index
}

// FindByType returns the first handle, in ascending handle order, whose
// header type matches ty.
func (t *SectionTable) FindByType(ty uint8) (Handle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, raw := range t.handles {
		if t.entries[raw].header.Type == ty {
			return Handle(raw), true
		}
	}
	return 0, false
}

// FindByIndex returns the handle whose entry has the given ordinal index.
func (t *SectionTable) FindByIndex(index uint32) (Handle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, raw := range t.handles {
		if t.entries[raw].index == index {
			return Handle(raw), true
		}
	}
	return 0, false
}

// Load materializes a section's payload if it is not already loaded and
// returns it along with a release function the caller must call (typically
// via defer) once done using the payload. While the release function has
// not been called, any further Load or Open of the same handle fails with
// ErrSectionInUse.
func (t *SectionTable) Load(handle Handle) (*AutoSectionData, func(), error) {
	t.mu.Lock()
	entry := t.mustGet(handle)
	if entry.inUse {
		t.mu.Unlock()
		return nil, nil, ErrSectionInUse
	}
	entry.inUse = true
	t.mu.Unlock()

	release := func() {
		t.mu.Lock()
		entry.inUse = false
		t.mu.Unlock()
	}

	if entry.data == nil {
		t.ioMu.Lock()
		data, err := loadSection(t.backend, &entry.header)
		t.ioMu.Unlock()
		if err != nil {
			release()
			return nil, nil, err
		}
		entry.data = data
	} else if _, err := entry.data.Seek(0, io.SeekStart); err != nil {
		release()
		return nil, nil, err
	}
	t.mu.Lock()
	entry.modified = true
	t.mu.Unlock()
	return entry.data, release, nil
}

// Open returns a section's already-materialized payload. Unlike Load it
// performs no I/O: it fails with ErrSectionNotLoaded if Load has not
// succeeded for this handle yet.
func (t *SectionTable) Open(handle Handle) (*AutoSectionData, func(), error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry := t.mustGet(handle)
	if entry.inUse {
		return nil, nil, ErrSectionInUse
	}
	if entry.data == nil {
		return nil, nil, ErrSectionNotLoaded
	}
	entry.inUse = true
	entry.modified = true
	release := func() {
		t.mu.Lock()
		entry.inUse = false
		t.mu.Unlock()
	}
	return entry.data, release, nil
}

// SetPolicy updates a section's write-time policy: the flags requested for
// the next Save and the compression threshold. Panics if handle is unknown.
func (t *SectionTable) SetPolicy(handle Handle, flags uint8, threshold uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry := t.mustGet(handle)
	entry.flags = flags
	entry.threshold = threshold
	entry.modified = true
	t.modified = true
}
