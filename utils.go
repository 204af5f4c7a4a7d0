package bpx

import (
	"errors"
	"io"
)

// memoryBackend is a unified, growable in-memory Backend: a single cursor
// over a byte slice supporting Read, Write and Seek together, the way a
// Container needs (Open parses through Read/Seek, Save patches headers
// through Write/Seek, and both can apply to the same in-process buffer
// across an Open-mutate-Save-Open round trip). See DESIGN.md for why this
// is a small stdlib-only cursor rather than a third-party write-seeker.
type memoryBackend struct {
	buf []byte
	pos int64
}

// NewMemoryBackend returns an empty, in-memory Backend suitable for Create
// followed by Save, or for round-tripping through Bytes and
// OpenMemoryBackend in tests.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{&memoryBackend{}}
}

// MemoryBackend exposes Bytes() alongside the Backend methods without
// widening the Backend interface itself.
type MemoryBackend struct {
	*memoryBackend
}

// Bytes returns the current contents of the backend.
func (h *MemoryBackend) Bytes() []byte {
	out := make([]byte, len(h.buf))
	copy(out, h.buf)
	return out
}

func (m *memoryBackend) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.buf)) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *memoryBackend) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *memoryBackend) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = m.pos + offset
	case io.SeekEnd:
		target = int64(len(m.buf)) + offset
	default:
		return 0, errors.New("bpx: invalid seek whence")
	}
	if target < 0 {
		return 0, errors.New("bpx: negative seek position")
	}
	m.pos = target
	return m.pos, nil
}

// Truncate shrinks or grows the backend to exactly n bytes. saveContainer
// type-asserts for this method and calls it when present.
func (m *memoryBackend) Truncate(n int64) error {
	if n < 0 {
		return errors.New("bpx: negative truncate size")
	}
	if n <= int64(len(m.buf)) {
		m.buf = m.buf[:n]
		return nil
	}
	grown := make([]byte, n)
	copy(grown, m.buf)
	m.buf = grown
	return nil
}

// OpenMemoryBackend wraps an existing byte slice as a read/write/seekable
// Backend, for reopening a buffer previously produced by NewMemoryBackend.
func OpenMemoryBackend(data []byte) Backend {
	b := make([]byte, len(data))
	copy(b, data)
	return &memoryBackend{buf: b}
}
