package bpx

import (
	"fmt"
	"io"
)

// saveContainer rewrites the on-disk layout of backend: every section
// payload is (re)materialized if needed, then written through its
// deflate+checksum pipeline at a fresh append position, then the
// section-header table and main header are rewritten to reflect the new
// pointers, sizes and aggregate checksum.
//
// Every entry is always rewritten rather than skipped when unmodified: once
// the section-header table's length changes (a section was added or
// removed since open), an unmodified section's old on-disk byte range no
// longer lines up with its new position relative to a possibly resized
// header table, so byte-preserving in place is not safe in general. Always
// re-emitting every payload keeps Save's on-disk result correct regardless
// of how the table changed, at the cost of a copy-avoidance optimization
// for sections that never moved.
func saveContainer(backend Backend, main *MainHeader, table *SectionTable) error {
	table.mu.Lock()
	defer table.mu.Unlock()
	table.ioMu.Lock()
	defer table.ioMu.Unlock()

	ordered := make([]*sectionEntry, table.count)
	for _, raw := range table.handles {
		e := table.entries[raw]
		ordered[e.index] = e
	}

	// Make sure every section's payload bytes are available before we
	// start overwriting the backend, so a fresh write can never clobber
	// bytes we still need to read for a later, not-yet-loaded section.
	for _, e := range ordered {
		if e.data == nil {
			data, err := loadSection(backend, &e.header)
			if err != nil {
				return err
			}
			e.data = data
		}
	}

	headerTableOffset := sectionHeaderTableOffset()
	writeCursor := headerTableOffset + int64(table.count)*sectionHeaderSize
	if _, err := backend.Seek(writeCursor, io.SeekStart); err != nil {
		return err
	}

	for _, e := range ordered {
		size := uint32(e.data.Size())
		effFlags := e.effectiveFlags(size)
		if _, err := e.data.Seek(0, io.SeekStart); err != nil {
			return err
		}
		chksum := checksumFor(effFlags)

		var csize uint32
		if deflater, ok := deflaterFor(effFlags); ok {
			n, err := deflater.Deflate(e.data, backend, chksum)
			if err != nil {
				return err
			}
			csize = uint32(n)
		} else {
			n, err := copyRawTee(e.data, backend, size, chksum)
			if err != nil {
				return err
			}
			csize = n
		}

		e.header = SectionHeader{
			Pointer:  uint64(writeCursor),
			Size:     size,
			Csize:    csize,
			Checksum: chksum.Finish(),
			Type:     e.header.Type,
			Flags:    effFlags,
		}
		writeCursor += int64(csize)
	}

	if _, err := backend.Seek(headerTableOffset, io.SeekStart); err != nil {
		return err
	}
	var aggregate uint32
	for _, e := range ordered {
		chk, err := writeSectionHeader(backend, &e.header)
		if err != nil {
			return err
		}
		aggregate += chk
	}

	main.SectionNum = table.count
	main.Checksum = aggregate
	main.FileSize = uint32(writeCursor)
	if _, err := backend.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := writeMainHeader(backend, main); err != nil {
		return err
	}

	if truncator, ok := backend.(interface{ Truncate(int64) error }); ok {
		// Best effort: not every backend supports truncation.
		_ = truncator.Truncate(writeCursor)
	}

	for _, e := range ordered {
		e.modified = false
	}
	table.modified = false
	return nil
}

// copyRawTee copies exactly size bytes from src to dst, teeing every chunk
// through chksum, and returns the number of bytes copied.
func copyRawTee(src io.Reader, dst io.Writer, size uint32, chksum Checksum) (uint32, error) {
	var block [ReadBlockSize]byte
	var written uint32
	remaining := int(size)
	for remaining > 0 {
		n := ReadBlockSize
		if n > remaining {
			n = remaining
		}
		read, err := io.ReadFull(src, block[:n])
		if err != nil {
			return written, fmt.Errorf("%w: reading section payload: %v", ErrEOS, err)
		}
		if _, err := dst.Write(block[:read]); err != nil {
			return written, err
		}
		chksum.Push(block[:read])
		written += uint32(read)
		remaining -= read
	}
	return written, nil
}
