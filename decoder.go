package bpx

import (
	"fmt"
	"io"
)

// decodeSectionHeaderTable reads main.SectionNum consecutive SectionHeader
// records from backend's current position (immediately after the main
// header), accumulating their record checksums against the main header's
// aggregate. Each record becomes a header-only sectionEntry with a
// sequentially allocated handle, in the order the handles were read.
func decodeSectionHeaderTable(backend Backend, main *MainHeader) (map[uint32]*sectionEntry, []uint32, error) {
	entries := make(map[uint32]*sectionEntry, main.SectionNum)
	handles := make([]uint32, 0, main.SectionNum)
	var accum uint32

	for i := uint32(0); i < main.SectionNum; i++ {
		chk, header, err := readSectionHeader(backend)
		if err != nil {
			return nil, nil, err
		}
		accum += chk
		entries[i] = &sectionEntry{
			header:    header,
			index:     i,
			flags:     header.Flags,
			threshold: DefaultCompressionThreshold,
		}
		handles = append(handles, i)
	}
	if accum != main.Checksum {
		return nil, nil, newChecksumErr(accum, main.Checksum)
	}
	return entries, handles, nil
}

// loadSection materializes a section's payload by reading it from backend
// according to header's compression and checksum flags, verifying the
// checksum when one is requested.
func loadSection(backend Backend, header *SectionHeader) (*AutoSectionData, error) {
	data := NewAutoSectionDataWithSize(header.Size)
	if _, err := data.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	chksum := checksumFor(header.Flags)

	if _, err := backend.Seek(int64(header.Pointer), io.SeekStart); err != nil {
		return nil, err
	}

	if inflater, ok := inflaterFor(header.Flags); ok {
		if err := inflater.Inflate(backend, data, int(header.Csize), chksum); err != nil {
			return nil, err
		}
	} else {
		if err := copyUncompressed(backend, data, header.Size, chksum); err != nil {
			return nil, err
		}
	}

	if header.Flags&(FlagCheckWeak|FlagCheckCrc32) != 0 {
		if v := chksum.Finish(); v != header.Checksum {
			return nil, newChecksumErr(v, header.Checksum)
		}
	}

	if _, err := data.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return data, nil
}

// copyUncompressed sequentially copies size bytes from backend's current
// position to dst in ReadBlockSize chunks, teeing every chunk through
// chksum.
func copyUncompressed(backend Backend, dst io.Writer, size uint32, chksum Checksum) error {
	var block [ReadBlockSize]byte
	remaining := int(size)
	for remaining > 0 {
		n := ReadBlockSize
		if n > remaining {
			n = remaining
		}
		read, err := io.ReadFull(backend, block[:n])
		if err != nil {
			return fmt.Errorf("%w: reading section payload: %v", ErrEOS, err)
		}
		if _, err := dst.Write(block[:read]); err != nil {
			return err
		}
		chksum.Push(block[:read])
		remaining -= read
	}
	return nil
}
