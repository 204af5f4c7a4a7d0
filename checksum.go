package bpx

import "hash/crc32"

// Checksum is a streaming checksum engine: bytes are pushed through Push in
// any chunking and Finish returns the accumulated value. Implementations
// must be commutative with chunk boundaries.
type Checksum interface {
	Push(b []byte)
	Finish() uint32
}

// WeakChecksum is the unsigned-wrapping sum of every byte pushed through it,
// starting at zero. It is the fast default checksum used when a section
// does not request CRC32.
type WeakChecksum struct {
	state uint32
}

// NewWeakChecksum returns a fresh WeakChecksum.
func NewWeakChecksum() *WeakChecksum {
	return &WeakChecksum{}
}

// Push folds b into the running sum.
func (c *WeakChecksum) Push(b []byte) {
	for _, v := range b {
		c.state += uint32(v)
	}
}

// Finish returns the accumulated sum.
func (c *WeakChecksum) Finish() uint32 {
	return c.state
}

// Crc32Checksum is the IEEE-802.3 CRC-32 checksum engine.
type Crc32Checksum struct {
	state uint32
}

// NewCrc32Checksum returns a fresh Crc32Checksum.
func NewCrc32Checksum() *Crc32Checksum {
	return &Crc32Checksum{}
}

// Push folds b into the running CRC32.
func (c *Crc32Checksum) Push(b []byte) {
	c.state = crc32.Update(c.state, crc32.IEEETable, b)
}

// Finish returns the accumulated CRC32.
func (c *Crc32Checksum) Finish() uint32 {
	return c.state
}

// checksumFor selects the checksum engine implied by a section's flags. It
// returns a WeakChecksum when no checksum flag is set, so the read and
// write pipelines always have an engine to tee through even though the
// result goes unverified in that case.
func checksumFor(flags uint8) Checksum {
	if flags&FlagCheckCrc32 != 0 {
		return NewCrc32Checksum()
	}
	return NewWeakChecksum()
}
