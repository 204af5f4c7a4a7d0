package bpx

// MainHeaderBuilder constructs a MainHeader with sensible defaults (current
// format version, zeroed type/type-ext) before a Container is created.
type MainHeaderBuilder struct {
	h MainHeader
}

// NewMainHeaderBuilder returns a builder seeded with the current format
// version.
func NewMainHeaderBuilder() *MainHeaderBuilder {
	return &MainHeaderBuilder{h: MainHeader{Version: currentVersion}}
}

// Type sets the main header's format-specific type byte.
func (b *MainHeaderBuilder) Type(ty uint8) *MainHeaderBuilder {
	b.h.Type = ty
	return b
}

// TypeExt sets the main header's format-specific type-ext bytes.
func (b *MainHeaderBuilder) TypeExt(ext [16]byte) *MainHeaderBuilder {
	b.h.TypeExt = ext
	return b
}

// Build returns the constructed MainHeader.
func (b *MainHeaderBuilder) Build() MainHeader {
	return b.h
}

// SectionHeaderBuilder constructs a SectionHeader plus the write-time policy
// (desired flags and compression threshold) applied to it on every Save,
// before the section is added to a Container.
type SectionHeaderBuilder struct {
	ty        uint8
	flags     uint8
	threshold uint32
}

// NewSectionHeaderBuilder returns a builder for an uncompressed,
// unchecksummed section using DefaultCompressionThreshold.
func NewSectionHeaderBuilder() *SectionHeaderBuilder {
	return &SectionHeaderBuilder{threshold: DefaultCompressionThreshold}
}

// Type sets the section's user type tag.
func (b *SectionHeaderBuilder) Type(ty uint8) *SectionHeaderBuilder {
	b.ty = ty
	return b
}

// Checksum requests a checksum flag (FlagCheckWeak or FlagCheckCrc32) for
// this section, clearing any other checksum bit previously set.
func (b *SectionHeaderBuilder) Checksum(flag uint8) *SectionHeaderBuilder {
	b.flags &^= FlagCheckWeak | FlagCheckCrc32
	b.flags |= flag & (FlagCheckWeak | FlagCheckCrc32)
	return b
}

// Compress requests a compression flag (FlagCompressXz or FlagCompressZlib)
// for this section, clearing any other compression bit previously set.
func (b *SectionHeaderBuilder) Compress(flag uint8) *SectionHeaderBuilder {
	b.flags &^= FlagCompressXz | FlagCompressZlib
	b.flags |= flag & (FlagCompressXz | FlagCompressZlib)
	return b
}

// Threshold overrides the size, in bytes, at or below which compression is
// skipped even if requested.
func (b *SectionHeaderBuilder) Threshold(t uint32) *SectionHeaderBuilder {
	b.threshold = t
	return b
}

// Build returns the zero-sized SectionHeader implied by this builder and the
// write-time policy (flags, threshold) to install alongside it.
func (b *SectionHeaderBuilder) Build() (SectionHeader, uint8, uint32) {
	return SectionHeader{Type: b.ty, Flags: b.flags}, b.flags, b.threshold
}
