package bpx

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by section table and container operations.
//
// Use errors.Is to test for these; wrapped causes (short reads, backend
// failures) are preserved with %w and can be unwrapped normally.
var (
	// ErrSectionInUse is returned when a section is already borrowed by a
	// live Load/Open call and a second borrow is attempted.
	ErrSectionInUse = errors.New("bpx: section already in use")

	// ErrSectionNotLoaded is returned by Open when the section has never
	// been materialized by a prior Load.
	ErrSectionNotLoaded = errors.New("bpx: section not loaded")

	// ErrEOS is returned when a record or payload is truncated mid-read.
	ErrEOS = errors.New("bpx: unexpected end of stream")

	// ErrBadSignature is returned when the main header magic does not
	// match the expected BPX signature.
	ErrBadSignature = errors.New("bpx: bad signature")

	// ErrBadVersion is returned when the main header version field is not
	// one this library understands.
	ErrBadVersion = errors.New("bpx: unsupported version")

	// ErrPoisoned is returned by Container's CreateSection, RemoveSection,
	// Load, Get, Open and Save once a Save has failed; the container must be
	// reopened to continue.
	ErrPoisoned = errors.New("bpx: container poisoned by a previous failed save")
)

// ChecksumError reports a mismatch between a computed and expected checksum,
// either for the section-header table aggregate or for a single section
// payload.
type ChecksumError struct {
	Computed uint32
	Expected uint32
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("bpx: checksum mismatch: computed %#x, expected %#x", e.Computed, e.Expected)
}

// UnsupportedError reports a flag combination or feature this build does
// not implement.
type UnsupportedError struct {
	Feature string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("bpx: unsupported: %s", e.Feature)
}

func newChecksumErr(computed, expected uint32) error {
	return &ChecksumError{Computed: computed, Expected: expected}
}
