// Package bpx implements the BPX container format: a main header followed
// by a section-header table and a variable number of independently
// compressed and checksummed data sections.
//
// A Container owns a seekable backend, a MainHeader and a SectionTable.
// Sections are addressed through opaque Handle values and materialized
// lazily: Open a container, Load the sections you need, mutate them through
// the returned SectionData, then Save to re-serialize a consistent file.
package bpx
