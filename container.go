package bpx

import "io"

// Container owns a backend, its main header, and its section table. It is
// the library's public facade: Create or Open a container, manipulate
// sections through the handles it hands out, then Save to persist a
// consistent file.
type Container struct {
	backend  Backend
	main     MainHeader
	sections *SectionTable
	poisoned bool
}

// Create returns a new, empty Container over backend using the header
// produced by builder. Nothing is written to backend until Save is called.
func Create(backend Backend, builder *MainHeaderBuilder) *Container {
	return &Container{
		backend:  backend,
		main:     builder.Build(),
		sections: newSectionTable(backend),
	}
}

// Open parses backend's main header and section-header table and returns a
// Container over it. Section payloads are not read until a section is
// Loaded.
func Open(backend Backend) (*Container, error) {
	_, main, err := readMainHeader(backend)
	if err != nil {
		return nil, err
	}
	entries, handles, err := decodeSectionHeaderTable(backend, &main)
	if err != nil {
		return nil, err
	}
	table := newSectionTable(backend)
	table.entries = entries
	table.handles = handles
	table.count = uint32(len(handles))
	table.nextHandle = table.count
	return &Container{backend: backend, main: main, sections: table}, nil
}

// Sections returns the container's section table for inspection and
// mutation.
func (c *Container) Sections() *SectionTable {
	return c.sections
}

// MainHeader returns a copy of the container's current main header.
func (c *Container) MainHeader() MainHeader {
	return c.main
}

func (c *Container) checkPoisoned() error {
	if c.poisoned {
		return ErrPoisoned
	}
	return nil
}

// CreateSection adds a new, empty section described by builder and returns
// its handle.
func (c *Container) CreateSection(builder *SectionHeaderBuilder) (Handle, error) {
	if err := c.checkPoisoned(); err != nil {
		return 0, err
	}
	header, flags, threshold := builder.Build()
	h := c.sections.Create(header)
	c.sections.SetPolicy(h, flags, threshold)
	return h, nil
}

// RemoveSection removes a section. Panics if handle is unknown.
func (c *Container) RemoveSection(handle Handle) error {
	if err := c.checkPoisoned(); err != nil {
		return err
	}
	c.sections.Remove(handle)
	return nil
}

// Load materializes and exclusively borrows a section's payload, reading it
// from the backend on first access. The caller must invoke the returned
// release function (typically via defer) once done.
func (c *Container) Load(handle Handle) (*AutoSectionData, func(), error) {
	if err := c.checkPoisoned(); err != nil {
		return nil, nil, err
	}
	return c.sections.Load(handle)
}

// Get is an alias for Load.
func (c *Container) Get(handle Handle) (*AutoSectionData, func(), error) {
	return c.Load(handle)
}

// Open exclusively borrows a section's payload without performing I/O; it
// fails with ErrSectionNotLoaded if the section was never Loaded.
func (c *Container) Open(handle Handle) (*AutoSectionData, func(), error) {
	if err := c.checkPoisoned(); err != nil {
		return nil, nil, err
	}
	return c.sections.Open(handle)
}

// FindSectionByType returns the first handle whose header type matches ty.
func (c *Container) FindSectionByType(ty uint8) (Handle, bool) {
	return c.sections.FindByType(ty)
}

// FindSectionByIndex returns the handle at the given ordinal index.
func (c *Container) FindSectionByIndex(index uint32) (Handle, bool) {
	return c.sections.FindByIndex(index)
}

// Save rewrites backend with a consistent, up-to-date serialization of the
// container. On failure the container is poisoned: every further mutating
// operation returns ErrPoisoned until the caller reopens the backend.
func (c *Container) Save() error {
	if err := c.checkPoisoned(); err != nil {
		return err
	}
	if err := saveContainer(c.backend, &c.main, c.sections); err != nil {
		c.poisoned = true
		return err
	}
	return nil
}

// Close releases every section's spill temp file and, if the backend
// supports it, closes the backend itself.
func (c *Container) Close() error {
	for _, raw := range c.sections.handles {
		if e := c.sections.entries[raw]; e.data != nil {
			e.data.Close()
		}
	}
	if closer, ok := c.backend.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
