package bpx

import "testing"

func TestSectionTableCreateAssignsDenseIndices(t *testing.T) {
	table := newSectionTable(NewMemoryBackend())
	var handles []Handle
	for i := 0; i < 5; i++ {
		handles = append(handles, table.Create(SectionHeader{Type: uint8(i)}))
	}
	for i, h := range handles {
		if got := table.Index(h); got != uint32(i) {
			t.Fatalf("index(%v) = %d, want %d", h, got, i)
		}
	}
	if table.Len() != 5 {
		t.Fatalf("len = %d, want 5", table.Len())
	}
}

func TestSectionTableRemoveKeepsIndicesDense(t *testing.T) {
	table := newSectionTable(NewMemoryBackend())
	var handles []Handle
	for i := 0; i < 4; i++ {
		handles = append(handles, table.Create(SectionHeader{Type: uint8(i)}))
	}
	table.Remove(handles[1]) // remove index 1

	seen := map[uint32]bool{}
	for _, h := range table.Iter() {
		seen[table.Index(h)] = true
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 distinct indices, got %d", len(seen))
	}
	for i := uint32(0); i < 3; i++ {
		if !seen[i] {
			t.Fatalf("missing index %d after remove", i)
		}
	}
}

func TestSectionTableHandlesAreMonotonicNotIndices(t *testing.T) {
	table := newSectionTable(NewMemoryBackend())
	a := table.Create(SectionHeader{Type: 1})
	b := table.Create(SectionHeader{Type: 2})
	table.Remove(a)
	c := table.Create(SectionHeader{Type: 3})
	if b.Raw() >= c.Raw() {
		t.Fatalf("handles should be monotonically increasing: b=%d c=%d", b.Raw(), c.Raw())
	}
	if table.Index(c) == table.Index(b) {
		t.Fatalf("b and c should not collide on index")
	}
}

func TestSectionTableInvalidHandlePanics(t *testing.T) {
	table := newSectionTable(NewMemoryBackend())
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for an unknown handle")
		}
	}()
	table.Header(HandleFromRaw(999))
}

func TestSectionTableFindByTypeAndIndex(t *testing.T) {
	table := newSectionTable(NewMemoryBackend())
	table.Create(SectionHeader{Type: 10})
	b := table.Create(SectionHeader{Type: 20})

	h, ok := table.FindByType(20)
	if !ok || h != b {
		t.Fatalf("FindByType(20) = %v, %v, want %v, true", h, ok, b)
	}
	if _, ok := table.FindByType(99); ok {
		t.Fatal("FindByType(99) should not match")
	}

	h2, ok := table.FindByIndex(1)
	if !ok || h2 != b {
		t.Fatalf("FindByIndex(1) = %v, %v, want %v, true", h2, ok, b)
	}
}
