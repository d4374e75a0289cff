package engine

// Snapshot is an immutable, versioned view of the triage queue. The
// engine holds exactly one current snapshot and swaps it atomically
// whenever the upstream item list changes, so an evaluation never sees
// a half-updated list.
type Snapshot struct {
	version uint64
	items   []Item
	index   map[string]int
}

// NewSnapshot builds a snapshot from the given items. The slice is
// copied so later mutations by the caller cannot leak in.
func NewSnapshot(version uint64, items []Item) *Snapshot {
	copied := make([]Item, len(items))
	copy(copied, items)

	index := make(map[string]int, len(copied))
	for i, it := range copied {
		index[it.ID] = i
	}

	return &Snapshot{
		version: version,
		items:   copied,
		index:   index,
	}
}

// Version returns the snapshot's version number.
func (s *Snapshot) Version() uint64 {
	return s.version
}

// Len returns the number of items in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.items)
}

// At returns the item at position i, or false when i is out of range.
func (s *Snapshot) At(i int) (Item, bool) {
	if i < 0 || i >= len(s.items) {
		return Item{}, false
	}
	return s.items[i], true
}

// Contains reports whether an item with the given id is present.
func (s *Snapshot) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}
