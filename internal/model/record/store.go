package record

// Store exposes the loaded dataset to the matcher and HTTP handlers.
type Store interface {
	All() []Record
	Len() int
}

// MemoryStore implements Store over a slice fixed at construction. It is never
// mutated afterwards, so it can be shared by every session without locking.
type MemoryStore struct {
	items []Record
}

// NewMemoryStore returns a MemoryStore holding a copy of the supplied records.
func NewMemoryStore(items []Record) *MemoryStore {
	return &MemoryStore{items: append([]Record(nil), items...)}
}

// All returns the records in load order.
func (s *MemoryStore) All() []Record {
	return append([]Record(nil), s.items...)
}

func (s *MemoryStore) Len() int {
	return len(s.items)
}
