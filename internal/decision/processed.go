package decision

// ProcessedSet is an insertion-ordered set of signatures. When it grows past
// capacity it keeps only the retain most recently added entries.
type ProcessedSet struct {
	order    []string
	index    map[string]struct{}
	capacity int
	retain   int
}

// NewProcessedSet creates a set trimmed to retain entries once it holds more
// than capacity. Invalid bounds fall back to the defaults.
func NewProcessedSet(capacity, retain int) *ProcessedSet {
	if capacity <= 0 {
		capacity = DefaultProcessedCapacity
	}
	if retain <= 0 || retain > capacity {
		retain = capacity / 2
	}
	return &ProcessedSet{
		order:    make([]string, 0, capacity+1),
		index:    make(map[string]struct{}, capacity+1),
		capacity: capacity,
		retain:   retain,
	}
}

// Contains reports whether sig was added and not yet evicted.
func (s *ProcessedSet) Contains(sig string) bool {
	_, ok := s.index[sig]
	return ok
}

// Add inserts sig. Re-adding a present signature does not refresh its position.
func (s *ProcessedSet) Add(sig string) {
	if _, ok := s.index[sig]; ok {
		return
	}
	s.order = append(s.order, sig)
	s.index[sig] = struct{}{}

	if len(s.order) > s.capacity {
		s.trim()
	}
}

// Len returns the number of signatures held.
func (s *ProcessedSet) Len() int {
	return len(s.order)
}

// trim evicts the oldest entries down to retain.
func (s *ProcessedSet) trim() {
	drop := len(s.order) - s.retain
	for _, sig := range s.order[:drop] {
		delete(s.index, sig)
	}
	kept := make([]string, s.retain, s.capacity+1)
	copy(kept, s.order[drop:])
	s.order = kept
}
