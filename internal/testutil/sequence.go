package testutil

import "sync"

// EventSequence hands out play-by-play event ids for synthetic games.
//
// Ids start at 1 and increase by one per call, so the same builder calls
// always produce the same ids.
//
// Thread-safety: all methods are safe for concurrent use.
type EventSequence struct {
	mu   sync.Mutex
	last int64
}

// NewEventSequence creates a sequence whose first id is 1.
func NewEventSequence() *EventSequence {
	return &EventSequence{}
}

// Next returns the next event id.
func (s *EventSequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last++
	return s.last
}

// Current returns the last id handed out, or 0 before the first call.
func (s *EventSequence) Current() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Reset rewinds the sequence so the next id is 1 again.
func (s *EventSequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = 0
}
