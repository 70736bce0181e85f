package client

import "sync"

// Sequencer orders overlapping async requests so that a slow, stale
// response can not overwrite the result of a newer one. Callers take a
// ticket with Next before starting a request, and only apply the response
// if Accept returns true.
type Sequencer struct {
	mu      sync.Mutex
	issued  uint64
	applied uint64
}

// NewSequencer creates a new sequencer
func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// Next issues the next ticket. Tickets increase monotonically.
func (s *Sequencer) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Accept reports whether the response for the given ticket may be applied.
// A ticket older than one already applied is stale and must be discarded.
func (s *Sequencer) Accept(ticket uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket <= s.applied {
		return false
	}
	s.applied = ticket
	return true
}
