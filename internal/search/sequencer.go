package search

import "sync"

// sequencer hands out a monotonically increasing sequence number per UI
// surface. A response is only delivered if its sequence is still the latest
// issued for that surface, which is what stops a slow early response from
// overwriting the results of a later query.
type sequencer struct {
	mu     sync.Mutex
	latest map[string]uint64
}

func newSequencer() *sequencer {
	return &sequencer{latest: make(map[string]uint64)}
}

func (s *sequencer) begin(surface string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[surface]++
	return s.latest[surface]
}

func (s *sequencer) isLatest(surface string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[surface] == seq
}
