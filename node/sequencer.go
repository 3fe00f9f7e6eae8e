package node

// Sequencer hands out message ids for envelopes originated by one node:
// 0, 1, 2, ... with no gaps and no reuse. It is not safe for concurrent use.
type Sequencer struct {
	next uint64
}

func (s *Sequencer) Next() uint64 {
	id := s.next
	s.next++
	return id
}

// Peek returns the id the next call to Next will hand out.
func (s *Sequencer) Peek() uint64 {
	return s.next
}
