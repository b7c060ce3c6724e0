package sequence

import "sync/atomic"

// Sequencer hands out the store's mutation sequence numbers. Numbers start
// at 1; 0 means "no mutation".
type Sequencer struct {
	last atomic.Uint64
}

// New returns a sequencer whose next number is last+1.
func New(last uint64) *Sequencer {
	s := &Sequencer{}
	s.last.Store(last)
	return s
}

func (s *Sequencer) Next() uint64 {
	return s.last.Add(1)
}

// Current returns the last number handed out.
func (s *Sequencer) Current() uint64 {
	return s.last.Load()
}

// Reset moves the sequencer to last. Used once, after replay, before the
// store accepts writes.
func (s *Sequencer) Reset(last uint64) {
	s.last.Store(last)
}
