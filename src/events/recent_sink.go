package events

import (
	"sync"

	"github.com/mosaicnetworks/driftsim/src/common"
)

// DefaultRecentSize is how many records a RecentSink keeps at least.
const DefaultRecentSize = 128

// RecentSink keeps the last records of a node, numbered from 0 in emission
// order, so that readers can poll for the records they have not seen yet.
type RecentSink struct {
	sync.RWMutex
	startup *Startup
	window  *common.RollingIndex[Record]
	next    int
}

// NewRecentSink keeps at least size records.
func NewRecentSink(size int) *RecentSink {
	return &RecentSink{
		window: common.NewRollingIndex[Record]("Records", size),
	}
}

// Started implements Emitter.
func (s *RecentSink) Started(st Startup) error {
	s.Lock()
	defer s.Unlock()
	s.startup = &st
	return nil
}

// Emit implements Emitter.
func (s *RecentSink) Emit(r Record) error {
	s.Lock()
	defer s.Unlock()

	if len(r.Peers) > 0 {
		r.Peers = append([]string(nil), r.Peers...)
	}

	if err := s.window.Set(r, s.next); err != nil {
		return err
	}
	s.next++
	return nil
}

// Delivered implements Emitter. Deliveries are not kept.
func (s *RecentSink) Delivered(Delivery) error { return nil }

// Flush implements Emitter.
func (s *RecentSink) Flush() error { return nil }

// Close implements Emitter.
func (s *RecentSink) Close() error { return nil }

// Startup returns the startup event, if any.
func (s *RecentSink) Startup() (Startup, bool) {
	s.RLock()
	defer s.RUnlock()
	if s.startup == nil {
		return Startup{}, false
	}
	return *s.startup, true
}

// Since returns the records numbered after skip, and the number of the last
// record emitted (-1 before the first). Pass -1 to get everything still
// cached. The error is a common.TooLate StoreErr when records after skip were
// already dropped.
func (s *RecentSink) Since(skip int) ([]Record, int, error) {
	s.RLock()
	defer s.RUnlock()

	records, err := s.window.Get(skip)
	return records, s.next - 1, err
}
