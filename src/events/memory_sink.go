package events

import (
	"sync"
)

// MemorySink keeps everything in memory. It is used in tests.
type MemorySink struct {
	sync.RWMutex
	startup    *Startup
	records    []Record
	deliveries []Delivery
	flushes    int
	closed     bool
}

// NewMemorySink ...
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Started implements Emitter.
func (m *MemorySink) Started(s Startup) error {
	m.Lock()
	defer m.Unlock()
	m.startup = &s
	return nil
}

// Emit implements Emitter.
func (m *MemorySink) Emit(r Record) error {
	m.Lock()
	defer m.Unlock()
	if len(r.Peers) > 0 {
		r.Peers = append([]string(nil), r.Peers...)
	}
	m.records = append(m.records, r)
	return nil
}

// Delivered implements Emitter.
func (m *MemorySink) Delivered(d Delivery) error {
	m.Lock()
	defer m.Unlock()
	m.deliveries = append(m.deliveries, d)
	return nil
}

// Flush implements Emitter.
func (m *MemorySink) Flush() error {
	m.Lock()
	defer m.Unlock()
	m.flushes++
	return nil
}

// Close implements Emitter.
func (m *MemorySink) Close() error {
	m.Lock()
	defer m.Unlock()
	m.closed = true
	return nil
}

// Startup returns the startup event, if any.
func (m *MemorySink) Startup() (Startup, bool) {
	m.RLock()
	defer m.RUnlock()
	if m.startup == nil {
		return Startup{}, false
	}
	return *m.startup, true
}

// Records returns a copy of the records emitted so far.
func (m *MemorySink) Records() []Record {
	m.RLock()
	defer m.RUnlock()
	return append([]Record(nil), m.records...)
}

// Deliveries returns a copy of the deliveries reported so far.
func (m *MemorySink) Deliveries() []Delivery {
	m.RLock()
	defer m.RUnlock()
	return append([]Delivery(nil), m.deliveries...)
}

// Flushes returns how many times Flush was called.
func (m *MemorySink) Flushes() int {
	m.RLock()
	defer m.RUnlock()
	return m.flushes
}

// Closed reports whether Close was called.
func (m *MemorySink) Closed() bool {
	m.RLock()
	defer m.RUnlock()
	return m.closed
}
