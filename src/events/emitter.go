package events

import (
	"errors"
	"sync"
)

// Emitter receives the events of one node, in the order they happened. The
// tick loop is its only writer.
type Emitter interface {
	Started(s Startup) error
	Emit(r Record) error
	Delivered(d Delivery) error
	Flush() error
	Close() error
}

// Sink is a destination of events. Sinks are Emitters so a single sink can be
// handed to a node directly.
type Sink = Emitter

// Fanout is an Emitter writing every event to each of its sinks in turn.
type Fanout struct {
	sync.Mutex
	sinks []Sink
}

// NewFanout returns an Emitter writing to all the given sinks.
func NewFanout(sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks}
}

// Add appends a sink.
func (f *Fanout) Add(s Sink) {
	f.Lock()
	defer f.Unlock()
	f.sinks = append(f.sinks, s)
}

func (f *Fanout) each(fn func(Sink) error) error {
	f.Lock()
	defer f.Unlock()

	var errs []error
	for _, s := range f.sinks {
		if err := fn(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Started implements Emitter.
func (f *Fanout) Started(s Startup) error {
	return f.each(func(sink Sink) error { return sink.Started(s) })
}

// Emit implements Emitter.
func (f *Fanout) Emit(r Record) error {
	return f.each(func(sink Sink) error { return sink.Emit(r) })
}

// Delivered implements Emitter.
func (f *Fanout) Delivered(d Delivery) error {
	return f.each(func(sink Sink) error { return sink.Delivered(d) })
}

// Flush implements Emitter.
func (f *Fanout) Flush() error {
	return f.each(func(sink Sink) error { return sink.Flush() })
}

// Close implements Emitter.
func (f *Fanout) Close() error {
	return f.each(func(sink Sink) error { return sink.Close() })
}
