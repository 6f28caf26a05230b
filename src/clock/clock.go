// Package clock implements the Lamport logical clock owned by a node's tick
// loop.
//
// A Lamport clock is a counter that advances by one on every local event and
// jumps past any timestamp it observes on an incoming message. It establishes
// the happened-before partial order across nodes without synchronised wall
// clocks.
//
// The Lamport type is not safe for concurrent use. It belongs to exactly one
// goroutine (the tick loop), which is the only writer of the value. Readers on
// other goroutines must use a published snapshot instead.
package clock

// Lamport is a single-owner logical clock.
type Lamport struct {
	time uint64
}

// NewLamport returns a clock starting at the given value.
func NewLamport(start uint64) *Lamport {
	return &Lamport{time: start}
}

// Now returns the current value without changing it.
func (l *Lamport) Now() uint64 {
	return l.time
}

// Tick advances the clock by one for a local event (internal, unicast or
// broadcast) and returns the new value.
func (l *Lamport) Tick() uint64 {
	l.time++
	return l.time
}

// Observe applies the receive rule, max(local, received) + 1, and returns the
// new value.
func (l *Lamport) Observe(received uint64) uint64 {
	l.time = Merge(l.time, received)
	return l.time
}

// Merge computes the value of a clock at local after it receives a message
// stamped with received.
func Merge(local, received uint64) uint64 {
	if received > local {
		return received + 1
	}
	return local + 1
}
