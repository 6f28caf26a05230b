// Package queue implements the inbound message queue shared by a node's
// receiver and its tick loop.
//
// The queue is an unbounded FIFO. Backlog is something the simulation
// measures, so Push never blocks and never drops a message. The receiver is
// the writer, the tick loop is the reader, and both receive the same *Inbound
// at construction time.
package queue

import (
	"errors"
	"sync"

	"github.com/mosaicnetworks/driftsim/src/net"
)

// ErrClosed is returned by Push after Close.
var ErrClosed = errors.New("queue closed")

// Inbound is a concurrency-safe FIFO of ClockMessages.
type Inbound struct {
	mu     sync.Mutex
	items  []net.ClockMessage
	head   int
	closed bool
}

// NewInbound returns an empty queue.
func NewInbound() *Inbound {
	return &Inbound{
		items: make([]net.ClockMessage, 0, 64),
	}
}

// Push appends msg to the tail of the queue and returns the new length.
func (q *Inbound) Push(msg net.ClockMessage) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return q.lenLocked(), ErrClosed
	}

	q.items = append(q.items, msg)

	return q.lenLocked(), nil
}

// Pop removes the oldest message. It returns the message, the number of
// messages left behind it, and false if the queue was empty. Pop never
// blocks.
func (q *Inbound) Pop() (net.ClockMessage, int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head == len(q.items) {
		return net.ClockMessage{}, 0, false
	}

	msg := q.items[q.head]
	q.items[q.head] = net.ClockMessage{}
	q.head++

	// Reclaim the consumed prefix once it dominates the slice
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > 1024 && q.head*2 > len(q.items) {
		n := copy(q.items, q.items[q.head:])
		q.items = q.items[:n]
		q.head = 0
	}

	return msg, q.lenLocked(), true
}

// Len returns the current backlog.
func (q *Inbound) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lenLocked()
}

func (q *Inbound) lenLocked() int {
	return len(q.items) - q.head
}

// Close rejects further pushes. Messages already queued remain available to
// Pop.
func (q *Inbound) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}
