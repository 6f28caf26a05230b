package events

import (
	"time"
)

// Kind is the type of tick-loop action a Record describes.
type Kind uint8

const (
	// Internal is a local event.
	Internal Kind = iota
	// Send is a unicast to one peer.
	Send
	// Receive is the processing of one queued message.
	Receive
	// Broadcast is a send to every peer.
	Broadcast
)

// String ...
func (k Kind) String() string {
	switch k {
	case Internal:
		return "Internal"
	case Send:
		return "Send"
	case Receive:
		return "Receive"
	case Broadcast:
		return "Broadcast"
	default:
		return "Unknown"
	}
}

// Startup is written once, before the first tick.
type Startup struct {
	Time     time.Time
	NodeID   string
	TickRate int
}

// Record is one tick-loop action. Clock is the logical clock after the
// action. QueueLength is only set for Receive, Peer for Send and Receive (the
// sender id in the latter), Peers for Broadcast.
type Record struct {
	Time        time.Time
	Kind        Kind
	Clock       uint64
	QueueLength int
	Peer        string
	Peers       []string
}

// SystemTime returns the wall clock of the record in Unix seconds.
func (r Record) SystemTime() int64 {
	return r.Time.Unix()
}

// Delivery is the outcome of a single network send. Err is nil when the peer
// acknowledged the message.
type Delivery struct {
	Time  time.Time
	Peer  string
	Clock uint64
	Err   error
}

// Failed reports whether the send did not go through.
func (d Delivery) Failed() bool {
	return d.Err != nil
}
