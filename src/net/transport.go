package net

import "context"

// Transport provides an interface for network transports
// to allow a node to communicate with other nodes.
type Transport interface {

	// Starts the transport listening
	Listen()

	// Consumer returns a channel that can be used to
	// consume and respond to RPC requests.
	Consumer() <-chan RPC

	// LocalAddr is used to return our local address
	LocalAddr() string

	// AdvertiseAddr is used to return our advertise address where other peers
	// can reach us
	AdvertiseAddr() string

	// SendClockMessage sends a ClockMessage to the target node and waits for
	// its Ack. It returns when the Ack arrives, when ctx is done, or when the
	// transport's own timeout expires, whichever happens first.
	SendClockMessage(ctx context.Context, target string, args *ClockMessage, resp *Ack) error

	// Close permanently closes a transport, stopping
	// any associated goroutines and freeing other resources.
	Close() error
}
