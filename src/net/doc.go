// Package net implements the transports used by driftsim nodes to exchange
// clock messages.
//
// Nodes expose a single RPC, SendClockMessage, which carries a ClockMessage
// (sender id, logical clock, origination time) and returns an Ack. The
// Transport interface hides how the RPC travels. There are two
// implementations:
//
// - Inmem: in-memory transport used only for testing
//
// - TCP: communicating over plain TCP
//
// TCP
//
// The channel is insecure and unauthenticated. Each request is framed by a
// byte that indicates the RPC type, followed by the msgpack-encoded request.
// The response is an error string followed by the msgpack-encoded response.
// Outbound connections are pooled per target.
//
// Every outbound call takes a context. The transport applies the earlier of
// the context deadline and its own timeout to the dial and to the I/O, so an
// unreachable or stalled peer cannot block the caller indefinitely.
//
// Inbound requests are not answered by the transport itself. They are
// delivered on the Consumer channel as RPC objects, and the consumer responds
// through RPC.Respond.
package net
