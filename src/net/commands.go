package net

// ClockMessage is the only request exchanged between nodes. It carries the
// sender's logical clock value, already incremented for the send event, and
// the sender's wall clock in Unix seconds at the time of sending. It is never
// modified after construction.
type ClockMessage struct {
	FromID       string
	LogicalClock uint64
	SystemTime   int64
}

// Ack is returned synchronously by the receiving node once the message has
// been queued.
type Ack struct {
	Success bool
}

// RPCResponse is what the consumer of an RPC answers: an Ack, an error, or
// both.
type RPCResponse struct {
	Ack   *Ack
	Error error
}

// RPC is an inbound ClockMessage waiting for its answer.
type RPC struct {
	Message  *ClockMessage
	RespChan chan<- RPCResponse
}

// Respond answers the RPC. RespChan is buffered, so Respond never blocks.
func (r *RPC) Respond(ack *Ack, err error) {
	r.RespChan <- RPCResponse{Ack: ack, Error: err}
}
