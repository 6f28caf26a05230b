package node

import (
	"errors"

	"github.com/mosaicnetworks/driftsim/src/net"
	"github.com/mosaicnetworks/driftsim/src/queue"
	"github.com/sirupsen/logrus"
)

var errEmptyRPC = errors.New("empty rpc")

// Receiver moves clock messages from the transport to the inbound queue. It
// accepts any well-formed message, whoever sent it.
type Receiver struct {
	consumer <-chan net.RPC
	queue    *queue.Inbound
	logger   *logrus.Entry
}

// NewReceiver ...
func NewReceiver(consumer <-chan net.RPC, q *queue.Inbound, logger *logrus.Entry) *Receiver {
	return &Receiver{
		consumer: consumer,
		queue:    q,
		logger:   logger,
	}
}

// Run processes RPCs until shutdownCh is closed.
func (r *Receiver) Run(shutdownCh <-chan struct{}) {
	for {
		select {
		case rpc := <-r.consumer:
			r.processRPC(rpc)
		case <-shutdownCh:
			return
		}
	}
}

func (r *Receiver) processRPC(rpc net.RPC) {
	cmd := rpc.Message
	if cmd == nil {
		r.logger.Error("RPC without message")
		rpc.Respond(&net.Ack{}, errEmptyRPC)
		return
	}

	length, err := r.queue.Push(*cmd)
	if err != nil {
		r.logger.WithError(err).Debug("Dropping clock message")
		rpc.Respond(&net.Ack{Success: false}, err)
		return
	}

	r.logger.WithFields(logrus.Fields{
		"from":           cmd.FromID,
		"received_clock": cmd.LogicalClock,
		"system_time":    cmd.SystemTime,
		"queue_length":   length,
	}).Debug("Received message")

	rpc.Respond(&net.Ack{Success: true}, nil)
}
