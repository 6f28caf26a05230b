package node

import (
	"context"
	"errors"
	"time"

	"github.com/mosaicnetworks/driftsim/src/net"
)

// ErrNotAcknowledged is returned when a peer answers with Success=false.
var ErrNotAcknowledged = errors.New("message not acknowledged")

// Sender sends one clock message to one peer. It never changes the clock: the
// caller passes the value it has already advanced.
type Sender struct {
	id      string
	trans   net.Transport
	timeout time.Duration
}

// NewSender ...
func NewSender(id string, trans net.Transport, timeout time.Duration) *Sender {
	return &Sender{
		id:      id,
		trans:   trans,
		timeout: timeout,
	}
}

// Send delivers clock to target, stamped with now. It makes a single attempt.
func (s *Sender) Send(ctx context.Context, target string, clock uint64, now time.Time) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	args := net.ClockMessage{
		FromID:       s.id,
		LogicalClock: clock,
		SystemTime:   now.Unix(),
	}

	var out net.Ack

	if err := s.trans.SendClockMessage(ctx, target, &args, &out); err != nil {
		return err
	}

	if !out.Success {
		return ErrNotAcknowledged
	}

	return nil
}
