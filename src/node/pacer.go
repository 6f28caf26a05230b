package node

import (
	"context"
	"time"
)

type timerFactory func(time.Duration) <-chan time.Time

// Pacer holds the tick loop to its tick rate. Each tick sleeps for the part of
// the interval that processing did not use, and not at all when processing
// overran it.
type Pacer struct {
	interval     time.Duration
	timerFactory timerFactory
}

// NewPacer returns a Pacer for tickRate ticks per second. Rates below 1 are
// treated as 1.
func NewPacer(tickRate int) *Pacer {
	if tickRate < 1 {
		tickRate = 1
	}
	return &Pacer{
		interval:     time.Second / time.Duration(tickRate),
		timerFactory: time.After,
	}
}

// Interval returns the duration of one tick.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// Remaining returns how long to sleep after a tick that took elapsed.
func (p *Pacer) Remaining(elapsed time.Duration) time.Duration {
	if r := p.interval - elapsed; r > 0 {
		return r
	}
	return 0
}

// Wait sleeps until the end of the tick that started at start, or until ctx
// is done, in which case it returns ctx.Err().
func (p *Pacer) Wait(ctx context.Context, start time.Time) error {
	d := p.Remaining(time.Since(start))
	if d == 0 {
		return ctx.Err()
	}

	select {
	case <-p.timerFactory(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
