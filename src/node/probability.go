package node

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// Mode names a preset of event probabilities.
type Mode string

const (
	// DefaultMode sends on 30% of the empty-queue ticks, a third of which are
	// broadcasts.
	DefaultMode Mode = "default"
	// TightMode sends on 60% of the empty-queue ticks, half of which are
	// broadcasts.
	TightMode Mode = "tight"
)

// Preset probabilities of each mode.
const (
	DefaultSendProbability = 0.3
	DefaultBroadcastShare  = 1.0 / 3.0
	TightSendProbability   = 0.6
	TightBroadcastShare    = 0.5
)

const probabilityTableTolerance = 1e-9

// ErrInvalidProbability is returned for probabilities outside [0, 1] or
// tables that do not sum to 1.
var ErrInvalidProbability = errors.New("invalid probability")

// ParseMode ...
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case DefaultMode, TightMode:
		return Mode(s), nil
	case "":
		return DefaultMode, nil
	default:
		return "", fmt.Errorf("unknown event mode %q", s)
	}
}

// Action is what the tick loop does on a tick with an empty queue.
type Action uint8

const (
	// ActionInternal is a local event.
	ActionInternal Action = iota
	// ActionUnicast is a send to one peer.
	ActionUnicast
	// ActionBroadcast is a send to every peer.
	ActionBroadcast
)

// String ...
func (a Action) String() string {
	switch a {
	case ActionInternal:
		return "Internal"
	case ActionUnicast:
		return "Unicast"
	case ActionBroadcast:
		return "Broadcast"
	default:
		return "Unknown"
	}
}

// ProbabilityTable gives the probability of each Action. The three values sum
// to 1.
type ProbabilityTable struct {
	Internal  float64
	Unicast   float64
	Broadcast float64
}

// NewProbabilityTable builds a table from the probability of sending at all
// and the share of sends that are broadcasts.
func NewProbabilityTable(sendProbability, broadcastShare float64) (ProbabilityTable, error) {
	if !isProbability(sendProbability) {
		return ProbabilityTable{}, fmt.Errorf("send probability %v: %w", sendProbability, ErrInvalidProbability)
	}
	if !isProbability(broadcastShare) {
		return ProbabilityTable{}, fmt.Errorf("broadcast share %v: %w", broadcastShare, ErrInvalidProbability)
	}

	return ProbabilityTable{
		Internal:  1 - sendProbability,
		Unicast:   sendProbability * (1 - broadcastShare),
		Broadcast: sendProbability * broadcastShare,
	}, nil
}

// TableForMode returns the preset table of a mode.
func TableForMode(mode Mode) ProbabilityTable {
	var t ProbabilityTable
	if mode == TightMode {
		t, _ = NewProbabilityTable(TightSendProbability, TightBroadcastShare)
	} else {
		t, _ = NewProbabilityTable(DefaultSendProbability, DefaultBroadcastShare)
	}
	return t
}

// ModeDefaults returns the send probability and broadcast share of a mode.
func ModeDefaults(mode Mode) (sendProbability, broadcastShare float64) {
	if mode == TightMode {
		return TightSendProbability, TightBroadcastShare
	}
	return DefaultSendProbability, DefaultBroadcastShare
}

// Validate checks that every entry is a probability and that they sum to 1.
func (t ProbabilityTable) Validate() error {
	for _, p := range []float64{t.Internal, t.Unicast, t.Broadcast} {
		if !isProbability(p) {
			return fmt.Errorf("%v: %w", t, ErrInvalidProbability)
		}
	}
	if math.Abs(t.Internal+t.Unicast+t.Broadcast-1) > probabilityTableTolerance {
		return fmt.Errorf("%v does not sum to 1: %w", t, ErrInvalidProbability)
	}
	return nil
}

// SendProbability is the probability of a unicast or a broadcast.
func (t ProbabilityTable) SendProbability() float64 {
	return t.Unicast + t.Broadcast
}

// Sample draws one Action with a single uniform draw.
func (t ProbabilityTable) Sample(rnd *rand.Rand) Action {
	return t.pick(rnd.Float64())
}

// pick maps u in [0, 1) onto the cumulative distribution
// Internal, Unicast, Broadcast.
func (t ProbabilityTable) pick(u float64) Action {
	switch {
	case u < t.Internal:
		return ActionInternal
	case u < t.Internal+t.Unicast:
		return ActionUnicast
	case t.Broadcast > 0:
		return ActionBroadcast
	case t.Unicast > 0:
		return ActionUnicast
	default:
		return ActionInternal
	}
}

func (t ProbabilityTable) String() string {
	return fmt.Sprintf("{Internal: %.3f, Unicast: %.3f, Broadcast: %.3f}",
		t.Internal, t.Unicast, t.Broadcast)
}

func isProbability(p float64) bool {
	return !math.IsNaN(p) && p >= 0 && p <= 1
}
