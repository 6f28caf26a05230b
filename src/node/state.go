package node

import (
	"sync"
	"sync/atomic"
)

// State captures the state of a node: Idle, Running or Shutdown.
type State uint32

const (
	// Idle is the state of a node that was created but is not running yet.
	Idle State = iota
	// Running ...
	Running
	// Shutdown ...
	Shutdown
)

// String ...
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Running:
		return "Running"
	case Shutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}

type state struct {
	state State
	wg    sync.WaitGroup

	// serializes transitions with the goroutines they start or wait for
	mu sync.Mutex
}

func (b *state) getState() State {
	stateAddr := (*uint32)(&b.state)
	return State(atomic.LoadUint32(stateAddr))
}

func (b *state) setState(s State) {
	stateAddr := (*uint32)(&b.state)
	atomic.StoreUint32(stateAddr, uint32(s))
}

// transition moves from one state to another and reports whether the node was
// in the expected state. Callers hold mu.
func (b *state) transition(from, to State) bool {
	stateAddr := (*uint32)(&b.state)
	return atomic.CompareAndSwapUint32(stateAddr, uint32(from), uint32(to))
}

// Start a goroutine and add it to waitgroup
func (b *state) goFunc(f func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		f()
	}()
}

func (b *state) waitRoutines() {
	b.wg.Wait()
}
