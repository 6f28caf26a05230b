package node

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mosaicnetworks/driftsim/src/clock"
	"github.com/mosaicnetworks/driftsim/src/events"
	"github.com/mosaicnetworks/driftsim/src/net"
	"github.com/mosaicnetworks/driftsim/src/peers"
	"github.com/mosaicnetworks/driftsim/src/queue"
	"github.com/sirupsen/logrus"
)

var (
	// ErrShutdown is returned by Run on a node that was shut down.
	ErrShutdown = errors.New("node is shut down")
	// ErrRunning is returned by Run on a node that is already running.
	ErrRunning = errors.New("node is already running")
)

// Node is a driftsim node: a Lamport clock driven by a tick loop.
type Node struct {
	state

	conf   *Config
	logger *logrus.Entry

	// owned by the tick loop
	clock    *clock.Lamport
	rnd      *rand.Rand
	selector PeerSelector

	queue    *queue.Inbound
	trans    net.Transport
	receiver *Receiver
	sender   *Sender
	emitter  events.Emitter
	pacer    *Pacer

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	receiverOnce sync.Once

	// unix nanoseconds, set when Run starts
	start int64

	// published after every action for GetStats
	lastClock  uint64
	kindCounts [4]uint64
	sent       uint64
	sendErrors uint64
}

// NewNode is a factory method that returns a Node instance. The queue is
// shared with the Receiver, which is fed by trans.
func NewNode(conf *Config,
	peerSet *peers.PeerSet,
	q *queue.Inbound,
	trans net.Transport,
	emitter events.Emitter,
) *Node {
	seed := conf.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rnd := rand.New(rand.NewSource(seed))

	logger := conf.Logger.WithField("node", conf.ID)

	node := Node{
		conf:       conf,
		logger:     logger,
		clock:      clock.NewLamport(0),
		rnd:        rnd,
		selector:   NewRandomPeerSelector(peerSet, rnd),
		queue:      q,
		trans:      trans,
		receiver:   NewReceiver(trans.Consumer(), q, logger.WithField("component", "receiver")),
		sender:     NewSender(conf.ID, trans, conf.SendTimeout),
		emitter:    emitter,
		pacer:      NewPacer(conf.TickRate),
		shutdownCh: make(chan struct{}),
	}

	return &node
}

// ID returns the identifier of the node.
func (n *Node) ID() string {
	return n.conf.ID
}

// TickRate returns the number of ticks per second.
func (n *Node) TickRate() int {
	return n.conf.TickRate
}

// GetPeers returns the peers
func (n *Node) GetPeers() []*peers.Peer {
	return n.selector.All()
}

// State returns the current state of the node.
func (n *Node) State() State {
	return n.getState()
}

// begin moves an Idle node to Running and starts the Receiver. The tick loop
// itself is counted in the wait group, so Shutdown returns only after Run has.
func (n *Node) begin(start time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.transition(Idle, Running) {
		if n.getState() == Shutdown {
			return ErrShutdown
		}
		return ErrRunning
	}

	atomic.StoreInt64(&n.start, start.UnixNano())
	n.wg.Add(1)
	n.startReceiverLocked()
	return nil
}

// startReceiverLocked launches the Receiver once. Callers hold mu and have
// checked that the node is not shut down.
func (n *Node) startReceiverLocked() {
	n.receiverOnce.Do(func() {
		n.goFunc(func() { n.receiver.Run(n.shutdownCh) })
	})
}

// Run writes the startup event and runs the tick loop until ctx is done or
// Shutdown is called. The emitter is flushed before Run returns. Only emitter
// errors stop the loop early. A node runs at most once.
func (n *Node) Run(ctx context.Context) error {
	start := time.Now()
	if err := n.begin(start); err != nil {
		return err
	}
	defer n.wg.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Shutdown cancels the loop
	go func() {
		select {
		case <-n.shutdownCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	n.logger.WithFields(logrus.Fields{
		"tick_rate": n.conf.TickRate,
		"peers":     len(n.selector.All()),
		"table":     n.conf.Table.String(),
	}).Debug("Run")

	err := n.emitter.Started(events.Startup{
		Time:     start,
		NodeID:   n.conf.ID,
		TickRate: n.conf.TickRate,
	})

	for err == nil && ctx.Err() == nil {
		tickStart := time.Now()

		if err = n.Tick(ctx); err != nil {
			break
		}

		n.pacer.Wait(ctx, tickStart)
	}

	if ferr := n.emitter.Flush(); err == nil {
		err = ferr
	}

	if err != nil {
		n.logger.WithError(err).Error("Event emitter failed")
	}

	n.logger.WithField("clock", n.Clock()).Debug("Tick loop stopped")

	return err
}

// Tick performs exactly one action: it processes the oldest queued message,
// or draws an action from the probability table when the queue is empty. The
// returned error comes from the emitter; failed sends are not errors.
func (n *Node) Tick(ctx context.Context) error {
	if msg, remaining, ok := n.queue.Pop(); ok {
		return n.record(events.Record{
			Time:        time.Now(),
			Kind:        events.Receive,
			Clock:       n.clock.Observe(msg.LogicalClock),
			QueueLength: remaining,
			Peer:        msg.FromID,
		})
	}

	action := n.conf.Table.Sample(n.rnd)

	// Without peers there is no one to talk to
	if len(n.selector.All()) == 0 {
		action = ActionInternal
	}

	switch action {
	case ActionUnicast:
		return n.unicast(ctx)
	case ActionBroadcast:
		return n.broadcast(ctx)
	default:
		return n.record(events.Record{
			Time:  time.Now(),
			Kind:  events.Internal,
			Clock: n.clock.Tick(),
		})
	}
}

func (n *Node) unicast(ctx context.Context) error {
	c := n.clock.Tick()
	now := time.Now()
	peer := n.selector.Next()

	if err := n.send(ctx, peer.NetAddr, c, now); err != nil {
		return err
	}

	return n.record(events.Record{
		Time:  now,
		Kind:  events.Send,
		Clock: c,
		Peer:  peer.NetAddr,
	})
}

// broadcast sends to every peer sequentially, then writes a single record
// listing the destinations.
func (n *Node) broadcast(ctx context.Context) error {
	c := n.clock.Tick()
	now := time.Now()

	all := n.selector.All()
	targets := make([]string, 0, len(all))

	for _, p := range all {
		if err := n.send(ctx, p.NetAddr, c, now); err != nil {
			return err
		}
		targets = append(targets, p.NetAddr)
	}

	return n.record(events.Record{
		Time:  now,
		Kind:  events.Broadcast,
		Clock: c,
		Peers: targets,
	})
}

// send makes one delivery attempt and reports its outcome to the emitter.
func (n *Node) send(ctx context.Context, target string, c uint64, now time.Time) error {
	err := n.sender.Send(ctx, target, c, now)

	atomic.AddUint64(&n.sent, 1)
	if err != nil {
		atomic.AddUint64(&n.sendErrors, 1)
		n.logger.WithFields(logrus.Fields{
			"target":     target,
			"sent_clock": c,
			"error":      err,
		}).Warn("Send failed")
	}

	return n.emitter.Delivered(events.Delivery{
		Time:  time.Now(),
		Peer:  target,
		Clock: c,
		Err:   err,
	})
}

func (n *Node) record(r events.Record) error {
	atomic.StoreUint64(&n.lastClock, r.Clock)
	atomic.AddUint64(&n.kindCounts[r.Kind], 1)
	return n.emitter.Emit(r)
}

// Clock returns the logical clock as of the last completed action. It is safe
// to call from any goroutine.
func (n *Node) Clock() uint64 {
	return atomic.LoadUint64(&n.lastClock)
}

// Shutdown stops the tick loop and the Receiver, waits for Run to return and
// closes the transport. The emitter belongs to the caller and is left open, so
// it can be closed as soon as Shutdown returns. Shutdown must not be called
// from the emitter.
func (n *Node) Shutdown() {
	n.shutdownOnce.Do(func() {
		n.logger.Debug("Shutdown")

		n.mu.Lock()
		n.setState(Shutdown)
		close(n.shutdownCh)
		n.mu.Unlock()

		n.waitRoutines()

		// Messages arriving from now on are refused
		n.queue.Close()

		n.trans.Close()
	})
}

// GetStats returns stats
func (n *Node) GetStats() map[string]string {
	count := func(k events.Kind) string {
		return strconv.FormatUint(atomic.LoadUint64(&n.kindCounts[k]), 10)
	}

	var uptime time.Duration
	if start := atomic.LoadInt64(&n.start); start != 0 {
		uptime = time.Since(time.Unix(0, start))
	}

	s := map[string]string{
		"id":               n.conf.ID,
		"tick_rate":        strconv.Itoa(n.conf.TickRate),
		"clock":            strconv.FormatUint(n.Clock(), 10),
		"queue_length":     strconv.Itoa(n.queue.Len()),
		"internal_events":  count(events.Internal),
		"send_events":      count(events.Send),
		"receive_events":   count(events.Receive),
		"broadcast_events": count(events.Broadcast),
		"messages_sent":    strconv.FormatUint(atomic.LoadUint64(&n.sent), 10),
		"send_errors":      strconv.FormatUint(atomic.LoadUint64(&n.sendErrors), 10),
		"num_peers":        strconv.Itoa(len(n.selector.All())),
		"uptime":           uptime.Truncate(time.Millisecond).String(),
		"state":            n.getState().String(),
	}
	return s
}
