package driftsim

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/mosaicnetworks/driftsim/src/archive"
	"github.com/mosaicnetworks/driftsim/src/config"
	"github.com/mosaicnetworks/driftsim/src/events"
	"github.com/mosaicnetworks/driftsim/src/net"
	"github.com/mosaicnetworks/driftsim/src/node"
	"github.com/mosaicnetworks/driftsim/src/peers"
	"github.com/mosaicnetworks/driftsim/src/queue"
	"github.com/mosaicnetworks/driftsim/src/service"
	"github.com/sirupsen/logrus"
)

// Driftsim is one node process.
type Driftsim struct {
	Config    *config.Config
	Node      *node.Node
	Transport net.Transport
	Peers     *peers.PeerSet
	Queue     *queue.Inbound
	Emitter   *events.Fanout
	LogSink   *events.LogSink
	Archive   *archive.BadgerSink
	Recent    *events.RecentSink
	Service   *service.Service
	TickRate  int

	// Console receives event lines unless Config.Quiet is set. It defaults to
	// os.Stdout.
	Console io.Writer

	logger *logrus.Entry

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewDriftsim ...
func NewDriftsim(c *config.Config) *Driftsim {
	engine := &Driftsim{
		Config:  c,
		Console: os.Stdout,
	}

	return engine
}

func (d *Driftsim) initPeers() error {
	if d.Peers != nil {
		return nil
	}

	peerSet, err := d.Config.PeerSet()
	if err != nil {
		return fmt.Errorf("loading peers: %w", err)
	}

	d.Peers = peerSet

	return nil
}

func (d *Driftsim) initTickRate() {
	seed := d.Config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	d.TickRate = d.Config.DrawTickRate(rand.New(rand.NewSource(seed)))
}

func (d *Driftsim) initEmitter() error {
	console := d.Console
	if d.Config.Quiet {
		console = nil
	}

	logSink, err := events.NewLogSink(d.Config.LogDir, d.Config.ID, console)
	if err != nil {
		return err
	}
	d.LogSink = logSink
	d.Emitter = events.NewFanout(logSink)

	if d.Config.Store {
		store, err := archive.NewBadgerSink(d.Config.DatabaseDir, d.logger)
		if err != nil {
			logSink.Close()
			return fmt.Errorf("opening event archive: %w", err)
		}
		d.Archive = store
		d.Emitter.Add(store)
	}

	if d.Config.ServiceAddr != "" {
		d.Recent = events.NewRecentSink(events.DefaultRecentSize)
		d.Emitter.Add(d.Recent)
	}

	return nil
}

func (d *Driftsim) initTransport() error {
	if d.Transport != nil {
		return nil
	}

	transport, err := net.NewTCPTransport(
		d.Config.ListenAddr(),
		d.Config.AdvertiseAddr,
		d.Config.MaxPool,
		d.Config.SendTimeout,
		d.logger.WithField("component", "transport"),
	)

	if err != nil {
		return err
	}

	d.Transport = transport

	return nil
}

func (d *Driftsim) initNode() error {
	nodeConfig, err := d.Config.NodeConfig(d.TickRate)
	if err != nil {
		return err
	}

	d.logger.WithFields(logrus.Fields{
		"peers":     d.Peers.String(),
		"id":        d.Config.ID,
		"tick_rate": d.TickRate,
	}).Debug("PEERS")

	d.Queue = queue.NewInbound()

	d.Node = node.NewNode(
		nodeConfig,
		d.Peers,
		d.Queue,
		d.Transport,
		d.Emitter,
	)

	return nil
}

func (d *Driftsim) initService() error {
	if d.Config.ServiceAddr != "" {
		d.Service = service.NewService(d.Config.ServiceAddr, d.Node, d.Recent, d.logger.WithField("component", "service"))
	}
	return nil
}

// Init validates the configuration and builds the node. Nothing is listening
// and no event is written until Run.
func (d *Driftsim) Init() error {
	d.logger = d.Config.Logger().WithField("node", d.Config.ID)

	if err := d.Config.Validate(); err != nil {
		return err
	}

	if err := d.initPeers(); err != nil {
		return err
	}

	d.initTickRate()

	if err := d.initEmitter(); err != nil {
		return err
	}

	if err := d.initTransport(); err != nil {
		d.Emitter.Close()
		return err
	}

	if err := d.initNode(); err != nil {
		d.Transport.Close()
		d.Emitter.Close()
		return err
	}

	return d.initService()
}

// Run starts the transport listener and the service, then runs the node until
// ctx is done, Config.Duration has elapsed, or the node fails. Everything is
// shut down and the event sinks are closed before Run returns.
func (d *Driftsim) Run(ctx context.Context) error {
	if d.Config.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Config.Duration)
		defer cancel()
	}

	go d.Transport.Listen()

	if d.Service != nil {
		go d.Service.Serve()
	}

	d.logger.WithFields(logrus.Fields{
		"listen":    d.Transport.LocalAddr(),
		"tick_rate": d.TickRate,
		"duration":  d.Config.Duration,
	}).Info("Running")

	err := d.Node.Run(ctx)

	if serr := d.Shutdown(); err == nil {
		err = serr
	}

	return err
}

// Shutdown stops the node and the service and closes the event sinks.
func (d *Driftsim) Shutdown() error {
	d.shutdownOnce.Do(func() {
		d.Node.Shutdown()

		if d.Service != nil {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			d.Service.Shutdown(ctx)
		}

		d.shutdownErr = d.Emitter.Close()
	})
	return d.shutdownErr
}
