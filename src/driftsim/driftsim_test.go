package driftsim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	stdnet "net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mosaicnetworks/driftsim/src/archive"
	"github.com/mosaicnetworks/driftsim/src/common"
	"github.com/mosaicnetworks/driftsim/src/config"
	"github.com/mosaicnetworks/driftsim/src/events"
	"github.com/mosaicnetworks/driftsim/src/net"
	"github.com/mosaicnetworks/driftsim/src/service"
	"github.com/stretchr/testify/require"
)

func newTCPTransport(t *testing.T) *net.NetworkTransport {
	trans, err := net.NewTCPTransport("127.0.0.1:0", "", 2, time.Second,
		common.NewTestEntry(t, common.TestLogLevel))
	require.NoError(t, err)
	return trans
}

func TestTwoNodesOverTCP(t *testing.T) {
	dir := t.TempDir()

	transports := []*net.NetworkTransport{newTCPTransport(t), newTCPTransport(t)}
	ids := []string{"machine1", "machine2"}

	sims := []*Driftsim{}
	for i := range ids {
		conf := config.NewTestConfig(t, common.TestLogLevel)
		conf.ID = ids[i]
		conf.BindAddr = transports[i].LocalAddr()
		conf.Peers = transports[1-i].LocalAddr()
		conf.TickRate = 40
		conf.SendProb = 0.8
		conf.Seed = int64(i + 1)
		conf.LogDir = dir
		conf.Store = true
		conf.DatabaseDir = filepath.Join(dir, ids[i]+"_db")
		conf.Duration = 400 * time.Millisecond

		sim := NewDriftsim(conf)
		sim.Transport = transports[i]
		sim.Console = &bytes.Buffer{}
		require.NoError(t, sim.Init())
		require.Equal(t, 40, sim.TickRate)

		sims = append(sims, sim)
	}

	errCh := make(chan error, len(sims))
	for _, s := range sims {
		go func(s *Driftsim) { errCh <- s.Run(context.Background()) }(s)
	}
	for range sims {
		select {
		case err := <-errCh:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not stop after its duration")
		}
	}

	for i, id := range ids {
		log, err := os.ReadFile(events.LogFile(dir, id))
		require.NoError(t, err)

		m := events.StartupRegexp.FindSubmatch(log)
		require.NotNil(t, m)
		require.Equal(t, id, string(m[1]))

		clockLines := events.ClockRegexp.FindAll(log, -1)
		require.NotEmpty(t, clockLines)

		// The console got the same lines
		require.Equal(t, string(log), sims[i].Console.(*bytes.Buffer).String())

		contents, err := archive.Load(filepath.Join(dir, id+"_db"), nil)
		require.NoError(t, err)
		require.Equal(t, id, contents.Startup.NodeID)
		require.Len(t, contents.Records, len(clockLines))

		receives := 0
		for _, r := range contents.Records {
			if r.Kind == events.Receive {
				receives++
			}
		}
		require.NotZero(t, receives, "%s never processed a message", id)
	}

	// Shutdown is idempotent
	require.NoError(t, sims[0].Shutdown())
}

func TestInitRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()

	conf := config.NewTestConfig(t, common.TestLogLevel)
	conf.LogDir = dir
	conf.Peers = "127.0.0.1:50052"

	err := NewDriftsim(conf).Init()
	require.True(t, errors.Is(err, config.ErrInvalidID), "got %v", err)

	conf.ID = "machine1"
	conf.Peers = "127.0.0.1:nope"
	require.Error(t, NewDriftsim(conf).Init())

	// Nothing was written
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestInitPortInUse(t *testing.T) {
	dir := t.TempDir()
	busy := newTCPTransport(t)
	defer busy.Close()

	conf := config.NewTestConfig(t, common.TestLogLevel)
	conf.ID = "machine1"
	conf.BindAddr = busy.LocalAddr()
	conf.Peers = "127.0.0.1:50052"
	conf.LogDir = dir
	conf.Quiet = true

	require.Error(t, NewDriftsim(conf).Init())
}

func TestRunServesStatsAndEvents(t *testing.T) {
	l, err := stdnet.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	serviceAddr := l.Addr().String()
	require.NoError(t, l.Close())

	trans := newTCPTransport(t)

	conf := config.NewTestConfig(t, common.TestLogLevel)
	conf.ID = "machine1"
	conf.BindAddr = trans.LocalAddr()
	conf.Peers = "127.0.0.1:1"
	conf.TickRate = 50
	conf.SendProb = 0
	conf.LogDir = t.TempDir()
	conf.Quiet = true
	conf.ServiceAddr = serviceAddr

	sim := NewDriftsim(conf)
	sim.Transport = trans
	require.NoError(t, sim.Init())
	require.NotNil(t, sim.Recent)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sim.Run(ctx) }()

	var stats map[string]string
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + serviceAddr + "/stats")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		stats = map[string]string{}
		return json.NewDecoder(resp.Body).Decode(&stats) == nil && stats["clock"] != "0"
	}, 3*time.Second, 20*time.Millisecond)
	require.Equal(t, "machine1", stats["id"])
	require.Equal(t, "50", stats["tick_rate"])

	resp, err := http.Get("http://" + serviceAddr + "/events")
	require.NoError(t, err)
	var evs service.EventsJSON
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&evs))
	resp.Body.Close()
	require.NotEmpty(t, evs.Events)
	for _, e := range evs.Events {
		require.Equal(t, "Internal", e.Kind)
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}

func TestShutdownDuringRun(t *testing.T) {
	dir := t.TempDir()

	conf := config.NewTestConfig(t, common.TestLogLevel)
	conf.ID = "machine1"
	conf.Peers = "127.0.0.1:1"
	conf.TickRate = 200
	conf.LogDir = dir
	conf.Store = true
	conf.DatabaseDir = filepath.Join(dir, "machine1_db")

	trans := newTCPTransport(t)
	conf.BindAddr = trans.LocalAddr()

	sim := NewDriftsim(conf)
	sim.Transport = trans
	sim.Console = &bytes.Buffer{}
	require.NoError(t, sim.Init())

	errCh := make(chan error, 1)
	go func() { errCh <- sim.Run(context.Background()) }()

	time.Sleep(100 * time.Millisecond)

	// The sinks are closed only once the tick loop has stopped writing
	require.NoError(t, sim.Shutdown())

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Shutdown")
	}

	contents, err := archive.Load(conf.DatabaseDir, nil)
	require.NoError(t, err)
	require.NotEmpty(t, contents.Records)
}
