package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mosaicnetworks/driftsim/src/common"
	"github.com/mosaicnetworks/driftsim/src/events"
	"github.com/mosaicnetworks/driftsim/src/net"
	"github.com/mosaicnetworks/driftsim/src/node"
	"github.com/mosaicnetworks/driftsim/src/peers"
	"github.com/mosaicnetworks/driftsim/src/queue"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *queue.Inbound, *node.Node) {
	return newTestServiceWithRecent(t, events.NewRecentSink(events.DefaultRecentSize))
}

func newTestServiceWithRecent(t *testing.T, recent *events.RecentSink) (*Service, *queue.Inbound, *node.Node) {
	conf := node.TestConfig(t)
	conf.ID = "machine1"
	conf.TickRate = 3

	_, trans := net.NewInmemTransport("machine1")
	q := queue.NewInbound()
	ps := peers.NewPeerSet([]*peers.Peer{peers.NewPeer("127.0.0.1:50052", "machine2")})

	var emitter events.Emitter = events.NewMemorySink()
	if recent != nil {
		emitter = events.NewFanout(emitter, recent)
	}

	n := node.NewNode(conf, ps, q, trans, emitter)
	t.Cleanup(n.Shutdown)

	return NewService("127.0.0.1:0", n, recent, common.NewTestEntry(t, common.TestLogLevel)), q, n
}

func TestGetStats(t *testing.T) {
	s, q, n := newTestService(t)

	_, err := q.Push(net.ClockMessage{FromID: "machine2", LogicalClock: 10})
	require.NoError(t, err)
	require.NoError(t, n.Tick(context.Background()))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	stats := map[string]string{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	require.Equal(t, "machine1", stats["id"])
	require.Equal(t, "3", stats["tick_rate"])
	require.Equal(t, "11", stats["clock"])
	require.Equal(t, "1", stats["receive_events"])
}

func TestGetPeers(t *testing.T) {
	s, _, _ := newTestService(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/peers", nil))

	var ps []*peers.Peer
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ps))
	require.Len(t, ps, 1)
	require.Equal(t, "127.0.0.1:50052", ps[0].NetAddr)
	require.Equal(t, "machine2", ps[0].Moniker)
}

func TestServeAndShutdown(t *testing.T) {
	s, _, _ := newTestService(t)

	srv := httptest.NewUnstartedServer(nil)
	l := srv.Listener

	done := make(chan error, 1)
	go func() { done <- s.ServeListener(l) }()

	resp, err := http.Get("http://" + l.Addr().String() + "/stats")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.Shutdown(context.Background()))
	require.NoError(t, <-done)
}

func getEvents(t *testing.T, s *Service, query string) (*httptest.ResponseRecorder, EventsJSON) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events"+query, nil))

	var res EventsJSON
	if rec.Code == http.StatusOK {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	}
	return rec, res
}

func TestGetEvents(t *testing.T) {
	s, q, n := newTestService(t)

	_, err := q.Push(net.ClockMessage{FromID: "machine2", LogicalClock: 10})
	require.NoError(t, err)
	require.NoError(t, n.Tick(context.Background()))
	require.NoError(t, n.Tick(context.Background()))

	rec, res := getEvents(t, s, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, res.Last)
	require.Len(t, res.Events, 2)
	require.Equal(t, 0, res.Events[0].Index)
	require.Equal(t, "Receive", res.Events[0].Kind)
	require.Equal(t, uint64(11), res.Events[0].Clock)
	require.Equal(t, 1, res.Events[1].Index)
	require.Equal(t, uint64(12), res.Events[1].Clock)

	rec, res = getEvents(t, s, "?since=0")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, res.Events, 1)
	require.Equal(t, 1, res.Events[0].Index)

	rec, res = getEvents(t, s, "?since=1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, res.Events)
}

func TestGetEventsErrors(t *testing.T) {
	s, _, n := newTestServiceWithRecent(t, events.NewRecentSink(1))

	for i := 0; i < 4; i++ {
		require.NoError(t, n.Tick(context.Background()))
	}

	rec, _ := getEvents(t, s, "?since=-1")
	require.Equal(t, http.StatusGone, rec.Code)

	rec, _ = getEvents(t, s, "?since=abc")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetEventsDisabled(t *testing.T) {
	s, _, _ := newTestServiceWithRecent(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
