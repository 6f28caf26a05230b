package service

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/mosaicnetworks/driftsim/src/common"
	"github.com/mosaicnetworks/driftsim/src/events"
	"github.com/mosaicnetworks/driftsim/src/node"
	"github.com/sirupsen/logrus"
)

// Service exposes read-only information about a node over HTTP. It only reads
// what the node publishes after each tick and never blocks the tick loop.
type Service struct {
	sync.Mutex

	bindAddress string
	node        *node.Node
	recent      *events.RecentSink
	logger      *logrus.Entry

	mux    *http.ServeMux
	server *http.Server
}

// NewService ... /events is only served when recent is not nil.
func NewService(bindAddress string, n *node.Node, recent *events.RecentSink, logger *logrus.Entry) *Service {
	service := Service{
		bindAddress: bindAddress,
		node:        n,
		recent:      recent,
		logger:      logger,
		mux:         http.NewServeMux(),
	}

	service.registerHandlers()

	service.server = &http.Server{
		Addr:    bindAddress,
		Handler: service.mux,
	}

	return &service
}

// registerHandlers registers the API handlers with the service's own ServeMux,
// so that several nodes can serve from one process.
func (s *Service) registerHandlers() {
	s.logger.Debug("Registering driftsim API handlers")
	s.mux.HandleFunc("/stats", s.makeHandler(s.GetStats))
	s.mux.HandleFunc("/peers", s.makeHandler(s.GetPeers))
	if s.recent != nil {
		s.mux.HandleFunc("/events", s.makeHandler(s.GetEvents))
	}
}

// Handler returns the http.Handler of the service.
func (s *Service) Handler() http.Handler {
	return s.mux
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		defer s.Unlock()

		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// Serve listens on the bind address and serves until Shutdown. This is a
// blocking call.
func (s *Service) Serve() error {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving driftsim API")

	l, err := net.Listen("tcp", s.bindAddress)
	if err != nil {
		s.logger.Error(err)
		return err
	}

	return s.ServeListener(l)
}

// ServeListener serves on an existing listener until Shutdown.
func (s *Service) ServeListener(l net.Listener) error {
	err := s.server.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	if err != nil {
		s.logger.Error(err)
	}
	return err
}

// Shutdown stops the HTTP server.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// GetStats ...
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := s.node.GetStats()

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(stats)
}

// GetPeers ...
func (s *Service) GetPeers(w http.ResponseWriter, r *http.Request) {
	returnPeerSet := s.node.GetPeers()

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(returnPeerSet)
}

// EventJSON is one record as served by /events.
type EventJSON struct {
	Index       int      `json:"index"`
	Time        string   `json:"time"`
	Kind        string   `json:"kind"`
	Clock       uint64   `json:"clock"`
	SystemTime  int64    `json:"system_time"`
	QueueLength int      `json:"queue_length,omitempty"`
	Peer        string   `json:"peer,omitempty"`
	Peers       []string `json:"peers,omitempty"`
}

// EventsJSON is the body of /events.
type EventsJSON struct {
	Last   int         `json:"last"`
	Events []EventJSON `json:"events"`
}

// GetEvents returns the records numbered after the "since" query parameter,
// all the cached ones without it. It answers 410 Gone when some of them are
// no longer cached.
func (s *Service) GetEvents(w http.ResponseWriter, r *http.Request) {
	since := -1
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < -1 {
			http.Error(w, "invalid since parameter", http.StatusBadRequest)
			return
		}
		since = n
	}

	records, last, err := s.recent.Since(since)
	if common.IsStore(err, common.TooLate) {
		http.Error(w, err.Error(), http.StatusGone)
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("Reading recent events")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	res := EventsJSON{
		Last:   last,
		Events: make([]EventJSON, 0, len(records)),
	}
	first := last - len(records) + 1
	for i, rec := range records {
		res.Events = append(res.Events, EventJSON{
			Index:       first + i,
			Time:        rec.Time.Format(events.TimestampLayout),
			Kind:        rec.Kind.String(),
			Clock:       rec.Clock,
			SystemTime:  rec.SystemTime(),
			QueueLength: rec.QueueLength,
			Peer:        rec.Peer,
			Peers:       rec.Peers,
		})
	}

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(res)
}
