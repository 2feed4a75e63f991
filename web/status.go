// Package web exposes an optional HTTP diagnostics endpoint. It lives
// entirely outside the core pipeline: channel state is mirrored here by a
// sink tee, never by the tracker.
package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/jordandm999/christmas-piano/lights"
)

// Status is the /status response body.
type Status struct {
	Device    string `json:"device"`
	Connected bool   `json:"connected"`
	Channels  []bool `json:"channels"`
	HeldNotes int    `json:"heldNotes"`
}

// StateSink tees Set calls to an inner sink while recording the last state
// successfully written per channel. Failed writes are not recorded, so the
// snapshot reflects what the hardware was actually told.
type StateSink struct {
	mu     sync.Mutex
	inner  lights.Sink
	states []bool
}

func NewStateSink(inner lights.Sink, channels int) *StateSink {
	return &StateSink{inner: inner, states: make([]bool, channels)}
}

func (s *StateSink) Set(channel int, energized bool) error {
	if err := s.inner.Set(channel, energized); err != nil {
		return err
	}
	s.mu.Lock()
	if channel >= 0 && channel < len(s.states) {
		s.states[channel] = energized
	}
	s.mu.Unlock()
	return nil
}

func (s *StateSink) Close() error { return s.inner.Close() }

// Snapshot copies the last-written channel states.
func (s *StateSink) Snapshot() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.states...)
}

// NewHandler builds the diagnostics router. status is called per request.
func NewHandler(status func() Status) http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status()); err != nil {
			slog.Warn("web: encode status failed", "err", err)
		}
	}).Methods("GET")
	return cors.Default().Handler(router)
}

// Serve runs the diagnostics endpoint until the listener fails. Meant to be
// started on its own goroutine; errors are logged, never fatal.
func Serve(addr string, status func() Status) {
	slog.Info("web: status endpoint listening", "addr", addr)
	if err := http.ListenAndServe(addr, NewHandler(status)); err != nil {
		slog.Error("web: status endpoint stopped", "err", err)
	}
}
