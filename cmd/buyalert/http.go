package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"solana-buy-alert/internal/monitor"
	"solana-buy-alert/internal/observability"
)

// httpServer serves /health, /metrics and /status.
type httpServer struct {
	srv *http.Server
	log logrus.FieldLogger
}

func newHTTPServer(addr string, sup *monitor.Supervisor, logger logrus.FieldLogger) *httpServer {
	return &httpServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           newMux(sup),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: logger.WithField("component", "http"),
	}
}

func newMux(sup *monitor.Supervisor) *http.ServeMux {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		handleStatus(w, sup)
	})

	return mux
}

// handleStatus returns monitor statistics as JSON.
func handleStatus(w http.ResponseWriter, sup *monitor.Supervisor) {
	stats := monitor.Stats{State: monitor.StateStopped.String()}
	if h := sup.Current(); h != nil {
		stats = h.Stats()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func (s *httpServer) listen() {
	s.log.WithField("addr", s.srv.Addr).Info("starting HTTP server")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.WithError(err).Error("HTTP server error")
	}
}

func (s *httpServer) shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
