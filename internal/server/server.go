package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/anmolkh/internradar/internal/broadcast"
	"github.com/anmolkh/internradar/internal/model"
)

// PollFunc triggers one immediate cycle across all configured sources and
// returns the number of newly admitted postings.
type PollFunc func(ctx context.Context) int

// Server exposes the stored postings and the live event stream over HTTP.
type Server struct {
	addr   string
	store  model.JobStore
	hub    *broadcast.Hub
	poll   PollFunc
	logger *slog.Logger
}

// New creates a server. poll may be nil to disable the POST /poll trigger.
func New(addr string, store model.JobStore, hub *broadcast.Hub, poll PollFunc, logger *slog.Logger) *Server {
	return &Server{
		addr:   addr,
		store:  store,
		hub:    hub,
		poll:   poll,
		logger: logger,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /jobs", s.handleJobs)
	mux.HandleFunc("POST /poll", s.handlePoll)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("http server listening", "addr", s.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleJobs returns up to limit stored postings, freshest first.
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 200 {
		limit = 200
	}

	jobs, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("recent jobs query failed", "error", err)
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}
	if jobs == nil {
		jobs = []model.Job{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(jobs)
}

// handlePoll triggers one immediate ingestion pass across all sources.
func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	if s.poll == nil {
		http.Error(w, "polling not available", http.StatusNotImplemented)
		return
	}

	ingested := s.poll(r.Context())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"ingested": ingested})
}
