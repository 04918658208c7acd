/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package spawnapi implements the operator-facing HTTP surface for
// approval_required spawn requests (C9): list pending requests, approve or
// reject them, and stream Mission status changes over a WebSocket.
package spawnapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kais-io/kais/internal/celltree"
	"github.com/kais-io/kais/internal/ledger"
	"github.com/kais-io/kais/internal/spawn"
)

// Server serves the spawn-approval API described in SPEC_FULL.md §11.3.
type Server struct {
	Queue     *spawn.Queue
	Validator *spawn.Validator

	// Tree and Ledger back the spawn-request submit endpoint: once the
	// validator allows a request, the child is recorded in the cell tree and
	// its budget is delegated from the parent. Either may be left nil (e.g.
	// in tests exercising only list/approve/reject), in which case the
	// corresponding side effect is skipped.
	Tree   *celltree.Service
	Ledger *ledger.Service
	// CellCounter reports the platform-wide cell count for the validator's
	// MaxTotalCells check. Nil disables the check (treated as 0 cells).
	CellCounter func(ctx context.Context) (int, error)

	Addr                string
	OIDCIssuerURL       string
	OIDCClientID        string
	StaticApprovalToken string

	Hub *Hub

	auth *Authenticator
}

// Run builds the router, starts listening on Addr, and blocks until ctx is
// canceled, at which point it shuts the HTTP server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if s.Hub == nil {
		s.Hub = NewHub()
	}

	auth, err := NewAuthenticator(ctx, s.OIDCIssuerURL, s.OIDCClientID, s.StaticApprovalToken)
	if err != nil {
		return fmt.Errorf("building authenticator: %w", err)
	}
	s.auth = auth

	srv := &http.Server{
		Addr:    s.Addr,
		Handler: s.router(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { respondJSON(w, http.StatusOK, map[string]string{"status": "ok"}) })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { respondJSON(w, http.StatusOK, map[string]string{"status": "ready"}) })
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/watch", s.Hub.ServeWatch)
	r.Get("/api/v1/policy", s.handlePolicy)

	r.Route("/api/v1/spawn-requests", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleSubmit)
		r.Group(func(r chi.Router) {
			r.Use(s.auth.Middleware)
			r.Post("/{id}/approve", s.handleDecide(spawn.OutcomeApproved))
			r.Post("/{id}/reject", s.handleDecide(spawn.OutcomeRejected))
		})
	})

	return r
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.Queue.List())
}

// handlePolicy surfaces the platform-wide caps the recursion validator
// enforces, so an operator console can explain why a request was denied
// without re-deriving the reconciler's configuration out of band.
func (s *Server) handlePolicy(w http.ResponseWriter, r *http.Request) {
	resp := map[string]int{"maxTotalCells": 0}
	if s.Validator != nil {
		resp["maxTotalCells"] = s.Validator.MaxTotalCells
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDecide(outcome spawn.Outcome) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := chi.URLParam(r, "id")
		if !s.Queue.Decide(requestID, outcome) {
			http.Error(w, "spawn request not found or already decided", http.StatusNotFound)
			return
		}
		resp := map[string]string{"id": requestID, "outcome": string(outcome)}
		if operator := identityFromContext(r.Context()); operator != nil {
			resp["decidedBy"] = operator.Subject
		}
		respondJSON(w, http.StatusOK, resp)
	}
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
