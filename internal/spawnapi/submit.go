/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package spawnapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kais-io/kais/internal/spawn"
)

// SubmitRequest is the payload a running cell's runtime posts to request
// spawning a child cell. The caller's own recursionSpec travels with the
// request rather than living on the Cell CRD, since the spawning cell's
// runtime is the thing that already holds its own recursion policy and the
// submit endpoint has no other way to recover it without a live lookup.
type SubmitRequest struct {
	Namespace    string           `json:"namespace"`
	ParentCellID string           `json:"parentCellId"`
	Recursion    RecursionSpecDTO `json:"recursionSpec"`
	Request      SpawnRequestDTO  `json:"request"`
}

// RecursionSpecDTO mirrors spawn.RecursionSpec over the wire.
type RecursionSpecDTO struct {
	MaxDepth       int    `json:"maxDepth"`
	MaxDescendants int    `json:"maxDescendants"`
	SpawnPolicy    string `json:"spawnPolicy"`
	CustomGate     string `json:"customGate,omitempty"`
}

// SpawnRequestDTO mirrors spawn.Request over the wire.
type SpawnRequestDTO struct {
	Name         string   `json:"name"`
	SystemPrompt string   `json:"systemPrompt"`
	Budget       *float64 `json:"budget,omitempty"`
	BlueprintRef string   `json:"blueprintRef,omitempty"`
}

// handleSubmit is the spawn-request ingress: it validates a proposed child
// against the parent's recursionSpec and, once allowed, records the child in
// the cell tree and delegates its budget in the ledger. A pending decision
// (approval_required) enqueues the request instead, exactly as the operator
// console's list/approve/reject endpoints expect.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var in SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if in.Namespace == "" || in.ParentCellID == "" || in.Request.Name == "" {
		http.Error(w, "namespace, parentCellId, and request.name are required", http.StatusBadRequest)
		return
	}

	recursionSpec := spawn.RecursionSpec{
		MaxDepth:       in.Recursion.MaxDepth,
		MaxDescendants: in.Recursion.MaxDescendants,
		SpawnPolicy:    spawn.Policy(in.Recursion.SpawnPolicy),
		CustomGate:     in.Recursion.CustomGate,
	}
	req := spawn.Request{
		Name:         in.Request.Name,
		SystemPrompt: in.Request.SystemPrompt,
		Budget:       in.Request.Budget,
		BlueprintRef: in.Request.BlueprintRef,
	}

	ctx := r.Context()

	currentTotalCells := 0
	if s.CellCounter != nil {
		var err error
		currentTotalCells, err = s.CellCounter(ctx)
		if err != nil {
			http.Error(w, "counting platform cells: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	decision, err := s.Validator.Validate(ctx, in.Namespace, in.ParentCellID, recursionSpec, req, currentTotalCells)
	if err != nil {
		http.Error(w, "validating spawn request: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if decision.Pending {
		respondJSON(w, http.StatusAccepted, map[string]string{"reason": decision.Reason})
		return
	}
	if !decision.Allowed {
		respondJSON(w, http.StatusForbidden, map[string]string{"reason": decision.Reason})
		return
	}

	if s.Tree != nil {
		if _, err := s.Tree.GetNode(ctx, in.ParentCellID); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "reading parent cell-tree node: "+err.Error(), http.StatusInternalServerError)
				return
			}
			if err := s.Tree.InsertRoot(ctx, in.ParentCellID, in.Namespace); err != nil {
				http.Error(w, "seeding parent as cell-tree root: "+err.Error(), http.StatusInternalServerError)
				return
			}
		}
		if err := s.Tree.InsertChild(ctx, req.Name, in.ParentCellID, in.Namespace); err != nil {
			http.Error(w, "inserting child into cell tree: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	if s.Ledger != nil && req.Budget != nil {
		if err := s.Ledger.Allocate(ctx, in.ParentCellID, req.Name, *req.Budget); err != nil {
			http.Error(w, "allocating child budget: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	respondJSON(w, http.StatusCreated, map[string]string{"childCellId": req.Name})
}
