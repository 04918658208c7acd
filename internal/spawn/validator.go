/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package spawn implements the recursion validator and spawn-request queue
// (C9): the gate a running cell must pass before creating a child cell.
package spawn

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/kais-io/kais/internal/ledger"
)

// TreeReader is the slice of celltree.Service the validator depends on.
type TreeReader interface {
	GetDepth(ctx context.Context, cellID string) (int, error)
	CountDescendants(ctx context.Context, cellID string) (int, error)
}

// LedgerReader is the slice of ledger.Service the validator depends on.
type LedgerReader interface {
	GetBalance(ctx context.Context, cellID string) (ledger.Balance, error)
}

// Policy mirrors the recursionSpec.spawnPolicy enum.
type Policy string

const (
	PolicyOpen             Policy = "open"
	PolicyDisabled         Policy = "disabled"
	PolicyApprovalRequired Policy = "approval_required"
	PolicyBlueprintOnly    Policy = "blueprint_only"
)

// RecursionSpec bounds how a cell's descendants may recurse.
type RecursionSpec struct {
	MaxDepth       int
	MaxDescendants int
	SpawnPolicy    Policy
	// CustomGate is an optional expr-lang/expr boolean expression evaluated
	// against the request/parent environment, a supplement to the named
	// policy enum for ad hoc operator rules.
	CustomGate string
}

// Request describes a proposed child cell.
type Request struct {
	Name         string
	SystemPrompt string
	Budget       *float64
	BlueprintRef string
}

// Decision is the outcome of validation.
type Decision struct {
	Allowed bool
	Pending bool
	Reason  string
}

// Validator implements the 8-step check sequence gating a spawn request.
type Validator struct {
	Tree   TreeReader
	Ledger LedgerReader
	Queue  *Queue
	// MaxTotalCells is the optional platform-wide cell cap (step 6). Zero
	// disables the check.
	MaxTotalCells int
}

// Validate runs the ordered check sequence from the recursion validator spec
// and, for an approval_required policy that survives every hard check,
// enqueues the request and returns a pending decision. currentTotalCells is
// the platform-wide cell count as observed by the caller (the spawnapi
// submit handler, which counts Cells cluster-wide through its CellCounter,
// a view the tree/ledger services don't have); pass 0 when MaxTotalCells is
// disabled.
func (v *Validator) Validate(ctx context.Context, namespace, parentCellID string, spec RecursionSpec, req Request, currentTotalCells int) (Decision, error) {
	if spec.SpawnPolicy == PolicyDisabled {
		return Decision{Reason: "spawning disabled for this cell"}, nil
	}
	if spec.SpawnPolicy == PolicyBlueprintOnly && req.BlueprintRef == "" {
		return Decision{Reason: "Blueprint required"}, nil
	}

	depth, err := v.Tree.GetDepth(ctx, parentCellID)
	if err != nil {
		return Decision{}, fmt.Errorf("reading parent depth: %w", err)
	}
	if spec.MaxDepth > 0 && depth >= spec.MaxDepth {
		return Decision{Reason: "Maximum depth"}, nil
	}

	descendants, err := v.Tree.CountDescendants(ctx, parentCellID)
	if err != nil {
		return Decision{}, fmt.Errorf("counting descendants: %w", err)
	}
	if spec.MaxDescendants > 0 && descendants >= spec.MaxDescendants {
		return Decision{Reason: "Maximum descendants"}, nil
	}

	var parentBalance ledger.Balance
	if req.Budget != nil || spec.CustomGate != "" {
		parentBalance, err = v.Ledger.GetBalance(ctx, parentCellID)
		if err != nil {
			return Decision{}, fmt.Errorf("reading parent balance: %w", err)
		}
	}
	if req.Budget != nil && parentBalance.Available() < *req.Budget {
		return Decision{Reason: "Insufficient budget"}, nil
	}

	if v.MaxTotalCells > 0 && currentTotalCells >= v.MaxTotalCells {
		return Decision{Reason: "platform-wide cell cap reached"}, nil
	}

	if spec.CustomGate != "" {
		ok, err := evalCustomGate(spec.CustomGate, req, parentBalance)
		if err != nil {
			return Decision{}, fmt.Errorf("evaluating customGate: %w", err)
		}
		if !ok {
			return Decision{Reason: "rejected by customGate: " + spec.CustomGate}, nil
		}
	}

	if spec.SpawnPolicy == PolicyApprovalRequired {
		if v.Queue != nil {
			v.Queue.Enqueue(PendingRequest{
				Namespace:    namespace,
				ParentCellID: parentCellID,
				Request:      req,
			})
		}
		return Decision{Pending: true, Reason: "awaiting approval"}, nil
	}

	return Decision{Allowed: true}, nil
}

// evalCustomGate compiles and evaluates spec.CustomGate against the request
// and parent-balance environment, e.g. "request.budget <= parent.available *
// 0.5".
func evalCustomGate(source string, req Request, parentBalance ledger.Balance) (bool, error) {
	budget := 0.0
	if req.Budget != nil {
		budget = *req.Budget
	}
	env := map[string]interface{}{
		"request": map[string]interface{}{
			"name":         req.Name,
			"budget":       budget,
			"blueprintRef": req.BlueprintRef,
		},
		"parent": map[string]interface{}{
			"available": parentBalance.Available(),
			"total":     parentBalance.Total,
			"delegated": parentBalance.Delegated,
			"spent":     parentBalance.Spent,
		},
	}
	program, err := expr.Compile(source, expr.Env(env), expr.AsBool())
	if err != nil {
		return false, err
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}
	result, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("customGate did not evaluate to a boolean")
	}
	return result, nil
}
