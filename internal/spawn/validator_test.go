/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package spawn

import (
	"context"
	"testing"

	"github.com/kais-io/kais/internal/ledger"
)

type fakeTree struct {
	depth       int
	descendants int
}

func (f *fakeTree) GetDepth(ctx context.Context, cellID string) (int, error) { return f.depth, nil }
func (f *fakeTree) CountDescendants(ctx context.Context, cellID string) (int, error) {
	return f.descendants, nil
}

type fakeLedger struct {
	balance ledger.Balance
}

func (f *fakeLedger) GetBalance(ctx context.Context, cellID string) (ledger.Balance, error) {
	return f.balance, nil
}

func floatPtr(f float64) *float64 { return &f }

func TestValidateDisabledPolicy(t *testing.T) {
	v := &Validator{Tree: &fakeTree{}, Ledger: &fakeLedger{}}
	dec, err := v.Validate(context.Background(), "default", "parent", RecursionSpec{SpawnPolicy: PolicyDisabled}, Request{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if dec.Allowed || dec.Pending || dec.Reason != "spawning disabled for this cell" {
		t.Fatalf("unexpected decision %+v", dec)
	}
}

func TestValidateBlueprintOnlyMissingRef(t *testing.T) {
	v := &Validator{Tree: &fakeTree{}, Ledger: &fakeLedger{}}
	dec, err := v.Validate(context.Background(), "default", "parent", RecursionSpec{SpawnPolicy: PolicyBlueprintOnly}, Request{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if dec.Allowed || dec.Reason != "Blueprint required" {
		t.Fatalf("unexpected decision %+v", dec)
	}
}

func TestValidateMaxDepth(t *testing.T) {
	v := &Validator{Tree: &fakeTree{depth: 5}, Ledger: &fakeLedger{}}
	dec, err := v.Validate(context.Background(), "default", "parent",
		RecursionSpec{SpawnPolicy: PolicyOpen, MaxDepth: 5}, Request{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if dec.Allowed || dec.Reason != "Maximum depth" {
		t.Fatalf("unexpected decision %+v", dec)
	}
}

func TestValidateMaxDescendants(t *testing.T) {
	v := &Validator{Tree: &fakeTree{descendants: 10}, Ledger: &fakeLedger{}}
	dec, err := v.Validate(context.Background(), "default", "parent",
		RecursionSpec{SpawnPolicy: PolicyOpen, MaxDescendants: 10}, Request{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if dec.Allowed || dec.Reason != "Maximum descendants" {
		t.Fatalf("unexpected decision %+v", dec)
	}
}

func TestValidateInsufficientBudget(t *testing.T) {
	v := &Validator{Tree: &fakeTree{}, Ledger: &fakeLedger{balance: ledger.Balance{Total: 10}}}
	dec, err := v.Validate(context.Background(), "default", "parent",
		RecursionSpec{SpawnPolicy: PolicyOpen}, Request{Budget: floatPtr(20)}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if dec.Allowed || dec.Reason != "Insufficient budget" {
		t.Fatalf("unexpected decision %+v", dec)
	}
}

func TestValidatePlatformCap(t *testing.T) {
	v := &Validator{Tree: &fakeTree{}, Ledger: &fakeLedger{}, MaxTotalCells: 100}
	dec, err := v.Validate(context.Background(), "default", "parent",
		RecursionSpec{SpawnPolicy: PolicyOpen}, Request{}, 100)
	if err != nil {
		t.Fatal(err)
	}
	if dec.Allowed || dec.Reason != "platform-wide cell cap reached" {
		t.Fatalf("unexpected decision %+v", dec)
	}
}

func TestValidateCustomGateRejects(t *testing.T) {
	v := &Validator{Tree: &fakeTree{}, Ledger: &fakeLedger{balance: ledger.Balance{Total: 100}}}
	dec, err := v.Validate(context.Background(), "default", "parent",
		RecursionSpec{SpawnPolicy: PolicyOpen, CustomGate: "request.budget <= parent.available * 0.5"},
		Request{Budget: floatPtr(60)}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if dec.Allowed {
		t.Fatalf("expected customGate to reject, got %+v", dec)
	}
}

func TestValidateCustomGateAllows(t *testing.T) {
	v := &Validator{Tree: &fakeTree{}, Ledger: &fakeLedger{balance: ledger.Balance{Total: 100}}}
	dec, err := v.Validate(context.Background(), "default", "parent",
		RecursionSpec{SpawnPolicy: PolicyOpen, CustomGate: "request.budget <= parent.available * 0.5"},
		Request{Budget: floatPtr(40)}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !dec.Allowed {
		t.Fatalf("expected customGate to allow, got %+v", dec)
	}
}

func TestValidateApprovalRequiredEnqueues(t *testing.T) {
	q := NewQueue(nil)
	v := &Validator{Tree: &fakeTree{}, Ledger: &fakeLedger{}, Queue: q}
	dec, err := v.Validate(context.Background(), "default", "parent",
		RecursionSpec{SpawnPolicy: PolicyApprovalRequired}, Request{Name: "child"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if dec.Allowed || !dec.Pending {
		t.Fatalf("unexpected decision %+v", dec)
	}
	if len(q.List()) != 1 {
		t.Fatalf("expected 1 pending request, got %d", len(q.List()))
	}
}

func TestValidateOpenAllows(t *testing.T) {
	v := &Validator{Tree: &fakeTree{depth: 1, descendants: 1}, Ledger: &fakeLedger{balance: ledger.Balance{Total: 100}}}
	dec, err := v.Validate(context.Background(), "default", "parent",
		RecursionSpec{SpawnPolicy: PolicyOpen, MaxDepth: 5, MaxDescendants: 5}, Request{Budget: floatPtr(10)}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !dec.Allowed {
		t.Fatalf("unexpected decision %+v", dec)
	}
}

func TestQueueDecide(t *testing.T) {
	q := NewQueue(nil)
	req := q.Enqueue(PendingRequest{Namespace: "default", ParentCellID: "p", Request: Request{Name: "c"}})
	if !q.Decide(req.ID, OutcomeApproved) {
		t.Fatal("expected Decide to succeed")
	}
	outcome, ok := q.Outcome(req.ID)
	if !ok || outcome != OutcomeApproved {
		t.Fatalf("unexpected outcome %v, %v", outcome, ok)
	}
	if len(q.List()) != 0 {
		t.Fatalf("expected queue to be empty after decide, got %d", len(q.List()))
	}
}
