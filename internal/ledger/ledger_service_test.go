/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package ledger

import (
	"context"
	"os"
	"testing"

	"github.com/kais-io/kais/internal/storage"
)

// newTestService opens a real Postgres-backed Service against
// KAIS_TEST_POSTGRES_DSN, creating the ledger_entries table if absent. It
// skips the test when no DSN is configured, mirroring smilemakc-mbflow's
// bun_store_test.go, which gates its real-database tests the same way rather
// than standing up a mock store.
func newTestService(t *testing.T) *Service {
	t.Helper()
	dsn := os.Getenv("KAIS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("Skipping integration test requiring database (set KAIS_TEST_POSTGRES_DSN)")
	}
	db := storage.NewDB(storage.DefaultConfig(dsn))
	ctx := context.Background()
	if _, err := db.NewCreateTable().Model((*Entry)(nil)).IfNotExists().Exec(ctx); err != nil {
		t.Fatalf("creating ledger_entries table: %v", err)
	}
	return &Service{DB: db}
}

// TestServiceBudgetCascadeScenario drives the real Service methods through
// the exact root/child/grandchild cascade TestBudgetCascadeScenario
// reimplements inline on bare Balance structs, to verify the fold-the-ledger
// arithmetic and not just the arithmetic itself.
func TestServiceBudgetCascadeScenario(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	root, child, grandchild := uniqueID(t, "root"), uniqueID(t, "child"), uniqueID(t, "grandchild")

	if err := svc.InitRoot(ctx, root, 100); err != nil {
		t.Fatalf("InitRoot() error = %v", err)
	}
	if err := svc.Allocate(ctx, root, child, 50); err != nil {
		t.Fatalf("Allocate(root, child) error = %v", err)
	}
	if bal, err := svc.GetBalance(ctx, root); err != nil || bal.Available() != 50 {
		t.Fatalf("root available = %v, %v, want 50, nil", bal.Available(), err)
	}

	if err := svc.Allocate(ctx, child, grandchild, 20); err != nil {
		t.Fatalf("Allocate(child, grandchild) error = %v", err)
	}
	if bal, err := svc.GetBalance(ctx, child); err != nil || bal.Available() != 30 {
		t.Fatalf("child available = %v, %v, want 30, nil", bal.Available(), err)
	}

	if err := svc.Spend(ctx, grandchild, 8, "token usage"); err != nil {
		t.Fatalf("Spend() error = %v", err)
	}
	if bal, err := svc.GetBalance(ctx, grandchild); err != nil || bal.Available() != 12 {
		t.Fatalf("grandchild available = %v, %v, want 12, nil", bal.Available(), err)
	}

	if err := svc.Reclaim(ctx, child, grandchild, 12); err != nil {
		t.Fatalf("Reclaim() error = %v", err)
	}
	if bal, err := svc.GetBalance(ctx, child); err != nil || bal.Delegated != 8 {
		t.Fatalf("child delegated after reclaim = %v, %v, want 8, nil", bal.Delegated, err)
	}
	if bal, err := svc.GetBalance(ctx, root); err != nil || bal.Available() != 50 {
		t.Fatalf("root available must be unaffected by a descendant reclaim, got %v, %v", bal.Available(), err)
	}
}

func TestServiceAllocateRejectsInsufficientFunds(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	parent, child := uniqueID(t, "parent"), uniqueID(t, "child")
	if err := svc.InitRoot(ctx, parent, 10); err != nil {
		t.Fatalf("InitRoot() error = %v", err)
	}
	if err := svc.Allocate(ctx, parent, child, 20); err == nil {
		t.Fatal("expected Allocate() to fail when amount exceeds available balance")
	}
}

func TestServiceTopUpDelegatesFromParent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	parent, child := uniqueID(t, "parent"), uniqueID(t, "child")
	if err := svc.InitRoot(ctx, parent, 100); err != nil {
		t.Fatalf("InitRoot() error = %v", err)
	}
	if err := svc.Allocate(ctx, parent, child, 20); err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if err := svc.TopUp(ctx, parent, child, 15); err != nil {
		t.Fatalf("TopUp() error = %v", err)
	}

	childBal, err := svc.GetBalance(ctx, child)
	if err != nil {
		t.Fatalf("GetBalance(child) error = %v", err)
	}
	if childBal.Total != 35 {
		t.Errorf("child total = %v, want 35 (20 allocated + 15 topped up)", childBal.Total)
	}

	parentBal, err := svc.GetBalance(ctx, parent)
	if err != nil {
		t.Fatalf("GetBalance(parent) error = %v", err)
	}
	if parentBal.Delegated != 35 {
		t.Errorf("parent delegated = %v, want 35 (20 + 15, TopUp delegates same as Allocate)", parentBal.Delegated)
	}

	if err := svc.TopUp(ctx, parent, child, 1000); err == nil {
		t.Fatal("expected TopUp() to fail when amount exceeds parent's available balance")
	}
}

func uniqueID(t *testing.T, prefix string) string {
	t.Helper()
	return prefix + "-" + t.Name()
}
