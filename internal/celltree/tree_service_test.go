/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package celltree

import (
	"context"
	"os"
	"testing"

	"github.com/kais-io/kais/internal/storage"
)

// newTestService opens a real Postgres-backed Service against
// KAIS_TEST_POSTGRES_DSN, creating the cell_tree table if absent. It skips
// the test when no DSN is configured, mirroring smilemakc-mbflow's
// bun_store_test.go, which gates its real-database tests the same way
// rather than standing up a mock store.
func newTestService(t *testing.T) *Service {
	t.Helper()
	dsn := os.Getenv("KAIS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("Skipping integration test requiring database (set KAIS_TEST_POSTGRES_DSN)")
	}
	db := storage.NewDB(storage.DefaultConfig(dsn))
	ctx := context.Background()
	if _, err := db.NewCreateTable().Model((*Node)(nil)).IfNotExists().Exec(ctx); err != nil {
		t.Fatalf("creating cell_tree table: %v", err)
	}
	return &Service{DB: db}
}

// TestServiceInsertChildTracksDescendants drives InsertRoot/InsertChild
// through a root/child/grandchild chain and checks that descendant counts
// and depths propagate to every strict ancestor, not just the direct parent.
func TestServiceInsertChildTracksDescendants(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	root, child, grandchild := uniqueID(t, "root"), uniqueID(t, "child"), uniqueID(t, "gc")

	if err := svc.InsertRoot(ctx, root, "default"); err != nil {
		t.Fatalf("InsertRoot() error = %v", err)
	}
	if err := svc.InsertChild(ctx, child, root, "default"); err != nil {
		t.Fatalf("InsertChild(child) error = %v", err)
	}
	if err := svc.InsertChild(ctx, grandchild, child, "default"); err != nil {
		t.Fatalf("InsertChild(grandchild) error = %v", err)
	}

	if depth, err := svc.GetDepth(ctx, grandchild); err != nil || depth != 2 {
		t.Fatalf("GetDepth(grandchild) = %v, %v, want 2, nil", depth, err)
	}

	if count, err := svc.CountDescendants(ctx, root); err != nil || count != 2 {
		t.Fatalf("CountDescendants(root) = %v, %v, want 2, nil", count, err)
	}
	if count, err := svc.CountDescendants(ctx, child); err != nil || count != 1 {
		t.Fatalf("CountDescendants(child) = %v, %v, want 1, nil", count, err)
	}

	ancestors, err := svc.GetAncestors(ctx, grandchild)
	if err != nil {
		t.Fatalf("GetAncestors() error = %v", err)
	}
	if len(ancestors) != 2 || ancestors[0].CellID != root || ancestors[1].CellID != child {
		t.Fatalf("GetAncestors() = %+v, want [root, child]", ancestors)
	}

	tree, err := svc.GetTree(ctx, root)
	if err != nil {
		t.Fatalf("GetTree() error = %v", err)
	}
	if len(tree) != 3 {
		t.Fatalf("GetTree() returned %d nodes, want 3", len(tree))
	}
}

// TestServiceRemoveCascadesAndDecrementsAncestors checks that removing a
// subtree deletes every descendant and decrements the descendant count of
// every remaining strict ancestor by the number of nodes removed.
func TestServiceRemoveCascadesAndDecrementsAncestors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	root, child, grandchild := uniqueID(t, "root"), uniqueID(t, "child"), uniqueID(t, "gc")
	if err := svc.InsertRoot(ctx, root, "default"); err != nil {
		t.Fatalf("InsertRoot() error = %v", err)
	}
	if err := svc.InsertChild(ctx, child, root, "default"); err != nil {
		t.Fatalf("InsertChild(child) error = %v", err)
	}
	if err := svc.InsertChild(ctx, grandchild, child, "default"); err != nil {
		t.Fatalf("InsertChild(grandchild) error = %v", err)
	}

	if err := svc.Remove(ctx, child); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if _, err := svc.GetNode(ctx, child); err == nil {
		t.Error("expected child to be removed")
	}
	if _, err := svc.GetNode(ctx, grandchild); err == nil {
		t.Error("expected grandchild to be cascade-removed with its parent")
	}
	if count, err := svc.CountDescendants(ctx, root); err != nil || count != 0 {
		t.Fatalf("CountDescendants(root) after removal = %v, %v, want 0, nil", count, err)
	}
}

func uniqueID(t *testing.T, prefix string) string {
	t.Helper()
	return prefix + "-" + t.Name()
}
