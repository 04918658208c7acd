/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package celltree implements the materialized-path cell-tree service (C7):
// ancestor/descendant queries and cascade deletion over the recursive spawn
// hierarchy.
package celltree

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// Node is one row of the materialized-path tree.
type Node struct {
	bun.BaseModel `bun:"table:cell_tree,alias:ct"`

	CellID          string `bun:"cell_id,pk"`
	ParentID        string `bun:"parent_id,nullzero"`
	RootID          string `bun:"root_id,notnull"`
	Depth           int    `bun:"depth,notnull"`
	Path            string `bun:"path,notnull,unique"`
	DescendantCount int    `bun:"descendant_count,notnull"`
	Namespace       string `bun:"namespace,notnull"`
}

// Service implements the C7 operations over a Postgres-backed materialized
// path tree, serializing subtree mutations with a per-root advisory lock.
type Service struct {
	DB bun.IDB
}

// InsertRoot creates a new root node.
func (s *Service) InsertRoot(ctx context.Context, cellID, namespace string) error {
	return s.withRootLock(ctx, cellID, func(tx bun.Tx) error {
		node := &Node{
			CellID: cellID, RootID: cellID, Depth: 0,
			Path: cellID, DescendantCount: 0, Namespace: namespace,
		}
		_, err := tx.NewInsert().Model(node).Exec(ctx)
		return err
	})
}

// InsertChild inserts childID as a child of parentID, incrementing the
// descendant count of every strict ancestor of the child (parent inclusive).
func (s *Service) InsertChild(ctx context.Context, childID, parentID, namespace string) error {
	parent, err := s.GetNode(ctx, parentID)
	if err != nil {
		return err
	}
	return s.withRootLock(ctx, parent.RootID, func(tx bun.Tx) error {
		child := &Node{
			CellID:          childID,
			ParentID:        parentID,
			RootID:          parent.RootID,
			Depth:           parent.Depth + 1,
			Path:            parent.Path + "/" + childID,
			DescendantCount: 0,
			Namespace:       namespace,
		}
		if _, err := tx.NewInsert().Model(child).Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewUpdate().Model((*Node)(nil)).
			Set("descendant_count = descendant_count + 1").
			Where("root_id = ?", parent.RootID).
			Where("? LIKE path || '/%'", child.Path).
			Where("cell_id != ?", childID).
			Exec(ctx)
		return err
	})
}

// GetNode returns a single node by id.
func (s *Service) GetNode(ctx context.Context, cellID string) (*Node, error) {
	node := new(Node)
	err := s.DB.NewSelect().Model(node).Where("cell_id = ?", cellID).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting node %s: %w", cellID, err)
	}
	return node, nil
}

// GetAncestors returns the strict ancestors of cellID, root-first.
func (s *Service) GetAncestors(ctx context.Context, cellID string) ([]Node, error) {
	node, err := s.GetNode(ctx, cellID)
	if err != nil {
		return nil, err
	}
	ids := splitPath(node.Path)
	if len(ids) <= 1 {
		return nil, nil
	}
	ancestorIDs := ids[:len(ids)-1]
	var nodes []Node
	if err := s.DB.NewSelect().Model(&nodes).
		Where("cell_id IN (?)", bun.In(ancestorIDs)).
		OrderExpr("depth ASC").
		Scan(ctx); err != nil {
		return nil, err
	}
	return nodes, nil
}

// GetTree returns all nodes sharing rootID, ordered by (depth, cellId).
func (s *Service) GetTree(ctx context.Context, rootID string) ([]Node, error) {
	var nodes []Node
	err := s.DB.NewSelect().Model(&nodes).
		Where("root_id = ?", rootID).
		OrderExpr("depth ASC, cell_id ASC").
		Scan(ctx)
	return nodes, err
}

// CountDescendants returns the current descendant count of cellID.
func (s *Service) CountDescendants(ctx context.Context, cellID string) (int, error) {
	node, err := s.GetNode(ctx, cellID)
	if err != nil {
		return 0, err
	}
	return node.DescendantCount, nil
}

// GetDepth returns the depth of cellID.
func (s *Service) GetDepth(ctx context.Context, cellID string) (int, error) {
	node, err := s.GetNode(ctx, cellID)
	if err != nil {
		return 0, err
	}
	return node.Depth, nil
}

// Remove deletes cellID and its entire subtree (cascade by path prefix),
// decrementing descendant_count on every strict ancestor of cellID by the
// number of nodes removed.
func (s *Service) Remove(ctx context.Context, cellID string) error {
	node, err := s.GetNode(ctx, cellID)
	if err != nil {
		return err
	}
	return s.withRootLock(ctx, node.RootID, func(tx bun.Tx) error {
		var subtree []Node
		if err := tx.NewSelect().Model(&subtree).
			Where("root_id = ?", node.RootID).
			Where("path = ? OR path LIKE ?", node.Path, node.Path+"/%").
			Scan(ctx); err != nil {
			return err
		}
		removed := len(subtree)
		if removed == 0 {
			return nil
		}
		ids := make([]string, removed)
		for i, n := range subtree {
			ids[i] = n.CellID
		}
		if _, err := tx.NewDelete().Model((*Node)(nil)).
			Where("cell_id IN (?)", bun.In(ids)).
			Exec(ctx); err != nil {
			return err
		}
		if node.ParentID == "" {
			return nil
		}
		_, err := tx.NewUpdate().Model((*Node)(nil)).
			Set("descendant_count = descendant_count - ?", removed).
			Where("root_id = ?", node.RootID).
			Where("? LIKE path || '/%'", node.Path).
			Where("cell_id != ?", cellID).
			Exec(ctx)
		return err
	})
}

// withRootLock runs fn inside a transaction holding a Postgres advisory
// transaction lock keyed on rootID, serializing subtree mutations against the
// same root per spec.md's §5 "tree writes hold a per-root lock" requirement.
func (s *Service) withRootLock(ctx context.Context, rootID string, fn func(tx bun.Tx) error) error {
	db, ok := s.DB.(*bun.DB)
	if !ok {
		return fn(bun.Tx{})
	}
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext(?))", rootID); err != nil {
			return err
		}
		return fn(tx)
	})
}

func splitPath(path string) []string {
	var ids []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			if i > start {
				ids = append(ids, path[start:i])
			}
			start = i + 1
		}
	}
	return ids
}
