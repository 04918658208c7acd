/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package ledger implements the append-only budget ledger (C8): every
// allocation, top-up, spend, and reclaim against a cell's budget is recorded
// as an immutable entry, with balances derived by folding a cell's entries.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// OpKind identifies the kind of ledger entry.
type OpKind string

const (
	OpInit     OpKind = "Init"
	OpAllocate OpKind = "Allocate"
	OpTopUp    OpKind = "TopUp"
	OpSpend    OpKind = "Spend"
	OpReclaim  OpKind = "Reclaim"
)

// Entry is one immutable row of the ledger. Amount is a USD figure held as a
// float64, the same representation the rest of the codebase parses cost
// strings into; there is no money type.
type Entry struct {
	bun.BaseModel `bun:"table:ledger_entries,alias:le"`

	ID        int64     `bun:"id,pk,autoincrement"`
	CellID    string    `bun:"cell_id,notnull"`
	Kind      OpKind    `bun:"kind,notnull"`
	Amount    float64   `bun:"amount,notnull"`
	FromCell  string    `bun:"from_cell,nullzero"`
	Reason    string    `bun:"reason,nullzero"`
	CreatedAt time.Time `bun:"created_at,notnull,default:now()"`
}

// Balance is the derived state of one cell's budget.
type Balance struct {
	CellID    string
	Total     float64
	Delegated float64
	Spent     float64
}

// Available is the remaining spendable balance: total - delegated - spent.
func (b Balance) Available() float64 {
	return b.Total - b.Delegated - b.Spent
}

const epsilon = 1e-9

var (
	// ErrInsufficientFunds is returned when an allocation or spend would drive
	// a cell's available balance negative.
	ErrInsufficientFunds = errors.New("ledger: insufficient available balance")
	// ErrOverReclaim is returned when a reclaim amount exceeds the amount
	// currently delegated from parent to child.
	ErrOverReclaim = errors.New("ledger: reclaim exceeds delegated amount")
)

// Service implements the C8 ledger operations over Postgres, serializing
// mutations against a single cell with a per-cell advisory lock.
type Service struct {
	DB bun.IDB
}

// InitRoot seeds a brand-new root cell with its initial total budget.
func (s *Service) InitRoot(ctx context.Context, cellID string, total float64) error {
	return s.withCellLock(ctx, cellID, func(tx bun.Tx) error {
		entry := &Entry{CellID: cellID, Kind: OpInit, Amount: total}
		_, err := tx.NewInsert().Model(entry).Exec(ctx)
		return err
	})
}

// Allocate delegates amount from parentID's available balance to childID,
// recording an Allocate entry against the parent and an Init entry against
// the child. Fails with ErrInsufficientFunds if the parent cannot cover
// amount.
func (s *Service) Allocate(ctx context.Context, parentID, childID string, amount float64) error {
	return s.withCellLock(ctx, parentID, func(tx bun.Tx) error {
		bal, err := s.balanceTx(ctx, tx, parentID)
		if err != nil {
			return err
		}
		if bal.Available()+epsilon < amount {
			return fmt.Errorf("%w: cell %s has %v available, requested %v",
				ErrInsufficientFunds, parentID, bal.Available(), amount)
		}
		if _, err := tx.NewInsert().Model(&Entry{
			CellID: parentID, Kind: OpAllocate, Amount: amount, FromCell: childID,
		}).Exec(ctx); err != nil {
			return err
		}
		_, err = tx.NewInsert().Model(&Entry{
			CellID: childID, Kind: OpInit, Amount: amount, FromCell: parentID,
		}).Exec(ctx)
		return err
	})
}

// TopUp delegates an additional amount from parentID's available balance to
// an already-allocated childID, recording an Allocate entry against the
// parent (increasing its Delegated figure, same as Allocate) and a TopUp
// entry against the child (increasing its Total, rather than re-Init'ing it).
// Fails with ErrInsufficientFunds if the parent cannot cover amount.
func (s *Service) TopUp(ctx context.Context, parentID, childID string, amount float64) error {
	return s.withCellLock(ctx, parentID, func(tx bun.Tx) error {
		bal, err := s.balanceTx(ctx, tx, parentID)
		if err != nil {
			return err
		}
		if bal.Available()+epsilon < amount {
			return fmt.Errorf("%w: cell %s has %v available, requested %v",
				ErrInsufficientFunds, parentID, bal.Available(), amount)
		}
		if _, err := tx.NewInsert().Model(&Entry{
			CellID: parentID, Kind: OpAllocate, Amount: amount, FromCell: childID,
		}).Exec(ctx); err != nil {
			return err
		}
		_, err = tx.NewInsert().Model(&Entry{
			CellID: childID, Kind: OpTopUp, Amount: amount, FromCell: parentID,
		}).Exec(ctx)
		return err
	})
}

// Spend records spend against cellID's available balance, failing with
// ErrInsufficientFunds if amount exceeds what is currently available.
func (s *Service) Spend(ctx context.Context, cellID string, amount float64, reason string) error {
	return s.withCellLock(ctx, cellID, func(tx bun.Tx) error {
		bal, err := s.balanceTx(ctx, tx, cellID)
		if err != nil {
			return err
		}
		if bal.Available()+epsilon < amount {
			return fmt.Errorf("%w: cell %s has %v available, spend %v",
				ErrInsufficientFunds, cellID, bal.Available(), amount)
		}
		_, err = tx.NewInsert().Model(&Entry{CellID: cellID, Kind: OpSpend, Amount: amount, Reason: reason}).Exec(ctx)
		return err
	})
}

// Reclaim returns amount of previously delegated budget from childID back to
// parentID: it reduces the parent's Delegated figure and the child's Total by
// the same amount. Fails with ErrOverReclaim if amount exceeds what the
// parent currently has delegated to childID specifically.
func (s *Service) Reclaim(ctx context.Context, parentID, childID string, amount float64) error {
	return s.withCellLock(ctx, parentID, func(tx bun.Tx) error {
		delegated, err := s.delegatedToTx(ctx, tx, parentID, childID)
		if err != nil {
			return err
		}
		if amount > delegated+epsilon {
			return fmt.Errorf("%w: parent %s delegated %v to %s, reclaim %v",
				ErrOverReclaim, parentID, delegated, childID, amount)
		}
		if _, err := tx.NewInsert().Model(&Entry{
			CellID: parentID, Kind: OpReclaim, Amount: -amount, FromCell: childID,
		}).Exec(ctx); err != nil {
			return err
		}
		_, err = tx.NewInsert().Model(&Entry{
			CellID: childID, Kind: OpReclaim, Amount: amount, FromCell: parentID,
		}).Exec(ctx)
		return err
	})
}

// GetBalance returns the derived balance for cellID.
func (s *Service) GetBalance(ctx context.Context, cellID string) (Balance, error) {
	return s.balanceTx(ctx, s.DB, cellID)
}

// GetHistory returns every ledger entry for cellID, oldest first.
func (s *Service) GetHistory(ctx context.Context, cellID string) ([]Entry, error) {
	var entries []Entry
	err := s.DB.NewSelect().Model(&entries).
		Where("cell_id = ?", cellID).
		OrderExpr("id ASC").
		Scan(ctx)
	return entries, err
}

// GetTree returns balances for every cell id given (typically a Cell-tree
// subtree's member ids).
func (s *Service) GetTree(ctx context.Context, cellIDs []string) (map[string]Balance, error) {
	out := make(map[string]Balance, len(cellIDs))
	for _, id := range cellIDs {
		bal, err := s.GetBalance(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = bal
	}
	return out, nil
}

// balanceTx folds every ledger entry for cellID into a Balance. Init/TopUp
// accumulate into Total, Allocate into Delegated, Spend into Spent. A
// Reclaim entry lowers Delegated on the parent's side (negative amount) and
// lowers Total on the child's side (positive amount).
func (s *Service) balanceTx(ctx context.Context, db bun.IDB, cellID string) (Balance, error) {
	var entries []Entry
	if err := db.NewSelect().Model(&entries).Where("cell_id = ?", cellID).Scan(ctx); err != nil {
		return Balance{}, fmt.Errorf("loading ledger for %s: %w", cellID, err)
	}
	bal := Balance{CellID: cellID}
	for _, e := range entries {
		switch e.Kind {
		case OpInit, OpTopUp:
			bal.Total += e.Amount
		case OpAllocate:
			bal.Delegated += e.Amount
		case OpReclaim:
			if e.Amount < 0 {
				bal.Delegated += e.Amount
			} else {
				bal.Total -= e.Amount
			}
		case OpSpend:
			bal.Spent += e.Amount
		}
	}
	return bal, nil
}

// delegatedToTx returns the net amount parentID currently has delegated to
// childID specifically (Allocate minus Reclaim entries between the pair).
func (s *Service) delegatedToTx(ctx context.Context, db bun.IDB, parentID, childID string) (float64, error) {
	var entries []Entry
	if err := db.NewSelect().Model(&entries).
		Where("cell_id = ?", parentID).
		Where("from_cell = ?", childID).
		Where("kind IN (?)", bun.In([]OpKind{OpAllocate, OpReclaim})).
		Scan(ctx); err != nil {
		return 0, err
	}
	var total float64
	for _, e := range entries {
		total += e.Amount
	}
	return total, nil
}

// withCellLock runs fn inside a transaction holding a Postgres advisory
// transaction lock keyed on cellID, serializing concurrent mutations against
// the same cell's ledger.
func (s *Service) withCellLock(ctx context.Context, cellID string, fn func(tx bun.Tx) error) error {
	db, ok := s.DB.(*bun.DB)
	if !ok {
		return fn(bun.Tx{})
	}
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext(?))", cellID); err != nil {
			return err
		}
		return fn(tx)
	})
}
