package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/treelife/tree-sapling-reservation/internal/model"
	"github.com/treelife/tree-sapling-reservation/internal/reservation"
)

// OrderStore adapts the MySQL repositories to the reservation engine's
// store contract.  Every InTx call runs in one database transaction;
// FOR UPDATE reads inside it hold their row locks until commit or
// rollback, which is the mechanism that serializes competing
// reservations for the last unit of stock.
type OrderStore struct {
	db      *sql.DB
	trees   *TreeRepo
	persons *PersonRepo
}

// NewOrderStore constructs an OrderStore.  All dependencies must be
// non-nil.
func NewOrderStore(db *sql.DB, trees *TreeRepo, persons *PersonRepo) *OrderStore {
	if db == nil || trees == nil || persons == nil {
		panic("nil dependency passed to NewOrderStore")
	}
	return &OrderStore{db: db, trees: trees, persons: persons}
}

// InTx runs fn inside a transaction, rolling back on any error.
func (s *OrderStore) InTx(ctx context.Context, fn func(tx reservation.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reservation tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&orderTx{tx: tx, trees: s.trees, persons: s.persons}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reservation tx: %w", err)
	}
	committed = true
	return nil
}

// orderTx exposes the repositories' transactional methods through the
// reservation.Tx interface.
type orderTx struct {
	tx      *sql.Tx
	trees   *TreeRepo
	persons *PersonRepo
}

func (t *orderTx) TreeByNameForUpdate(ctx context.Context, name string) (*model.Tree, error) {
	return t.trees.GetByNameForUpdateTx(ctx, t.tx, name)
}

func (t *orderTx) TreeByIDForUpdate(ctx context.Context, id uint64) (*model.Tree, error) {
	return t.trees.GetByIDForUpdateTx(ctx, t.tx, id)
}

func (t *orderTx) PersonForUpdate(ctx context.Context, id uint64) (*model.Person, error) {
	return t.persons.GetForUpdateTx(ctx, t.tx, id)
}

func (t *orderTx) Person(ctx context.Context, id uint64) (*model.Person, error) {
	return t.persons.GetTx(ctx, t.tx, id)
}

func (t *orderTx) AddTreeOrder(ctx context.Context, treeID uint64) error {
	return t.trees.IncrementOrderedTx(ctx, t.tx, treeID)
}

func (t *orderTx) RemoveTreeOrder(ctx context.Context, treeID uint64) error {
	return t.trees.DecrementOrderedTx(ctx, t.tx, treeID)
}

func (t *orderTx) SetOrderedTree(ctx context.Context, personID uint64, treeID *uint64) error {
	return t.persons.SetOrderedTreeTx(ctx, t.tx, personID, treeID)
}
