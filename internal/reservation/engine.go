// Package reservation implements the order/cancel workflow that binds a
// person to at most one tree while guaranteeing that a tree's stock is
// never oversold.  All state transitions run inside a single store
// transaction that locks the affected tree row first and the person row
// second; the fixed lock order keeps concurrent Place and Cancel calls
// from deadlocking against each other.
package reservation

import (
	"context"
	"errors"
	"fmt"

	"github.com/treelife/tree-sapling-reservation/internal/model"
)

// Sentinel outcomes of the two workflows.  Handlers compare against
// these with errors.Is to pick a response status; anything else is a
// storage failure.
var (
	ErrPersonNotFound = errors.New("person not found")
	ErrTreeNotFound   = errors.New("tree not found")
	ErrOutOfStock     = errors.New("tree out of stock")
	ErrAlreadyOrdered = errors.New("person already has an ordered tree")
	ErrNoActiveOrder  = errors.New("no order to cancel")
)

// errStaleCandidate signals that the tree locked during Cancel no
// longer matches the person's ordered_tree and the transaction must be
// retried from scratch.
var errStaleCandidate = errors.New("ordered tree changed before lock was acquired")

// cancelRetries bounds how often Cancel restarts after losing the race
// between its unlocked candidate read and the row locks.
const cancelRetries = 3

// Store runs a function inside one transaction.  When fn returns an
// error the transaction is rolled back and the error is returned;
// otherwise the transaction is committed.  Row locks taken through the
// Tx are held until commit or rollback.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the slice of the persistent store the engine needs inside a
// transaction.  Lookup methods return (nil, nil) when the row does not
// exist.  The ForUpdate variants acquire an exclusive row lock before
// reading, so the returned values are safe to base mutations on;
// Person performs a plain read and must only be used to decide which
// rows to lock, never to gate a mutation.
type Tx interface {
	TreeByNameForUpdate(ctx context.Context, name string) (*model.Tree, error)
	TreeByIDForUpdate(ctx context.Context, id uint64) (*model.Tree, error)
	PersonForUpdate(ctx context.Context, id uint64) (*model.Person, error)
	Person(ctx context.Context, id uint64) (*model.Person, error)

	// AddTreeOrder increments the tree's persons_ordered counter.
	AddTreeOrder(ctx context.Context, treeID uint64) error
	// RemoveTreeOrder decrements persons_ordered, floored at zero.
	RemoveTreeOrder(ctx context.Context, treeID uint64) error
	// SetOrderedTree sets or clears (nil) the person's reservation.
	SetOrderedTree(ctx context.Context, personID uint64, treeID *uint64) error
}

// CancelResult reports the outcome of a successful cancellation.
// TreeMissing is set when the person's reservation pointed at a tree
// row that no longer exists; the reservation is cleared anyway and no
// counter is touched.
type CancelResult struct {
	TreeID      uint64
	TreeMissing bool
}

// Engine performs the place and cancel transitions against an injected
// store.  It is the only component that mutates persons_ordered or
// ordered_tree.
type Engine struct {
	store Store
}

// New constructs an Engine.  The store must be non-nil.
func New(store Store) *Engine {
	if store == nil {
		panic("nil store passed to reservation.New")
	}
	return &Engine{store: store}
}

// Place reserves the named tree for the given person.  Preconditions
// are checked in a fixed order so that a bad reference is never
// reported as a business-rule failure: ErrPersonNotFound,
// ErrTreeNotFound, ErrOutOfStock, ErrAlreadyOrdered.  On success the
// tree's counter and the person's ordered_tree are updated in the same
// transaction and the tree's ID is returned.
func (e *Engine) Place(ctx context.Context, treeName string, personID uint64) (uint64, error) {
	var treeID uint64
	err := e.store.InTx(ctx, func(tx Tx) error {
		// Lock order is tree first, person second, for both Place
		// and Cancel.
		tree, err := tx.TreeByNameForUpdate(ctx, treeName)
		if err != nil {
			return err
		}
		person, err := tx.PersonForUpdate(ctx, personID)
		if err != nil {
			return err
		}
		if person == nil {
			return ErrPersonNotFound
		}
		if tree == nil {
			return ErrTreeNotFound
		}
		if !tree.Available() {
			return ErrOutOfStock
		}
		if person.OrderedTree != nil {
			return ErrAlreadyOrdered
		}
		if err := tx.AddTreeOrder(ctx, tree.ID); err != nil {
			return err
		}
		id := tree.ID
		if err := tx.SetOrderedTree(ctx, personID, &id); err != nil {
			return err
		}
		treeID = tree.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return treeID, nil
}

// Cancel releases the person's reservation.  It returns
// ErrPersonNotFound or ErrNoActiveOrder when there is nothing to
// release.  When the reserved tree row is missing, the reservation is
// cleared and the result carries TreeMissing; otherwise the tree's
// counter is decremented (never below zero) and the reservation
// cleared, both in one transaction.
//
// Cancel does not know which tree row to lock until it has read the
// person, but the lock order is tree before person.  An unlocked read
// therefore picks the candidate tree, the rows are locked in order,
// and the candidate is re-validated against the locked person row; a
// mismatch rolls the transaction back and retries.
func (e *Engine) Cancel(ctx context.Context, personID uint64) (CancelResult, error) {
	var res CancelResult
	for attempt := 0; attempt < cancelRetries; attempt++ {
		err := e.store.InTx(ctx, func(tx Tx) error {
			peek, err := tx.Person(ctx, personID)
			if err != nil {
				return err
			}
			if peek == nil {
				return ErrPersonNotFound
			}
			candidate := peek.OrderedTree

			var tree *model.Tree
			if candidate != nil {
				tree, err = tx.TreeByIDForUpdate(ctx, *candidate)
				if err != nil {
					return err
				}
			}
			person, err := tx.PersonForUpdate(ctx, personID)
			if err != nil {
				return err
			}
			if person == nil {
				return ErrPersonNotFound
			}
			if person.OrderedTree == nil {
				// Covers both "never ordered" and "cancelled by a
				// concurrent request before we got the lock".
				return ErrNoActiveOrder
			}
			if candidate == nil || *person.OrderedTree != *candidate {
				return errStaleCandidate
			}
			if tree == nil {
				// Data-integrity edge case: the reservation points at
				// a tree row that no longer exists.  Clear the
				// reservation, touch no counter.
				if err := tx.SetOrderedTree(ctx, personID, nil); err != nil {
					return err
				}
				res = CancelResult{TreeID: *candidate, TreeMissing: true}
				return nil
			}
			if err := tx.RemoveTreeOrder(ctx, tree.ID); err != nil {
				return err
			}
			if err := tx.SetOrderedTree(ctx, personID, nil); err != nil {
				return err
			}
			res = CancelResult{TreeID: tree.ID}
			return nil
		})
		if errors.Is(err, errStaleCandidate) {
			continue
		}
		if err != nil {
			return CancelResult{}, err
		}
		return res, nil
	}
	return CancelResult{}, fmt.Errorf("cancel order for person %d: %w", personID, errStaleCandidate)
}
