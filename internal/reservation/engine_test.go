package reservation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treelife/tree-sapling-reservation/internal/model"
)

const (
	oakID  = 1
	pineID = 2
)

// newSeededStore returns a store with two persons and the Oak/Pine
// trees used across the tests.
func newSeededStore() *MemStore {
	s := NewMemStore()
	s.PutPerson(model.Person{ID: 1, FirstName: "Asha"})
	s.PutPerson(model.Person{ID: 2, FirstName: "Ravi"})
	s.PutTree(model.Tree{ID: oakID, Name: "Oak", StockAvailable: 5})
	s.PutTree(model.Tree{ID: pineID, Name: "Pine", StockAvailable: 1, PersonsOrdered: 1})
	return s
}

func TestPlaceOrder(t *testing.T) {
	store := newSeededStore()
	eng := New(store)
	ctx := context.Background()

	treeID, err := eng.Place(ctx, "Oak", 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(oakID), treeID)

	tree := store.TreeSnapshot(oakID)
	require.NotNil(t, tree)
	assert.Equal(t, uint32(1), tree.PersonsOrdered)

	person := store.PersonSnapshot(1)
	require.NotNil(t, person)
	require.NotNil(t, person.OrderedTree)
	assert.Equal(t, uint64(oakID), *person.OrderedTree)

	// Same person again without cancelling.
	_, err = eng.Place(ctx, "Oak", 1)
	assert.ErrorIs(t, err, ErrAlreadyOrdered)
	assert.Equal(t, uint32(1), store.TreeSnapshot(oakID).PersonsOrdered)
}

func TestPlaceOrderOutOfStock(t *testing.T) {
	store := newSeededStore()
	eng := New(store)

	_, err := eng.Place(context.Background(), "Pine", 2)
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Equal(t, uint32(1), store.TreeSnapshot(pineID).PersonsOrdered)
	assert.Nil(t, store.PersonSnapshot(2).OrderedTree)
}

func TestPlaceOrderUnknownReferences(t *testing.T) {
	eng := New(newSeededStore())
	ctx := context.Background()

	_, err := eng.Place(ctx, "Oak", 99)
	assert.ErrorIs(t, err, ErrPersonNotFound)

	_, err = eng.Place(ctx, "Nonexistent", 1)
	assert.ErrorIs(t, err, ErrTreeNotFound)

	// Bad person dominates bad tree.
	_, err = eng.Place(ctx, "Nonexistent", 99)
	assert.ErrorIs(t, err, ErrPersonNotFound)
}

func TestCancelOrder(t *testing.T) {
	store := newSeededStore()
	eng := New(store)
	ctx := context.Background()

	_, err := eng.Place(ctx, "Oak", 1)
	require.NoError(t, err)

	res, err := eng.Cancel(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(oakID), res.TreeID)
	assert.False(t, res.TreeMissing)
	assert.Equal(t, uint32(0), store.TreeSnapshot(oakID).PersonsOrdered)
	assert.Nil(t, store.PersonSnapshot(1).OrderedTree)

	_, err = eng.Cancel(ctx, 1)
	assert.ErrorIs(t, err, ErrNoActiveOrder)
	assert.Equal(t, uint32(0), store.TreeSnapshot(oakID).PersonsOrdered)
}

func TestCancelOrderUnknownPerson(t *testing.T) {
	eng := New(newSeededStore())

	_, err := eng.Cancel(context.Background(), 99)
	assert.ErrorIs(t, err, ErrPersonNotFound)
}

func TestCancelOrderMissingTree(t *testing.T) {
	store := newSeededStore()
	eng := New(store)
	ctx := context.Background()

	_, err := eng.Place(ctx, "Oak", 1)
	require.NoError(t, err)
	store.DeleteTree(oakID)

	res, err := eng.Cancel(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(oakID), res.TreeID)
	assert.True(t, res.TreeMissing)
	assert.Nil(t, store.PersonSnapshot(1).OrderedTree)
}

func TestCancelOrderCounterFloor(t *testing.T) {
	// A prior inconsistency: the person holds a reservation but the
	// tree's counter already reads zero.  Cancelling must not drive
	// it negative.
	store := NewMemStore()
	tid := uint64(7)
	store.PutTree(model.Tree{ID: tid, Name: "Neem", StockAvailable: 2, PersonsOrdered: 0})
	store.PutPerson(model.Person{ID: 1, FirstName: "Asha", OrderedTree: &tid})

	res, err := New(store).Cancel(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, tid, res.TreeID)
	assert.Equal(t, uint32(0), store.TreeSnapshot(tid).PersonsOrdered)
	assert.Nil(t, store.PersonSnapshot(1).OrderedTree)
}

func TestConcurrentPlaceForLastUnit(t *testing.T) {
	store := NewMemStore()
	store.PutTree(model.Tree{ID: 1, Name: "Mango", StockAvailable: 1})
	store.PutPerson(model.Person{ID: 1, FirstName: "Asha"})
	store.PutPerson(model.Person{ID: 2, FirstName: "Ravi"})
	eng := New(store)

	results := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = eng.Place(context.Background(), "Mango", uint64(i+1))
		}(i)
	}
	wg.Wait()

	var successes, outOfStock int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrOutOfStock):
			outOfStock++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, outOfStock)
	assert.Equal(t, uint32(1), store.TreeSnapshot(1).PersonsOrdered)
}

// TestInvariantsUnderConcurrentTraffic hammers one tree with more
// persons than stock, cancels some reservations concurrently, and
// then checks the two core invariants: the counter never exceeds
// stock, and it equals the number of persons holding a reservation.
func TestInvariantsUnderConcurrentTraffic(t *testing.T) {
	const persons = 16
	const stock = 3

	store := NewMemStore()
	store.PutTree(model.Tree{ID: 1, Name: "Banyan", StockAvailable: stock})
	for i := 1; i <= persons; i++ {
		store.PutPerson(model.Person{ID: uint64(i), FirstName: "P"})
	}
	eng := New(store)

	var wg sync.WaitGroup
	for i := 1; i <= persons; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			if _, err := eng.Place(context.Background(), "Banyan", id); err != nil {
				return
			}
			if id%2 == 0 {
				_, _ = eng.Cancel(context.Background(), id)
			}
		}(uint64(i))
	}
	wg.Wait()

	tree := store.TreeSnapshot(1)
	require.NotNil(t, tree)
	assert.LessOrEqual(t, tree.PersonsOrdered, uint32(stock))

	var holders uint32
	for i := 1; i <= persons; i++ {
		p := store.PersonSnapshot(uint64(i))
		require.NotNil(t, p)
		if p.OrderedTree != nil {
			assert.Equal(t, uint64(1), *p.OrderedTree)
			holders++
		}
	}
	assert.Equal(t, tree.PersonsOrdered, holders)
}

// failingTx wraps a Tx so that the final person update fails,
// exercising the all-or-nothing guarantee.
type failingTx struct {
	Tx
}

var errInjected = errors.New("injected storage failure")

func (f failingTx) SetOrderedTree(ctx context.Context, personID uint64, treeID *uint64) error {
	return errInjected
}

type failingStore struct {
	inner Store
}

func (s failingStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.inner.InTx(ctx, func(tx Tx) error {
		return fn(failingTx{Tx: tx})
	})
}

func TestPlaceRollsBackOnStorageFailure(t *testing.T) {
	store := newSeededStore()
	eng := New(failingStore{inner: store})

	_, err := eng.Place(context.Background(), "Oak", 1)
	assert.ErrorIs(t, err, errInjected)

	// The counter increment happened before the failing write and
	// must not have survived the rollback.
	assert.Equal(t, uint32(0), store.TreeSnapshot(oakID).PersonsOrdered)
	assert.Nil(t, store.PersonSnapshot(1).OrderedTree)
}
