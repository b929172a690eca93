package reservation

import (
	"context"
	"sync"

	"github.com/treelife/tree-sapling-reservation/internal/model"
)

// MemStore is an in-memory Store used by tests and local development.
// A single mutex held for the whole transaction stands in for row
// locks: transactions serialize completely, which is a strictly
// stronger guarantee than the per-row locking the SQL store provides.
// Mutations are staged on copies and applied only when the transaction
// function returns nil, so a failed transaction leaves no trace.
type MemStore struct {
	mu          sync.Mutex
	persons     map[uint64]model.Person
	trees       map[uint64]model.Tree
	treesByName map[string]uint64
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		persons:     make(map[uint64]model.Person),
		trees:       make(map[uint64]model.Tree),
		treesByName: make(map[string]uint64),
	}
}

// PutPerson inserts or replaces a person row.
func (s *MemStore) PutPerson(p model.Person) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persons[p.ID] = p
}

// PutTree inserts or replaces a tree row.
func (s *MemStore) PutTree(t model.Tree) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trees[t.ID] = t
	s.treesByName[t.Name] = t.ID
}

// DeleteTree removes a tree row, leaving any reservations that point
// at it dangling.  Tests use this to reproduce the missing-tree cancel
// edge case.
func (s *MemStore) DeleteTree(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.trees[id]; ok {
		delete(s.treesByName, t.Name)
		delete(s.trees, id)
	}
}

// PersonSnapshot returns a copy of the person row, or nil.
func (s *MemStore) PersonSnapshot(id uint64) *model.Person {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.persons[id]; ok {
		return &p
	}
	return nil
}

// TreeSnapshot returns a copy of the tree row, or nil.
func (s *MemStore) TreeSnapshot(id uint64) *model.Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.trees[id]; ok {
		return &t
	}
	return nil
}

// InTx runs fn under the store mutex with staged writes.
func (s *MemStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memTx{
		store:         s,
		stagedPersons: make(map[uint64]model.Person),
		stagedTrees:   make(map[uint64]model.Tree),
	}
	if err := fn(tx); err != nil {
		return err
	}
	for id, p := range tx.stagedPersons {
		s.persons[id] = p
	}
	for id, t := range tx.stagedTrees {
		s.trees[id] = t
	}
	return nil
}

// memTx overlays staged writes on the store's maps.  Reads see staged
// state first so a transaction observes its own mutations.
type memTx struct {
	store         *MemStore
	stagedPersons map[uint64]model.Person
	stagedTrees   map[uint64]model.Tree
}

func (tx *memTx) person(id uint64) (model.Person, bool) {
	if p, ok := tx.stagedPersons[id]; ok {
		return p, true
	}
	p, ok := tx.store.persons[id]
	return p, ok
}

func (tx *memTx) tree(id uint64) (model.Tree, bool) {
	if t, ok := tx.stagedTrees[id]; ok {
		return t, true
	}
	t, ok := tx.store.trees[id]
	return t, ok
}

func (tx *memTx) TreeByNameForUpdate(ctx context.Context, name string) (*model.Tree, error) {
	id, ok := tx.store.treesByName[name]
	if !ok {
		return nil, nil
	}
	t, ok := tx.tree(id)
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (tx *memTx) TreeByIDForUpdate(ctx context.Context, id uint64) (*model.Tree, error) {
	t, ok := tx.tree(id)
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (tx *memTx) PersonForUpdate(ctx context.Context, id uint64) (*model.Person, error) {
	p, ok := tx.person(id)
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (tx *memTx) Person(ctx context.Context, id uint64) (*model.Person, error) {
	return tx.PersonForUpdate(ctx, id)
}

func (tx *memTx) AddTreeOrder(ctx context.Context, treeID uint64) error {
	t, ok := tx.tree(treeID)
	if !ok {
		return nil
	}
	t.PersonsOrdered++
	tx.stagedTrees[treeID] = t
	return nil
}

func (tx *memTx) RemoveTreeOrder(ctx context.Context, treeID uint64) error {
	t, ok := tx.tree(treeID)
	if !ok {
		return nil
	}
	if t.PersonsOrdered > 0 {
		t.PersonsOrdered--
	}
	tx.stagedTrees[treeID] = t
	return nil
}

func (tx *memTx) SetOrderedTree(ctx context.Context, personID uint64, treeID *uint64) error {
	p, ok := tx.person(personID)
	if !ok {
		return nil
	}
	if treeID != nil {
		id := *treeID
		p.OrderedTree = &id
	} else {
		p.OrderedTree = nil
	}
	tx.stagedPersons[personID] = p
	return nil
}
