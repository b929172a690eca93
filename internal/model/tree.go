package model

import "time"

// Tree represents a sapling variety with a limited stock, mirroring
// the `trees` table.  PersonsOrdered counts the reservations held
// against the variety and must never exceed StockAvailable; the
// reservation engine is the only writer of that counter.  A tree is
// available for new orders while PersonsOrdered < StockAvailable.
//
// Fields:
//  ID             – primary key identifier.
//  Name           – unique human-readable variety name, used as the
//                   lookup key when ordering.
//  StockAvailable – provisioned ceiling of reservable units.
//  PersonsOrdered – current number of reservations.
//  CreatedAt      – timestamp of creation.
//  UpdatedAt      – timestamp of last update.
type Tree struct {
	ID             uint64    // trees.id
	Name           string    // trees.name (unique)
	StockAvailable uint32    // trees.stock_available
	PersonsOrdered uint32    // trees.persons_ordered
	CreatedAt      time.Time // trees.created_at
	UpdatedAt      time.Time // trees.updated_at
}

// Available reports whether the tree still has unreserved stock.
func (t *Tree) Available() bool {
	return t.PersonsOrdered < t.StockAvailable
}
