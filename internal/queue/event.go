// Package queue defines message payloads exchanged over the message broker.
package queue

// Actions recorded on an OrderEvent.
const (
	ActionPlaced    = "PLACED"
	ActionCancelled = "CANCELLED"
)

// OrderEvent is published whenever a reservation is placed or
// cancelled.  It carries enough information for downstream consumers
// to log, notify, or feed analytics without querying the primary
// database.
type OrderEvent struct {
	Action      string `json:"action"`
	PersonID    uint64 `json:"person_id"`
	TreeID      uint64 `json:"tree_id"`
	TreeName    string `json:"tree_name,omitempty"`
	TreeMissing bool   `json:"tree_missing,omitempty"`
	OccurredAt  string `json:"occurred_at"`
}
