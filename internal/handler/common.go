package handler // handler defines http handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	q "github.com/treelife/tree-sapling-reservation/internal/queue"
	queue_publisher "github.com/treelife/tree-sapling-reservation/internal/service"
)

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// publishOrderEvent emits an audit event for a committed reservation
// transition.  The reservation has already committed, so this runs in
// the background and failures are only logged by the publisher.
func publishOrderEvent(action string, personID, treeID uint64, treeName string, treeMissing bool) {
	ev := q.OrderEvent{
		Action:      action,
		PersonID:    personID,
		TreeID:      treeID,
		TreeName:    treeName,
		TreeMissing: treeMissing,
		OccurredAt:  time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queue_publisher.PublishOrderEvent(ctx, ev)
	}()
}
