package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/treelife/tree-sapling-reservation/internal/repository"
)

// TreeHandler serves the public tree projections.
type TreeHandler struct {
	Trees *repository.TreeRepo
}

// NewTreeHandler constructs a TreeHandler.
func NewTreeHandler(trees *repository.TreeRepo) *TreeHandler {
	if trees == nil {
		panic("nil repository passed to NewTreeHandler")
	}
	return &TreeHandler{Trees: trees}
}

// ListAvailable handles GET /v1/trees/available, returning all
// varieties with remaining stock ordered by id.
func (h *TreeHandler) ListAvailable(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	trees, err := h.Trees.ListAvailable(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]treeResp, 0, len(trees))
	for _, t := range trees {
		out = append(out, toTreeResp(t))
	}
	return c.JSON(http.StatusOK, out)
}
