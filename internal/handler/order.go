package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/treelife/tree-sapling-reservation/internal/queue"
	"github.com/treelife/tree-sapling-reservation/internal/reservation"
)

// OrderHandler exposes the reservation engine's two transitions over
// HTTP.  All invariant enforcement lives in the engine; the handler
// only validates input shape and maps the engine's sentinel outcomes
// onto status codes.
type OrderHandler struct {
	Engine *reservation.Engine
}

// NewOrderHandler constructs an OrderHandler.  The engine must be
// non-nil.
func NewOrderHandler(engine *reservation.Engine) *OrderHandler {
	if engine == nil {
		panic("nil engine passed to NewOrderHandler")
	}
	return &OrderHandler{Engine: engine}
}

type placeOrderReq struct {
	TreeName string `json:"tree_name"`
	PersonID uint64 `json:"person_id"`
}

// PlaceOrder handles POST /v1/orders/tree.  It reserves the named
// tree for the person.  Not-found outcomes map to 404, out-of-stock
// to 400 and an existing reservation to 409.
func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	var req placeOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.TreeName = strings.TrimSpace(req.TreeName)
	if req.TreeName == "" || req.PersonID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tree_name and person_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	treeID, err := h.Engine.Place(ctx, req.TreeName, req.PersonID)
	if err != nil {
		switch {
		case errors.Is(err, reservation.ErrPersonNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "person not found"})
		case errors.Is(err, reservation.ErrTreeNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tree not found"})
		case errors.Is(err, reservation.ErrOutOfStock):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "tree out of stock"})
		case errors.Is(err, reservation.ErrAlreadyOrdered):
			return c.JSON(http.StatusConflict, echo.Map{"error": "person already has an ordered tree"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	publishOrderEvent(queue.ActionPlaced, req.PersonID, treeID, req.TreeName, false)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "tree_id": treeID})
}

// CancelOrder handles DELETE /v1/orders/cancel/:person_id.  It
// releases the person's reservation.  When the reserved tree row was
// missing, the response carries an explanatory message alongside the
// success flag.
func (h *OrderHandler) CancelOrder(c echo.Context) error {
	personID, ok := pathID(c, "person_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid person id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Engine.Cancel(ctx, personID)
	if err != nil {
		switch {
		case errors.Is(err, reservation.ErrPersonNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "person not found"})
		case errors.Is(err, reservation.ErrNoActiveOrder):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "no order to cancel"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	publishOrderEvent(queue.ActionCancelled, personID, res.TreeID, "", res.TreeMissing)
	resp := echo.Map{"success": true, "tree_id": res.TreeID}
	if res.TreeMissing {
		resp["message"] = "order cancelled; tree record missing"
	}
	return c.JSON(http.StatusOK, resp)
}
