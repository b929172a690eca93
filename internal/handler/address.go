package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/treelife/tree-sapling-reservation/internal/queue"
	"github.com/treelife/tree-sapling-reservation/internal/repository"
	"github.com/treelife/tree-sapling-reservation/internal/reservation"
)

// AddressHandler serves address creation and listing.  Address
// creation may carry a tree name; the reservation then goes through
// the same engine transition as the order endpoint, and the address
// is only inserted when the reservation succeeds.
type AddressHandler struct {
	Persons   *repository.PersonRepo
	Addresses *repository.AddressRepo
	Engine    *reservation.Engine
}

// NewAddressHandler constructs an AddressHandler.  All dependencies
// must be non-nil.
func NewAddressHandler(persons *repository.PersonRepo, addresses *repository.AddressRepo, engine *reservation.Engine) *AddressHandler {
	if persons == nil || addresses == nil || engine == nil {
		panic("nil dependency passed to NewAddressHandler")
	}
	return &AddressHandler{Persons: persons, Addresses: addresses, Engine: engine}
}

type createAddressReq struct {
	City     *string `json:"city"`
	PinCode  *string `json:"pin_code"`
	State    *string `json:"state"`
	District *string `json:"district"`
	TreeName *string `json:"tree_name"`
}

// Create handles POST /v1/persons/:id/addresses.  When tree_name is
// supplied, the reservation is placed first through the engine and a
// failed reservation aborts the whole request without inserting the
// address.
func (h *AddressHandler) Create(c echo.Context) error {
	personID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid person id"})
	}
	var req createAddressReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Persons.GetByID(ctx, personID); err != nil {
		if errors.Is(err, repository.ErrPersonNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "person not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	treeOrdered := false
	if req.TreeName != nil && strings.TrimSpace(*req.TreeName) != "" {
		treeName := strings.TrimSpace(*req.TreeName)
		treeID, err := h.Engine.Place(ctx, treeName, personID)
		if err != nil {
			switch {
			case errors.Is(err, reservation.ErrTreeNotFound):
				return c.JSON(http.StatusNotFound, echo.Map{"error": "tree not found"})
			case errors.Is(err, reservation.ErrOutOfStock):
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "tree out of stock"})
			case errors.Is(err, reservation.ErrAlreadyOrdered):
				return c.JSON(http.StatusConflict, echo.Map{"error": "person already has an ordered tree"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		treeOrdered = true
		publishOrderEvent(queue.ActionPlaced, personID, treeID, treeName, false)
	}

	a, err := h.Addresses.Create(ctx, personID, req.City, req.PinCode, req.State, req.District)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create address failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"addressId":   a.ID,
		"treeOrdered": treeOrdered,
	})
}

// List handles GET /v1/persons/:id/addresses, returning the person's
// addresses in insertion order.
func (h *AddressHandler) List(c echo.Context) error {
	personID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid person id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Persons.GetByID(ctx, personID); err != nil {
		if errors.Is(err, repository.ErrPersonNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "person not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	addresses, err := h.Addresses.ListByPerson(ctx, personID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]addressResp, 0, len(addresses))
	for _, a := range addresses {
		out = append(out, toAddressResp(a))
	}
	return c.JSON(http.StatusOK, out)
}
