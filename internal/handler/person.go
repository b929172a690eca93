package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/treelife/tree-sapling-reservation/internal/model"
	"github.com/treelife/tree-sapling-reservation/internal/repository"
)

// PersonHandler serves registration and the read-only person
// projections.  None of these operations touch reservation state;
// ordered_tree is only ever reported, never mutated here.
type PersonHandler struct {
	Persons   *repository.PersonRepo
	Trees     *repository.TreeRepo
	Addresses *repository.AddressRepo
}

// NewPersonHandler constructs a PersonHandler.  All dependencies must
// be non-nil.
func NewPersonHandler(persons *repository.PersonRepo, trees *repository.TreeRepo, addresses *repository.AddressRepo) *PersonHandler {
	if persons == nil || trees == nil || addresses == nil {
		panic("nil repository passed to NewPersonHandler")
	}
	return &PersonHandler{Persons: persons, Trees: trees, Addresses: addresses}
}

// ----- DTOs -----

type createPersonReq struct {
	FirstName string  `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
}

type personResp struct {
	ID              uint64  `json:"id"`
	FirstName       string  `json:"first_name"`
	LastName        *string `json:"last_name"`
	Email           *string `json:"email"`
	Phone           *string `json:"phone"`
	OrderedTree     *uint64 `json:"ordered_tree"`
	PictureFilename *string `json:"picture_filename,omitempty"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

type treeResp struct {
	ID             uint64 `json:"id"`
	Name           string `json:"name"`
	StockAvailable uint32 `json:"stock_available"`
	PersonsOrdered uint32 `json:"persons_ordered"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

type addressResp struct {
	ID        uint64  `json:"id"`
	PersonID  uint64  `json:"person_id"`
	City      *string `json:"city"`
	PinCode   *string `json:"pin_code"`
	State     *string `json:"state"`
	District  *string `json:"district"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

type personWithTreeResp struct {
	Person    personResp    `json:"person"`
	Tree      *treeResp     `json:"tree"`
	Addresses []addressResp `json:"addresses"`
}

type hasOrderResp struct {
	HasOrdered bool    `json:"hasOrdered"`
	TreeID     *uint64 `json:"treeId"`
}

func toPersonResp(p model.Person) personResp {
	return personResp{
		ID:              p.ID,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		Email:           p.Email,
		Phone:           p.Phone,
		OrderedTree:     p.OrderedTree,
		PictureFilename: p.PictureFilename,
		CreatedAt:       p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toTreeResp(t model.Tree) treeResp {
	return treeResp{
		ID:             t.ID,
		Name:           t.Name,
		StockAvailable: t.StockAvailable,
		PersonsOrdered: t.PersonsOrdered,
		CreatedAt:      t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toAddressResp(a model.Address) addressResp {
	return addressResp{
		ID:        a.ID,
		PersonID:  a.PersonID,
		City:      a.City,
		PinCode:   a.PinCode,
		State:     a.State,
		District:  a.District,
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// Create handles POST /v1/persons.  first_name is required; email,
// when present, must not already be registered.
func (h *PersonHandler) Create(c echo.Context) error {
	var req createPersonReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	if req.FirstName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "first_name required"})
	}
	if req.Email != nil && strings.TrimSpace(*req.Email) == "" {
		req.Email = nil
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Persons.Create(ctx, req.FirstName, req.LastName, req.Email, req.Phone)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create person failed"})
	}
	return c.JSON(http.StatusCreated, toPersonResp(*p))
}

// List handles GET /v1/persons and returns all registered persons.
func (h *PersonHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	persons, err := h.Persons.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]personResp, 0, len(persons))
	for _, p := range persons {
		out = append(out, toPersonResp(p))
	}
	return c.JSON(http.StatusOK, out)
}

// EmailExists handles GET /v1/persons/email-exists?email=...
func (h *PersonHandler) EmailExists(c echo.Context) error {
	email := strings.TrimSpace(c.QueryParam("email"))
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	exists, err := h.Persons.EmailExists(ctx, email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"exists": exists})
}

// GetByID handles GET /v1/persons/:id.
func (h *PersonHandler) GetByID(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid person id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Persons.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPersonNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "person not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toPersonResp(*p))
}

// GetWithTree handles GET /v1/persons/:id/tree.  It returns the
// person together with their reserved tree, if any, and all their
// addresses.  A dangling reservation (tree row deleted) is reported
// as a nil tree.
func (h *PersonHandler) GetWithTree(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid person id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Persons.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPersonNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "person not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	resp := personWithTreeResp{Person: toPersonResp(*p), Addresses: []addressResp{}}
	if p.OrderedTree != nil {
		t, err := h.Trees.GetByID(ctx, *p.OrderedTree)
		if err != nil && !errors.Is(err, repository.ErrTreeNotFound) {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if t != nil {
			tr := toTreeResp(*t)
			resp.Tree = &tr
		}
	}

	addresses, err := h.Addresses.ListByPerson(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	for _, a := range addresses {
		resp.Addresses = append(resp.Addresses, toAddressResp(a))
	}
	return c.JSON(http.StatusOK, resp)
}

// HasOrder handles GET /v1/persons/:id/has-order.
func (h *PersonHandler) HasOrder(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid person id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Persons.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPersonNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "person not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, hasOrderResp{
		HasOrdered: p.OrderedTree != nil,
		TreeID:     p.OrderedTree,
	})
}
