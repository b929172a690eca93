package router

import (
	"fmt"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/treelife/tree-sapling-reservation/internal/handler"
)

// Every route the API promises must be mounted; handlers are never
// invoked here so zero-value handler structs are enough.
func TestRegisterRoutesMountsAllEndpoints(t *testing.T) {
	e := echo.New()
	RegisterRoutes(e, Handlers{
		Orders:   &handler.OrderHandler{},
		Persons:  &handler.PersonHandler{},
		Address:  &handler.AddressHandler{},
		Pictures: &handler.PictureHandler{},
		Trees:    &handler.TreeHandler{},
	}, nil)

	mounted := make(map[string]bool)
	for _, r := range e.Routes() {
		mounted[fmt.Sprintf("%s %s", r.Method, r.Path)] = true
	}

	expected := []string{
		"GET /healthz",
		"POST /v1/orders/tree",
		"DELETE /v1/orders/cancel/:person_id",
		"POST /v1/persons",
		"GET /v1/persons",
		"GET /v1/persons/email-exists",
		"GET /v1/persons/:id",
		"GET /v1/persons/:id/tree",
		"GET /v1/persons/:id/has-order",
		"POST /v1/persons/:id/addresses",
		"GET /v1/persons/:id/addresses",
		"POST /v1/persons/:id/picture",
		"GET /v1/persons/:id/picture-url",
		"GET /v1/pictures/:filename",
		"GET /v1/trees/available",
	}
	for _, route := range expected {
		assert.True(t, mounted[route], "route not mounted: %s", route)
	}
}
