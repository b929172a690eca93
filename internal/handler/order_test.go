package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treelife/tree-sapling-reservation/internal/model"
	"github.com/treelife/tree-sapling-reservation/internal/reservation"
)

func newOrderTestHandler() (*OrderHandler, *reservation.MemStore) {
	store := reservation.NewMemStore()
	store.PutPerson(model.Person{ID: 1, FirstName: "Asha"})
	store.PutPerson(model.Person{ID: 2, FirstName: "Ravi"})
	store.PutTree(model.Tree{ID: 1, Name: "Oak", StockAvailable: 5})
	store.PutTree(model.Tree{ID: 2, Name: "Pine", StockAvailable: 1, PersonsOrdered: 1})
	return NewOrderHandler(reservation.New(store)), store
}

func doPlaceOrder(t *testing.T, h *OrderHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/orders/tree", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h.PlaceOrder(e.NewContext(req, rec)))
	return rec
}

func doCancelOrder(t *testing.T, h *OrderHandler, personID string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/v1/orders/cancel/"+personID, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("person_id")
	c.SetParamValues(personID)
	require.NoError(t, h.CancelOrder(c))
	return rec
}

func TestPlaceOrderEndpoint(t *testing.T) {
	h, store := newOrderTestHandler()

	rec := doPlaceOrder(t, h, `{"tree_name":"Oak","person_id":1}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"tree_id":1`)
	assert.Equal(t, uint32(1), store.TreeSnapshot(1).PersonsOrdered)

	// Second order by the same person is a state conflict.
	rec = doPlaceOrder(t, h, `{"tree_name":"Oak","person_id":1}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPlaceOrderEndpointFailures(t *testing.T) {
	h, _ := newOrderTestHandler()

	rec := doPlaceOrder(t, h, `{"tree_name":"Oak","person_id":99}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "person not found")

	rec = doPlaceOrder(t, h, `{"tree_name":"Nonexistent","person_id":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "tree not found")

	rec = doPlaceOrder(t, h, `{"tree_name":"Pine","person_id":2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "out of stock")

	rec = doPlaceOrder(t, h, `{"tree_name":"","person_id":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelOrderEndpoint(t *testing.T) {
	h, store := newOrderTestHandler()

	doPlaceOrder(t, h, `{"tree_name":"Oak","person_id":1}`)

	rec := doCancelOrder(t, h, "1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"tree_id":1`)
	assert.Equal(t, uint32(0), store.TreeSnapshot(1).PersonsOrdered)

	rec = doCancelOrder(t, h, "1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no order to cancel")
}

func TestCancelOrderEndpointFailures(t *testing.T) {
	h, _ := newOrderTestHandler()

	rec := doCancelOrder(t, h, "99")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doCancelOrder(t, h, "abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelOrderEndpointMissingTree(t *testing.T) {
	h, store := newOrderTestHandler()

	doPlaceOrder(t, h, `{"tree_name":"Oak","person_id":1}`)
	store.DeleteTree(1)

	rec := doCancelOrder(t, h, "1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tree record missing")
}
