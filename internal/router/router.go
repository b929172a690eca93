// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/treelife/tree-sapling-reservation/internal/config"
	"github.com/treelife/tree-sapling-reservation/internal/handler"
	"github.com/treelife/tree-sapling-reservation/internal/middleware"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Orders   *handler.OrderHandler
	Persons  *handler.PersonHandler
	Address  *handler.AddressHandler
	Pictures *handler.PictureHandler
	Trees    *handler.TreeHandler
}

// RegisterRoutes mounts all application routes on the provided Echo
// instance.  Tree availability sits behind the Redis response cache;
// mutating endpoints sit behind the rate limiter.  Both middlewares
// degrade to no-ops when rdb is nil.
func RegisterRoutes(e *echo.Echo, h Handlers, rdb *redis.Client) {
	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	cache := middleware.ResponseCache(config.LoadCacheConfig(), rdb)
	limit := middleware.RateLimit(config.LoadRateLimitConfig(), rdb)

	// Reservation workflow.  These are the only endpoints that mutate
	// reservation state, always through the engine.
	orders := e.Group("/v1/orders", limit)
	orders.POST("/tree", h.Orders.PlaceOrder)
	orders.DELETE("/cancel/:person_id", h.Orders.CancelOrder)

	// Person registration and projections.  Person reads include
	// ordered_tree, which place/cancel mutate without touching the
	// cache, so they are served uncached.
	e.POST("/v1/persons", h.Persons.Create, limit)
	e.GET("/v1/persons", h.Persons.List)
	// The literal route must be registered before /v1/persons/:id so
	// echo does not swallow it as an id.
	e.GET("/v1/persons/email-exists", h.Persons.EmailExists)
	e.GET("/v1/persons/:id", h.Persons.GetByID)
	e.GET("/v1/persons/:id/tree", h.Persons.GetWithTree)
	e.GET("/v1/persons/:id/has-order", h.Persons.HasOrder)

	// Addresses; creation may place an order via the engine.
	e.POST("/v1/persons/:id/addresses", h.Address.Create, limit)
	e.GET("/v1/persons/:id/addresses", h.Address.List)

	// Profile pictures with signed download links.
	e.POST("/v1/persons/:id/picture", h.Pictures.Upload, limit)
	e.GET("/v1/persons/:id/picture-url", h.Pictures.URL)
	e.GET("/v1/pictures/:filename", h.Pictures.Serve)

	// Tree availability for browsing.
	e.GET("/v1/trees/available", h.Trees.ListAvailable, cache)
}
