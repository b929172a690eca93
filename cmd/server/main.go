package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/treelife/tree-sapling-reservation/internal/config"
	"github.com/treelife/tree-sapling-reservation/internal/database"
	"github.com/treelife/tree-sapling-reservation/internal/handler"
	"github.com/treelife/tree-sapling-reservation/internal/queue"
	"github.com/treelife/tree-sapling-reservation/internal/repository"
	"github.com/treelife/tree-sapling-reservation/internal/reservation"
	"github.com/treelife/tree-sapling-reservation/internal/router"
	"github.com/treelife/tree-sapling-reservation/internal/storage"
)

func main() {
	// Load .env for local development; a missing file is fine because
	// production supplies real environment variables.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	// Repositories and the reservation engine.  The engine receives
	// its store explicitly; nothing reaches the database through a
	// package-level handle.
	persons := repository.NewPersonRepo(db)
	trees := repository.NewTreeRepo(db)
	addresses := repository.NewAddressRepo(db)
	engine := reservation.New(repository.NewOrderStore(db, trees, persons))

	pictures, err := storage.NewPictureStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("open picture store: %v", err)
	}

	// Redis is optional: cache and rate limiting disable themselves
	// when the client is nil.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; response cache and rate limiting disabled")
	}

	// Background consumer appending order events to logs/orders.log.
	go func() {
		if err := queue.StartOrderAuditConsumer(); err != nil {
			log.Printf("order audit consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e, router.Handlers{
		Orders:   handler.NewOrderHandler(engine),
		Persons:  handler.NewPersonHandler(persons, trees, addresses),
		Address:  handler.NewAddressHandler(persons, addresses, engine),
		Pictures: handler.NewPictureHandler(cfg, persons, pictures),
		Trees:    handler.NewTreeHandler(trees),
	}, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
