package main // Entry point package

import (
	"context" // context for startup deadlines
	"log"     // Logging library
	"time"    // timeouts and durations

	"github.com/joho/godotenv"    // optional .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/inventory-reservation/internal/clock"      // injectable time source
	"github.com/iliyamo/inventory-reservation/internal/config"     // environment config loaders
	"github.com/iliyamo/inventory-reservation/internal/database"   // MySQL connector
	"github.com/iliyamo/inventory-reservation/internal/handler"    // HTTP handlers
	appmw "github.com/iliyamo/inventory-reservation/internal/middleware" // rate limit / cache / metrics
	"github.com/iliyamo/inventory-reservation/internal/queue"      // event publisher and consumer
	"github.com/iliyamo/inventory-reservation/internal/repository" // data access layer
	"github.com/iliyamo/inventory-reservation/internal/router"     // route registration
	"github.com/iliyamo/inventory-reservation/internal/service"    // reservation core
	"github.com/iliyamo/inventory-reservation/migrations"          // embedded schema migrations
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("loaded configuration from .env")
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	migCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := migrations.Apply(migCtx, db); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	// Redis is optional: when unreachable, rate limiting and response
	// caching are disabled and the API still serves.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and caching disabled")
	}

	itemRepo := repository.NewItemRepo(db)
	reservationRepo := repository.NewReservationRepo(db)
	window := time.Duration(cfg.ReservationTTLMin) * time.Minute
	svc := service.NewReservationService(itemRepo, reservationRepo, clock.NewSystem(), window)

	publisher := queue.NewPublisher()
	items := handler.NewItemHandler(svc)
	reservations := handler.NewReservationHandler(svc, publisher)
	maintenance := handler.NewMaintenanceHandler(svc, publisher)

	// Background consumer appends confirmed reservations to the audit
	// log; it reconnects on its own and never takes the server down.
	go func() {
		if err := queue.StartConfirmedConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.Use(appmw.Metrics())
	rateMW := appmw.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cacheMW := appmw.NewRedisCache(config.LoadCacheConfig(), rdb)
	router.RegisterRoutes(e)
	router.RegisterAPI(e, items, reservations, maintenance, rateMW, cacheMW)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
