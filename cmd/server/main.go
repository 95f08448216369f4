package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/tuanngo/car-rental-api/internal/booking"
	"github.com/tuanngo/car-rental-api/internal/config"
	"github.com/tuanngo/car-rental-api/internal/database"
	"github.com/tuanngo/car-rental-api/internal/handler"
	"github.com/tuanngo/car-rental-api/internal/middleware"
	"github.com/tuanngo/car-rental-api/internal/queue"
	"github.com/tuanngo/car-rental-api/internal/repository"
	"github.com/tuanngo/car-rental-api/internal/router"
	"github.com/tuanngo/car-rental-api/internal/scheduler"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	vehicles := repository.NewVehicleRepo(db)
	branches := repository.NewBranchRepo(db)
	intervals := repository.NewIntervalRepo(db)
	contracts := repository.NewContractRepo(db)
	prices := repository.NewPriceRepo(db)

	// Booking core: one store, one coordinator, one sweep scheduler.
	store := booking.NewSQLStore(db, cfg.DegradedNoTx)
	if cfg.DegradedNoTx {
		log.Println("WARNING: DEGRADED_NO_TX is enabled; booking writes may run without transactions")
	}
	coordinator := booking.NewCoordinator(store)

	sweeper := scheduler.New(store, time.Duration(cfg.SweepIntervalSec)*time.Second)
	schedCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go sweeper.Run(schedCtx)

	// Rental event consumer keeps its own reconnect loop.
	go func() {
		if err := queue.StartRentalConsumer(); err != nil {
			log.Printf("rental-consumer: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	// Redis-backed rate limiting and response caching degrade to
	// no-ops when Redis is unreachable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	// The response cache is keyed by route and query only, so it is
	// applied to the public browse routes and nowhere else.
	browseCache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	authHandler := handler.NewAuthHandler(cfg, users, tokens)
	publicHandler := handler.NewPublicHandler(vehicles, branches, intervals, prices)
	rentalHandler := handler.NewRentalHandler(coordinator, contracts, vehicles, prices)
	ownerHandler := handler.NewOwnerHandler(coordinator, vehicles, branches, intervals, prices)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterPublic(e, publicHandler, browseCache)
	router.RegisterCustomer(e, rentalHandler, cfg.JWTSecret)
	router.RegisterOwner(e, ownerHandler, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, sweep=%ds)", addr, cfg.Env, cfg.SweepIntervalSec)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
