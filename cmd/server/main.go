package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/novafit/gym-class-reservation/internal/booking"
	"github.com/novafit/gym-class-reservation/internal/config"
	"github.com/novafit/gym-class-reservation/internal/database"
	"github.com/novafit/gym-class-reservation/internal/handler"
	"github.com/novafit/gym-class-reservation/internal/queue"
	"github.com/novafit/gym-class-reservation/internal/repository"
	"github.com/novafit/gym-class-reservation/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	// Redis is optional; without it caching and rate limiting degrade
	// to no-ops.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, caching and rate limiting disabled")
	}

	store := repository.NewStore(db)
	engine := booking.NewEngine(store, booking.WithDefaultQuota(cfg.WeeklyQuota))

	// Notification consumer runs in-process; it reconnects on its own
	// if the broker drops.
	go queue.StartReservationConsumer()

	e := echo.New()
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	router.RegisterRoutes(e)
	router.RegisterAPI(e,
		handler.NewReservationHandler(engine, rdb),
		handler.NewScheduleHandler(store, cfg.WeeklyQuota),
		handler.NewStaffHandler(store, rdb),
		rdb,
	)

	log.Printf("starting %s server on :%s", cfg.Env, cfg.Port)
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
