package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/krizzk/be-koszhunter/internal/config"
	"github.com/krizzk/be-koszhunter/internal/database"
	"github.com/krizzk/be-koszhunter/internal/handler"
	"github.com/krizzk/be-koszhunter/internal/invoice"
	"github.com/krizzk/be-koszhunter/internal/queue"
	"github.com/krizzk/be-koszhunter/internal/repository"
	"github.com/krizzk/be-koszhunter/internal/router"
	"github.com/krizzk/be-koszhunter/internal/service"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Env == "dev" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		log.SetLevel(logrus.DebugLevel)
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unreachable, cache and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	kos := repository.NewKosRepo(db)
	rooms := repository.NewRoomRepo(db)
	bookings := repository.NewBookingRepo(db)
	facilities := repository.NewFacilityRepo(db)
	reviews := repository.NewReviewRepo(db)
	reports := repository.NewReportRepo(db)

	amqpURL := os.Getenv("AMQP_URL")
	publisher := service.NewPublisher(amqpURL, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if amqpURL != "" {
		consumer := queue.NewConsumer(amqpURL, "logs", log)
		go consumer.Run(ctx)
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()

	router.Register(e, router.Deps{
		Cfg:   cfg,
		Redis: rdb,
		Users: &handler.UserHandler{Users: users, Reports: reports, Cfg: cfg, Log: log},
		Kos: &handler.KosHandler{Kos: kos, Facilities: facilities, Reviews: reviews,
			Reports: reports, Cfg: cfg, Log: log},
		Rooms: &handler.RoomHandler{Rooms: rooms, Kos: kos, Facilities: facilities, Cfg: cfg, Log: log},
		Bookings: &handler.BookingHandler{Bookings: bookings, Rooms: rooms, Kos: kos,
			Invoices: invoice.TextRenderer{Dir: cfg.PublicDir}, Events: publisher, Cfg: cfg, Log: log},
		Facility:  &handler.FacilityHandler{Facilities: facilities, Kos: kos, Rooms: rooms, Log: log},
		Reviews:   &handler.ReviewHandler{Reviews: reviews, Kos: kos, Log: log},
		Reports:   &handler.ReportHandler{Reports: reports, Log: log},
		Health:    handler.Health(db),
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
	})

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		_ = e.Shutdown(context.Background())
	}()

	if err := e.Start(":" + cfg.Port); err != nil {
		log.WithError(err).Info("server stopped")
	}
}
