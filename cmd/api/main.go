package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/floorops/floorops-backend/api/routes"
	"github.com/floorops/floorops-backend/internal/auth"
	"github.com/floorops/floorops-backend/internal/floor"
	"github.com/floorops/floorops-backend/internal/merge"
	"github.com/floorops/floorops-backend/internal/orders"
	"github.com/floorops/floorops-backend/internal/reservations"
	"github.com/floorops/floorops-backend/internal/sessions"
	"github.com/floorops/floorops-backend/pkg/config"
	"github.com/floorops/floorops-backend/pkg/db"
	"github.com/floorops/floorops-backend/pkg/logger"
	"github.com/floorops/floorops-backend/pkg/migrate"
	"github.com/floorops/floorops-backend/pkg/outbox"
	"github.com/floorops/floorops-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient.DB()); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	conn := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)

	floorRepo := floor.NewRepository(conn)
	deriver, err := floor.NewDeriver(floorRepo, cfg.Venue.ReservationLookahead)
	if err != nil {
		logg.Error(context.Background(), "failed to create state deriver", err)
		os.Exit(1)
	}
	floorSvc, err := floor.NewService(floorRepo, deriver)
	if err != nil {
		logg.Error(context.Background(), "failed to create floor service", err)
		os.Exit(1)
	}

	sessionsRepo := sessions.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)
	reservationsRepo := reservations.NewRepository(conn)

	sessionsSvc, err := sessions.NewService(sessionsRepo, floorRepo, ordersRepo, dbClient, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create session service", err)
		os.Exit(1)
	}
	ordersSvc, err := orders.NewService(ordersRepo, sessionsRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}
	reservationsSvc, err := reservations.NewService(reservationsRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create reservation service", err)
		os.Exit(1)
	}

	mergeSvc, err := merge.NewService(
		merge.NewRepository(conn),
		deriver,
		dbClient,
		outboxSvc,
		sessionsRepo,
		ordersRepo,
		reservationsRepo,
		cfg.Merge.LockTimeout,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create merge service", err)
		os.Exit(1)
	}

	authSvc, err := auth.NewService(auth.NewRepository(conn), cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:       cfg,
			Logger:       logg,
			Redis:        redisClient,
			DBPinger:     dbClient,
			Auth:         authSvc,
			Floor:        floorSvc,
			Merge:        mergeSvc,
			Sessions:     sessionsSvc,
			Orders:       ordersSvc,
			Reservations: reservationsSvc,
		}),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		<-shutdownCtx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "error draining api server", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shut down gracefully")
}
