package main

import (
	"context"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os/signal"
	"syscall"

	"topowave/adapters/postgres"
	"topowave/adapters/rng"
	"topowave/app"
	"topowave/internal"
	"topowave/internal/api"
	"topowave/internal/config"
	"topowave/internal/errors"
	"topowave/internal/gw"
	"topowave/internal/migration"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initDatabase connects to PostgreSQL and applies pending migrations.
func initDatabase(appConfig *config.Config, logger *internal.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	migrator := migration.NewMigrator(db, logger)
	if err := migrator.Up(context.Background()); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}
	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.DefaultLogger

	db, err := initDatabase(appConfig, logger)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	rngAdapter := rng.NewAdapter()
	classifier := app.DefaultClassifierConfig()
	classifier.TestFraction = appConfig.Pipeline.TestFraction

	service := app.NewDetectionService(
		gw.NewGenerator(rngAdapter),
		postgres.NewRunRepository(db),
		rngAdapter,
		classifier,
		logger,
	)

	// Start pprof server for performance profiling
	if appConfig.Profiling.Enabled {
		go func() {
			logger.Info("pprof server starting on :%s", appConfig.Profiling.Port)
			if err := http.ListenAndServe(":"+appConfig.Profiling.Port, nil); err != nil {
				logger.Error("pprof server failed: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(service, appConfig, logger)
	if err := server.Serve(ctx); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed: %v", err)
	}
	logger.Info("server stopped")
}
