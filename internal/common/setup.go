package common

import (
	"context"
	"log"
	"strings"

	"tikflow-ledger-go/internal/catalog"
	"tikflow-ledger-go/internal/database"
	"tikflow-ledger-go/internal/matcher"
	"tikflow-ledger-go/internal/models"
	"tikflow-ledger-go/internal/notify"
	"tikflow-ledger-go/internal/recon"
	"tikflow-ledger-go/internal/stats"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Try to load .env file - if it doesn't exist, that's okay
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

// Services wires the whole reconciliation core together.
type Services struct {
	DbService   *database.Service
	Catalog     *catalog.Service
	Stats       *stats.Aggregator
	Notify      *notify.Sink
	Coordinator *recon.Coordinator
	Matcher     *matcher.Matcher
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	settings, err := LoadSettings(cfg.Settings.File)
	if err != nil {
		zap.L().Warn("Settings file not loaded, using defaults",
			zap.String("file", cfg.Settings.File),
			zap.Error(err))
		settings = DefaultSettings()
	}

	m, err := matcher.NewMatcher(dbService, settings.MatcherConfig())
	if err != nil {
		dbService.Close()
		return nil, err
	}

	cat := catalog.NewService(dbService)
	agg := stats.NewAggregator(dbService)
	sink := notify.NewSink(dbService)
	coordinator := recon.NewCoordinator(dbService, cat, agg, sink, cfg.Recon)

	return &Services{
		DbService:   dbService,
		Catalog:     cat,
		Stats:       agg,
		Notify:      sink,
		Coordinator: coordinator,
		Matcher:     m,
	}, nil
}

// InitializeDatabaseOnly initializes just the database service.
// Useful for read-only operations like querying balances.
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
