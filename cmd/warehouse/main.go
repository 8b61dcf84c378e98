package main

import (
	"context"
	"flag"
	"os"

	"github.com/getpawsy/curation/internal/catalog"
	"github.com/getpawsy/curation/internal/config"
	"github.com/getpawsy/curation/internal/logger"
	"github.com/getpawsy/curation/internal/repository"
	"github.com/getpawsy/curation/internal/service"
	"github.com/getpawsy/curation/internal/warehouse"
)

func main() {
	envCfg := logger.LoadFromEnv()
	if os.Getenv("SERVICE_NAME") == "" {
		envCfg.ServiceName = "curation-warehouse"
	}
	appLogger := logger.NewFromEnv(envCfg)
	defer logger.Sync()
	logger.SetDefaultLogger(appLogger)

	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	store := catalog.NewStore(catalog.Options{
		Path:             cfg.Catalog.Path,
		BackupDir:        cfg.Catalog.BackupDir,
		PlaceholderImage: cfg.Catalog.PlaceholderImage,
	})

	whCfg := warehouse.DefaultConfig()
	if cfg.Warehouse.SlowShippingDays > 0 {
		whCfg.SlowShippingDays = cfg.Warehouse.SlowShippingDays
	}

	warehouseService := service.NewWarehouseService(
		store,
		warehouse.NewClassifier(whCfg),
		repository.NewRunRepository(db),
	)

	stats, err := warehouseService.Run(context.Background())
	if err != nil {
		appLogger.WithError(err).Fatal("Warehouse pass failed")
	}

	appLogger.WithFields(logger.Fields{
		"total":        stats.Total,
		"by_origin":    stats.ByOrigin,
		"deactivated":  stats.Deactivated,
		"needs_review": stats.NeedsReview,
	}).Info("Done")
}
