package main

import (
	"context"
	"flag"
	"os"

	"github.com/getpawsy/curation/internal/catalog"
	"github.com/getpawsy/curation/internal/classify"
	"github.com/getpawsy/curation/internal/config"
	"github.com/getpawsy/curation/internal/logger"
	"github.com/getpawsy/curation/internal/repository"
	"github.com/getpawsy/curation/internal/service"
)

func main() {
	envCfg := logger.LoadFromEnv()
	if os.Getenv("SERVICE_NAME") == "" {
		envCfg.ServiceName = "curation-classify"
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

	classifyService := service.NewClassifyService(
		store,
		classify.NewPetTypeClassifier(classify.DefaultRules()),
		classify.NewSmallPetClassifier(classify.DefaultSmallPetRules()),
		classify.NewEligibilityGate(classify.DefaultEligibilityConfig()),
		repository.NewRunRepository(db),
	)

	stats, err := classifyService.Run(context.Background())
	if err != nil {
		appLogger.WithError(err).Fatal("Classification pass failed")
	}

	appLogger.WithFields(logger.Fields{
		"total":               stats.Total,
		"changed":             stats.Changed,
		"blocked":             stats.Blocked,
		"contaminated_before": stats.ContaminatedBefore,
		"contaminated_after":  stats.ContaminatedAfter,
	}).Info("Done")
}
