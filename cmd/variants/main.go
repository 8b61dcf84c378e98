package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/getpawsy/curation/internal/catalog"
	"github.com/getpawsy/curation/internal/config"
	"github.com/getpawsy/curation/internal/domain"
	"github.com/getpawsy/curation/internal/logger"
	"github.com/getpawsy/curation/internal/repository"
	"github.com/getpawsy/curation/internal/service"
)

func main() {
	envCfg := logger.LoadFromEnv()
	if os.Getenv("SERVICE_NAME") == "" {
		envCfg.ServiceName = "curation-variants"
	}
	appLogger := logger.NewFromEnv(envCfg)
	defer logger.Sync()
	logger.SetDefaultLogger(appLogger)

	configPath := flag.String("config", "", "Path to config file")
	deep := flag.Bool("deep", false, "Compare variant content instead of counts")
	seed := flag.String("seed", "", "Load variant rows from a JSON file into the datastore instead of reconciling")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	if *seed != "" {
		seedVariants(*seed, repository.NewVariantSourceRepository(db), appLogger)
		return
	}

	store := catalog.NewStore(catalog.Options{
		Path:               cfg.Catalog.Path,
		BackupDir:          cfg.Catalog.BackupDir,
		PlaceholderImage:   cfg.Catalog.PlaceholderImage,
		DeepVariantCompare: cfg.Catalog.DeepVariantCompare || *deep,
	})

	variantsService := service.NewVariantsService(
		store,
		repository.NewVariantSourceRepository(db),
		repository.NewRunRepository(db),
	)

	stats, err := variantsService.Run(context.Background())
	if err != nil {
		appLogger.WithError(err).Fatal("Variant reconciliation failed")
	}

	appLogger.WithFields(logger.Fields{
		"total":    stats.Total,
		"matched":  stats.Matched,
		"replaced": stats.Replaced,
	}).Info("Done")
}

// seedVariants loads a JSON array of variant rows into the datastore. Rows
// are upserted, so re-running a feed export is safe.
func seedVariants(path string, repo *repository.VariantSourceRepository, appLogger *logger.Logger) {
	raw, err := os.ReadFile(path)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to read seed file")
	}
	var rows []domain.VariantSourceRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		appLogger.WithError(err).Fatal("Failed to parse seed file")
	}

	ctx := context.Background()
	for i := range rows {
		if err := repo.Upsert(ctx, &rows[i]); err != nil {
			appLogger.WithError(err).WithFields(logger.Fields{
				logger.FieldProductID: rows[i].ProductID,
				"variant_id":          rows[i].VariantID,
			}).Fatal("Failed to upsert variant row")
		}
	}
	appLogger.WithField("rows", len(rows)).Info("Variant datastore seeded")
}
