package main

import (
	"context"
	"flag"
	"os"

	"gorm.io/gorm"

	"github.com/getpawsy/curation/internal/catalog"
	"github.com/getpawsy/curation/internal/config"
	"github.com/getpawsy/curation/internal/logger"
	"github.com/getpawsy/curation/internal/pricing"
	"github.com/getpawsy/curation/internal/repository"
	"github.com/getpawsy/curation/internal/service"
)

func main() {
	envCfg := logger.LoadFromEnv()
	if os.Getenv("SERVICE_NAME") == "" {
		envCfg.ServiceName = "curation-prices"
	}
	appLogger := logger.NewFromEnv(envCfg)
	defer logger.Sync()
	logger.SetDefaultLogger(appLogger)

	configPath := flag.String("config", "", "Path to config file")
	audit := flag.Bool("audit", false, "Print the price changes of the latest pricing run and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	if *audit {
		printAudit(db, appLogger)
		return
	}

	store := catalog.NewStore(catalog.Options{
		Path:             cfg.Catalog.Path,
		BackupDir:        cfg.Catalog.BackupDir,
		PlaceholderImage: cfg.Catalog.PlaceholderImage,
	})

	pricingService := service.NewPricingService(
		store,
		pricing.NewNormalizer(pricingConfig(cfg)),
		repository.NewRunRepository(db),
		repository.NewPriceChangeRepository(db),
	)

	stats, err := pricingService.Run(context.Background())
	if err != nil {
		appLogger.WithError(err).Fatal("Pricing pass failed")
	}

	appLogger.WithFields(logger.Fields{
		"total":        stats.Total,
		"changed":      stats.Changed,
		"distribution": stats.Distribution,
	}).Info("Done")
}

// printAudit logs every price movement recorded by the most recent pricing
// run, oldest first.
func printAudit(db *gorm.DB, appLogger *logger.Logger) {
	ctx := context.Background()
	run, err := repository.NewRunRepository(db).LatestByPass(ctx, "prices")
	if err != nil {
		appLogger.WithError(err).Fatal("No recorded pricing run")
	}
	changes, err := repository.NewPriceChangeRepository(db).ListByRun(ctx, run.ID)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load price changes")
	}

	appLogger.WithFields(logger.Fields{
		"run_id":  run.ID,
		"status":  run.Status,
		"changes": len(changes),
	}).Info("Latest pricing run")

	for _, c := range changes {
		appLogger.WithFields(logger.Fields{
			"product_id": c.ProductID,
			"old_price":  c.OldPrice,
			"new_price":  c.NewPrice,
			"cost_basis": c.CostBasis,
			"markup":     c.MarkupUsed,
			"category":   c.CategoryKey,
		}).Info("Price change")
	}
}

// pricingConfig overlays the file configuration on top of the built-in
// markup table and rounding buckets.
func pricingConfig(cfg *config.Config) *pricing.Config {
	pc := pricing.DefaultConfig()
	if cfg.Pricing.CompareAtFactor > 0 {
		pc.CompareAtFactor = cfg.Pricing.CompareAtFactor
	}
	if cfg.Pricing.Floor > 0 {
		pc.Floor = cfg.Pricing.Floor
	}
	if cfg.Pricing.Ceiling > 0 {
		pc.Ceiling = cfg.Pricing.Ceiling
	}
	if cfg.Pricing.DefaultCost > 0 {
		pc.DefaultCost = cfg.Pricing.DefaultCost
	}
	return pc
}
