package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-resty/resty/v2"

	"github.com/getpawsy/curation/internal/catalog"
	"github.com/getpawsy/curation/internal/config"
	"github.com/getpawsy/curation/internal/logger"
	"github.com/getpawsy/curation/internal/repository"
	"github.com/getpawsy/curation/internal/service"
	"github.com/getpawsy/curation/internal/storage"
)

func main() {
	envCfg := logger.LoadFromEnv()
	if os.Getenv("SERVICE_NAME") == "" {
		envCfg.ServiceName = "curation-mirror"
	}
	appLogger := logger.NewFromEnv(envCfg)
	defer logger.Sync()
	logger.SetDefaultLogger(appLogger)

	configPath := flag.String("config", "", "Path to config file")
	force := flag.Bool("force", false, "Re-download media even for products that already have it")
	videos := flag.Bool("videos", false, "Also mirror video assets")
	limit := flag.Int("limit", 0, "Maximum number of products to process (0 = unbounded)")
	verify := flag.Bool("verify", false, "Audit existing local media instead of downloading")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	store := catalog.NewStore(catalog.Options{
		Path:             cfg.Catalog.Path,
		BackupDir:        cfg.Catalog.BackupDir,
		PlaceholderImage: cfg.Catalog.PlaceholderImage,
	})

	if *verify {
		runVerify(store, cfg, appLogger)
		return
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	media, err := storage.NewMediaStore(&cfg.Storage, cfg.Media.Dir)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize media storage")
	}
	if s3, ok := media.(*storage.S3Storage); ok {
		if err := s3.EnsureBucket(context.Background()); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
		}
	}

	client := resty.New().SetTimeout(cfg.Media.FetchTimeout)

	mirrorService := service.NewMirrorService(
		store,
		media,
		client,
		service.MirrorConfig{
			MinBytes:  cfg.Media.MinBytes,
			MaxImages: cfg.Media.MaxImages,
		},
		repository.NewRunRepository(db),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, finishing current product...")
		cancel()
	}()

	state, err := mirrorService.Run(ctx, service.MirrorOptions{
		Force:         *force,
		IncludeVideos: *videos,
		Limit:         *limit,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Mirror job failed")
	}

	appLogger.WithFields(logger.Fields{
		"total":      state.Total,
		"processed":  state.Processed,
		"downloaded": state.Downloaded,
		"skipped":    state.Skipped,
		"failed":     state.Failed,
	}).Info("Done")
}

// runVerify audits the local media tree; it never mutates the catalog, so it
// needs neither the database nor the network.
func runVerify(store *catalog.Store, cfg *config.Config, appLogger *logger.Logger) {
	if cfg.Storage.Type != "local" {
		appLogger.WithField("type", cfg.Storage.Type).Fatal("Media verification requires local storage")
	}
	local, err := storage.NewLocalStorage(&storage.LocalConfig{
		Root:      cfg.Media.Dir,
		PublicURL: cfg.Storage.PublicURL,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to open local media storage")
	}

	verifyService := service.NewVerifyService(store, local, cfg.Media.MinBytes)
	report, err := verifyService.Run(context.Background())
	if err != nil {
		appLogger.WithError(err).Fatal("Media verification failed")
	}

	for _, id := range report.MissingMedia {
		appLogger.WithField(logger.FieldProductID, id).Warn("Product claims local media but directory is missing")
	}
	for _, id := range report.EmptyDirs {
		appLogger.WithField(logger.FieldProductID, id).Warn("Product media directory is empty")
	}
	for _, f := range report.TooSmall {
		appLogger.WithField("file", f).Warn("Image below minimum size")
	}
	for _, f := range report.Undecodable {
		appLogger.WithField("file", f).Warn("Image does not decode")
	}
	for _, id := range report.Orphans {
		appLogger.WithField(logger.FieldProductID, id).Warn("Media directory has no catalog product")
	}

	if report.Clean() {
		appLogger.WithField("products", report.Products).Info("All mirrored media verified")
		return
	}
	appLogger.WithFields(logger.Fields{
		"products":      report.Products,
		"files_checked": report.FilesChecked,
		"issues": len(report.MissingMedia) + len(report.EmptyDirs) +
			len(report.TooSmall) + len(report.Undecodable) + len(report.Orphans),
	}).Warn("Media verification found issues")
	os.Exit(1)
}
