package service

import (
	"context"

	"github.com/getpawsy/curation/internal/catalog"
	"github.com/getpawsy/curation/internal/logger"
	"github.com/getpawsy/curation/internal/repository"
)

// VariantsStats holds the counters of a variant reconciliation pass.
type VariantsStats struct {
	Total    int
	Matched  int
	Replaced int
}

// VariantsService reconciles the secondary variants datastore into the
// catalog document.
type VariantsService struct {
	runTracker
	store    *catalog.Store
	variants *repository.VariantSourceRepository
}

// NewVariantsService wires a variant reconciliation pass.
func NewVariantsService(store *catalog.Store, variants *repository.VariantSourceRepository, runs *repository.RunRepository) *VariantsService {
	return &VariantsService{
		runTracker: runTracker{runs: runs},
		store:      store,
		variants:   variants,
	}
}

// Run executes one reconciliation pass.
func (s *VariantsService) Run(ctx context.Context) (*VariantsStats, error) {
	run := s.start(ctx, "variants")
	ctx = logger.SetRunID(logger.SetPass(ctx, "variants"), run.ID)
	log := logger.FromContext(ctx)

	secondary, err := s.variants.ListAll(ctx)
	if err != nil {
		s.fail(ctx, run, err)
		return nil, err
	}

	snap, err := s.store.Load(ctx)
	if err != nil {
		s.fail(ctx, run, err)
		return nil, err
	}

	stats := &VariantsStats{Total: len(snap.Products)}
	for _, p := range snap.Products {
		if _, ok := secondary[p.ID]; ok {
			stats.Matched++
		}
	}

	stats.Replaced = s.store.MergeVariants(ctx, snap, secondary)

	backup, err := s.store.Save(ctx, snap)
	if err != nil {
		s.fail(ctx, run, err)
		return nil, err
	}

	run.Total = stats.Total
	run.Changed = stats.Replaced
	run.BackupPath = backup
	s.complete(ctx, run)

	log.WithFields(logger.Fields{
		"total":    stats.Total,
		"matched":  stats.Matched,
		"replaced": stats.Replaced,
	}).Info("Variant reconciliation completed")

	return stats, nil
}
