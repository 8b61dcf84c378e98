package service

import (
	"context"

	"github.com/getpawsy/curation/internal/catalog"
	"github.com/getpawsy/curation/internal/domain"
	"github.com/getpawsy/curation/internal/logger"
	"github.com/getpawsy/curation/internal/repository"
	"github.com/getpawsy/curation/internal/warehouse"
)

// WarehouseStats holds the counters of a warehouse gating pass.
type WarehouseStats struct {
	Total       int
	ByOrigin    map[domain.Origin]int
	Deactivated int
	NeedsReview int
}

// WarehouseService runs the shipping-origin inference and activation gating
// pass over the catalog.
type WarehouseService struct {
	runTracker
	store      *catalog.Store
	classifier *warehouse.Classifier
}

// NewWarehouseService wires a warehouse pass.
func NewWarehouseService(store *catalog.Store, classifier *warehouse.Classifier, runs *repository.RunRepository) *WarehouseService {
	return &WarehouseService{
		runTracker: runTracker{runs: runs},
		store:      store,
		classifier: classifier,
	}
}

// Run executes one warehouse pass. Deactivation and flags are the only
// mutations; nothing is ever deleted.
func (s *WarehouseService) Run(ctx context.Context) (*WarehouseStats, error) {
	run := s.start(ctx, "warehouse")
	ctx = logger.SetRunID(logger.SetPass(ctx, "warehouse"), run.ID)
	log := logger.FromContext(ctx)

	snap, err := s.store.Load(ctx)
	if err != nil {
		s.fail(ctx, run, err)
		return nil, err
	}

	stats := &WarehouseStats{
		Total:    len(snap.Products),
		ByOrigin: make(map[domain.Origin]int),
	}

	changed := 0
	for _, p := range snap.Products {
		wasActive := p.Active
		hadFlags := len(p.Flags)

		s.classifier.Gate(p)

		stats.ByOrigin[p.ShippingProfile.Origin]++
		if wasActive && !p.Active {
			stats.Deactivated++
		}
		if p.ShippingProfile.Origin == domain.OriginUnknown {
			stats.NeedsReview++
		}
		if wasActive != p.Active || len(p.Flags) != hadFlags {
			changed++
		}
	}

	backup, err := s.store.Save(ctx, snap)
	if err != nil {
		s.fail(ctx, run, err)
		return nil, err
	}

	run.Total = stats.Total
	run.Changed = changed
	run.BackupPath = backup
	s.complete(ctx, run)

	log.WithFields(logger.Fields{
		"total":        stats.Total,
		"by_origin":    stats.ByOrigin,
		"deactivated":  stats.Deactivated,
		"needs_review": stats.NeedsReview,
	}).Info("Warehouse pass completed")

	return stats, nil
}
