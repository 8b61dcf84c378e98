package service

import (
	"context"
	"math"
	"time"

	"github.com/getpawsy/curation/internal/catalog"
	"github.com/getpawsy/curation/internal/domain"
	"github.com/getpawsy/curation/internal/logger"
	"github.com/getpawsy/curation/internal/pricing"
	"github.com/getpawsy/curation/internal/repository"
)

// PricingStats holds the counters of a price normalization pass.
type PricingStats struct {
	Total        int
	Changed      int
	Distribution map[string]int
}

// PricingService runs the price normalization pass over the catalog and
// records a change-log entry per modified product.
type PricingService struct {
	runTracker
	store      *catalog.Store
	normalizer *pricing.Normalizer
	changes    *repository.PriceChangeRepository
}

// NewPricingService wires a pricing pass.
func NewPricingService(
	store *catalog.Store,
	normalizer *pricing.Normalizer,
	runs *repository.RunRepository,
	changes *repository.PriceChangeRepository,
) *PricingService {
	return &PricingService{
		runTracker: runTracker{runs: runs},
		store:      store,
		normalizer: normalizer,
		changes:    changes,
	}
}

// priceEqual compares retail prices within float tolerance.
func priceEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}

// Run executes one pricing pass. Records whose computed price already
// matches are left untouched, which keeps a repeated pass a no-op.
func (s *PricingService) Run(ctx context.Context) (*PricingStats, error) {
	run := s.start(ctx, "prices")
	ctx = logger.SetRunID(logger.SetPass(ctx, "prices"), run.ID)
	log := logger.FromContext(ctx)

	snap, err := s.store.Load(ctx)
	if err != nil {
		s.fail(ctx, run, err)
		return nil, err
	}

	stats := &PricingStats{
		Total:        len(snap.Products),
		Distribution: make(map[string]int),
	}

	now := time.Now()
	var changeLog []domain.PriceChange

	for _, p := range snap.Products {
		quote := s.normalizer.Normalize(p)

		// A record with no cost fields resolved its basis from the retail
		// price; pin that basis down so the next pass computes from the
		// same number instead of the freshly marked-up price.
		if p.CJPrice <= 0 && p.Cost <= 0 && p.SourcePrice <= 0 {
			p.Cost = quote.CostBasis
		}

		if !priceEqual(p.Price, quote.Price) || !priceEqual(p.CompareAtPrice, quote.CompareAt) {
			changeLog = append(changeLog, domain.PriceChange{
				RunID:       run.ID,
				ProductID:   p.ID,
				OldPrice:    p.Price,
				NewPrice:    quote.Price,
				OldCompare:  p.CompareAtPrice,
				NewCompare:  quote.CompareAt,
				CostBasis:   quote.CostBasis,
				MarkupUsed:  quote.Markup,
				CategoryKey: quote.CategoryKey,
				ChangedAt:   now,
			})
			p.Price = quote.Price
			p.CompareAtPrice = quote.CompareAt
			p.PricesUpdatedAt = &now
			stats.Changed++
		}

		stats.Distribution[priceBucket(p.Price)]++
	}

	backup, err := s.store.Save(ctx, snap)
	if err != nil {
		s.fail(ctx, run, err)
		return nil, err
	}

	if s.changes != nil {
		if err := s.changes.CreateBatch(ctx, changeLog); err != nil {
			log.WithError(err).Warn("Failed to record price changes")
		}
	}

	run.Total = stats.Total
	run.Changed = stats.Changed
	run.BackupPath = backup
	s.complete(ctx, run)

	log.WithFields(logger.Fields{
		"total":        stats.Total,
		"changed":      stats.Changed,
		"distribution": stats.Distribution,
	}).Info("Pricing pass completed")

	return stats, nil
}

// priceBucket labels a price for the operator-facing distribution summary.
func priceBucket(price float64) string {
	switch {
	case price < 10:
		return "under_10"
	case price < 25:
		return "10_to_25"
	case price < 50:
		return "25_to_50"
	case price < 100:
		return "50_to_100"
	default:
		return "over_100"
	}
}
