package repository

import (
	"context"
	"time"

	"github.com/getpawsy/curation/internal/domain"
	"gorm.io/gorm"
)

// RunRepository persists the audit trail of curation runs.
type RunRepository struct {
	db *gorm.DB
}

// NewRunRepository creates a repository bound to db.
func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run record in the running state.
func (r *RunRepository) Create(ctx context.Context, run *domain.CurationRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// Complete marks a run finished with its final counters.
func (r *RunRepository) Complete(ctx context.Context, run *domain.CurationRun, status domain.RunStatus) error {
	now := time.Now()
	run.Status = status
	run.CompletedAt = &now
	return r.db.WithContext(ctx).Save(run).Error
}

// LatestByPass returns the most recent run of the given pass.
func (r *RunRepository) LatestByPass(ctx context.Context, pass string) (*domain.CurationRun, error) {
	var run domain.CurationRun
	err := r.db.WithContext(ctx).
		Where("pass = ?", pass).
		Order("started_at desc").
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// PriceChangeRepository persists per-product price movements.
type PriceChangeRepository struct {
	db *gorm.DB
}

// NewPriceChangeRepository creates a repository bound to db.
func NewPriceChangeRepository(db *gorm.DB) *PriceChangeRepository {
	return &PriceChangeRepository{db: db}
}

// CreateBatch inserts price change rows in one statement.
func (r *PriceChangeRepository) CreateBatch(ctx context.Context, changes []domain.PriceChange) error {
	if len(changes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&changes).Error
}

// ListByRun returns the price changes recorded for one run.
func (r *PriceChangeRepository) ListByRun(ctx context.Context, runID string) ([]domain.PriceChange, error) {
	var changes []domain.PriceChange
	err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("id asc").
		Find(&changes).Error
	if err != nil {
		return nil, err
	}
	return changes, nil
}
