package repository

import (
	"context"
	"sort"

	"github.com/getpawsy/curation/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VariantSourceRepository reads the secondary variants datastore that the
// variants pass reconciles into the catalog.
type VariantSourceRepository struct {
	db *gorm.DB
}

// NewVariantSourceRepository creates a repository bound to db.
func NewVariantSourceRepository(db *gorm.DB) *VariantSourceRepository {
	return &VariantSourceRepository{db: db}
}

// ListByProduct returns the variants for one product in position order.
func (r *VariantSourceRepository) ListByProduct(ctx context.Context, productID string) ([]domain.Variant, error) {
	var rows []domain.VariantSourceRow
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("position asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Variant, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToVariant())
	}
	return out, nil
}

// ListAll returns every product's variants keyed by product ID, each list in
// position order.
func (r *VariantSourceRepository) ListAll(ctx context.Context) (map[string][]domain.Variant, error) {
	var rows []domain.VariantSourceRow
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ProductID != rows[j].ProductID {
			return rows[i].ProductID < rows[j].ProductID
		}
		return rows[i].Position < rows[j].Position
	})

	out := make(map[string][]domain.Variant)
	for i := range rows {
		out[rows[i].ProductID] = append(out[rows[i].ProductID], rows[i].ToVariant())
	}
	return out, nil
}

// Upsert creates or updates a variant row keyed by product and variant ID.
func (r *VariantSourceRepository) Upsert(ctx context.Context, row *domain.VariantSourceRow) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "variant_id"}},
		UpdateAll: true,
	}).Create(row).Error
}
