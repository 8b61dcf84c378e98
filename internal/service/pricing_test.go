package service

import (
	"testing"

	"github.com/getpawsy/curation/internal/domain"
	"github.com/getpawsy/curation/internal/pricing"
)

func newPricingFixture(t *testing.T, products domain.Catalog) *PricingService {
	t.Helper()
	store := newCatalogFixture(t, products)
	return NewPricingService(store, pricing.NewNormalizer(nil), nil, nil)
}

func TestPricingServiceRun(t *testing.T) {
	svc := newPricingFixture(t, domain.Catalog{
		{ID: "p1", Title: "Squeaky Ball", Category: "toys", CJPrice: 4.50, Active: true},
		{ID: "p2", Title: "Plush Bed", Category: "beds", Cost: 20, Active: true},
	})

	stats, err := svc.Run(t.Context())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Changed != 2 {
		t.Errorf("changed = %d, want 2", stats.Changed)
	}

	snap, err := svc.store.Load(t.Context())
	if err != nil {
		t.Fatalf("reload catalog: %v", err)
	}
	if got := snap.Products[0].Price; got != 14.99 {
		t.Errorf("toy price = %v, want 14.99", got)
	}
	// 20 * 2.1 = 42 -> 49.99
	if got := snap.Products[1].Price; got != 49.99 {
		t.Errorf("bed price = %v, want 49.99", got)
	}
	if snap.Products[0].PricesUpdatedAt == nil {
		t.Error("pricesUpdatedAt not stamped on change")
	}
}

// TestPricingServiceIsIdempotent covers the records whose only price signal
// is the retail price itself: the first pass must pin the resolved cost so a
// second pass does not mark the price up again.
func TestPricingServiceIsIdempotent(t *testing.T) {
	svc := newPricingFixture(t, domain.Catalog{
		{ID: "p1", Title: "Squeaky Ball", Category: "toys", CJPrice: 4.50, Active: true},
		{ID: "price-only", Title: "Mystery Item", Price: 24.99, Active: true},
	})

	if _, err := svc.Run(t.Context()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	snap, err := svc.store.Load(t.Context())
	if err != nil {
		t.Fatalf("reload catalog: %v", err)
	}
	firstPrices := map[string]float64{}
	for _, p := range snap.Products {
		firstPrices[p.ID] = p.Price
	}

	second, err := svc.Run(t.Context())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Changed != 0 {
		t.Errorf("second pass changed = %d, want 0", second.Changed)
	}

	snap, err = svc.store.Load(t.Context())
	if err != nil {
		t.Fatalf("reload catalog: %v", err)
	}
	for _, p := range snap.Products {
		if p.Price != firstPrices[p.ID] {
			t.Errorf("product %s price drifted %v -> %v", p.ID, firstPrices[p.ID], p.Price)
		}
	}
}
