package pricing

import (
	"math"
	"testing"

	"github.com/getpawsy/curation/internal/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.001
}

func TestCharm(t *testing.T) {
	n := NewNormalizer(nil)

	testCases := []struct {
		name string
		raw  float64
		want float64
	}{
		{name: "below floor clamps up", raw: 3.0, want: 9.99},
		{name: "inside a bucket rounds to its ceiling", raw: 11.7, want: 14.99},
		{name: "exactly on a bucket", raw: 20.0, want: 19.99},
		{name: "largest bucket", raw: 187.5, want: 199.99},
		{name: "above all buckets uses floor plus 99", raw: 250.40, want: 250.99},
		{name: "ceiling clamp", raw: 2000.0, want: 999.99},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := n.Charm(tc.raw); !almostEqual(got, tc.want) {
				t.Errorf("Charm(%v) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}

// TestCharmFixedPoints verifies that every charmed price is a fixed point of
// Charm, which is what makes a repeated pricing pass a no-op.
func TestCharmFixedPoints(t *testing.T) {
	n := NewNormalizer(nil)
	for _, raw := range []float64{1, 4.5, 11.7, 42, 99, 150, 320, 5000} {
		once := n.Charm(raw)
		twice := n.Charm(once)
		if !almostEqual(once, twice) {
			t.Errorf("Charm(Charm(%v)) = %v, want fixed point %v", raw, twice, once)
		}
	}
}

func TestCharmAlwaysEndsIn99(t *testing.T) {
	n := NewNormalizer(nil)
	for raw := 0.5; raw < 400; raw += 7.3 {
		got := n.Charm(raw)
		cents := math.Round(got*100) - math.Floor(got)*100
		if !almostEqual(cents, 99) {
			t.Errorf("Charm(%v) = %v, cents = %v, want 99", raw, got, cents)
		}
	}
}

func TestResolveCost(t *testing.T) {
	n := NewNormalizer(nil)

	testCases := []struct {
		name    string
		product domain.ProductRecord
		want    float64
	}{
		{
			name:    "cjPrice wins",
			product: domain.ProductRecord{CJPrice: 4.5, Cost: 3, SourcePrice: 8, Price: 20},
			want:    4.5,
		},
		{
			name:    "zero cjPrice falls through to cost",
			product: domain.ProductRecord{Cost: 3, SourcePrice: 8},
			want:    3,
		},
		{
			name:    "retail price is the last resort",
			product: domain.ProductRecord{Price: 24.99},
			want:    24.99,
		},
		{
			name:    "nothing positive uses the default cost",
			product: domain.ProductRecord{CJPrice: -1},
			want:    5.0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := n.ResolveCost(&tc.product); !almostEqual(got, tc.want) {
				t.Errorf("ResolveCost = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	n := NewNormalizer(nil)

	t.Run("toy markup", func(t *testing.T) {
		p := &domain.ProductRecord{CJPrice: 4.50, Category: "Toys"}
		q := n.Normalize(p)
		// 4.50 * 2.6 = 11.70 -> 14.99
		if !almostEqual(q.Price, 14.99) {
			t.Errorf("price = %v, want 14.99", q.Price)
		}
		// 14.99 * 1.3 = 19.487 -> 19.99
		if !almostEqual(q.CompareAt, 19.99) {
			t.Errorf("compareAt = %v, want 19.99", q.CompareAt)
		}
		if q.Markup != 2.6 || q.CategoryKey != "toys" {
			t.Errorf("markup = %v key = %q, want 2.6 / toys", q.Markup, q.CategoryKey)
		}
	})

	t.Run("unknown category uses default markup", func(t *testing.T) {
		p := &domain.ProductRecord{Cost: 10, Category: "Aquariums"}
		q := n.Normalize(p)
		// 10 * 2.4 = 24 -> 24.99
		if !almostEqual(q.Price, 24.99) {
			t.Errorf("price = %v, want 24.99", q.Price)
		}
		if q.Markup != 2.4 {
			t.Errorf("markup = %v, want default 2.4", q.Markup)
		}
	})

	t.Run("compareAt never undercuts price at the ceiling", func(t *testing.T) {
		p := &domain.ProductRecord{Cost: 600, Category: "beds"}
		q := n.Normalize(p)
		if q.CompareAt < q.Price {
			t.Errorf("compareAt %v < price %v", q.CompareAt, q.Price)
		}
	})

	t.Run("quote is idempotent over the cost basis", func(t *testing.T) {
		p := &domain.ProductRecord{CJPrice: 4.50, Category: "Toys"}
		first := n.Normalize(p)
		p.Price = first.Price
		p.CompareAtPrice = first.CompareAt
		second := n.Normalize(p)
		if !almostEqual(first.Price, second.Price) || !almostEqual(first.CompareAt, second.CompareAt) {
			t.Errorf("second quote (%v, %v) differs from first (%v, %v)",
				second.Price, second.CompareAt, first.Price, first.CompareAt)
		}
	})
}
