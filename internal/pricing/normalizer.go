package pricing

import (
	"math"
	"strings"

	"github.com/getpawsy/curation/internal/domain"
)

// Config is the immutable pricing policy injected into the normalizer.
type Config struct {
	// Markups maps a lower-cased, trimmed category key to its multiplier.
	Markups       map[string]float64
	DefaultMarkup float64

	// CompareAtFactor derives the compare-at price from the retail price.
	CompareAtFactor float64

	Floor   float64
	Ceiling float64

	// DefaultCost replaces a missing or non-positive cost basis.
	DefaultCost float64

	// Buckets are the ascending psychological-rounding thresholds; a raw
	// price at or below a bucket rounds to that bucket's .99 ceiling.
	Buckets []float64
}

// DefaultConfig returns the production pricing policy.
func DefaultConfig() *Config {
	return &Config{
		Markups: map[string]float64{
			"toys":     2.6,
			"beds":     2.1,
			"collars":  2.5,
			"leashes":  2.5,
			"feeding":  2.2,
			"grooming": 2.3,
		},
		DefaultMarkup:   2.4,
		CompareAtFactor: 1.3,
		Floor:           9.99,
		Ceiling:         999.99,
		DefaultCost:     5.0,
		Buckets:         []float64{5, 10, 15, 20, 25, 30, 40, 50, 60, 70, 80, 100, 150, 200},
	}
}

// Quote is the computed retail pricing for one product.
type Quote struct {
	Price       float64
	CompareAt   float64
	CostBasis   float64
	Markup      float64
	CategoryKey string
}

// Normalizer converts supplier costs into retail prices. Quote is a pure
// function of (cost, category), so running a pricing pass twice over the
// same catalog is a no-op.
type Normalizer struct {
	cfg *Config
}

// NewNormalizer creates a normalizer; nil config uses DefaultConfig.
func NewNormalizer(cfg *Config) *Normalizer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Normalizer{cfg: cfg}
}

// ResolveCost picks the cost basis from the first positive of cjPrice, cost,
// sourcePrice, price. Non-positive values are treated as missing, not as real
// zero prices, and fall back to the configured default cost.
func (n *Normalizer) ResolveCost(p *domain.ProductRecord) float64 {
	for _, c := range []float64{p.CJPrice, p.Cost, p.SourcePrice, p.Price} {
		if c > 0 {
			return c
		}
	}
	return n.cfg.DefaultCost
}

// MarkupFor looks up the category multiplier; unknown categories use the
// default markup.
func (n *Normalizer) MarkupFor(category string) (float64, string) {
	key := strings.ToLower(strings.TrimSpace(category))
	if m, ok := n.cfg.Markups[key]; ok {
		return m, key
	}
	return n.cfg.DefaultMarkup, key
}

// Charm applies psychological rounding: raw prices round up to the nearest
// bucket's .99 ceiling, prices above the highest bucket become floor(x)+0.99,
// and the result is clamped to the configured floor and ceiling. Values
// already at a bucket's .99 point are fixed points, which is what makes the
// pricing pass idempotent.
func (n *Normalizer) Charm(raw float64) float64 {
	price := 0.0
	matched := false
	for _, b := range n.cfg.Buckets {
		if raw <= b {
			price = b - 0.01
			matched = true
			break
		}
	}
	if !matched {
		price = math.Floor(raw) + 0.99
	}

	if price < n.cfg.Floor {
		price = n.cfg.Floor
	}
	if price > n.cfg.Ceiling {
		price = n.cfg.Ceiling
	}
	return math.Round(price*100) / 100
}

// Normalize computes the retail quote for a product. Only the returned quote
// carries new state; the record is not mutated here.
func (n *Normalizer) Normalize(p *domain.ProductRecord) Quote {
	cost := n.ResolveCost(p)
	markup, key := n.MarkupFor(p.Category)

	price := n.Charm(cost * markup)
	compare := n.Charm(price * n.cfg.CompareAtFactor)
	if compare < price {
		compare = price
	}

	return Quote{
		Price:       price,
		CompareAt:   compare,
		CostBasis:   cost,
		Markup:      markup,
		CategoryKey: key,
	}
}
