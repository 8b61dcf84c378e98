package warehouse

import (
	"github.com/getpawsy/curation/internal/classify"
	"github.com/getpawsy/curation/internal/domain"
)

// Config is the immutable warehouse policy injected into the classifier.
type Config struct {
	// USKeywords are checked before CNKeywords; first match wins.
	USKeywords []string
	CNKeywords []string

	// DefaultETA supplies day counts when the supplier gives none.
	DefaultETA map[domain.Origin]int

	// SlowShippingDays is the ETA above which a product is deactivated.
	SlowShippingDays int
}

// DefaultConfig returns the production warehouse policy.
func DefaultConfig() *Config {
	return &Config{
		USKeywords: []string{
			"us", "usa", "united states", "u s",
			"us warehouse", "new jersey", "california", "texas", "ohio",
		},
		CNKeywords: []string{
			"cn", "china", "chinese warehouse",
			"shenzhen", "guangzhou", "yiwu", "hangzhou",
		},
		DefaultETA: map[domain.Origin]int{
			domain.OriginUS:      3,
			domain.OriginCN:      14,
			domain.OriginUnknown: 7,
		},
		SlowShippingDays: 10,
	}
}

// Classifier infers shipping origin and ETA from heterogeneous supplier
// fields and applies the activation policy.
type Classifier struct {
	cfg *Config
}

// NewClassifier creates a classifier; nil config uses DefaultConfig.
func NewClassifier(cfg *Config) *Classifier {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Classifier{cfg: cfg}
}

// blob concatenates every supplier field that may carry origin hints.
func (c *Classifier) blob(p *domain.ProductRecord) string {
	parts := []string{p.Warehouse, p.ShippingFrom, p.SupplierOrigin}
	parts = append(parts, p.Tags...)
	return classify.Normalize(parts...)
}

// Classify infers the shipping origin and ETA for a product. Explicit
// supplier day counts win over origin-based defaults.
func (c *Classifier) Classify(p *domain.ProductRecord) (domain.Origin, int) {
	blob := c.blob(p)

	origin := domain.OriginUnknown
	switch {
	case matchesAny(blob, c.cfg.USKeywords):
		origin = domain.OriginUS
	case matchesAny(blob, c.cfg.CNKeywords):
		origin = domain.OriginCN
	}

	eta := 0
	switch {
	case p.ShippingDaysMax > 0:
		eta = p.ShippingDaysMax
	case p.ShippingDaysMin > 0:
		eta = p.ShippingDaysMin
	case p.ETADays > 0:
		eta = p.ETADays
	default:
		eta = c.cfg.DefaultETA[origin]
	}

	return origin, eta
}

// Gate applies the activation policy in place. Flags only accumulate in the
// permanent set; lastRunFlags is rebuilt from scratch each run so operators
// can read current conditions without losing the audit trail.
func (c *Classifier) Gate(p *domain.ProductRecord) {
	origin, eta := c.Classify(p)
	p.ShippingProfile = &domain.ShippingProfile{Origin: origin, ETADays: eta}

	var fresh domain.FlexStrings

	if origin == domain.OriginCN {
		p.Active = false
		p.AddFlag(domain.FlagNonUSWarehouse)
		fresh = append(fresh, domain.FlagNonUSWarehouse)
	}
	if eta > c.cfg.SlowShippingDays {
		p.Active = false
		p.AddFlag(domain.FlagSlowShipping)
		fresh = append(fresh, domain.FlagSlowShipping)
	}
	if origin == domain.OriginUnknown {
		p.AddFlag(domain.FlagNeedsReview)
		fresh = append(fresh, domain.FlagNeedsReview)
	}

	p.LastRunFlags = fresh
}

func matchesAny(blob string, terms []string) bool {
	for _, t := range terms {
		if classify.ContainsTerm(blob, t) {
			return true
		}
	}
	return false
}
