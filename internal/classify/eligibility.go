package classify

import (
	"context"

	"github.com/getpawsy/curation/internal/domain"
	"github.com/getpawsy/curation/internal/logger"
)

// EligibilityConfig holds the allow/deny policy separating genuine pet
// products from unrelated merchandise in the feed. Precedence is fixed:
// override terms beat blocklist terms, blocklist terms beat pet keywords.
type EligibilityConfig struct {
	// Overrides are safe phrases that neutralize a blocklist hit, e.g.
	// "dog bed" neutralizes the generic "bed" term.
	Overrides []string

	// Blocklist terms mark non-pet merchandise (human apparel, home goods,
	// print-on-demand trinkets) regardless of species keywords.
	Blocklist []string

	// PetKeywords are generic signals that the product is pet merchandise
	// at all; with no signal the product is ineligible.
	PetKeywords []string
}

// DefaultEligibilityConfig returns the production policy.
func DefaultEligibilityConfig() *EligibilityConfig {
	return &EligibilityConfig{
		Overrides: []string{
			"dog bed", "cat bed", "pet bed",
			"dog house", "cat house", "rabbit hutch",
			"pet carrier", "dog blanket", "cat blanket",
		},
		Blocklist: []string{
			"shirt", "t shirt", "hoodie", "sweatshirt", "socks",
			"mug", "tumbler", "phone case", "sticker", "keychain",
			"necklace", "earrings", "bracelet",
			"poster", "wall art", "canvas", "pillowcase", "bed sheet",
			"bed",
		},
		PetKeywords: []string{
			"pet", "dog", "puppy", "cat", "kitten",
			"rabbit", "bunny", "hamster", "guinea pig",
			"ferret", "chinchilla", "small animal",
		},
	}
}

// EligibilityGate is the binary allow/deny filter for catalog records.
type EligibilityGate struct {
	cfg *EligibilityConfig
}

// NewEligibilityGate creates a gate; nil config uses the defaults.
func NewEligibilityGate(cfg *EligibilityConfig) *EligibilityGate {
	if cfg == nil {
		cfg = DefaultEligibilityConfig()
	}
	return &EligibilityGate{cfg: cfg}
}

// IsEligible decides whether a record is sellable pet merchandise. The
// reason is empty for eligible products and names the deciding term
// otherwise so operators can audit false negatives.
func (g *EligibilityGate) IsEligible(p *domain.ProductRecord) (bool, string) {
	blob := BuildBlob(p)

	if containsAny(blob, g.cfg.Overrides) {
		return true, ""
	}
	for _, term := range g.cfg.Blocklist {
		if ContainsTerm(blob, term) {
			return false, "blocked_term:" + term
		}
	}
	if containsAny(blob, g.cfg.PetKeywords) {
		return true, ""
	}
	return false, "no_pet_signal"
}

// FilterEligible returns the eligible subset of a list, logging every
// rejection with its reason. Used for bulk filtering before any carousel or
// section is rendered from the catalog.
func (g *EligibilityGate) FilterEligible(ctx context.Context, products domain.Catalog) domain.Catalog {
	log := logger.FromContext(ctx)
	out := make(domain.Catalog, 0, len(products))
	for _, p := range products {
		ok, reason := g.IsEligible(p)
		if !ok {
			log.WithFields(logger.Fields{
				logger.FieldProductID: p.ID,
				"reason":              reason,
			}).Debug("Product rejected by eligibility gate")
			continue
		}
		out = append(out, p)
	}
	return out
}
