package classify

import (
	"github.com/getpawsy/curation/internal/domain"
)

// SpeciesRule is one ordered entry in the pet-type rule list. Exclusions are
// checked before any keyword is accepted: a single exclusion hit disqualifies
// the whole rule for that product.
type SpeciesRule struct {
	PetType    domain.PetType
	Keywords   []string
	Exclusions []string
}

// Rules is the full, immutable pet-type rule configuration. Species order is
// the tie-break priority: rabbit > hamster > guinea_pig > other small pet >
// dog > cat. The feed's small-pet terms false-positive far more often than
// dog/cat terms, so small-pet rules are checked first.
type Rules struct {
	Species []SpeciesRule

	// SmallPetExclusions are dog/cat terms whose presence on a product
	// already bucketed as small_pet marks it as contaminated.
	SmallPetExclusions []string
}

// DefaultRules returns the production rule set. Tests inject their own.
func DefaultRules() *Rules {
	return &Rules{
		Species: []SpeciesRule{
			{
				PetType:    domain.PetTypeSmallPet,
				Keywords:   []string{"rabbit", "bunny", "hutch"},
				Exclusions: []string{"rabbit fur", "bunny ears costume"},
			},
			{
				PetType:    domain.PetTypeSmallPet,
				Keywords:   []string{"hamster", "gerbil"},
				Exclusions: []string{"cat toy"},
			},
			{
				PetType:  domain.PetTypeSmallPet,
				Keywords: []string{"guinea pig", "cavy"},
			},
			{
				PetType:    domain.PetTypeSmallPet,
				Keywords:   []string{"chinchilla", "ferret", "rodent", "small animal", "small pet"},
				Exclusions: []string{"cat teaser", "catnip"},
			},
			{
				PetType:    domain.PetTypeDog,
				Keywords:   []string{"dog", "puppy", "canine", "pup", "doggy"},
				Exclusions: []string{"hot dog"},
			},
			{
				PetType:    domain.PetTypeCat,
				Keywords:   []string{"cat", "kitten", "feline", "kitty", "catnip"},
				Exclusions: []string{"cat eye"},
			},
		},
		SmallPetExclusions: []string{
			"dog", "puppy", "dog toy", "dog bed",
			"cat teaser", "catnip", "cat toy", "kitten",
		},
	}
}

// PetTypeClassifier buckets products into species from free text.
type PetTypeClassifier struct {
	rules *Rules
}

// NewPetTypeClassifier creates a classifier; nil rules use DefaultRules.
func NewPetTypeClassifier(rules *Rules) *PetTypeClassifier {
	if rules == nil {
		rules = DefaultRules()
	}
	return &PetTypeClassifier{rules: rules}
}

// Classify decides the species bucket for a product. Confidence is the number
// of distinct matched keywords of the winning species; the winner is the rule
// with the highest count, earlier rules winning ties. No match yields
// PetTypeUnknown with zero confidence.
func (c *PetTypeClassifier) Classify(p *domain.ProductRecord) domain.ClassificationResult {
	blob := BuildBlob(p)

	// Dog/cat exclusion terms disqualify every small-pet rule up front, so a
	// corrected catalog can never re-enter the contaminated state.
	smallPetExcluded := containsAny(blob, c.rules.SmallPetExclusions)

	best := domain.PetTypeUnknown
	bestCount := 0
	for _, rule := range c.rules.Species {
		if rule.PetType == domain.PetTypeSmallPet && smallPetExcluded {
			continue
		}
		if containsAny(blob, rule.Exclusions) {
			continue
		}
		count := 0
		for _, kw := range rule.Keywords {
			if ContainsTerm(blob, kw) {
				count++
			}
		}
		if count > bestCount {
			best = rule.PetType
			bestCount = count
		}
	}

	return domain.ClassificationResult{
		PetType:      best,
		Confidence:   bestCount,
		Contaminated: c.IsContaminated(p),
	}
}

// IsContaminated reports whether a product currently bucketed as small_pet
// carries dog/cat exclusion terms. The check is idempotent and independent of
// reclassification so contamination can be counted before and after a fix.
func (c *PetTypeClassifier) IsContaminated(p *domain.ProductRecord) bool {
	if p.PetType != domain.PetTypeSmallPet {
		return false
	}
	return containsAny(BuildBlob(p), c.rules.SmallPetExclusions)
}

// FindContamination returns the contaminated subset of a catalog.
func (c *PetTypeClassifier) FindContamination(catalog domain.Catalog) []*domain.ProductRecord {
	var out []*domain.ProductRecord
	for _, p := range catalog {
		if c.IsContaminated(p) {
			out = append(out, p)
		}
	}
	return out
}
