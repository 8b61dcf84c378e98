package classify

import (
	"github.com/getpawsy/curation/internal/domain"
)

// Keyword is a single small-pet signal term with its own exclusion logic: a
// match is rejected when any RejectWith term is present, unless one of the
// UnlessWith terms overrides the rejection.
type Keyword struct {
	Term       string
	RejectWith []string
	UnlessWith []string
}

// SmallPetRule is one ordered entry in the subclassifier rule list.
type SmallPetRule struct {
	Type     domain.SmallPetType
	Keywords []Keyword
}

// DefaultSmallPetRules returns the production subclassifier rules in
// priority order: rabbit > hamster > guinea_pig > other.
func DefaultSmallPetRules() []SmallPetRule {
	apparel := []string{"shirt", "t shirt", "graphic", "tee", "hoodie", "sweatshirt"}
	housing := []string{"cage", "house", "bed"}
	catToy := []string{"cat teaser", "catnip", "cat toy"}

	return []SmallPetRule{
		{
			Type: domain.SmallPetRabbit,
			Keywords: []Keyword{
				{Term: "rabbit"},
				{Term: "bunny"},
				{Term: "hutch"},
			},
		},
		{
			Type: domain.SmallPetHamster,
			Keywords: []Keyword{
				// Hamster apparel (for humans) floods the feed; housing
				// words mean it really is a hamster product.
				{Term: "hamster", RejectWith: apparel, UnlessWith: housing},
			},
		},
		{
			Type: domain.SmallPetGuineaPig,
			Keywords: []Keyword{
				{Term: "guinea pig"},
				{Term: "cavy"},
			},
		},
		{
			Type: domain.SmallPetOther,
			Keywords: []Keyword{
				{Term: "chinchilla"},
				{Term: "ferret"},
				{Term: "gerbil"},
				{Term: "rodent"},
				{Term: "small animal"},
				{Term: "small pet"},
				// Cat toys shaped like mice are not rodent products.
				{Term: "mouse", RejectWith: catToy},
				{Term: "mice", RejectWith: catToy},
				{Term: "rat", RejectWith: catToy},
			},
		},
	}
}

// SmallPetClassifier refines the small_pet bucket into concrete species.
type SmallPetClassifier struct {
	rules []SmallPetRule
}

// NewSmallPetClassifier creates a subclassifier; nil rules use the defaults.
func NewSmallPetClassifier(rules []SmallPetRule) *SmallPetClassifier {
	if rules == nil {
		rules = DefaultSmallPetRules()
	}
	return &SmallPetClassifier{rules: rules}
}

// Detect evaluates the rule list in priority order and returns the first type
// with at least one accepted keyword. Confidence is the count of distinct
// accepted keywords for that type. No match after exclusions yields zero
// confidence and an empty type.
func (c *SmallPetClassifier) Detect(p *domain.ProductRecord) domain.SmallPetResult {
	blob := BuildBlob(p)

	for _, rule := range c.rules {
		count := 0
		for _, kw := range rule.Keywords {
			if !ContainsTerm(blob, kw.Term) {
				continue
			}
			if containsAny(blob, kw.RejectWith) && !containsAny(blob, kw.UnlessWith) {
				continue
			}
			count++
		}
		if count > 0 {
			return domain.SmallPetResult{
				IsSmallPet:   true,
				SmallPetType: rule.Type,
				Confidence:   count,
			}
		}
	}

	return domain.SmallPetResult{}
}
