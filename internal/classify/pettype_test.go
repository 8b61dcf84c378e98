package classify

import (
	"testing"

	"github.com/getpawsy/curation/internal/domain"
)

func TestClassifyPetType(t *testing.T) {
	c := NewPetTypeClassifier(nil)

	testCases := []struct {
		name           string
		title          string
		description    string
		wantType       domain.PetType
		wantConfidence int
	}{
		{
			name:           "dog bed",
			title:          "Cozy Dog Bed for Large Breeds",
			wantType:       domain.PetTypeDog,
			wantConfidence: 1,
		},
		{
			name:           "rabbit hutch scores two keywords",
			title:          "Rabbit Hutch Cage Outdoor",
			wantType:       domain.PetTypeSmallPet,
			wantConfidence: 2,
		},
		{
			name:           "dog term disables small pet rules",
			title:          "Rabbit Hutch for your dog",
			wantType:       domain.PetTypeDog,
			wantConfidence: 1,
		},
		{
			name:           "hot dog exclusion leaves nothing",
			title:          "Hot Dog Costume",
			wantType:       domain.PetTypeUnknown,
			wantConfidence: 0,
		},
		{
			name:           "catnip counts as cat not small pet",
			title:          "Catnip Mouse Toy",
			wantType:       domain.PetTypeCat,
			wantConfidence: 1,
		},
		{
			name:           "tie goes to the earlier rule",
			title:          "Collar for dog and cat",
			wantType:       domain.PetTypeDog,
			wantConfidence: 1,
		},
		{
			name:           "multiple cat keywords beat one dog keyword",
			title:          "Kitten Feline Cat Tree with dog-proof base",
			wantType:       domain.PetTypeCat,
			wantConfidence: 3,
		},
		{
			name:           "no signal",
			title:          "Stainless Steel Water Bottle",
			wantType:       domain.PetTypeUnknown,
			wantConfidence: 0,
		},
		{
			name:           "punctuation does not hide keywords",
			title:          "GUINEA-PIG Hay Feeder!!!",
			wantType:       domain.PetTypeSmallPet,
			wantConfidence: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := &domain.ProductRecord{Title: tc.title, Description: tc.description}
			res := c.Classify(p)
			if res.PetType != tc.wantType {
				t.Errorf("pet type = %q, want %q", res.PetType, tc.wantType)
			}
			if res.Confidence != tc.wantConfidence {
				t.Errorf("confidence = %d, want %d", res.Confidence, tc.wantConfidence)
			}
		})
	}
}

func TestIsContaminated(t *testing.T) {
	c := NewPetTypeClassifier(nil)

	contaminated := &domain.ProductRecord{
		Title:   "Hamster Ball for your dog",
		PetType: domain.PetTypeSmallPet,
	}
	if !c.IsContaminated(contaminated) {
		t.Error("small_pet product with a dog term should be contaminated")
	}

	clean := &domain.ProductRecord{
		Title:   "Hamster Ball",
		PetType: domain.PetTypeSmallPet,
	}
	if c.IsContaminated(clean) {
		t.Error("small_pet product without dog/cat terms should be clean")
	}

	// Contamination is defined only for the small_pet bucket.
	dog := &domain.ProductRecord{
		Title:   "Hamster Ball for your dog",
		PetType: domain.PetTypeDog,
	}
	if c.IsContaminated(dog) {
		t.Error("non-small_pet product should never be contaminated")
	}
}

// TestClassifyReachesCleanFixpoint verifies that one classification pass over
// a contaminated catalog leaves zero contaminated products: a product whose
// text carries dog/cat terms can never land in the small_pet bucket again.
func TestClassifyReachesCleanFixpoint(t *testing.T) {
	c := NewPetTypeClassifier(nil)

	cat := domain.Catalog{
		{ID: "p1", Title: "Rabbit Hutch for your dog", PetType: domain.PetTypeSmallPet},
		{ID: "p2", Title: "Hamster Cat Toy", PetType: domain.PetTypeSmallPet},
		{ID: "p3", Title: "Guinea Pig Hay Feeder", PetType: domain.PetTypeSmallPet},
		{ID: "p4", Title: "Catnip Chinchilla Teaser", PetType: domain.PetTypeSmallPet},
	}

	if got := len(c.FindContamination(cat)); got != 3 {
		t.Fatalf("contaminated before = %d, want 3", got)
	}

	for _, p := range cat {
		res := c.Classify(p)
		p.PetType = res.PetType
	}

	if got := len(c.FindContamination(cat)); got != 0 {
		t.Errorf("contaminated after = %d, want 0", got)
	}
	if cat[2].PetType != domain.PetTypeSmallPet {
		t.Errorf("clean small pet product reclassified to %q", cat[2].PetType)
	}
}

func TestClassifyUsesAllTextFields(t *testing.T) {
	c := NewPetTypeClassifier(nil)

	p := &domain.ProductRecord{
		Title:       "Chew Toy",
		Description: "Durable rubber toy for aggressive chewers",
		Tags:        domain.FlexStrings{"puppy", "outdoor"},
	}
	res := c.Classify(p)
	if res.PetType != domain.PetTypeDog {
		t.Errorf("pet type = %q, want %q (tag keyword should count)", res.PetType, domain.PetTypeDog)
	}
}
