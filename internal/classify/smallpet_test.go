package classify

import (
	"testing"

	"github.com/getpawsy/curation/internal/domain"
)

func TestDetectSmallPetType(t *testing.T) {
	c := NewSmallPetClassifier(nil)

	testCases := []struct {
		name           string
		title          string
		wantSmallPet   bool
		wantType       domain.SmallPetType
		wantConfidence int
	}{
		{
			name:           "rabbit hutch scores three keywords",
			title:          "Bunny Rabbit Hutch",
			wantSmallPet:   true,
			wantType:       domain.SmallPetRabbit,
			wantConfidence: 3,
		},
		{
			name:         "hamster apparel for humans is rejected",
			title:        "Funny Hamster Graphic T-Shirt",
			wantSmallPet: false,
		},
		{
			name:           "housing terms override the apparel rejection",
			title:          "Hamster Cage with Graphic Panels",
			wantSmallPet:   true,
			wantType:       domain.SmallPetHamster,
			wantConfidence: 1,
		},
		{
			name:           "guinea pig",
			title:          "Guinea Pig Hay Feeder",
			wantSmallPet:   true,
			wantType:       domain.SmallPetGuineaPig,
			wantConfidence: 1,
		},
		{
			name:         "mouse shaped cat toy is not a rodent product",
			title:        "Catnip Mouse Toy",
			wantSmallPet: false,
		},
		{
			name:           "real mouse product",
			title:          "Mouse Exercise Wheel",
			wantSmallPet:   true,
			wantType:       domain.SmallPetOther,
			wantConfidence: 1,
		},
		{
			name:           "rabbit rule outranks other small pets",
			title:          "Playpen for rabbit and ferret",
			wantSmallPet:   true,
			wantType:       domain.SmallPetRabbit,
			wantConfidence: 1,
		},
		{
			name:         "no small pet signal",
			title:        "Ceramic Food Bowl",
			wantSmallPet: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := &domain.ProductRecord{Title: tc.title}
			res := c.Detect(p)
			if res.IsSmallPet != tc.wantSmallPet {
				t.Fatalf("isSmallPet = %v, want %v", res.IsSmallPet, tc.wantSmallPet)
			}
			if !tc.wantSmallPet {
				if res.SmallPetType != "" || res.Confidence != 0 {
					t.Errorf("no-match result should be empty, got type=%q confidence=%d", res.SmallPetType, res.Confidence)
				}
				return
			}
			if res.SmallPetType != tc.wantType {
				t.Errorf("small pet type = %q, want %q", res.SmallPetType, tc.wantType)
			}
			if res.Confidence != tc.wantConfidence {
				t.Errorf("confidence = %d, want %d", res.Confidence, tc.wantConfidence)
			}
		})
	}
}
