package service

import (
	"context"

	"github.com/getpawsy/curation/internal/catalog"
	"github.com/getpawsy/curation/internal/classify"
	"github.com/getpawsy/curation/internal/domain"
	"github.com/getpawsy/curation/internal/logger"
	"github.com/getpawsy/curation/internal/repository"
)

// ClassifyStats holds the before/after counters of a classification pass.
type ClassifyStats struct {
	Total              int
	Changed            int
	Blocked            int
	ContaminatedBefore int
	ContaminatedAfter  int
	ByPetType          map[domain.PetType]int
	BySmallPetType     map[domain.SmallPetType]int
}

// ClassifyService runs the pet-type classification and contamination-fix
// pass over the catalog.
type ClassifyService struct {
	runTracker
	store    *catalog.Store
	petTypes *classify.PetTypeClassifier
	smallPet *classify.SmallPetClassifier
	gate     *classify.EligibilityGate
}

// NewClassifyService wires a classification pass.
func NewClassifyService(
	store *catalog.Store,
	petTypes *classify.PetTypeClassifier,
	smallPet *classify.SmallPetClassifier,
	gate *classify.EligibilityGate,
	runs *repository.RunRepository,
) *ClassifyService {
	return &ClassifyService{
		runTracker: runTracker{runs: runs},
		store:      store,
		petTypes:   petTypes,
		smallPet:   smallPet,
		gate:       gate,
	}
}

// mainCategorySlugs maps a species bucket to its storefront category slug.
var mainCategorySlugs = map[domain.PetType]string{
	domain.PetTypeDog:      "dogs",
	domain.PetTypeCat:      "cats",
	domain.PetTypeSmallPet: "small-pets",
}

// Run executes one classification pass: eligibility gating, species
// classification, small-pet refinement, and contamination correction. The
// contamination count is taken before and after the pass so the summary
// shows how many products were wrong.
func (s *ClassifyService) Run(ctx context.Context) (*ClassifyStats, error) {
	run := s.start(ctx, "classify")
	ctx = logger.SetRunID(logger.SetPass(ctx, "classify"), run.ID)
	log := logger.FromContext(ctx)

	snap, err := s.store.Load(ctx)
	if err != nil {
		s.fail(ctx, run, err)
		return nil, err
	}

	stats := &ClassifyStats{
		Total:          len(snap.Products),
		ByPetType:      make(map[domain.PetType]int),
		BySmallPetType: make(map[domain.SmallPetType]int),
	}
	stats.ContaminatedBefore = len(s.petTypes.FindContamination(snap.Products))

	for _, p := range snap.Products {
		if eligible, reason := s.gate.IsEligible(p); !eligible {
			if p.PetType != domain.PetTypeBlocked {
				stats.Changed++
			}
			p.PetType = domain.PetTypeBlocked
			p.SmallPetType = ""
			p.ClassificationConfidence = 0
			p.Active = false
			p.AddFlag(domain.FlagNotPetProduct)
			stats.Blocked++
			stats.ByPetType[domain.PetTypeBlocked]++
			log.WithFields(logger.Fields{
				logger.FieldProductID: p.ID,
				"reason":              reason,
			}).Info("Product blocked as non-pet merchandise")
			continue
		}

		res := s.petTypes.Classify(p)
		if p.PetType != res.PetType || p.ClassificationConfidence != res.Confidence {
			stats.Changed++
		}
		p.PetType = res.PetType
		p.ClassificationConfidence = res.Confidence
		if slug, ok := mainCategorySlugs[res.PetType]; ok {
			p.MainCategorySlug = slug
		}

		if res.PetType == domain.PetTypeSmallPet {
			sp := s.smallPet.Detect(p)
			p.SmallPetType = sp.SmallPetType
			if sp.SmallPetType != "" {
				stats.BySmallPetType[sp.SmallPetType]++
			}
		} else {
			p.SmallPetType = ""
		}

		stats.ByPetType[res.PetType]++
	}

	stats.ContaminatedAfter = len(s.petTypes.FindContamination(snap.Products))

	backup, err := s.store.Save(ctx, snap)
	if err != nil {
		s.fail(ctx, run, err)
		return nil, err
	}

	run.Total = stats.Total
	run.Changed = stats.Changed
	run.BackupPath = backup
	s.complete(ctx, run)

	log.WithFields(logger.Fields{
		"total":               stats.Total,
		"changed":             stats.Changed,
		"blocked":             stats.Blocked,
		"contaminated_before": stats.ContaminatedBefore,
		"contaminated_after":  stats.ContaminatedAfter,
		"by_pet_type":         stats.ByPetType,
	}).Info("Classification pass completed")

	return stats, nil
}
