package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// PetType is the species bucket a product has been classified into.
type PetType string

const (
	PetTypeDog      PetType = "dog"
	PetTypeCat      PetType = "cat"
	PetTypeSmallPet PetType = "small_pet"
	PetTypeUnknown  PetType = "unknown"
	PetTypeBlocked  PetType = "blocked"
)

// SmallPetType refines the small_pet bucket. Empty means not set.
type SmallPetType string

const (
	SmallPetRabbit    SmallPetType = "rabbit"
	SmallPetHamster   SmallPetType = "hamster"
	SmallPetGuineaPig SmallPetType = "guinea_pig"
	SmallPetOther     SmallPetType = "other"
)

// Origin is the inferred shipping origin of a product.
type Origin string

const (
	OriginUS      Origin = "US"
	OriginCN      Origin = "CN"
	OriginUnknown Origin = "UNKNOWN"
)

// Audit flags added by automated passes. Flags are only ever added to a
// product's flag set, never removed.
const (
	FlagNonUSWarehouse = "non_us_warehouse"
	FlagSlowShipping   = "slow_shipping"
	FlagNeedsReview    = "needs_review"
	FlagNotPetProduct  = "not_pet_product"
)

// ShippingProfile holds the inferred origin and delivery estimate.
type ShippingProfile struct {
	Origin  Origin `json:"origin"`
	ETADays int    `json:"etaDays"`
}

// Variant is a purchasable variation of a product.
type Variant struct {
	ID      string      `json:"id"`
	Name    string      `json:"name,omitempty"`
	SKU     string      `json:"sku,omitempty"`
	Price   float64     `json:"price,omitempty"`
	Options FlexStrings `json:"options,omitempty"`
	Image   string      `json:"img,omitempty"`
}

// FlexStrings is a string slice that tolerates legacy catalog shapes where
// the field was written as a single string instead of an array. It always
// marshals back as an array.
type FlexStrings []string

// UnmarshalJSON accepts either a JSON array of strings or a bare string.
func (f *FlexStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = nil
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = FlexStrings{}
		} else {
			*f = FlexStrings{s}
		}
		return nil
	}
	var arr []string
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	*f = arr
	return nil
}

// ProductRecord is the unit of work for every curation pass. Supplier fields
// (cjPrice, warehouse, shippingFrom, ...) are carried through untouched so
// re-runs can re-derive decisions from the raw feed data.
type ProductRecord struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	Description      string      `json:"description,omitempty"`
	Tags             FlexStrings `json:"tags,omitempty"`
	Category         string      `json:"category,omitempty"`
	MainCategorySlug string      `json:"mainCategorySlug,omitempty"`
	ProductType      string      `json:"productType,omitempty"`

	PetType                  PetType      `json:"petType,omitempty"`
	SmallPetType             SmallPetType `json:"smallPetType,omitempty"`
	ClassificationConfidence int          `json:"classificationConfidence,omitempty"`

	// Supplier cost fields, in resolution order.
	CJPrice     float64 `json:"cjPrice,omitempty"`
	Cost        float64 `json:"cost,omitempty"`
	SourcePrice float64 `json:"sourcePrice,omitempty"`

	Price           float64    `json:"price"`
	CompareAtPrice  float64    `json:"compareAtPrice,omitempty"`
	PricesUpdatedAt *time.Time `json:"pricesUpdatedAt,omitempty"`

	Images    FlexStrings `json:"images"`
	Thumbnail string      `json:"thumbnail,omitempty"`
	Videos    FlexStrings `json:"videos,omitempty"`

	// SourceImages preserves the remote originals once images has been
	// rewritten to local mirror paths, so a forced re-mirror can re-fetch.
	SourceImages FlexStrings `json:"sourceImages,omitempty"`

	// Raw supplier shipping fields scanned by the warehouse classifier.
	Warehouse       string `json:"warehouse,omitempty"`
	ShippingFrom    string `json:"shippingFrom,omitempty"`
	SupplierOrigin  string `json:"supplierOrigin,omitempty"`
	ShippingDaysMin int    `json:"shippingDaysMin,omitempty"`
	ShippingDaysMax int    `json:"shippingDaysMax,omitempty"`
	ETADays         int    `json:"etaDays,omitempty"`

	ShippingProfile *ShippingProfile `json:"shippingProfile,omitempty"`

	Active       bool        `json:"active"`
	Flags        FlexStrings `json:"flags,omitempty"`
	LastRunFlags FlexStrings `json:"lastRunFlags,omitempty"`

	Variants []Variant `json:"variants,omitempty"`

	WithLocalMedia bool `json:"withLocalMedia,omitempty"`
}

// Catalog is the single persisted aggregate: an ordered product sequence.
type Catalog []*ProductRecord

// HasFlag reports whether the product carries the given audit flag.
func (p *ProductRecord) HasFlag(flag string) bool {
	for _, f := range p.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// AddFlag unions a flag into the product's flag set. Flags accumulate as a
// permanent audit trail; no pass removes them.
func (p *ProductRecord) AddFlag(flag string) {
	if !p.HasFlag(flag) {
		p.Flags = append(p.Flags, flag)
	}
}

// ClassificationResult is the transient outcome of a pet-type classification.
// Only its effect on the record is ever persisted.
type ClassificationResult struct {
	PetType      PetType
	Confidence   int
	Contaminated bool
}

// SmallPetResult is the transient outcome of small-pet subclassification.
type SmallPetResult struct {
	IsSmallPet   bool
	SmallPetType SmallPetType
	Confidence   int
}
