package classify

import (
	"strings"

	"github.com/getpawsy/curation/internal/domain"
)

// Normalize lowercases the given parts, maps punctuation to spaces, and
// collapses runs of whitespace into single spaces. All keyword matching in
// the pipeline runs against text normalized this way, so multi-word terms
// like "guinea pig" or "t shirt" match regardless of the feed's punctuation.
func Normalize(parts ...string) string {
	var b strings.Builder
	for _, part := range parts {
		if part == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(part)
	}
	lowered := strings.ToLower(b.String())

	var out strings.Builder
	out.Grow(len(lowered))
	lastSpace := true
	for _, r := range lowered {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			out.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			out.WriteByte(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(out.String())
}

// ContainsTerm reports whether the normalized blob contains the term on word
// boundaries. The term itself must already be in normalized form.
func ContainsTerm(blob, term string) bool {
	if blob == "" || term == "" {
		return false
	}
	return strings.Contains(" "+blob+" ", " "+term+" ")
}

// containsAny reports whether any of the terms appear in the blob.
func containsAny(blob string, terms []string) bool {
	for _, t := range terms {
		if ContainsTerm(blob, t) {
			return true
		}
	}
	return false
}

// BuildBlob builds the single normalized matching blob for a product from
// its title, description, tags, category, and type fields.
func BuildBlob(p *domain.ProductRecord) string {
	parts := []string{p.Title, p.Description}
	parts = append(parts, p.Tags...)
	parts = append(parts, p.Category, p.MainCategorySlug, p.ProductType)
	return Normalize(parts...)
}
