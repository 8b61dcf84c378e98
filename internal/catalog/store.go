package catalog

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/getpawsy/curation/internal/domain"
	"github.com/getpawsy/curation/internal/logger"
)

// Snapshot is one loaded catalog document. It remembers the persisted shape
// (bare array vs object with a products field) and any sidecar keys so that
// a save round-trips the document faithfully.
type Snapshot struct {
	Products domain.Catalog

	wrapped bool
	extras  map[string]json.RawMessage
	raw     []byte
}

// Raw returns the exact bytes the snapshot was loaded from.
func (s *Snapshot) Raw() []byte {
	return s.raw
}

// Store owns the on-disk catalog document: shape-preserving load, backup,
// and whole-document atomic writes. It is the only pipeline component with
// file side effects.
type Store struct {
	path        string
	backupDir   string
	placeholder string
	deepCompare bool
}

// Options configures a Store.
type Options struct {
	Path             string
	BackupDir        string
	PlaceholderImage string

	// DeepVariantCompare switches MergeVariants from the legacy count
	// heuristic to a content-hash comparison.
	DeepVariantCompare bool
}

// NewStore creates a catalog store for the given file.
func NewStore(opts Options) *Store {
	return &Store{
		path:        opts.Path,
		backupDir:   opts.BackupDir,
		placeholder: opts.PlaceholderImage,
		deepCompare: opts.DeepVariantCompare,
	}
}

// Load reads and parses the catalog document. A missing or unparsable file
// is fatal for the invoking pass; no write happens after a failed load.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", s.path, err)
	}

	snap := &Snapshot{raw: raw}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("catalog %s is empty", s.path)
	}

	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &snap.Products); err != nil {
			return nil, fmt.Errorf("failed to parse catalog array: %w", err)
		}
	} else {
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse catalog object: %w", err)
		}
		productsRaw, ok := doc["products"]
		if !ok {
			return nil, fmt.Errorf("catalog object has no products field")
		}
		if err := json.Unmarshal(productsRaw, &snap.Products); err != nil {
			return nil, fmt.Errorf("failed to parse products field: %w", err)
		}
		delete(doc, "products")
		snap.wrapped = true
		snap.extras = doc
	}

	s.normalize(ctx, snap.Products)
	return snap, nil
}

// normalize enforces catalog invariants on load: every product carries a
// non-empty image list, with the placeholder substituted when the feed gave
// none.
func (s *Store) normalize(ctx context.Context, products domain.Catalog) {
	log := logger.FromContext(ctx)
	for _, p := range products {
		if len(p.Images) == 0 && s.placeholder != "" {
			p.Images = domain.FlexStrings{s.placeholder}
			log.WithField(logger.FieldProductID, p.ID).Debug("Substituted placeholder image")
		}
		if p.Thumbnail == "" && len(p.Images) > 0 {
			p.Thumbnail = p.Images[0]
		}
	}
}

// Save backs up the pre-mutation document and then overwrites the catalog
// with the snapshot's current products. The backup is written
// unconditionally, even when the pass changed nothing. The primary file is
// replaced wholesale via a temp file and rename; a failure before the rename
// leaves the previous document intact.
func (s *Store) Save(ctx context.Context, snap *Snapshot) (backupPath string, err error) {
	backupPath, err = s.writeBackup(snap.raw)
	if err != nil {
		return "", err
	}

	var out []byte
	if snap.wrapped {
		doc := make(map[string]json.RawMessage, len(snap.extras)+1)
		for k, v := range snap.extras {
			doc[k] = v
		}
		productsRaw, err := json.Marshal(snap.Products)
		if err != nil {
			return "", fmt.Errorf("failed to marshal products: %w", err)
		}
		doc["products"] = productsRaw
		out, err = json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal catalog object: %w", err)
		}
	} else {
		out, err = json.MarshalIndent(snap.Products, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal catalog array: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0644); err != nil {
		return "", fmt.Errorf("failed to write catalog temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to replace catalog file: %w", err)
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		"path":   s.path,
		"backup": backupPath,
		"count":  len(snap.Products),
	}).Info("Catalog saved")

	snap.raw = out
	return backupPath, nil
}

func (s *Store) writeBackup(raw []byte) (string, error) {
	if err := os.MkdirAll(s.backupDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup dir: %w", err)
	}
	name := fmt.Sprintf("%s.%s.bak", filepath.Base(s.path), time.Now().Format("20060102-150405"))
	path := filepath.Join(s.backupDir, name)
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	return path, nil
}

// MergeVariants reconciles the secondary variant source into the snapshot.
// By default a product's variants are replaced only when the counts differ
// (the legacy heuristic); with deep compare enabled, a content hash of the
// variant list decides instead, so content-only changes are picked up.
// Returns the number of products whose variants were replaced.
func (s *Store) MergeVariants(ctx context.Context, snap *Snapshot, secondary map[string][]domain.Variant) int {
	log := logger.FromContext(ctx)
	changed := 0
	for _, p := range snap.Products {
		incoming, ok := secondary[p.ID]
		if !ok {
			continue
		}
		replace := false
		if s.deepCompare {
			replace = variantHash(p.Variants) != variantHash(incoming)
		} else {
			replace = len(p.Variants) != len(incoming)
		}
		if !replace {
			continue
		}
		log.WithFields(logger.Fields{
			logger.FieldProductID: p.ID,
			"have":                len(p.Variants),
			"incoming":            len(incoming),
		}).Info("Replacing variants from secondary source")
		p.Variants = incoming
		changed++
	}
	return changed
}

// variantHash computes a canonical content hash of a variant list.
func variantHash(variants []domain.Variant) string {
	b, err := json.Marshal(variants)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
