package service

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/getpawsy/curation/internal/catalog"
	"github.com/getpawsy/curation/internal/logger"
	"github.com/getpawsy/curation/internal/storage"
)

// VerifyReport summarizes a read-only audit of the mirrored media tree.
type VerifyReport struct {
	Products     int
	FilesChecked int
	EmptyDirs    []string
	MissingMedia []string
	TooSmall     []string
	Undecodable  []string
	Orphans      []string
}

// Clean reports whether the audit found nothing wrong.
func (r *VerifyReport) Clean() bool {
	return len(r.EmptyDirs) == 0 && len(r.MissingMedia) == 0 &&
		len(r.TooSmall) == 0 && len(r.Undecodable) == 0 &&
		len(r.Orphans) == 0
}

// VerifyService audits the local media tree against the catalog without
// mutating either. It only works against local storage, where the files
// can be opened and decoded directly.
type VerifyService struct {
	store    *catalog.Store
	local    *storage.LocalStorage
	minBytes int
}

// NewVerifyService wires a media verification pass.
func NewVerifyService(store *catalog.Store, local *storage.LocalStorage, minBytes int) *VerifyService {
	if minBytes <= 0 {
		minBytes = 500
	}
	return &VerifyService{store: store, local: local, minBytes: minBytes}
}

// Run audits the media tree in both directions. Every product that claims
// local media must have a directory on disk, and every directory on disk is
// checked regardless of catalog flags: failed or killed downloads leave
// empty or partial directories behind without ever setting the flag, and
// those are exactly the directories worth flagging. Directories for products
// the catalog no longer knows are reported as orphans.
func (s *VerifyService) Run(ctx context.Context) (*VerifyReport, error) {
	ctx = logger.SetPass(ctx, "verify")
	log := logger.FromContext(ctx)

	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	report := &VerifyReport{}
	known := make(map[string]bool, len(snap.Products))
	for _, p := range snap.Products {
		known[p.ID] = true
		if !p.WithLocalMedia {
			continue
		}
		report.Products++
		dir := filepath.Join(s.local.Root(), "products", p.ID)
		if _, err := os.Stat(dir); err != nil {
			report.MissingMedia = append(report.MissingMedia, p.ID)
		}
	}

	base := filepath.Join(s.local.Root(), "products")
	entries, err := os.ReadDir(base)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id := entry.Name()
		if !known[id] {
			report.Orphans = append(report.Orphans, id)
		}
		s.verifyDir(filepath.Join(base, id), id, report)
	}

	log.WithFields(logger.Fields{
		"products":      report.Products,
		"files_checked": report.FilesChecked,
		"empty_dirs":    len(report.EmptyDirs),
		"missing_media": len(report.MissingMedia),
		"too_small":     len(report.TooSmall),
		"undecodable":   len(report.Undecodable),
		"orphans":       len(report.Orphans),
	}).Info("Media verification completed")

	return report, nil
}

func (s *VerifyService) verifyDir(dir, id string, report *VerifyReport) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	if len(entries) == 0 {
		report.EmptyDirs = append(report.EmptyDirs, id)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !isImageFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		report.FilesChecked++

		info, err := entry.Info()
		if err == nil && info.Size() < int64(s.minBytes) {
			report.TooSmall = append(report.TooSmall, id+"/"+entry.Name())
			continue
		}
		if !decodable(path) {
			report.Undecodable = append(report.Undecodable, id+"/"+entry.Name())
		}
	}
}

func isImageFile(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	return imageExtensions[ext]
}

// decodable checks the image header only; a full pixel decode would be
// wasted work for a presence audit.
func decodable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	_, _, err = image.DecodeConfig(f)
	return err == nil
}
