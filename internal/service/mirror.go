package service

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/getpawsy/curation/internal/catalog"
	"github.com/getpawsy/curation/internal/domain"
	"github.com/getpawsy/curation/internal/logger"
	"github.com/getpawsy/curation/internal/repository"
	"github.com/getpawsy/curation/internal/storage"
)

// MirrorConfig is the immutable configuration of the media mirror job.
type MirrorConfig struct {
	// MinBytes rejects bodies smaller than this as broken downloads.
	MinBytes int

	// MaxImages caps how many images are mirrored per product.
	MaxImages int
}

// MirrorOptions are the per-invocation flags of a mirror run.
type MirrorOptions struct {
	// Force disables skip-existing and re-downloads every product.
	Force bool

	// IncludeVideos also mirrors video assets.
	IncludeVideos bool

	// Limit caps the number of products processed; zero is unbounded.
	Limit int
}

var imageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "webp": true, "gif": true,
}

// MirrorService downloads each product's external images into per-product
// local storage. It is the only pipeline component with network I/O, so it
// is the only one with partial-failure semantics: one product's fetch error
// never blocks its siblings.
type MirrorService struct {
	runTracker
	store  *catalog.Store
	media  storage.MediaStore
	client *resty.Client
	cfg    MirrorConfig
}

// NewMirrorService wires a mirror job. The resty client should carry the
// fetch timeout; the job adds no retries of its own. A failed product is
// retried by re-running with force.
func NewMirrorService(
	store *catalog.Store,
	media storage.MediaStore,
	client *resty.Client,
	cfg MirrorConfig,
	runs *repository.RunRepository,
) *MirrorService {
	if cfg.MinBytes <= 0 {
		cfg.MinBytes = 500
	}
	if cfg.MaxImages <= 0 {
		cfg.MaxImages = 5
	}
	return &MirrorService{
		runTracker: runTracker{runs: runs},
		store:      store,
		media:      media,
		client:     client,
		cfg:        cfg,
	}
}

// Run executes one mirror job over the catalog in order. Each product's
// outcome is committed to its record as soon as its downloads finish; the
// catalog document is saved once at the end. A killed run stays resumable
// because skip-existing consults the on-disk media directories.
func (s *MirrorService) Run(ctx context.Context, opts MirrorOptions) (*domain.MirrorJobState, error) {
	run := s.start(ctx, "mirror")
	ctx = logger.SetRunID(logger.SetPass(ctx, "mirror"), run.ID)
	log := logger.FromContext(ctx)

	snap, err := s.store.Load(ctx)
	if err != nil {
		s.fail(ctx, run, err)
		return nil, err
	}

	state := &domain.MirrorJobState{}

	for _, p := range snap.Products {
		if ctx.Err() != nil {
			break
		}
		if opts.Limit > 0 && state.Processed >= opts.Limit {
			break
		}
		state.Total++

		switch outcome := s.mirrorProduct(ctx, p, opts); outcome {
		case domain.MirrorStateSkipped:
			state.Skipped++
		case domain.MirrorStateMirrored:
			state.Downloaded++
		case domain.MirrorStateFailed:
			state.Failed++
		}
		state.Processed++
	}

	backup, err := s.store.Save(ctx, snap)
	if err != nil {
		s.fail(ctx, run, err)
		return nil, err
	}

	run.Total = state.Total
	run.Changed = state.Downloaded
	run.Failed = state.Failed
	run.BackupPath = backup
	s.complete(ctx, run)

	log.WithFields(logger.Fields{
		"total":      state.Total,
		"processed":  state.Processed,
		"downloaded": state.Downloaded,
		"skipped":    state.Skipped,
		"failed":     state.Failed,
	}).Info("Mirror job completed")

	return state, nil
}

// mirrorProduct walks one product through the state machine:
// pending -> downloading -> {mirrored | failed | skipped}.
func (s *MirrorService) mirrorProduct(ctx context.Context, p *domain.ProductRecord, opts MirrorOptions) domain.MirrorState {
	log := logger.FromContext(ctx).WithField(logger.FieldProductID, p.ID)
	log.WithField(logger.FieldStatus, domain.MirrorStatePending).Debug("Evaluating product media")
	prefix := "products/" + p.ID

	sources := s.sourceImages(p)
	if len(sources) == 0 {
		log.Warn("Product has no remote images to mirror")
		return domain.MirrorStateSkipped
	}
	if len(sources) > s.cfg.MaxImages {
		sources = sources[:s.cfg.MaxImages]
	}

	// Remember the remote originals so a forced re-run can re-fetch them
	// after the images field has been rewritten to local paths.
	if len(p.SourceImages) == 0 {
		p.SourceImages = append(domain.FlexStrings{}, sources...)
	}

	if !opts.Force {
		existing, err := s.existingImages(ctx, prefix)
		if err != nil {
			log.WithError(err).Warn("Failed to check existing media")
		}
		if p.WithLocalMedia && len(existing) > 0 {
			return domain.MirrorStateSkipped
		}
		// A run killed before its catalog save leaves mirrored files on disk
		// with the record still pointing at remote URLs. A complete directory
		// is adopted instead of re-downloaded; a partial one is not.
		if len(existing) >= len(sources) {
			s.adopt(p, existing)
			log.WithField(logger.FieldCount, len(existing)).Info("Adopted existing media")
			return domain.MirrorStateSkipped
		}
	}

	log.WithField(logger.FieldStatus, domain.MirrorStateDownloading).Debug("Downloading product media")

	var localPaths domain.FlexStrings
	for i, src := range sources {
		data, ext, err := s.fetchWithRepair(ctx, src)
		if err != nil {
			log.WithError(err).WithField("url", src).Error("Failed to mirror image")
			return domain.MirrorStateFailed
		}
		key := fmt.Sprintf("%s/img_%d.%s", prefix, i, ext)
		if err := s.media.Write(ctx, key, bytes.NewReader(data), int64(len(data)), contentTypeFor(ext)); err != nil {
			log.WithError(err).Error("Failed to store image")
			return domain.MirrorStateFailed
		}
		localPaths = append(localPaths, s.media.URL(key))
	}

	if opts.IncludeVideos {
		for i, src := range p.Videos {
			if !isRemote(src) {
				continue
			}
			data, ext, err := s.fetchVideo(ctx, src)
			if err != nil {
				log.WithError(err).WithField("url", src).Error("Failed to mirror video")
				return domain.MirrorStateFailed
			}
			key := fmt.Sprintf("%s/video_%d.%s", prefix, i, ext)
			if err := s.media.Write(ctx, key, bytes.NewReader(data), int64(len(data)), contentTypeFor(ext)); err != nil {
				log.WithError(err).Error("Failed to store video")
				return domain.MirrorStateFailed
			}
		}
	}

	p.Images = localPaths
	p.Thumbnail = localPaths[0]
	p.WithLocalMedia = true
	return domain.MirrorStateMirrored
}

// existingImages returns the already-mirrored image keys under a product
// prefix, ordered by image index.
func (s *MirrorService) existingImages(ctx context.Context, prefix string) ([]string, error) {
	keys, err := s.media.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	var images []string
	for _, k := range keys {
		if strings.HasPrefix(path.Base(k), "img_") {
			images = append(images, k)
		}
	}
	sort.Slice(images, func(i, j int) bool {
		return imageIndex(images[i]) < imageIndex(images[j])
	})
	return images, nil
}

// imageIndex parses the numeric index out of an img_<i>.<ext> key.
func imageIndex(key string) int {
	base := strings.TrimPrefix(path.Base(key), "img_")
	if dot := strings.Index(base, "."); dot != -1 {
		base = base[:dot]
	}
	n, err := strconv.Atoi(base)
	if err != nil {
		return 0
	}
	return n
}

// adopt rewrites a record to the mirrored files already in storage.
func (s *MirrorService) adopt(p *domain.ProductRecord, keys []string) {
	var localPaths domain.FlexStrings
	for _, k := range keys {
		localPaths = append(localPaths, s.media.URL(k))
	}
	p.Images = localPaths
	p.Thumbnail = localPaths[0]
	p.WithLocalMedia = true
}

// sourceImages returns the remote image URLs for a product, preferring the
// preserved originals over a possibly already-rewritten images field.
func (s *MirrorService) sourceImages(p *domain.ProductRecord) []string {
	candidates := p.SourceImages
	if len(candidates) == 0 {
		candidates = p.Images
	}
	var out []string
	for _, u := range candidates {
		if isRemote(u) {
			out = append(out, u)
		}
	}
	return out
}

// fetchWithRepair downloads one image, walking the anti-404 repair chain:
// the normalized URL, then forced .jpg, then forced .png, then an http
// downgrade. The first candidate with a 200 response of plausible size wins.
func (s *MirrorService) fetchWithRepair(ctx context.Context, rawURL string) ([]byte, string, error) {
	normalized := normalizeSupplierURL(rawURL)

	candidates := []string{normalized}
	if base, ok := stripExtension(normalized); ok {
		candidates = append(candidates, base+".jpg", base+".png")
	}
	if strings.HasPrefix(normalized, "https://") {
		candidates = append(candidates, "http://"+strings.TrimPrefix(normalized, "https://"))
	}

	var lastErr error
	for _, candidate := range candidates {
		resp, err := s.client.R().SetContext(ctx).Get(candidate)
		if err != nil {
			lastErr = err
			continue
		}
		body := resp.Body()
		if resp.StatusCode() != 200 || len(body) < s.cfg.MinBytes {
			lastErr = fmt.Errorf("unusable response from %s: status %d, %d bytes", candidate, resp.StatusCode(), len(body))
			continue
		}
		return body, imageExtension(candidate), nil
	}
	return nil, "", fmt.Errorf("all download candidates failed: %w", lastErr)
}

func (s *MirrorService) fetchVideo(ctx context.Context, rawURL string) ([]byte, string, error) {
	resp, err := s.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, "", err
	}
	body := resp.Body()
	if resp.StatusCode() != 200 || len(body) < s.cfg.MinBytes {
		return nil, "", fmt.Errorf("unusable response from %s: status %d, %d bytes", rawURL, resp.StatusCode(), len(body))
	}
	ext := strings.TrimPrefix(path.Ext(rawURL), ".")
	if ext == "" {
		ext = "mp4"
	}
	return body, ext, nil
}

// normalizeSupplierURL strips size parameters and resize-CDN path variants
// from supplier image URLs so the full-resolution original is fetched.
func normalizeSupplierURL(raw string) string {
	if idx := strings.Index(raw, "?"); idx != -1 {
		raw = raw[:idx]
	}
	for _, suffix := range []string{"_100x100", "_200x200", "_300x300", "_400x400", "_800x800"} {
		raw = strings.ReplaceAll(raw, suffix, "")
	}
	raw = strings.ReplaceAll(raw, "image.cjdropshipping.com/im/resize", "image.cjdropshipping.com")
	raw = strings.ReplaceAll(raw, "image.cjdropshipping.com/im/crop", "image.cjdropshipping.com")
	return raw
}

// stripExtension splits a URL before its file extension, when it has one.
func stripExtension(u string) (string, bool) {
	idx := strings.LastIndex(u, ".")
	slash := strings.LastIndex(u, "/")
	if idx == -1 || idx < slash {
		return "", false
	}
	return u[:idx], true
}

// imageExtension extracts a safe image extension from a URL, defaulting to jpg.
func imageExtension(u string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(u), "."))
	if imageExtensions[ext] {
		return ext
	}
	return "jpg"
}

func isRemote(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	return parsed.Scheme == "http" || parsed.Scheme == "https"
}

func contentTypeFor(ext string) string {
	switch ext {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "mp4":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}
