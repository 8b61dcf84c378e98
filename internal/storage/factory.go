package storage

import (
	"fmt"
	"strings"

	"github.com/getpawsy/curation/internal/config"
)

// NewMediaStore creates a MediaStore from the storage configuration. The
// default is the local filesystem; s3/r2 select the S3-compatible backend.
func NewMediaStore(cfg *config.StorageConfig, mediaDir string) (MediaStore, error) {
	switch strings.ToLower(cfg.Type) {
	case "", "local":
		return NewLocalStorage(&LocalConfig{
			Root:      mediaDir,
			PublicURL: cfg.PublicURL,
		})
	case "s3", "r2", "s3compatible":
		return NewS3Storage(&S3Config{
			Type:      StorageType(strings.ToLower(cfg.Type)),
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			PublicURL: cfg.PublicURL,
		})
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
