package storage

import (
	"context"
	"io"
)

// MediaStore is the destination for mirrored product media. Keys are
// slash-separated paths like "products/<id>/img_0.jpg".
type MediaStore interface {
	// Write stores an object under the given key.
	Write(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Exists checks whether an object exists.
	Exists(ctx context.Context, key string) (bool, error)

	// List returns the keys of every object under the given key prefix.
	// Used for skip-existing decisions on whole product directories.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes an object.
	Delete(ctx context.Context, key string) error

	// URL returns the storefront-facing path or URL for an object.
	URL(key string) string
}
