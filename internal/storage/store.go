package storage

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrObjectNotFound indicates the requested key does not exist in the store.
var ErrObjectNotFound = errors.New("storage: object not found")

// ObjectStore is the capability surface the transformation pipeline relies on.
// Implementations must be safe for use by concurrent pipeline runs.
type ObjectStore interface {
	// Download returns the full object payload or ErrObjectNotFound.
	Download(ctx context.Context, key string) ([]byte, error)
	// Upload writes the payload under key, creating intermediate prefixes as needed.
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	// SignedURL returns a URL granting read access to key for the given duration.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// JoinKey builds a storage key from path segments, skipping empty segments
// and collapsing duplicate slashes.
func JoinKey(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), "/")
		if p == "" {
			continue
		}
		for strings.Contains(p, "//") {
			p = strings.ReplaceAll(p, "//", "/")
		}
		cleaned = append(cleaned, p)
	}
	return strings.Join(cleaned, "/")
}
