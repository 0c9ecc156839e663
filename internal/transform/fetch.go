package transform

import (
	"context"
	"errors"
	"fmt"

	"server/internal/storage"
)

// Source locates the image to transform inside object storage.
type Source struct {
	Container string
	Directory string
	FileName  string
}

// Key returns the normalized storage key for the source, free of duplicate
// slashes regardless of how the segments were written.
func (s Source) Key() string {
	return storage.JoinKey(s.Container, s.Directory, s.FileName)
}

// fetchSource retrieves the source image bytes. A missing or empty object is
// a terminal, user-visible condition and maps to ErrAssetNotFound.
func fetchSource(ctx context.Context, store storage.ObjectStore, src Source) ([]byte, error) {
	if src.FileName == "" {
		return nil, fmt.Errorf("%w: file name is empty", ErrAssetNotFound)
	}
	data, err := store.Download(ctx, src.Key())
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, src.Key())
		}
		return nil, fmt.Errorf("transform: fetch source %s: %w", src.Key(), err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, src.Key())
	}
	return data, nil
}
