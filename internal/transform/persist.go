package transform

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"server/internal/infra"
	"server/internal/storage"
)

// ArtifactDownloader fetches one provider-hosted artifact.
type ArtifactDownloader interface {
	FetchArtifact(ctx context.Context, artifactURL string) ([]byte, error)
}

// PersistedArtifact is the durable counterpart of one provider output: its
// storage key and a time-limited access URL.
type PersistedArtifact struct {
	Key     string
	URL     string
	Ordinal int
}

// Persister copies provider outputs into object storage, fanning out over a
// bounded worker pool. Failures are strictly per-artifact: a broken download
// or upload is logged and skipped, never aborting the rest of the batch.
type Persister struct {
	store      storage.ObjectStore
	downloader ArtifactDownloader
	clock      Clock
	urlTTL     time.Duration
	workers    int
	logger     infra.Logger
}

// NewPersister builds a persister. workers <= 1 degrades to sequential
// processing; the TTL defaults to 24 hours.
func NewPersister(store storage.ObjectStore, downloader ArtifactDownloader, clock Clock, urlTTL time.Duration, workers int, logger infra.Logger) *Persister {
	if clock == nil {
		clock = RealClock()
	}
	if urlTTL <= 0 {
		urlTTL = 24 * time.Hour
	}
	if workers <= 0 {
		workers = 1
	}
	return &Persister{
		store:      store,
		downloader: downloader,
		clock:      clock,
		urlTTL:     urlTTL,
		workers:    workers,
		logger:     logger,
	}
}

// Persist downloads each artifact reference and uploads it under destDir,
// returning the artifacts that made it to durable storage in input order.
// The returned list may be shorter than refs.
func (p *Persister) Persist(ctx context.Context, refs []string, destDir, baseName string) []PersistedArtifact {
	if len(refs) == 0 {
		return nil
	}

	stamp := p.clock.Now().UTC().Format("20060102T150405")
	results := make([]*PersistedArtifact, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			artifact, err := p.persistOne(gctx, ref, destDir, baseName, stamp, i)
			if err != nil {
				p.logger.Warn().Err(err).
					Str("artifact_url", ref).
					Int("ordinal", i+1).
					Msg("transform: artifact persistence failed")
				return nil
			}
			results[i] = artifact
			return nil
		})
	}
	// Workers never return errors; per-artifact failures must not cancel
	// their siblings.
	_ = g.Wait()

	persisted := make([]PersistedArtifact, 0, len(refs))
	for _, r := range results {
		if r != nil {
			persisted = append(persisted, *r)
		}
	}
	return persisted
}

func (p *Persister) persistOne(ctx context.Context, ref, destDir, baseName, stamp string, ordinal int) (*PersistedArtifact, error) {
	data, err := p.downloader.FetchArtifact(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("download: empty artifact body")
	}

	ext := artifactExtension(ref)
	fileName := fmt.Sprintf("%s-%s-%02d%s", baseName, stamp, ordinal+1, ext)
	key := storage.JoinKey(destDir, fileName)

	if err := p.store.Upload(ctx, key, data, contentTypeForExtension(ext)); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	signed, err := p.store.SignedURL(ctx, key, p.urlTTL)
	if err != nil {
		return nil, fmt.Errorf("sign url: %w", err)
	}

	return &PersistedArtifact{Key: key, URL: signed, Ordinal: ordinal}, nil
}

func artifactExtension(ref string) string {
	if u, err := url.Parse(ref); err == nil {
		if ext := strings.ToLower(path.Ext(u.Path)); ext != "" && len(ext) <= 5 {
			return ext
		}
	}
	return ".png"
}

func contentTypeForExtension(ext string) string {
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "image/png"
}
