package transform

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"server/internal/storage"
)

// memStore is an in-memory ObjectStore safe for concurrent workers.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failUp  map[string]bool
	signErr bool
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, failUp: map[string]bool{}}
}

func (s *memStore) Download(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok || len(data) == 0 {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

func (s *memStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUp[key] {
		return fmt.Errorf("upload refused")
	}
	s.objects[key] = append([]byte(nil), data...)
	return nil
}

func (s *memStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if s.signErr {
		return "", fmt.Errorf("signing unavailable")
	}
	return "mem://" + key, nil
}

type stubDownloader struct {
	mu       sync.Mutex
	failures map[string]bool
	calls    int
}

func (d *stubDownloader) FetchArtifact(ctx context.Context, artifactURL string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.failures[artifactURL] {
		return nil, fmt.Errorf("download failed")
	}
	return []byte("bytes-of-" + artifactURL), nil
}

func artifactURLs(n int) []string {
	urls := make([]string, n)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://p.example/outputs/art-%d.png", i+1)
	}
	return urls
}

func TestPersistIsolatesSingleFailure(t *testing.T) {
	urls := artifactURLs(5)
	downloader := &stubDownloader{failures: map[string]bool{urls[2]: true}}
	persister := NewPersister(newMemStore(), downloader, newFakeClock(), time.Hour, 3, testLogger())

	persisted := persister.Persist(context.Background(), urls, "twin-42/generated", "villa-interior")
	if len(persisted) != 4 {
		t.Fatalf("persisted = %d artifacts, want 4", len(persisted))
	}
	if downloader.calls != 5 {
		t.Fatalf("downloads = %d, want all 5 attempted", downloader.calls)
	}
	for _, artifact := range persisted {
		if artifact.Ordinal == 2 {
			t.Fatalf("failed artifact #3 should be absent, got %#v", artifact)
		}
	}
}

func TestPersistKeepsInputOrder(t *testing.T) {
	urls := artifactURLs(4)
	persister := NewPersister(newMemStore(), &stubDownloader{}, newFakeClock(), time.Hour, 4, testLogger())

	persisted := persister.Persist(context.Background(), urls, "twin-42/generated", "villa")
	if len(persisted) != 4 {
		t.Fatalf("persisted = %d, want 4", len(persisted))
	}
	for i, artifact := range persisted {
		if artifact.Ordinal != i {
			t.Fatalf("ordinal at %d = %d", i, artifact.Ordinal)
		}
	}
}

func TestPersistNamesAreCollisionResistant(t *testing.T) {
	store := newMemStore()
	persister := NewPersister(store, &stubDownloader{}, newFakeClock(), time.Hour, 1, testLogger())

	persisted := persister.Persist(context.Background(), artifactURLs(2), "twin-42/generated", "villa")
	if len(persisted) != 2 {
		t.Fatalf("persisted = %d, want 2", len(persisted))
	}
	if persisted[0].Key == persisted[1].Key {
		t.Fatalf("keys collide: %q", persisted[0].Key)
	}
	for i, artifact := range persisted {
		if !strings.HasPrefix(artifact.Key, "twin-42/generated/villa-") {
			t.Fatalf("key = %q", artifact.Key)
		}
		if !strings.HasSuffix(artifact.Key, fmt.Sprintf("-%02d.png", i+1)) {
			t.Fatalf("key %q missing ordinal suffix", artifact.Key)
		}
		if artifact.URL != "mem://"+artifact.Key {
			t.Fatalf("url = %q", artifact.URL)
		}
	}
}

func TestPersistUploadFailureDoesNotAbortBatch(t *testing.T) {
	urls := artifactURLs(3)
	store := newMemStore()
	// Sabotage the middle upload only; the key depends on the fake clock's
	// fixed timestamp.
	clock := newFakeClock()
	stamp := clock.Now().UTC().Format("20060102T150405")
	store.failUp[fmt.Sprintf("twin-42/generated/villa-%s-02.png", stamp)] = true

	persister := NewPersister(store, &stubDownloader{}, clock, time.Hour, 1, testLogger())
	persisted := persister.Persist(context.Background(), urls, "twin-42/generated", "villa")
	if len(persisted) != 2 {
		t.Fatalf("persisted = %d, want 2", len(persisted))
	}
}

func TestPersistSigningFailureSkipsArtifact(t *testing.T) {
	store := newMemStore()
	store.signErr = true
	persister := NewPersister(store, &stubDownloader{}, newFakeClock(), time.Hour, 2, testLogger())

	if persisted := persister.Persist(context.Background(), artifactURLs(2), "d", "b"); len(persisted) != 0 {
		t.Fatalf("persisted = %d, want 0 when signing fails", len(persisted))
	}
}

func TestPersistEmptyInput(t *testing.T) {
	persister := NewPersister(newMemStore(), &stubDownloader{}, newFakeClock(), time.Hour, 2, testLogger())
	if persisted := persister.Persist(context.Background(), nil, "d", "b"); persisted != nil {
		t.Fatalf("expected nil for empty input, got %#v", persisted)
	}
}
