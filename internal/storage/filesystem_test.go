package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	payload := []byte("image-bytes")
	if err := store.Upload(ctx, "twin-42/designs/out-01.png", payload, "image/png"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	got, err := store.Download(ctx, "twin-42/designs/out-01.png")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("payload mismatch: %q", got)
	}
}

func TestFileStoreDownloadMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := store.Download(context.Background(), "nope/missing.png"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := store.Upload(context.Background(), "../escape.png", []byte("x"), "image/png"); err == nil {
		t.Fatal("expected traversal key to be rejected")
	}
}

func TestFileStoreSignedURL(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "http://localhost:8080/static/")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	u, err := store.SignedURL(context.Background(), "twin-42/out.png", 24*time.Hour)
	if err != nil {
		t.Fatalf("SignedURL: %v", err)
	}
	if !strings.HasPrefix(u, "http://localhost:8080/static/twin-42/out.png?expires=") {
		t.Fatalf("unexpected url: %q", u)
	}
}

func TestJoinKey(t *testing.T) {
	cases := []struct {
		name  string
		parts []string
		want  string
	}{
		{"simple", []string{"twin-42", "uploads", "photo.png"}, "twin-42/uploads/photo.png"},
		{"trailing slashes", []string{"twin-42/", "/uploads/", "photo.png"}, "twin-42/uploads/photo.png"},
		{"empty segments", []string{"", "uploads", ""}, "uploads"},
		{"double slashes inside", []string{"twin-42//uploads", "photo.png"}, "twin-42/uploads/photo.png"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := JoinKey(tc.parts...); got != tc.want {
				t.Fatalf("JoinKey(%v) = %q, want %q", tc.parts, got, tc.want)
			}
		})
	}
}
