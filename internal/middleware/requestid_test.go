package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func requestIDFor(t *testing.T, incoming string) string {
	t.Helper()
	var got string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if incoming != "" {
		req.Header.Set("X-Request-ID", incoming)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if header := rec.Header().Get("X-Request-ID"); header != got {
		t.Fatalf("header id %q != context id %q", header, got)
	}
	return got
}

func TestRequestIDPropagatesClientValue(t *testing.T) {
	if got := requestIDFor(t, "req-abc-123"); got != "req-abc-123" {
		t.Fatalf("id = %q, want client value", got)
	}
}

func TestRequestIDGeneratesWhenAbsent(t *testing.T) {
	if got := requestIDFor(t, ""); got == "" {
		t.Fatal("expected a generated id")
	}
}

func TestRequestIDReplacesOversizedValue(t *testing.T) {
	oversized := strings.Repeat("x", maxRequestIDLen+1)
	got := requestIDFor(t, oversized)
	if got == oversized || got == "" {
		t.Fatalf("oversized client id must be replaced, got %q", got)
	}
}
