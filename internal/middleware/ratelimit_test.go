package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimitBlocksBurstBeyondLimit(t *testing.T) {
	handler := RateLimit(3, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var got []int
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/transformations", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		got = append(got, rec.Code)
	}

	for i := 0; i < 3; i++ {
		if got[i] != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, got[i])
		}
	}
	for i := 3; i < 5; i++ {
		if got[i] != http.StatusTooManyRequests {
			t.Fatalf("request %d status = %d, want 429", i+1, got[i])
		}
	}
}

func TestRateLimitIsPerClient(t *testing.T) {
	handler := RateLimit(1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRequest(http.MethodPost, "/", nil)
	first.RemoteAddr = "203.0.113.7:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	if rec.Code != http.StatusOK {
		t.Fatalf("first client status = %d", rec.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/", nil)
	second.RemoteAddr = "203.0.113.8:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	if rec.Code != http.StatusOK {
		t.Fatalf("second client should have its own bucket, status = %d", rec.Code)
	}
}

func TestRateLimitEvictsIdleBuckets(t *testing.T) {
	limiters := newIPLimiters(1, time.Millisecond)
	for i := 0; i < 50; i++ {
		limiters.get(fmt.Sprintf("203.0.113.%d", i))
	}
	if limiters.size() != 50 {
		t.Fatalf("buckets = %d, want 50", limiters.size())
	}

	time.Sleep(50 * time.Millisecond)
	limiters.buckets.DeleteExpired()
	if limiters.size() != 0 {
		t.Fatalf("idle buckets remaining = %d, want 0", limiters.size())
	}
}

func TestRateLimitHonorsForwardedFor(t *testing.T) {
	handler := RateLimit(1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("X-Forwarded-For", "198.51.100.9")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d status = %d, want %d", i+1, rec.Code, want)
		}
	}
}
