package livedata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pongchanan/Healthcare-AI/internal/core/domain"
)

func TestGetLiveCachesWithinTTL(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/api/v1/patients/123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":"123","status":"stable"}`))
	}))
	defer server.Close()

	hits := 0
	client := New(server.URL+"/api/v1", time.Second, 10, time.Minute, func(hit bool) {
		if hit {
			hits++
		}
	})

	first, err := client.GetLive(context.Background(), "123")
	if err != nil {
		t.Fatalf("GetLive() error = %v", err)
	}
	second, err := client.GetLive(context.Background(), "123")
	if err != nil {
		t.Fatalf("GetLive() error = %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("cached value differs from original")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 outgoing GET, got %d", calls.Load())
	}
	if hits != 1 {
		t.Fatalf("expected 1 cache hit, got %d", hits)
	}
}

func TestGetLiveExpiredEntryRefetches(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"id":"9"}`))
	}))
	defer server.Close()

	client := New(server.URL, time.Second, 10, 10*time.Millisecond, nil)

	if _, err := client.GetLive(context.Background(), "9"); err != nil {
		t.Fatalf("GetLive() error = %v", err)
	}
	time.Sleep(25 * time.Millisecond)
	if _, err := client.GetLive(context.Background(), "9"); err != nil {
		t.Fatalf("GetLive() error = %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected expired entry to refetch, got %d calls", calls.Load())
	}
}

func TestGetLiveDoesNotCacheFailures(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"id":"7"}`))
	}))
	defer server.Close()

	client := New(server.URL, time.Second, 10, time.Minute, nil)

	if _, err := client.GetLive(context.Background(), "7"); !domain.IsKind(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if _, err := client.GetLive(context.Background(), "7"); err != nil {
		t.Fatalf("expected recovery after failure, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected failure not to be cached, got %d calls", calls.Load())
	}
}

func TestGetLiveInvalidJSONIsUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	defer server.Close()

	client := New(server.URL, time.Second, 10, time.Minute, nil)
	if _, err := client.GetLive(context.Background(), "1"); !domain.IsKind(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}
