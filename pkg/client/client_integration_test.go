//go:build integration

package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rfaridh/porto-web/pkg/cache"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisContainer creates a Redis container for integration testing.
func setupRedisContainer(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := redisContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redisContainer.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestIntegration_FullRequestFlow(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	var requestsMade, conditionalRequests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestsMade.Add(1)
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "59")

		if r.Header.Get("If-None-Match") == `"projects-v1"` {
			conditionalRequests.Add(1)
			w.Header().Set("Cache-Control", "max-age=600")
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("Cache-Control", "max-age=1")
		w.Header().Set("ETag", `"projects-v1"`)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"success":true,"data":{"data":[],"last_page":1}}`))
	}))
	defer server.Close()

	cfg := DefaultConfig(server.URL, "integration-token")
	cfg.Redis = redisClient
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	ctx := context.Background()
	query := url.Values{"page": {"1"}}

	t.Log("Request 1: initial request")
	resp1, err := client.Get(ctx, "/api/projects", query)
	if err != nil {
		t.Fatalf("Request 1 failed: %v", err)
	}
	resp1.Body.Close()

	if requestsMade.Load() != 1 {
		t.Errorf("After request 1: requestsMade = %d, want 1", requestsMade.Load())
	}

	// Let the entry go stale.
	time.Sleep(1200 * time.Millisecond)

	t.Log("Request 2: conditional request")
	resp2, err := client.Get(ctx, "/api/projects", query)
	if err != nil {
		t.Fatalf("Request 2 failed: %v", err)
	}
	resp2.Body.Close()

	if resp2.StatusCode != http.StatusOK {
		t.Errorf("Request 2 status = %d, want 200 from cache", resp2.StatusCode)
	}
	if conditionalRequests.Load() != 1 {
		t.Errorf("conditionalRequests = %d, want 1", conditionalRequests.Load())
	}

	t.Log("Request 3: fresh after revalidation")
	resp3, err := client.Get(ctx, "/api/projects", query)
	if err != nil {
		t.Fatalf("Request 3 failed: %v", err)
	}
	resp3.Body.Close()

	if requestsMade.Load() != 2 {
		t.Errorf("After request 3: requestsMade = %d, want 2", requestsMade.Load())
	}

	serverURL, _ := url.Parse(server.URL)
	cacheKey := cache.CacheKey{
		Host:        serverURL.Host,
		Endpoint:    "/api/projects",
		QueryParams: query,
		Scope:       cache.ScopeForToken("integration-token"),
	}
	cachedEntry, err := client.GetCache().Get(ctx, cacheKey)
	if err != nil {
		t.Fatalf("Cache lookup failed: %v", err)
	}
	if cachedEntry.ETag != `"projects-v1"` {
		t.Errorf("Cached ETag = %q, want %q", cachedEntry.ETag, `"projects-v1"`)
	}
	if cachedEntry.IsExpired() {
		t.Error("Entry should be fresh after revalidation")
	}
}

func TestIntegration_RateLimitSharedState(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := DefaultConfig(server.URL, "")
	cfg.Redis = redisClient
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	ctx := context.Background()

	// Another instance exhausted the window.
	err = redisClient.HSet(ctx, client.RateLimiter().Key(),
		"remaining", 0,
		"limit", 60,
		"reset_at", time.Now().Add(time.Minute).Unix(),
		"last_update", time.Now().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		t.Fatalf("Failed to seed rate limit state: %v", err)
	}

	_, err = client.Get(ctx, "/api/experiences", nil)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("Expected ErrRateLimited, got %v", err)
	}

	state, err := client.RateLimiter().GetState(ctx)
	if err != nil {
		t.Fatalf("Failed to get rate limit state: %v", err)
	}
	if state.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", state.Remaining)
	}
	if !state.NeedsCriticalBlock() {
		t.Error("Expected state to need critical block")
	}
}

func TestIntegration_TooManyRequestsUpdatesState(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", strconv.Itoa(30))
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := DefaultConfig(server.URL, "")
	cfg.Redis = redisClient
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	ctx := context.Background()

	_, err = client.Get(ctx, "/api/experiences", nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.ErrorClass != ErrorClassRateLimit {
		t.Fatalf("Expected rate_limit APIError, got %v", err)
	}

	state, err := client.RateLimiter().GetState(ctx)
	if err != nil {
		t.Fatalf("Failed to get rate limit state: %v", err)
	}
	if state.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0 after Retry-After", state.Remaining)
	}
	if until := state.TimeUntilReset(); until <= 0 || until > 31*time.Second {
		t.Errorf("TimeUntilReset = %v, want within 30s", until)
	}
}

func TestIntegration_CacheExpiration(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "max-age=1")
		w.Header().Set("ETag", `"short-lived"`)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"success":true,"data":[]}`))
	}))
	defer server.Close()

	cfg := DefaultConfig(server.URL, "")
	cfg.Redis = redisClient
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	client.GetCache().SetStaleWindow(time.Second)

	ctx := context.Background()

	resp1, err := client.Get(ctx, "/api/experiences", nil)
	if err != nil {
		t.Fatalf("First request failed: %v", err)
	}
	resp1.Body.Close()

	serverURL, _ := url.Parse(server.URL)
	cacheKey := cache.CacheKey{
		Host:     serverURL.Host,
		Endpoint: "/api/experiences",
		Scope:    cache.ScopeForToken(""),
	}
	entry, err := client.GetCache().Get(ctx, cacheKey)
	if err != nil {
		t.Fatalf("Cache lookup failed: %v", err)
	}
	if entry.IsExpired() {
		t.Error("Entry should not be expired yet")
	}

	// max-age plus the stale window
	time.Sleep(2500 * time.Millisecond)

	if _, err := client.GetCache().Get(ctx, cacheKey); !errors.Is(err, cache.ErrCacheMiss) {
		t.Errorf("Expected cache miss after expiration, got: %v", err)
	}
}
