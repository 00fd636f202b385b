// Package client is the HTTP client for the portfolio content API. It adds
// the headers the API requires, gates requests on the API's throttle
// headers, caches responses in Redis and classifies failures.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rfaridh/porto-web/pkg/cache"
	"github.com/rfaridh/porto-web/pkg/ratelimit"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "porto_api_requests_total",
		Help: "Total content API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "porto_api_request_duration_seconds",
		Help:    "Content API request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "porto_api_errors_total",
		Help: "Total content API errors by class",
	}, []string{"class"})
)

// Client talks to one content API host.
type Client struct {
	httpClient  *http.Client
	base        *url.URL
	cache       *cache.Manager
	rateLimiter *ratelimit.Tracker
	scope       string
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API origin, e.g. "https://showporto.rfaridh.my.id".
	BaseURL string

	// Token is sent as a bearer token. Empty sends no Authorization header.
	Token string

	// Redis enables response caching and shared rate limit state. Optional.
	Redis *redis.Client

	UserAgent string

	// Timeout bounds each HTTP attempt.
	Timeout time.Duration

	// MaxAttempts includes the first request; 1 disables retries.
	MaxAttempts int

	// InitialBackoff overrides the per-class initial retry backoff.
	InitialBackoff time.Duration
}

// DefaultConfig returns a single-attempt configuration with a 15s timeout.
func DefaultConfig(baseURL, token string) Config {
	return Config{
		BaseURL:     baseURL,
		Token:       token,
		UserAgent:   "porto-web/1.0",
		Timeout:     15 * time.Second,
		MaxAttempts: 1,
	}
}

// New creates a content API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
	}

	if cfg.MaxAttempts < 1 {
		return nil, fmt.Errorf("max_attempts must be >= 1 (got %d)", cfg.MaxAttempts)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	logger := log.With().
		Str("component", "content-client").
		Str("host", base.Host).
		Logger()

	c := &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		base:        base,
		rateLimiter: ratelimit.NewTracker(cfg.Redis, base.Host, logger),
		scope:       cache.ScopeForToken(cfg.Token),
		config:      cfg,
		logger:      logger,
	}
	if cfg.Redis != nil {
		c.cache = cache.NewManager(cfg.Redis)
	}

	return c, nil
}

// BaseURL returns the origin this client talks to.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Do performs a request with rate limiting, caching, retries and the
// required headers. A non-2xx response that is not retried is returned as
// is; the caller owns the body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := req.URL.Path

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	cacheKey := c.cacheKey(req.URL)

	var cachedEntry *cache.CacheEntry
	if c.cache != nil {
		var err error
		cachedEntry, err = c.cache.Get(ctx, cacheKey)
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
	}

	if cachedEntry != nil && !cachedEntry.IsExpired() {
		c.logger.Debug().Str("endpoint", endpoint).Dur("age", cachedEntry.Age()).Msg("Serving fresh cache entry")
		cache.CacheHits.WithLabelValues("fresh").Inc()
		requestsTotal.WithLabelValues(endpoint, "cache").Inc()
		return cache.EntryToResponse(cachedEntry), nil
	}

	allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
	if err != nil {
		return nil, fmt.Errorf("rate limit check: %w", err)
	}
	if !allowed {
		requestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
		return nil, ErrRateLimited
	}

	if cachedEntry != nil && cache.ShouldMakeConditionalRequest(cachedEntry) {
		cache.AddConditionalHeaders(req, cachedEntry)
		cache.ConditionalRequestsSent.Inc()
		c.logger.Debug().
			Str("endpoint", endpoint).
			Str("etag", cachedEntry.ETag).
			Msg("Making conditional request")
	}

	c.setHeaders(req)

	var (
		resp     *http.Response
		errClass ErrorClass
	)

	retryErr := retryWithBackoff(ctx, retryPolicy{
		maxAttempts:    c.config.MaxAttempts,
		initialBackoff: c.config.InitialBackoff,
	}, func() error {
		var reqErr error
		resp, reqErr = c.httpClient.Do(req)
		if reqErr != nil {
			errClass = classifyError(nil, reqErr)
			errorsTotal.WithLabelValues(string(errClass)).Inc()
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			c.logger.Warn().Err(reqErr).Str("endpoint", endpoint).Msg("HTTP request failed")
			return &APIError{ErrorClass: errClass, Message: "transport failure", Err: reqErr}
		}

		if err := c.rateLimiter.UpdateFromHeaders(ctx, resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
		}

		if resp.StatusCode == http.StatusNotModified {
			return nil
		}

		if resp.StatusCode >= 400 {
			errClass = classifyError(resp, nil)
			errorsTotal.WithLabelValues(string(errClass)).Inc()
			requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("Content API request error")

			if shouldRetry(errClass) {
				resp.Body.Close()
				return &APIError{
					StatusCode: resp.StatusCode,
					ErrorClass: errClass,
					Message:    resp.Status,
				}
			}
			// Not retried: the caller inspects the status.
			return nil
		}

		requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
		return nil
	}, func(error) ErrorClass {
		return errClass
	})

	if retryErr != nil {
		return nil, retryErr
	}

	if resp.StatusCode == http.StatusNotModified {
		resp.Body.Close()
		requestsTotal.WithLabelValues(endpoint, "304").Inc()
		cache.NotModifiedResponses.Inc()

		if cachedEntry == nil {
			// A 304 without a cached body cannot be served.
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				ErrorClass: ErrorClassClient,
				Message:    "not modified without cached entry",
			}
		}

		c.logger.Debug().Str("endpoint", endpoint).Msg("304 Not Modified - using cache")
		cache.CacheHits.WithLabelValues("revalidated").Inc()
		if err := c.cache.UpdateTTL(ctx, cacheKey, cache.ParseExpires(resp.Header)); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update cache TTL")
		}
		return cache.EntryToResponse(cachedEntry), nil
	}

	if c.cache != nil && resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(resp)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if entry.TTL() > 0 {
			if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to cache response")
			} else {
				c.logger.Debug().
					Str("endpoint", endpoint).
					Dur("ttl", entry.TTL()).
					Msg("Cached response")
			}
		}
	}

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
}

// classifyError categorizes a failed attempt.
func classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ErrorClassClient
	case resp.StatusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

func (c *Client) cacheKey(u *url.URL) cache.CacheKey {
	return cache.CacheKey{
		Host:        u.Host,
		Endpoint:    u.Path,
		QueryParams: u.Query(),
		Scope:       c.scope,
	}
}

func (c *Client) endpointURL(endpoint string, query url.Values) *url.URL {
	u := c.base.JoinPath(endpoint)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u
}

// Evict drops the cached response for endpoint and query, if any. A 200
// whose body turns out to be a failure must not be served again.
func (c *Client) Evict(ctx context.Context, endpoint string, query url.Values) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Delete(ctx, c.cacheKey(c.endpointURL(endpoint, query))); err != nil {
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Failed to evict cache entry")
		return
	}
	c.logger.Debug().Str("endpoint", endpoint).Msg("Evicted cache entry")
}

// Get performs a GET against endpoint (a path relative to the base URL).
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) (*http.Response, error) {
	u := c.endpointURL(endpoint, query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.Do(req)
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient replaces the underlying HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// GetCache returns the cache manager, nil without Redis.
func (c *Client) GetCache() *cache.Manager {
	return c.cache
}

// RateLimiter returns the throttle tracker.
func (c *Client) RateLimiter() *ratelimit.Tracker {
	return c.rateLimiter
}
