package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	remainingGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "porto_rate_limit_remaining",
		Help: "Requests remaining in the current content API throttle window",
	}, []string{"host"})

	blocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "porto_rate_limit_blocks_total",
		Help: "Requests blocked because the content API window is exhausted",
	}, []string{"host"})

	throttlesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "porto_rate_limit_throttles_total",
		Help: "Requests delayed because the content API window is nearly exhausted",
	}, []string{"host"})

	stateErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "porto_rate_limit_state_errors_total",
		Help: "Rate limit state reads that failed and let the request through",
	}, []string{"host"})
)

// DefaultThrottleDelay is how long a request waits in the warning state.
const DefaultThrottleDelay = 1 * time.Second

// Tracker holds the throttle state for one upstream host. With a Redis
// client the state is shared by every server instance; without one it is
// kept in process.
type Tracker struct {
	redis         *redis.Client
	host          string
	logger        zerolog.Logger
	throttleDelay time.Duration

	mu    sync.Mutex
	local *RateLimitState
}

// NewTracker creates a tracker for host. redisClient may be nil.
func NewTracker(redisClient *redis.Client, host string, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:         redisClient,
		host:          host,
		logger:        logger.With().Str("host", host).Logger(),
		throttleDelay: DefaultThrottleDelay,
	}
}

// SetThrottleDelay overrides the warning-state delay.
func (t *Tracker) SetThrottleDelay(d time.Duration) {
	t.throttleDelay = d
}

// Key is the Redis hash holding this host's state.
func (t *Tracker) Key() string {
	return "porto:rate_limit:" + t.host
}

// GetState returns the current state, or a healthy default when nothing has
// been recorded yet.
func (t *Tracker) GetState(ctx context.Context) (*RateLimitState, error) {
	if t.redis == nil {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.local == nil {
			return healthyState(), nil
		}
		s := *t.local
		s.UpdateHealth()
		return &s, nil
	}

	fields, err := t.redis.HGetAll(ctx, t.Key()).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read %s from redis: %w", t.Key(), err)
	}
	if len(fields) == 0 {
		t.logger.Debug().Msg("No rate limit state recorded, assuming healthy")
		return healthyState(), nil
	}

	state := &RateLimitState{}
	if state.Remaining, err = strconv.Atoi(fields["remaining"]); err != nil {
		return nil, fmt.Errorf("parse remaining: %w", err)
	}
	if v := fields["limit"]; v != "" {
		if state.Limit, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("parse limit: %w", err)
		}
	}
	resetUnix, err := strconv.ParseInt(fields["reset_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse reset_at: %w", err)
	}
	state.ResetAt = time.Unix(resetUnix, 0)
	if v := fields["last_update"]; v != "" {
		if state.LastUpdate, err = time.Parse(time.RFC3339Nano, v); err != nil {
			return nil, fmt.Errorf("parse last_update: %w", err)
		}
	}
	state.UpdateHealth()

	return state, nil
}

// UpdateFromHeaders records the throttle headers of a response. Responses
// without such headers are ignored.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	state, ok, err := ParseHeaders(headers, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if err := t.store(ctx, state); err != nil {
		return err
	}

	remainingGauge.WithLabelValues(t.host).Set(float64(state.Remaining))

	switch {
	case state.NeedsCriticalBlock():
		t.logger.Error().
			Int("remaining", state.Remaining).
			Time("reset_at", state.ResetAt).
			Msg("Content API rate limit exhausted - requests will be blocked")
	case state.NeedsThrottling():
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Time("reset_at", state.ResetAt).
			Msg("Content API rate limit low - requests will be throttled")
	default:
		t.logger.Debug().
			Int("remaining", state.Remaining).
			Int("limit", state.Limit).
			Msg("Content API rate limit state updated")
	}

	return nil
}

func (t *Tracker) store(ctx context.Context, state *RateLimitState) error {
	if t.redis == nil {
		t.mu.Lock()
		t.local = state
		t.mu.Unlock()
		return nil
	}

	pipe := t.redis.TxPipeline()
	pipe.HSet(ctx, t.Key(),
		"remaining", state.Remaining,
		"limit", state.Limit,
		"reset_at", state.ResetAt.Unix(),
		"last_update", state.LastUpdate.Format(time.RFC3339Nano),
	)
	// Keep the hash a little past reset; afterwards the default applies.
	pipe.Expire(ctx, t.Key(), state.TimeUntilReset()+DefaultWindow)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store rate limit state in redis: %w", err)
	}
	return nil
}

// ShouldAllowRequest reports whether a request may be sent now. In the
// warning state it first waits for the throttle delay, returning ctx.Err()
// if the context ends meanwhile. An unreadable state lets the request
// through; the upstream still enforces its own limit.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		stateErrorsTotal.WithLabelValues(t.host).Inc()
		t.logger.Warn().Err(err).Msg("Rate limit state unavailable - allowing request")
		return true, nil
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("remaining", state.Remaining).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("Content API rate limit exhausted - blocking request")
		blocksTotal.WithLabelValues(t.host).Inc()
		return false, nil
	}

	if state.NeedsThrottling() {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Msg("Content API rate limit low - throttling request")
		throttlesTotal.WithLabelValues(t.host).Inc()

		timer := time.NewTimer(t.throttleDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
		}
	}

	return true, nil
}
