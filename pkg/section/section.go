package section

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rfaridh/porto-web/pkg/logging"
)

// Ticket identifies one fetch cycle.
type Ticket uint64

// FetchFunc loads the items of a section.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// View is a consistent snapshot of a section.
type View[T any] struct {
	// Loading is true while the newest cycle has not settled.
	Loading bool
	Items   []T
	// Empty is true when not loading and there is nothing to show.
	Empty bool
	// Fetched is true once any cycle has applied a result.
	Fetched bool
}

// Section is the state of one fetched list.
type Section[T any] struct {
	name   string
	logger zerolog.Logger

	mu      sync.Mutex
	seq     uint64
	items   []T
	loading bool
	fetched bool
	settled bool
	done    chan struct{}
}

// New creates an idle section. name labels its logs and metrics.
func New[T any](name string) *Section[T] {
	done := make(chan struct{})
	close(done)

	return &Section[T]{
		name:    name,
		logger:  logging.NewLogger("section").With().Str("section", name).Logger(),
		settled: true,
		done:    done,
	}
}

// Name returns the section name.
func (s *Section[T]) Name() string {
	return s.name
}

// Begin starts a new cycle and marks the section loading. Any cycle still
// in flight becomes stale.
func (s *Section[T]) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.loading = true
	if s.settled {
		s.settled = false
		s.done = make(chan struct{})
	}
	return Ticket(s.seq)
}

// settle must be called with s.mu held.
func (s *Section[T]) settle() {
	s.loading = false
	if !s.settled {
		s.settled = true
		close(s.done)
	}
}

// Apply replaces the items if t is the newest ticket. onCommit, when set,
// runs under the section lock before the cycle settles. It reports whether
// the result was applied.
func (s *Section[T]) Apply(t Ticket, items []T, onCommit func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if uint64(t) != s.seq {
		fetchCycles.WithLabelValues(s.name, "stale").Inc()
		s.logger.Debug().
			Uint64("seq", uint64(t)).
			Uint64("latest", s.seq).
			Msg("Discarding stale response")
		return false
	}

	s.items = items
	s.fetched = true
	if onCommit != nil {
		onCommit()
	}
	s.settle()

	fetchCycles.WithLabelValues(s.name, "applied").Inc()
	s.logger.Debug().
		Uint64("seq", uint64(t)).
		Int("items", len(items)).
		Msg("Applied fetch cycle")
	return true
}

// Fail records a failed cycle. The items are kept; the loading flag is
// cleared only for the newest ticket.
func (s *Section[T]) Fail(t Ticket, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fetchFailures.WithLabelValues(s.name).Inc()

	latest := uint64(t) == s.seq
	if latest {
		fetchCycles.WithLabelValues(s.name, "failed").Inc()
		s.settle()
	} else {
		fetchCycles.WithLabelValues(s.name, "stale").Inc()
	}

	s.logger.Warn().
		Err(err).
		Uint64("seq", uint64(t)).
		Bool("latest", latest).
		Int("kept_items", len(s.items)).
		Msg("Fetch cycle failed")
}

// Run begins a cycle and fetches in the background.
func (s *Section[T]) Run(ctx context.Context, fetch FetchFunc[T]) Ticket {
	t := s.Begin()

	go func() {
		start := time.Now()
		items, err := fetch(ctx)
		fetchDuration.WithLabelValues(s.name).Observe(time.Since(start).Seconds())

		if err != nil {
			s.Fail(t, err)
			return
		}
		s.Apply(t, items, nil)
	}()

	return t
}

// Wait blocks until the newest cycle settles or ctx ends.
func (s *Section[T]) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns a copy of the current state.
func (s *Section[T]) Snapshot() View[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Section[T]) viewLocked() View[T] {
	items := make([]T, len(s.items))
	copy(items, s.items)

	return View[T]{
		Loading: s.loading,
		Items:   items,
		Empty:   !s.loading && len(items) == 0,
		Fetched: s.fetched,
	}
}
