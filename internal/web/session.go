package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/rfaridh/porto-web/pkg/portfolio"
	"github.com/rfaridh/porto-web/pkg/section"
)

const sessionCookie = "porto_session"

var (
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "porto_sessions_active",
		Help: "Number of live visitor sessions",
	})

	sessionsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "porto_sessions_evicted_total",
		Help: "Total visitor sessions evicted after going idle",
	})
)

// Session is the section state of one visitor.
type Session struct {
	ID         string
	Experience *section.Section[portfolio.ExperienceEntry]
	Projects   *section.ProjectsSection

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// SessionStore keeps sessions in memory keyed by cookie id.
type SessionStore struct {
	ttl    time.Duration
	now    func() time.Time
	create func(id string) *Session
	logger zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionStore creates a store. create builds and mounts a new session.
func NewSessionStore(ttl time.Duration, create func(id string) *Session, logger zerolog.Logger) *SessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionStore{
		ttl:      ttl,
		now:      time.Now,
		create:   create,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Lookup returns the session named by the request cookie, if live.
func (st *SessionStore) Lookup(r *http.Request) (*Session, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, false
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return nil, false
	}

	st.mu.Lock()
	sess, ok := st.sessions[c.Value]
	st.mu.Unlock()

	if ok {
		sess.touch(st.now())
	}
	return sess, ok
}

// GetOrCreate returns the visitor's session, creating and mounting one and
// setting the cookie on first visit.
func (st *SessionStore) GetOrCreate(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	if sess, ok := st.Lookup(r); ok {
		return sess, false
	}

	id := uuid.NewString()
	sess := st.create(id)
	sess.ID = id
	sess.touch(st.now())

	st.mu.Lock()
	st.sessions[id] = sess
	n := len(st.sessions)
	st.mu.Unlock()

	activeSessions.Set(float64(n))

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(st.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	st.logger.Debug().Str("session", id).Msg("Session created")
	return sess, true
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Evict removes sessions idle for longer than the TTL.
func (st *SessionStore) Evict() int {
	now := st.now()

	st.mu.Lock()
	evicted := 0
	for id, sess := range st.sessions {
		if sess.idleSince(now) > st.ttl {
			delete(st.sessions, id)
			evicted++
		}
	}
	n := len(st.sessions)
	st.mu.Unlock()

	if evicted > 0 {
		activeSessions.Set(float64(n))
		sessionsEvicted.Add(float64(evicted))
		st.logger.Debug().Int("evicted", evicted).Int("remaining", n).Msg("Evicted idle sessions")
	}
	return evicted
}

// RunJanitor evicts idle sessions every interval until ctx ends.
func (st *SessionStore) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Evict()
		}
	}
}
