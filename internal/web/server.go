// Package web serves the portfolio site: the full page, per-section HTML
// fragments, the project pager and the operational endpoints.
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/rfaridh/porto-web/pkg/logging"
	"github.com/rfaridh/porto-web/pkg/metrics"
	"github.com/rfaridh/porto-web/pkg/pagination"
	"github.com/rfaridh/porto-web/pkg/portfolio"
	"github.com/rfaridh/porto-web/pkg/section"
)

// Options tunes the server.
type Options struct {
	// RenderTimeout bounds how long a page render waits for fetch cycles.
	RenderTimeout time.Duration
	SessionTTL    time.Duration
	Footer        FooterOptions
	// MaxConcurrency bounds the batch fetch of all project pages.
	MaxConcurrency int
	// MaxPages caps the page count a listing may report.
	MaxPages int
	// Now defaults to time.Now.
	Now func() time.Time
}

// FooterOptions holds the static footer text.
type FooterOptions struct {
	Owner      string
	SinceYear  int
	CreditName string
	CreditURL  string
}

// Deps are the collaborators the server fetches through.
type Deps struct {
	Experiences *portfolio.ExperienceSource
	Projects    *portfolio.ProjectSource
	// Redis is optional; it only backs the readiness check here.
	Redis *redis.Client
}

// Server is the portfolio site.
type Server struct {
	opts     Options
	deps     Deps
	tmpl     *template.Template
	sessions *SessionStore
	batch    *pagination.BatchFetcher[portfolio.ProjectEntry]
	logger   zerolog.Logger

	// fetchCtx outlives requests; fetch cycles are bound to it.
	fetchCtx context.Context
}

// New creates a server. Start must be called to bind fetches to a lifetime.
func New(deps Deps, opts Options) (*Server, error) {
	if deps.Experiences == nil || deps.Projects == nil {
		return nil, errors.New("experience and project sources are required")
	}
	if opts.RenderTimeout <= 0 {
		opts.RenderTimeout = 2 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	batchCfg := pagination.DefaultConfig()
	if opts.MaxConcurrency > 0 {
		batchCfg.MaxConcurrency = opts.MaxConcurrency
	}
	if opts.MaxPages > 0 {
		batchCfg.MaxPages = opts.MaxPages
	}

	s := &Server{
		opts:     opts,
		deps:     deps,
		tmpl:     tmpl,
		batch:    pagination.NewBatchFetcher[portfolio.ProjectEntry](deps.Projects, batchCfg),
		logger:   logging.NewLogger("web"),
		fetchCtx: context.Background(),
	}
	s.sessions = NewSessionStore(opts.SessionTTL, s.newSession, s.logger)

	return s, nil
}

// Start binds fetch cycles to ctx and runs the session janitor until ctx
// ends.
func (s *Server) Start(ctx context.Context) {
	s.fetchCtx = ctx
	go s.sessions.RunJanitor(ctx, time.Minute)
}

// Sessions exposes the session store.
func (s *Server) Sessions() *SessionStore {
	return s.sessions
}

// newSession builds the sections of a new visitor and mounts them.
func (s *Server) newSession(id string) *Session {
	sess := &Session{
		ID:         id,
		Experience: section.New[portfolio.ExperienceEntry]("experience"),
		Projects:   section.NewProjectsSection(s.deps.Projects),
	}

	sess.Experience.Run(s.fetchCtx, s.deps.Experiences.Fetch)
	sess.Projects.Mount(s.fetchCtx)

	return sess
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Post("/theme", s.handleTheme)

	r.Route("/projects", func(r chi.Router) {
		r.Post("/next", s.handlePage(true))
		r.Post("/prev", s.handlePage(false))
	})

	r.Route("/sections", func(r chi.Router) {
		r.Get("/experience", s.handleExperienceFragment)
		r.Get("/projects", s.handleProjectsFragment)
	})

	r.Get("/api/projects", s.handleAllProjects)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", metrics.Handler())

	r.Handle("/static/*", http.StripPrefix("/static", http.FileServer(staticFiles())))

	return r
}

// Warm fetches every project page once, filling the response cache.
func (s *Server) Warm(ctx context.Context) error {
	pages, err := s.batch.FetchAllPages(ctx)
	if err != nil {
		return fmt.Errorf("warm projects: %w", err)
	}

	if _, err := s.deps.Experiences.Fetch(ctx); err != nil {
		return fmt.Errorf("warm experiences: %w", err)
	}

	s.logger.Info().
		Int("pages", len(pages)).
		Int("projects", len(pagination.Flatten(pages))).
		Msg("Cache warm-up complete")
	return nil
}

func (s *Server) footer() FooterData {
	f := s.opts.Footer
	return FooterData{
		Years:      FooterYears(f.SinceYear, s.opts.Now().Year()),
		Owner:      f.Owner,
		CreditName: f.CreditName,
		CreditURL:  f.CreditURL,
	}
}
