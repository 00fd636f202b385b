package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rfaridh/porto-web/pkg/pagination"
)

// handleIndex renders the full page. A visitor's first request mounts the
// sections; the render then waits a bounded time for their fetch cycles.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.sessions.GetOrCreate(w, r)

	settled := s.waitSettled(r.Context(), sess)

	s.render(w, "page", pageData{
		Theme:      themeFrom(r),
		Refresh:    !settled,
		Experience: sess.Experience.Snapshot(),
		Projects:   sess.Projects.Snapshot(),
		Footer:     s.footer(),
	})
}

// waitSettled reports whether both sections settled within RenderTimeout.
func (s *Server) waitSettled(ctx context.Context, sess *Session) bool {
	ctx, cancel := context.WithTimeout(ctx, s.opts.RenderTimeout)
	defer cancel()

	if err := sess.Experience.Wait(ctx); err != nil {
		return false
	}
	return sess.Projects.Wait(ctx) == nil
}

// existingSession returns the visitor's live session. Without one it
// redirects to the full page, which is the only route that creates
// sessions and starts fetches.
func (s *Server) existingSession(w http.ResponseWriter, r *http.Request, anchor string) (*Session, bool) {
	sess, ok := s.sessions.Lookup(r)
	if !ok {
		s.logger.Debug().Str("path", r.URL.Path).Msg("No session, redirecting to page")
		http.Redirect(w, r, "/#"+anchor, http.StatusSeeOther)
	}
	return sess, ok
}

// handlePage moves the project pager and refetches. The redirect anchors the
// browser back on the projects section.
func (s *Server) handlePage(next bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.existingSession(w, r, "projects")
		if !ok {
			return
		}

		var moved bool
		if next {
			moved = sess.Projects.Next(s.fetchCtx)
		} else {
			moved = sess.Projects.Prev(s.fetchCtx)
		}

		s.logger.Debug().
			Str("session", sess.ID).
			Bool("next", next).
			Bool("moved", moved).
			Int("page", sess.Projects.Snapshot().Pagination.Page).
			Msg("Project page change")

		http.Redirect(w, r, "/#projects", http.StatusSeeOther)
	}
}

func (s *Server) handleExperienceFragment(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.existingSession(w, r, "experience")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RenderTimeout)
	defer cancel()
	_ = sess.Experience.Wait(ctx)

	s.render(w, "experience", sess.Experience.Snapshot())
}

func (s *Server) handleProjectsFragment(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.existingSession(w, r, "projects")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RenderTimeout)
	defer cancel()
	_ = sess.Projects.Wait(ctx)

	s.render(w, "projects", sess.Projects.Snapshot())
}

// handleAllProjects returns every project across all pages as JSON.
func (s *Server) handleAllProjects(w http.ResponseWriter, r *http.Request) {
	pages, err := s.batch.FetchAllPages(r.Context())
	if err != nil {
		s.logger.Warn().Err(err).Int("pages", len(pages)).Msg("Project listing failed")
		respondError(w, http.StatusBadGateway, "content api unavailable")
		return
	}

	respondJSON(w, http.StatusOK, pagination.Flatten(pages))
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	theme := themeDark
	if themeFrom(r) == themeDark {
		theme = themeLight
	}

	http.SetCookie(w, &http.Cookie{
		Name:     themeCookie,
		Value:    theme,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleReady checks Redis when it is configured.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.deps.Redis.Ping(ctx).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("Readiness check failed")
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"redis":  err.Error(),
			})
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError writes an error JSON response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
