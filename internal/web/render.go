package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/rfaridh/porto-web/pkg/portfolio"
	"github.com/rfaridh/porto-web/pkg/section"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const (
	themeCookie = "theme"
	themeLight  = "light"
	themeDark   = "dark"
)

func parseTemplates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

func staticFiles() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// FooterData is the footer view model.
type FooterData struct {
	Years      string
	Owner      string
	CreditName string
	CreditURL  string
}

// FooterYears renders the copyright span: the start year alone while it is
// still the current year, "since - current" afterwards.
func FooterYears(since, current int) string {
	if since <= 0 {
		since = current
	}
	if current <= since {
		return strconv.Itoa(since)
	}
	return fmt.Sprintf("%d - %d", since, current)
}

type pageData struct {
	Theme      string
	Refresh    bool
	Experience section.View[portfolio.ExperienceEntry]
	Projects   section.PagedView[portfolio.ProjectEntry]
	Footer     FooterData
}

// themeFrom reads the theme cookie. Anything but "dark" is light.
func themeFrom(r *http.Request) string {
	if c, err := r.Cookie(themeCookie); err == nil && c.Value == themeDark {
		return themeDark
	}
	return themeLight
}

// render executes a template into a buffer first so a failing template
// never produces a half-written response.
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error().Err(err).Str("template", name).Msg("Template execution failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to write response")
	}
}
