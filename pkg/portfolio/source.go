package portfolio

import (
	"context"
	"net/url"
	"strconv"

	"github.com/rfaridh/porto-web/pkg/client"
)

const (
	ExperiencesEndpoint = "/api/v1/experiences"
	ProjectsEndpoint    = "/api/v1/portos"
)

// Options controls the field projections.
type Options struct {
	Locale       Locale
	TagDelimiter string
	ImageBase    string
}

// ExperienceSource fetches and maps the experience timeline.
type ExperienceSource struct {
	client *client.Client
	opts   Options
}

// NewExperienceSource creates an ExperienceSource.
func NewExperienceSource(c *client.Client, opts Options) *ExperienceSource {
	return &ExperienceSource{client: c, opts: opts}
}

// Fetch returns every experience entry.
func (s *ExperienceSource) Fetch(ctx context.Context) ([]ExperienceEntry, error) {
	raw, err := client.GetJSON[[]RawExperience](ctx, s.client, ExperiencesEndpoint, nil)
	if err != nil {
		return nil, err
	}
	return MapExperiences(raw, s.opts.Locale), nil
}

// MapExperiences projects raw experiences into timeline entries.
func MapExperiences(raw []RawExperience, locale Locale) []ExperienceEntry {
	out := make([]ExperienceEntry, 0, len(raw))
	for _, r := range raw {
		out = append(out, ExperienceEntry{
			Title:       r.Title,
			Location:    r.Location,
			Description: r.Description,
			Date:        DateRange(r.StartDate, r.EndDate, locale),
		})
	}
	return out
}

// ProjectSource fetches and maps pages of projects.
type ProjectSource struct {
	client *client.Client
	paged  bool
	opts   Options
}

// NewProjectSource creates a ProjectSource. With paged false the page
// parameter is not sent and every response counts as a single page.
func NewProjectSource(c *client.Client, paged bool, opts Options) *ProjectSource {
	return &ProjectSource{client: c, paged: paged, opts: opts}
}

// Paged reports whether the source sends the page parameter.
func (s *ProjectSource) Paged() bool {
	return s.paged
}

// FetchPage returns the projects on page and the total page count.
func (s *ProjectSource) FetchPage(ctx context.Context, page int) ([]ProjectEntry, int, error) {
	var query url.Values
	if s.paged {
		query = url.Values{"page": {strconv.Itoa(page)}}
	}

	raw, err := client.GetJSON[ProjectPage](ctx, s.client, ProjectsEndpoint, query)
	if err != nil {
		return nil, 0, err
	}

	total := raw.LastPage
	if total < 1 || !s.paged {
		total = 1
	}
	return MapProjects(raw.Data, s.opts), total, nil
}

// MapProjects projects raw projects into cards.
func MapProjects(raw []RawProject, opts Options) []ProjectEntry {
	out := make([]ProjectEntry, 0, len(raw))
	for _, r := range raw {
		out = append(out, ProjectEntry{
			Title:       r.Title,
			Description: r.Description,
			Tags:        SplitTags(r.Tags, opts.TagDelimiter),
			ImageURL:    ImageURL(opts.ImageBase, r.Image),
			WebURL:      r.URL,
		})
	}
	return out
}
