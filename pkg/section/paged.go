package section

import (
	"context"
	"time"

	"github.com/rfaridh/porto-web/pkg/pagination"
	"github.com/rfaridh/porto-web/pkg/portfolio"
)

// PagedView is a snapshot of a paged section.
type PagedView[T any] struct {
	View[T]
	Pagination PagerView
}

// Paged is a section whose items come one page at a time.
type Paged[T any] struct {
	list   *Section[T]
	pager  *Pager
	source pagination.PageFetcher[T]
}

// ProjectsSection is the paged project gallery.
type ProjectsSection = Paged[portfolio.ProjectEntry]

// NewPaged creates a paged section at page 1.
func NewPaged[T any](name string, source pagination.PageFetcher[T]) *Paged[T] {
	return &Paged[T]{
		list:   New[T](name),
		pager:  NewPager(),
		source: source,
	}
}

// NewProjectsSection creates the project gallery state.
func NewProjectsSection(source pagination.PageFetcher[portfolio.ProjectEntry]) *ProjectsSection {
	return NewPaged[portfolio.ProjectEntry]("projects", source)
}

// Mount fetches the current page.
func (p *Paged[T]) Mount(ctx context.Context) Ticket {
	return p.fetch(ctx, p.pager.Current())
}

// Next moves to the next page and fetches it. It does nothing on the last
// page.
func (p *Paged[T]) Next(ctx context.Context) bool {
	page, moved := p.pager.Next()
	if moved {
		p.fetch(ctx, page)
	}
	return moved
}

// Prev moves to the previous page and fetches it. It does nothing on the
// first page.
func (p *Paged[T]) Prev(ctx context.Context) bool {
	page, moved := p.pager.Prev()
	if moved {
		p.fetch(ctx, page)
	}
	return moved
}

func (p *Paged[T]) fetch(ctx context.Context, page int) Ticket {
	t := p.list.Begin()

	go func() {
		start := time.Now()
		items, total, err := p.source.FetchPage(ctx, page)
		fetchDuration.WithLabelValues(p.list.name).Observe(time.Since(start).Seconds())

		if err != nil {
			p.list.Fail(t, err)
			return
		}
		p.list.Apply(t, items, func() { p.pager.SetTotal(total) })
	}()

	return t
}

// Wait blocks until the newest cycle settles or ctx ends.
func (p *Paged[T]) Wait(ctx context.Context) error {
	return p.list.Wait(ctx)
}

// Snapshot returns the items and pagination state together.
func (p *Paged[T]) Snapshot() PagedView[T] {
	p.list.mu.Lock()
	defer p.list.mu.Unlock()

	return PagedView[T]{
		View:       p.list.viewLocked(),
		Pagination: p.pager.View(),
	}
}
