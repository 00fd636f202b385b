package section

import "sync"

// PagerView is the pagination state handed to templates.
type PagerView struct {
	Page       int
	TotalPages int
	HasPrev    bool
	HasNext    bool
}

// Pager tracks the current page of a paged list. The page is always within
// [1, total]; there is no wraparound and no direct jump.
type Pager struct {
	mu      sync.Mutex
	current int
	total   int
}

// NewPager starts at page 1 of 1.
func NewPager() *Pager {
	return &Pager{current: 1, total: 1}
}

func (p *Pager) CanNext() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current < p.total
}

func (p *Pager) CanPrev() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current > 1
}

// Next advances one page if possible and reports whether it moved.
func (p *Pager) Next() (page int, moved bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current >= p.total {
		return p.current, false
	}
	p.current++
	return p.current, true
}

// Prev goes back one page if possible and reports whether it moved.
func (p *Pager) Prev() (page int, moved bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current <= 1 {
		return p.current, false
	}
	p.current--
	return p.current, true
}

// Current returns the current page.
func (p *Pager) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// SetTotal updates the page count, clamping the current page into range.
func (p *Pager) SetTotal(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n < 1 {
		n = 1
	}
	p.total = n
	if p.current > n {
		p.current = n
	}
}

// View returns the pagination view model.
func (p *Pager) View() PagerView {
	p.mu.Lock()
	defer p.mu.Unlock()

	return PagerView{
		Page:       p.current,
		TotalPages: p.total,
		HasPrev:    p.current > 1,
		HasNext:    p.current < p.total,
	}
}
