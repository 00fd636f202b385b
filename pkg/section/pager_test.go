package section

import "testing"

func TestPager_Initial(t *testing.T) {
	p := NewPager()

	want := PagerView{Page: 1, TotalPages: 1}
	if got := p.View(); got != want {
		t.Errorf("View() = %+v, want %+v", got, want)
	}
	if p.CanNext() || p.CanPrev() {
		t.Error("single page should allow neither direction")
	}
}

func TestPager_Guards(t *testing.T) {
	p := NewPager()
	p.SetTotal(3)

	if !p.CanNext() || p.CanPrev() {
		t.Fatalf("page 1 of 3: next enabled, prev disabled expected: %+v", p.View())
	}

	if _, moved := p.Prev(); moved {
		t.Error("Prev() on page 1 should not move")
	}

	for want := 2; want <= 3; want++ {
		page, moved := p.Next()
		if !moved || page != want {
			t.Fatalf("Next() = (%d, %v), want (%d, true)", page, moved, want)
		}
	}

	if page, moved := p.Next(); moved || page != 3 {
		t.Errorf("Next() on last page = (%d, %v), want (3, false)", page, moved)
	}

	v := p.View()
	if v.HasNext || !v.HasPrev {
		t.Errorf("page 3 of 3: %+v", v)
	}

	if page, moved := p.Prev(); !moved || page != 2 {
		t.Errorf("Prev() = (%d, %v), want (2, true)", page, moved)
	}
}

func TestPager_SetTotal(t *testing.T) {
	tests := []struct {
		name      string
		start     int
		total     int
		wantPage  int
		wantTotal int
	}{
		{"grows", 1, 5, 1, 5},
		{"zero becomes one", 1, 0, 1, 1},
		{"negative becomes one", 1, -4, 1, 1},
		{"shrinks below current", 4, 2, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPager()
			p.SetTotal(10)
			for p.Current() < tt.start {
				p.Next()
			}

			p.SetTotal(tt.total)

			v := p.View()
			if v.Page != tt.wantPage || v.TotalPages != tt.wantTotal {
				t.Errorf("View() = %+v, want page %d of %d", v, tt.wantPage, tt.wantTotal)
			}
			if v.Page < 1 || v.Page > v.TotalPages {
				t.Errorf("page %d outside [1, %d]", v.Page, v.TotalPages)
			}
		})
	}
}
