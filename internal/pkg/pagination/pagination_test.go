package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func pageRange(start, end int) []int {
	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages
}

func TestComputeWindow(t *testing.T) {
	tests := []struct {
		name             string
		currentPage      int
		totalPages       int
		maxVisible       int
		wantPages        []int
		wantLeading      bool
		wantTrailing     bool
	}{
		{
			name:        "fewer pages than window shows all",
			currentPage: 1, totalPages: 3, maxVisible: 20,
			wantPages: []int{1, 2, 3},
		},
		{
			name:        "exactly window size shows all",
			currentPage: 10, totalPages: 20, maxVisible: 20,
			wantPages: pageRange(1, 20),
		},
		{
			name:        "single page",
			currentPage: 1, totalPages: 1, maxVisible: 5,
			wantPages: []int{1},
		},
		{
			name:        "pinned to start",
			currentPage: 1, totalPages: 100, maxVisible: 20,
			wantPages:    pageRange(1, 20),
			wantTrailing: true,
		},
		{
			name:        "near start stays pinned",
			currentPage: 5, totalPages: 100, maxVisible: 20,
			wantPages:    pageRange(1, 20),
			wantTrailing: true,
		},
		{
			name:        "pinned to end",
			currentPage: 100, totalPages: 100, maxVisible: 20,
			wantPages:   pageRange(81, 100),
			wantLeading: true,
		},
		{
			name:        "near end stays pinned",
			currentPage: 95, totalPages: 100, maxVisible: 20,
			wantPages:   pageRange(81, 100),
			wantLeading: true,
		},
		{
			name:        "centered in the middle",
			currentPage: 50, totalPages: 100, maxVisible: 20,
			wantPages:    pageRange(40, 60),
			wantLeading:  true,
			wantTrailing: true,
		},
		{
			name:        "odd window centers exactly",
			currentPage: 7, totalPages: 30, maxVisible: 5,
			wantPages:    pageRange(5, 9),
			wantLeading:  true,
			wantTrailing: true,
		},
		{
			name:        "window ending adjacent to last page needs no trailing ellipsis",
			currentPage: 27, totalPages: 30, maxVisible: 5,
			wantPages:   pageRange(25, 29),
			wantLeading: true,
		},
		{
			name:        "window starting at page 2 needs no leading ellipsis",
			currentPage: 4, totalPages: 30, maxVisible: 5,
			wantPages:    pageRange(2, 6),
			wantTrailing: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeWindow(tt.currentPage, tt.totalPages, tt.maxVisible)
			assert.Equal(t, tt.wantPages, got.Pages)
			assert.Equal(t, tt.wantLeading, got.ShowLeadingEllipsis, "leading ellipsis")
			assert.Equal(t, tt.wantTrailing, got.ShowTrailingEllipsis, "trailing ellipsis")
		})
	}
}

func TestComputeWindowCurrentPageAlwaysIncluded(t *testing.T) {
	for current := 1; current <= 100; current++ {
		got := ComputeWindow(current, 100, 20)
		assert.Contains(t, got.Pages, current, "page %d missing from its own window", current)
		assert.LessOrEqual(t, len(got.Pages), 21)
	}
}

func TestGetMeta(t *testing.T) {
	t.Run("window omitted for a single page", func(t *testing.T) {
		meta := GetMeta(&Params{Page: 1, Limit: 20}, 15)
		assert.Equal(t, 1, meta.TotalPages)
		assert.Nil(t, meta.Window)
		assert.False(t, meta.HasNext)
		assert.False(t, meta.HasPrev)
	})

	t.Run("window present with multiple pages", func(t *testing.T) {
		meta := GetMeta(&Params{Page: 2, Limit: 10}, 95)
		assert.Equal(t, 10, meta.TotalPages)
		assert.NotNil(t, meta.Window)
		assert.Contains(t, meta.Window.Pages, 2)
		assert.True(t, meta.HasNext)
		assert.True(t, meta.HasPrev)
	})

	t.Run("page beyond the end is clamped for the window", func(t *testing.T) {
		meta := GetMeta(&Params{Page: 50, Limit: 10}, 95)
		assert.Equal(t, 10, meta.TotalPages)
		assert.NotNil(t, meta.Window)
		assert.Contains(t, meta.Window.Pages, 10)
	})

	t.Run("partial last page rounds up", func(t *testing.T) {
		meta := GetMeta(&Params{Page: 1, Limit: 20}, 41)
		assert.Equal(t, 3, meta.TotalPages)
	})
}
