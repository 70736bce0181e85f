package pagination

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Params represents pagination parameters
type Params struct {
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"-"`
}

// Meta represents pagination metadata
type Meta struct {
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	Total      int64   `json:"total"`
	TotalPages int     `json:"total_pages"`
	HasNext    bool    `json:"has_next"`
	HasPrev    bool    `json:"has_prev"`
	Window     *Window `json:"window,omitempty"`
}

// DefaultLimit is the default number of items per page
const DefaultLimit = 20

// MaxLimit is the maximum number of items per page
const MaxLimit = 100

// DefaultWindowSize is the default number of page buttons rendered at once
const DefaultWindowSize = 5

// GetParams extracts pagination parameters from request
func GetParams(c *fiber.Ctx) *Params {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(DefaultLimit)))

	// Validate page
	if page < 1 {
		page = 1
	}

	// Validate limit
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset := (page - 1) * limit

	return &Params{
		Page:   page,
		Limit:  limit,
		Offset: offset,
	}
}

// GetMeta calculates pagination metadata
func GetMeta(params *Params, total int64) *Meta {
	totalPages := int(total) / params.Limit
	if int(total)%params.Limit > 0 {
		totalPages++
	}

	meta := &Meta{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1,
	}

	// Only render a page window when there is something to page through
	if totalPages > 1 {
		page := params.Page
		if page > totalPages {
			page = totalPages
		}
		window := ComputeWindow(page, totalPages, DefaultWindowSize)
		meta.Window = &window
	}

	return meta
}

// Window represents the bounded, centered set of page numbers to render
type Window struct {
	Pages                []int `json:"pages"`
	ShowLeadingEllipsis  bool  `json:"show_leading_ellipsis"`
	ShowTrailingEllipsis bool  `json:"show_trailing_ellipsis"`
}

// ComputeWindow computes the visible page window around currentPage.
//
// currentPage must already be clamped to [1, totalPages] and totalPages
// must be >= 1; the function does not validate its preconditions.
func ComputeWindow(currentPage, totalPages, maxVisible int) Window {
	var start, end int

	if totalPages <= maxVisible {
		start, end = 1, totalPages
	} else {
		half := maxVisible / 2
		switch {
		case currentPage <= half+1:
			start, end = 1, maxVisible
		case currentPage+half >= totalPages:
			start, end = totalPages-maxVisible+1, totalPages
		default:
			start, end = currentPage-half, currentPage+half
		}
	}

	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}

	// start=2 renders page 1 directly adjacent, no ellipsis needed
	return Window{
		Pages:                pages,
		ShowLeadingEllipsis:  start > 2,
		ShowTrailingEllipsis: end < totalPages-1,
	}
}

// Response represents paginated response
type Response struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta"`
}

// NewResponse creates a new paginated response
func NewResponse(data interface{}, params *Params, total int64) *Response {
	return &Response{
		Data: data,
		Meta: GetMeta(params, total),
	}
}
