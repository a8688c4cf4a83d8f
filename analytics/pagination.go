package analytics

// Pagination defaults and bounds.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// PageRequest is a 1-based page selector.
type PageRequest struct {
	Page    int
	PerPage int
}

// Normalized clamps the request to valid bounds.
func (r PageRequest) Normalized() PageRequest {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PerPage < 1 {
		r.PerPage = DefaultPerPage
	}
	if r.PerPage > MaxPerPage {
		r.PerPage = MaxPerPage
	}
	return r
}

// LimitOffset converts the request into SQL LIMIT/OFFSET values.
func (r PageRequest) LimitOffset() (limit, offset int) {
	r = r.Normalized()
	return r.PerPage, (r.Page - 1) * r.PerPage
}

// Page is one page of results plus the totals clients page through.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
}

// NewPage assembles a result page from rows and the total row count.
func NewPage[T any](items []T, total int, req PageRequest) Page[T] {
	req = req.Normalized()
	pages := total / req.PerPage
	if total%req.PerPage != 0 {
		pages++
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		Total:      total,
		Page:       req.Page,
		PerPage:    req.PerPage,
		TotalPages: pages,
	}
}
