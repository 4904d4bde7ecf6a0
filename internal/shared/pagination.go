package shared

import "math"

// Pagination describes a page of a listing. Page is 1-based.
type Pagination struct {
	Page  int
	Limit int
}

// NewPagination clamps page and limit. A non-positive limit falls back to
// defLimit; limits above maxLimit are capped.
func NewPagination(page, limit, defLimit, maxLimit int) Pagination {
	if limit <= 0 {
		limit = defLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	if page <= 0 {
		page = 1
	}
	return Pagination{Page: page, Limit: limit}
}

// Offset returns the number of rows to skip.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages computes the number of pages needed for total rows.
func (p Pagination) TotalPages(total int) int {
	if p.Limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(p.Limit)))
}
