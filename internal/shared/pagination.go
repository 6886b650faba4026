package shared

import "math"

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page          int
	PageSize      int
	Total         int
	TotalPages    int
	RecordsInPage int
}

// ClampPage normalizes a page number to a minimum of 1.
func ClampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// ClampPageSize normalizes a page size to a minimum of 1.
func ClampPageSize(size int) int {
	if size < 1 {
		return 1
	}
	return size
}

// NewPagination computes pagination metadata.
func NewPagination(page, pageSize, total, recordsInPage int) Pagination {
	page = ClampPage(page)
	pageSize = ClampPageSize(pageSize)
	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))
	return Pagination{
		Page:          page,
		PageSize:      pageSize,
		Total:         total,
		TotalPages:    totalPages,
		RecordsInPage: recordsInPage,
	}
}
