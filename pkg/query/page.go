package query

import "math"

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
	// MaxPageNumber keeps Skip and Paginate inside int64 for any page size.
	MaxPageNumber = math.MaxInt32
)

// Page is a 1-based page window.
type Page struct {
	Number int
	Size   int
}

// NewPage normalizes raw request values: a page below 1 becomes 1, a size
// below 1 becomes DefaultPageSize and sizes above MaxPageSize are capped.
// Pages past the end are kept as requested up to MaxPageNumber.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if number > MaxPageNumber {
		number = MaxPageNumber
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

func (p Page) Skip() int64 {
	return int64(p.Number-1) * int64(p.Size)
}

func (p Page) Limit() int64 {
	return int64(p.Size)
}

type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	Total       int64 `json:"-"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

// Paginate summarizes the window against total matching documents.
func (p Page) Paginate(total int64) Pagination {
	size := int64(p.Size)
	return Pagination{
		CurrentPage: p.Number,
		TotalPages:  int((total + size - 1) / size),
		Total:       total,
		HasNext:     int64(p.Number)*size < total,
		HasPrev:     p.Number > 1,
	}
}
