package pagination

const (
	// DefaultPageSize is the alert list page size
	DefaultPageSize = 10
	// MaxPageSize caps client supplied page sizes
	MaxPageSize = 100
)

// Pagination represents offset-based pagination
type Pagination struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"page_size" form:"page_size"`
}

// Validate normalises pagination parameters, substituting defaultSize for
// missing or out-of-range page sizes
func (p *Pagination) Validate(defaultSize int) {
	if defaultSize < 1 {
		defaultSize = DefaultPageSize
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 || p.PageSize > MaxPageSize {
		p.PageSize = defaultSize
	}
}

// GetOffset returns the offset of the first record on the page
func (p Pagination) GetOffset() int {
	return (p.Page - 1) * p.PageSize
}

// GetLimit returns the page size
func (p Pagination) GetLimit() int {
	return p.PageSize
}

// Bounds returns the [start, end) slice bounds of the page within total records
func (p Pagination) Bounds(total int) (int, int) {
	start := p.GetOffset()
	if start > total {
		start = total
	}
	end := start + p.PageSize
	if end > total {
		end = total
	}
	return start, end
}

// Slice returns the page of items selected by p
func Slice[T any](items []T, p Pagination) []T {
	start, end := p.Bounds(len(items))
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}

// PageInfo represents page information for offset pagination
type PageInfo struct {
	CurrentPage  int  `json:"current_page"`
	PageSize     int  `json:"page_size"`
	TotalPages   int  `json:"total_pages"`
	TotalRecords int  `json:"total_records"`
	HasNext      bool `json:"has_next"`
	HasPrevious  bool `json:"has_previous"`
}

// NewPageInfo creates page info
func NewPageInfo(p Pagination, totalRecords int) PageInfo {
	totalPages := 0
	if p.PageSize > 0 {
		totalPages = (totalRecords + p.PageSize - 1) / p.PageSize
	}

	return PageInfo{
		CurrentPage:  p.Page,
		PageSize:     p.PageSize,
		TotalPages:   totalPages,
		TotalRecords: totalRecords,
		HasNext:      p.Page < totalPages,
		HasPrevious:  p.Page > 1,
	}
}
