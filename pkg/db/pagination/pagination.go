package pagination

const (
	DefaultPageSize = 20
	MaxPageSize     = 250
)

// Page normalizes offset/limit parameters for in-memory pagination.
type Page struct {
	Offset int `form:"offset"`
	Limit  int `form:"limit"`
}

func (p Page) Normalize() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

// Slice applies the page window to an already sorted slice.
func Slice[T any](items []T, p Page) []T {
	p = p.Normalize()
	if p.Offset >= len(items) {
		return []T{}
	}
	end := p.Offset + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[p.Offset:end]
}

// PageInfo reports the window applied and whether more rows remain.
type PageInfo struct {
	Offset  int  `json:"offset"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}

func BuildPageInfo(total int, p Page) PageInfo {
	p = p.Normalize()
	return PageInfo{
		Offset:  p.Offset,
		Limit:   p.Limit,
		Total:   total,
		HasMore: p.Offset+p.Limit < total,
	}
}
