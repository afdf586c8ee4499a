package feed

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Paging holds the page size bounds
type Paging struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Clamp normalizes a requested page. Pages start at 1; a page size below 1 takes the
// default and one above the maximum takes the maximum.
func (p Paging) Clamp(page, pageSize int) (int, int) {
	defSize, maxSize := p.DefaultPageSize, p.MaxPageSize
	if maxSize < 1 {
		maxSize = MaxPageSize
	}
	if defSize < 1 || defSize > maxSize {
		defSize = min(DefaultPageSize, maxSize)
	}

	if page < 1 {
		page = 1
	}
	switch {
	case pageSize < 1:
		pageSize = defSize
	case pageSize > maxSize:
		pageSize = maxSize
	}
	return page, pageSize
}

// window returns the [start, end) bounds of page within total items and whether more follow.
// Pages past the end are empty.
func window(total, page, pageSize int) (start, end int, hasMore bool) {
	pages := (total + pageSize - 1) / pageSize
	if page > pages {
		return total, total, false
	}
	start = (page - 1) * pageSize
	end = min(start+pageSize, total)
	return start, end, page < pages
}
