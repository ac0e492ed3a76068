package pipeline

const (
	// PageSize is the number of roster rows per page
	PageSize = 10
	// VisiblePages is the number of page markers shown before ellipses kick in
	VisiblePages = 5
)

// Marker is one entry of the pagination control: a page number or an ellipsis
type Marker struct {
	Page     int  `json:"page,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

// PageMarker returns a marker for a concrete page
func PageMarker(page int) Marker { return Marker{Page: page} }

// EllipsisMarker returns the placeholder marker
func EllipsisMarker() Marker { return Marker{Ellipsis: true} }

// TotalPages returns ceil(count / PageSize)
func TotalPages(count int) int {
	if count <= 0 {
		return 0
	}
	return (count + PageSize - 1) / PageSize
}

// ClampPage keeps page within [1, max(1, totalPages)]
func ClampPage(page, totalPages int) int {
	upper := max(1, totalPages)
	if page < 1 {
		return 1
	}
	if page > upper {
		return upper
	}
	return page
}

// PageBounds returns the [start, end) slice bounds of page within count rows
func PageBounds(page, count int) (int, int) {
	page = ClampPage(page, TotalPages(count))
	start := (page - 1) * PageSize
	if start > count {
		start = count
	}
	end := min(start+PageSize, count)
	return start, end
}

// PageMarkers computes the markers to render for the current page
func PageMarkers(current, totalPages int) []Marker {
	markers := make([]Marker, 0, VisiblePages+2)

	if totalPages <= VisiblePages {
		for i := 1; i <= totalPages; i++ {
			markers = append(markers, PageMarker(i))
		}
		return markers
	}

	switch {
	case current <= 3:
		for i := 1; i <= 4; i++ {
			markers = append(markers, PageMarker(i))
		}
		markers = append(markers, EllipsisMarker(), PageMarker(totalPages))
	case current >= totalPages-2:
		markers = append(markers, PageMarker(1), EllipsisMarker())
		for i := totalPages - 3; i <= totalPages; i++ {
			markers = append(markers, PageMarker(i))
		}
	default:
		markers = append(markers, PageMarker(1), EllipsisMarker())
		for i := current - 1; i <= current+1; i++ {
			markers = append(markers, PageMarker(i))
		}
		markers = append(markers, EllipsisMarker(), PageMarker(totalPages))
	}

	return markers
}

// Paginator tracks the current page of a collection whose size may change
type Paginator struct {
	page int
}

// NewPaginator starts on page 1
func NewPaginator() Paginator {
	return Paginator{page: 1}
}

// Page returns the current page clamped to totalPages
func (p *Paginator) Page(totalPages int) int {
	p.page = ClampPage(p.page, totalPages)
	return p.page
}

// GoTo sets the page directly, clamped
func (p *Paginator) GoTo(page, totalPages int) {
	p.page = ClampPage(page, totalPages)
}

// Next advances one page; no-op on the last page
func (p *Paginator) Next(totalPages int) {
	if p.HasNext(totalPages) {
		p.page++
	}
}

// Prev goes back one page; no-op on the first page
func (p *Paginator) Prev(totalPages int) {
	if p.HasPrev(totalPages) {
		p.page--
	}
}

// HasNext reports whether Next would move
func (p *Paginator) HasNext(totalPages int) bool {
	return p.Page(totalPages) < totalPages
}

// HasPrev reports whether Prev would move
func (p *Paginator) HasPrev(totalPages int) bool {
	return p.Page(totalPages) > 1
}

// Reset returns to page 1
func (p *Paginator) Reset() {
	p.page = 1
}
