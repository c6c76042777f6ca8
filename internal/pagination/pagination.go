// Package pagination slices video collections into fixed-size pages and computes page-number windows.
//
// A [Paginator] works for client-side slices (total known up front) and server-paginated
// collections (total reported with each page via [Paginator.SetTotal]).
package pagination

// DefaultPageSize is the number of videos shown per grid page.
const DefaultPageSize = 12

// windowThreshold is the largest page count for which every page number is listed.
const windowThreshold = 7

// Ellipsis marks a gap in the output of [Paginator.Numbers].
const Ellipsis = -1

// Paginator tracks the current page over a collection of known size. Pages are 1-based.
type Paginator struct {
	size    int
	total   int
	current int
}

// New creates a paginator over total items with the given page size.
//
// A non-positive size falls back to [DefaultPageSize].
func New(total, size int) *Paginator {
	if size <= 0 {
		size = DefaultPageSize
	}
	return &Paginator{size: size, total: max(total, 0), current: 1}
}

// Size returns the page size.
func (p *Paginator) Size() int { return p.size }

// Total returns the number of items.
func (p *Paginator) Total() int { return p.total }

// Page returns the current 1-based page.
func (p *Paginator) Page() int { return p.current }

// TotalPages returns the number of pages, 0 for an empty collection.
func (p *Paginator) TotalPages() int {
	return (p.total + p.size - 1) / p.size
}

// SetPage moves to page n, reporting whether it moved.
//
// Requests outside [1, TotalPages] are ignored.
func (p *Paginator) SetPage(n int) bool {
	if n < 1 || n > p.TotalPages() || n == p.current {
		return false
	}
	p.current = n
	return true
}

// Next advances one page when possible.
func (p *Paginator) Next() bool { return p.SetPage(p.current + 1) }

// Prev goes back one page when possible.
func (p *Paginator) Prev() bool { return p.SetPage(p.current - 1) }

// HasNext reports whether a following page exists.
func (p *Paginator) HasNext() bool { return p.current < p.TotalPages() }

// HasPrev reports whether a preceding page exists.
func (p *Paginator) HasPrev() bool { return p.current > 1 }

// SetTotal updates the item count, clamping the current page into range.
func (p *Paginator) SetTotal(total int) {
	p.total = max(total, 0)
	p.current = min(p.current, max(p.TotalPages(), 1))
}

// Reset returns to the first page.
func (p *Paginator) Reset() { p.current = 1 }

// Bounds returns the half-open index range [start, end) of the current page.
func (p *Paginator) Bounds() (start, end int) {
	start = min((p.current-1)*p.size, p.total)
	end = min(start+p.size, p.total)
	return start, end
}

// Slice returns the items of the current page of p.
func Slice[T any](items []T, p *Paginator) []T {
	start, end := p.Bounds()
	start, end = min(start, len(items)), min(end, len(items))
	return items[start:end]
}

// Numbers returns the page numbers to display.
//
// Every page is listed when there are at most seven. Otherwise the list is the first page,
// the current page and its neighbours, and the last page, with [Ellipsis] marking each gap.
func (p *Paginator) Numbers() []int {
	total := p.TotalPages()
	if total <= windowThreshold {
		pages := make([]int, total)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages
	}

	lo := max(p.current-1, 2)
	hi := min(p.current+1, total-1)

	pages := []int{1}
	if lo > 2 {
		pages = append(pages, Ellipsis)
	}
	for n := lo; n <= hi; n++ {
		pages = append(pages, n)
	}
	if hi < total-1 {
		pages = append(pages, Ellipsis)
	}
	return append(pages, total)
}
