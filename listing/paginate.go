package listing

// Page is one slice of a paginated list.
type Page[T any] struct {
	Items      []T  `json:"items"`
	Number     int  `json:"page"`
	Size       int  `json:"pageSize"`
	TotalPages int  `json:"totalPages"`
	TotalItems int  `json:"totalItems"`
	HasPrev    bool `json:"hasPrev"`
	HasNext    bool `json:"hasNext"`
}

// TotalPages is ceil(n/size), never less than one.
func TotalPages(n, size int) int {
	if size <= 0 {
		size = PageSize
	}
	pages := (n + size - 1) / size
	if pages < 1 {
		return 1
	}
	return pages
}

// ClampPage moves page into [1, TotalPages(n, size)].
func ClampPage(page, n, size int) int {
	if page < 1 {
		return 1
	}
	if last := TotalPages(n, size); page > last {
		return last
	}
	return page
}

// Paginate returns the requested page of items. Out-of-range page numbers
// are clamped to the first or last page; an empty list has one empty page.
func Paginate[T any](items []T, page, size int) Page[T] {
	if size <= 0 {
		size = PageSize
	}
	page = ClampPage(page, len(items), size)

	start := (page - 1) * size
	end := start + size
	if end > len(items) {
		end = len(items)
	}

	total := TotalPages(len(items), size)
	return Page[T]{
		Items:      items[start:end],
		Number:     page,
		Size:       size,
		TotalPages: total,
		TotalItems: len(items),
		HasPrev:    page > 1,
		HasNext:    page < total,
	}
}
