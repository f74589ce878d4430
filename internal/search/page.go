package search

const MaxSize = 100

// Page turns a 1-based page number and page size into an offset and limit.
// Out-of-range values fall back to the first page and DefaultSize.
func Page(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxSize {
		size = DefaultSize
	}
	return (page - 1) * size, size
}
