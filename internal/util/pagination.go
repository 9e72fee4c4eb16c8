package util

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Window is a page request resolved to a row offset.
type Window struct {
	Page   int
	Size   int
	Offset int
}

// Paginate clamps page to at least 1 and falls back to DefaultPageSize
// when size is out of range.
func Paginate(page, size int) Window {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return Window{Page: page, Size: size, Offset: (page - 1) * size}
}
