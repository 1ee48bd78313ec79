package common

// Pagination is the metadata returned alongside every paged listing.
type Pagination struct {
	PageNumber   int   `json:"page_number"`
	PageSize     int   `json:"page_size"`
	NumPages     int   `json:"num_pages"`
	TotalResults int64 `json:"total_results"`
}

type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// Offset returns the number of rows to skip for a 1-based page number.
func Offset(pageNumber, pageSize int) int {
	if pageNumber < 1 {
		pageNumber = 1
	}
	return (pageNumber - 1) * pageSize
}

// NumPages is ceil(total / pageSize).
func NumPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

func NewPage[T any](items []T, pageNumber, pageSize int, total int64) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items: items,
		Pagination: Pagination{
			PageNumber:   pageNumber,
			PageSize:     pageSize,
			NumPages:     NumPages(total, pageSize),
			TotalResults: total,
		},
	}
}

// MapPage converts the items of a page, keeping its pagination metadata.
func MapPage[T, R any](page *Page[T], fn func(T) R) *Page[R] {
	items := make([]R, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, fn(item))
	}
	return &Page[R]{Items: items, Pagination: page.Pagination}
}
