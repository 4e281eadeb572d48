package pagination

import (
	"context"
	"fmt"
	"time"
)

// Page is one page of a remote collection.
type Page[T any] struct {
	// Number is the 1-based page number
	Number int
	// Size is the requested page size, not len(Records)
	Size int
	// Total is the number of records in the whole collection
	Total int
	// Records holds the page's records in collection order
	Records []T
}

// PageFetcher is implemented by anything that can fetch a single page.
type PageFetcher[T any] interface {
	// FetchPage fetches page (1-based) with the given page size.
	FetchPage(ctx context.Context, page, size int) (Page[T], error)
}

// FetcherFunc adapts a function to PageFetcher.
type FetcherFunc[T any] func(ctx context.Context, page, size int) (Page[T], error)

// FetchPage calls f.
func (f FetcherFunc[T]) FetchPage(ctx context.Context, page, size int) (Page[T], error) {
	return f(ctx, page, size)
}

// Position returns the 1-based absolute position of the i-th record of the page.
func (p Page[T]) Position(i int) int {
	return Offset(p.Number, p.Size) + i + 1
}

// FirstRecord is the absolute position of the first record shown, or 0 when the
// collection is empty.
func (p Page[T]) FirstRecord() int {
	if p.Total == 0 {
		return 0
	}
	return Offset(p.Number, p.Size) + 1
}

// LastRecord is the absolute position of the last record shown.
func (p Page[T]) LastRecord() int {
	return min(p.Number*p.Size, p.Total)
}

// TotalPages returns the number of pages of p.Size records.
func (p Page[T]) TotalPages() int {
	return TotalPages(p.Total, p.Size)
}

// Offset returns the number of records before page.
func Offset(page, size int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * size
}

// TotalPages returns ceil(total/size).
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Validate checks a page request's bounds.
func Validate(page, size int) error {
	if page < 1 {
		return fmt.Errorf("page must be >= 1 (got %d)", page)
	}
	if size < 1 {
		return fmt.Errorf("page size must be >= 1 (got %d)", size)
	}
	return nil
}

// Load performs the fetch for req with a per-page timeout. The returned page
// always carries req's number and size, even on error.
func Load[T any](ctx context.Context, fetcher PageFetcher[T], req Request, timeout time.Duration) (Page[T], error) {
	empty := Page[T]{Number: req.Number, Size: req.Size}
	if err := Validate(req.Number, req.Size); err != nil {
		return empty, err
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	page, err := fetcher.FetchPage(ctx, req.Number, req.Size)
	if err != nil {
		return empty, fmt.Errorf("fetch page %d: %w", req.Number, err)
	}
	page.Number = req.Number
	page.Size = req.Size
	return page, nil
}
