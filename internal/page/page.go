// Package page is the shared paging primitive. Every paged read computes its
// slice over a stable total order (never physical storage position), so a
// page already returned is not shifted by inserts that sort after it.
package page

import (
	"math"

	"github.com/fluxsocial/socialdna/internal/errs"
	"github.com/fluxsocial/socialdna/internal/model"
)

// DefaultMaxSize caps page sizes when the caller configures no limit.
const DefaultMaxSize = 1000

// Request selects items[Number*Size : (Number+1)*Size].
type Request struct {
	Size   int `json:"page_size"`
	Number int `json:"page_number"`
}

// New builds a Request.
func New(size, number int) Request {
	return Request{Size: size, Number: number}
}

// First returns page zero of the given size.
func First(size int) Request {
	return Request{Size: size}
}

// Validate enforces Size > 0, Number >= 0 and Size <= maxSize.
// A maxSize <= 0 means DefaultMaxSize.
func (r Request) Validate(op string, maxSize int) error {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	switch {
	case r.Size <= 0:
		return errs.Newf(errs.InvalidArgument, op, "page size must be positive, got %d", r.Size)
	case r.Number < 0:
		return errs.Newf(errs.InvalidArgument, op, "page number must not be negative, got %d", r.Number)
	case r.Size > maxSize:
		return errs.Newf(errs.InvalidArgument, op, "page size %d exceeds limit %d", r.Size, maxSize)
	}
	return nil
}

// Offset is the index of the first item on the page. Pages past
// math.MaxInt saturate, which yields an empty page.
func (r Request) Offset() int {
	if r.Size > 0 && r.Number > math.MaxInt/r.Size {
		return math.MaxInt
	}
	return r.Number * r.Size
}

// Limit is the page size.
func (r Request) Limit() int {
	return r.Size
}

// Slice returns the page of an already ordered slice. A page beyond the end
// is empty, not an error.
func Slice[T any](items []T, r Request) []T {
	start := r.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := len(items)
	if r.Size < end-start {
		end = start + r.Size
	}
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}

// Of wraps items (already limited to this page) in a model.Page.
func Of[T any](items []T, r Request) model.Page[T] {
	if items == nil {
		items = []T{}
	}
	return model.Page[T]{Items: items, Size: r.Size, Number: r.Number}
}
