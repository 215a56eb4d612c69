package containers

import "github.com/cockroachdb/errors"

// Ring is a fixed set of items visited in round-robin order. The set is
// populated once at creation and never grows or shrinks.
type Ring[T any] struct {
	data   []T
	cursor int
}

// NewRing creates a ring of size items, each built by create. If create fails
// the items built so far are returned to release along with the error.
func NewRing[T any](size int, create func(i int) (T, error), release func(T)) (*Ring[T], error) {
	if size <= 0 {
		return nil, errors.Newf("ring size must be positive, got %d", size)
	}
	r := &Ring[T]{data: make([]T, 0, size)}
	for i := 0; i < size; i++ {
		item, err := create(i)
		if err != nil {
			if release != nil {
				for _, built := range r.data {
					release(built)
				}
			}
			return nil, err
		}
		r.data = append(r.data, item)
	}
	return r, nil
}

// Current returns the item under the cursor
func (r *Ring[T]) Current() T {
	return r.data[r.cursor]
}

// Advance moves the cursor to the next item, wrapping around
func (r *Ring[T]) Advance() {
	r.cursor = (r.cursor + 1) % len(r.data)
}

func (r *Ring[T]) Cursor() int {
	return r.cursor
}

// SetCursor places the cursor on index modulo the ring length.
func (r *Ring[T]) SetCursor(index int) {
	if index < 0 {
		index = 0
	}
	r.cursor = index % len(r.data)
}

func (r *Ring[T]) Len() int {
	return len(r.data)
}

func (r *Ring[T]) At(index int) T {
	return r.data[index]
}

// Each visits every item in storage order.
func (r *Ring[T]) Each(fn func(i int, item T)) {
	for i, item := range r.data {
		fn(i, item)
	}
}
