package misc

import "sync"

// Resetter is implemented by pooled objects that can clear their own state
// between uses.
type Resetter interface {
	Reset()
}

// Pool is a typed wrapper over sync.Pool that resets objects on Put. The
// journal writer leases its line buffers from one.
type Pool[T Resetter] struct {
	p sync.Pool
}

// NewPool builds a Pool whose misses are filled by newFn.
func NewPool[T Resetter](newFn func() T) *Pool[T] {
	pl := &Pool[T]{}
	pl.p.New = func() any {
		if newFn != nil {
			return newFn()
		}
		var zero T
		return zero
	}
	return pl
}

// Get leases an object from the pool.
func (pl *Pool[T]) Get() T {
	obj := pl.p.Get()
	if value, ok := obj.(T); ok {
		return value
	}
	var zero T
	return zero
}

// Put returns an object to the pool after resetting it.
func (pl *Pool[T]) Put(v T) {
	v.Reset()
	pl.p.Put(v)
}
