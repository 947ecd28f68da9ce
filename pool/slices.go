package pool

import "sync"

// SlicePool provides pooled slices of T for temporary collections.
// Slices taken from the pool must not escape: copy the contents out before
// releasing.
type SlicePool[T any] struct {
	pool   sync.Pool
	maxCap int
}

// NewSlicePool creates a pool of slices with the given initial capacity.
// Slices that grew beyond 16 times that capacity are not recycled.
func NewSlicePool[T any](initialCap int) *SlicePool[T] {
	if initialCap <= 0 {
		initialCap = 16
	}
	return &SlicePool[T]{
		pool: sync.Pool{
			New: func() any {
				s := make([]T, 0, initialCap)
				return &s
			},
		},
		maxCap: initialCap * 16,
	}
}

// Acquire gets an empty slice from the pool.
func (p *SlicePool[T]) Acquire() *[]T {
	s := p.pool.Get().(*[]T)
	*s = (*s)[:0]
	return s
}

// Release clears s and returns it to the pool.
func (p *SlicePool[T]) Release(s *[]T) {
	if s == nil {
		return
	}
	// Don't return oversized slices
	if cap(*s) > p.maxCap {
		return
	}
	clear((*s)[:cap(*s)])
	*s = (*s)[:0]
	p.pool.Put(s)
}

// MapPool provides pooled maps for temporary use.
type MapPool[K comparable, V any] struct {
	pool sync.Pool
	cap  int
}

// NewMapPool creates a new pool for maps with the given initial capacity.
func NewMapPool[K comparable, V any](initialCap int) *MapPool[K, V] {
	return &MapPool[K, V]{
		pool: sync.Pool{
			New: func() any {
				return make(map[K]V, initialCap)
			},
		},
		cap: initialCap,
	}
}

// Acquire gets an empty map from the pool.
func (p *MapPool[K, V]) Acquire() map[K]V {
	return p.pool.Get().(map[K]V)
}

// Release clears m and returns it to the pool.
func (p *MapPool[K, V]) Release(m map[K]V) {
	if m == nil {
		return
	}
	n := len(m)
	clear(m)
	// Don't return oversized maps
	if n <= p.cap*4 {
		p.pool.Put(m)
	}
}
