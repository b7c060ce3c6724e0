package memory

import "sync"

// Pool is a typed sync.Pool.
type Pool[T any] struct {
	p *sync.Pool
}

func NewPool[T any](ctor func() *T) *Pool[T] {
	return &Pool[T]{
		p: &sync.Pool{
			New: func() any { return ctor() },
		},
	}
}

func (p *Pool[T]) Get() *T {
	return p.p.Get().(*T)
}

func (p *Pool[T]) Put(v *T) {
	p.p.Put(v)
}

// maxPooledBuffer caps the capacity of buffers returned to a BufferPool so
// one oversized value does not pin memory forever.
const maxPooledBuffer = 64 << 10

// BufferPool recycles byte slices.
type BufferPool struct {
	pool *Pool[[]byte]
}

func NewBufferPool(size int) *BufferPool {
	return &BufferPool{
		pool: NewPool(func() *[]byte {
			b := make([]byte, 0, size)
			return &b
		}),
	}
}

// Get returns an empty buffer.
func (bp *BufferPool) Get() *[]byte {
	b := bp.pool.Get()
	*b = (*b)[:0]
	return b
}

func (bp *BufferPool) Put(b *[]byte) {
	if cap(*b) > maxPooledBuffer {
		return
	}
	bp.pool.Put(b)
}
