package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type item struct{ n int }

func TestPoolConstructsOnEmpty(t *testing.T) {
	calls := 0
	p := NewPool(func() *item {
		calls++
		return &item{n: 42}
	})

	it := p.Get()
	assert.Equal(t, 42, it.n)
	assert.Equal(t, 1, calls)
	p.Put(it)
}

func TestBufferPoolReturnsEmpty(t *testing.T) {
	bp := NewBufferPool(16)

	b := bp.Get()
	assert.Empty(t, *b)
	assert.GreaterOrEqual(t, cap(*b), 16)

	*b = append(*b, "dirty"...)
	bp.Put(b)

	b = bp.Get()
	assert.Empty(t, *b)
}

func TestBufferPoolDropsOversized(t *testing.T) {
	bp := NewBufferPool(16)
	big := make([]byte, 0, maxPooledBuffer+1)
	bp.Put(&big)

	b := bp.Get()
	assert.LessOrEqual(t, cap(*b), maxPooledBuffer)
}
