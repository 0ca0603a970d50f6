package fpool

import "unsafe"

// TypedPool is a fixed-block pool whose blocks are values of type T.
// It behaves exactly like Pool; buffers are slices of T and blocks are
// handed out as *T.
type TypedPool[T any] struct {
	c core[*T]
}

func (p *TypedPool[T]) Init(prot Protector, tag any) {
	p.c.init(prot, tag, false)
}

// ItemSize returns the block size, i.e. the size of T.
func (p *TypedPool[T]) ItemSize() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// AddBuffer adds every element of buf to the pool as a block, calling init
// for each one first if it is non-nil. It returns false and leaves the pool
// unchanged if buf is nil or empty, T is smaller than MinItemSize, or the
// pool would exceed MaxBlocks.
func (p *TypedPool[T]) AddBuffer(buf []T, init func(tag any, item *T)) bool {
	p.c.mustBeReady()
	if len(buf) == 0 || p.ItemSize() < MinItemSize {
		return false
	}
	return p.c.add(len(buf), func(i int) *T { return &buf[i] }, init)
}

// Alloc takes a block off the free list and returns its handle and value.
// The ok result is false if the pool is exhausted.
func (p *TypedPool[T]) Alloc() (h Handle, item *T, ok bool) {
	h, ok = p.c.alloc()
	if !ok {
		return 0, nil, false
	}
	return h, p.c.block(h), true
}

// Free returns the block h to the pool, see Pool.Free.
func (p *TypedPool[T]) Free(h Handle) {
	p.c.release(h)
}

// Get returns the value stored in block h.
func (p *TypedPool[T]) Get(h Handle) *T {
	return p.c.block(h)
}

func (p *TypedPool[T]) Count() int {
	return int(p.c.count.Load())
}

func (p *TypedPool[T]) Capacity() int {
	return int(p.c.total.Load())
}

func (p *TypedPool[T]) Tag() any {
	return p.c.getTag()
}

func (p *TypedPool[T]) SetTag(v any) any {
	return p.c.setTag(v)
}

func (p *TypedPool[T]) Protector() Protector {
	return p.c.prot
}
