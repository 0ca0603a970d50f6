package fpool

// Pool is a fixed-block pool over raw byte buffers.
//
// The zero value is uninitialized; call Init (or use New) before any other
// method. A Pool must not be copied after Init.
type Pool struct {
	c core[[]byte]
}

// Init resets p to an empty, ready pool bound to prot. A nil prot selects
// InterruptMask. Init itself is not protected and must not race with other
// calls on p.
func (p *Pool) Init(prot Protector, tag any) {
	p.c.init(prot, tag, false)
}

// AddBuffer partitions buf into len(buf)/itemSize blocks of itemSize bytes
// and adds them to the pool. Trailing bytes that do not fill a block are left
// unused. If init is non-nil it is called for every block before the block
// becomes allocatable.
//
// It returns false and leaves the pool unchanged if buf is nil, itemSize is
// smaller than MinItemSize, buf cannot hold a single block, or the pool would
// exceed MaxBlocks.
//
// The pool borrows buf for its whole lifetime; the caller must keep it alive
// and must not hand overlapping memory to the same pool twice.
func (p *Pool) AddBuffer(buf []byte, itemSize int, init InitFunc) bool {
	p.c.mustBeReady()
	if buf == nil || itemSize < MinItemSize || len(buf) < itemSize {
		return false
	}
	block := func(i int) []byte {
		off := i * itemSize
		return buf[off : off+itemSize : off+itemSize]
	}
	return p.c.add(len(buf)/itemSize, block, init)
}

// Alloc takes a block off the free list. The ok result is false if the pool
// is exhausted, which is an ordinary outcome and not an error.
func (p *Pool) Alloc() (h Handle, ok bool) {
	return p.c.alloc()
}

// Free returns the block h to the pool. h must have come from Alloc on this
// pool and must not already be free. Out-of-range handles panic with
// ErrInvalidHandle; freeing a free block panics with ErrDoubleFree when the
// pool was created with Config.Debug and is undefined otherwise.
func (p *Pool) Free(h Handle) {
	p.c.release(h)
}

// Bytes returns the storage of block h. The slice's capacity is limited to
// the block, so appending to it never spills into a neighbour.
func (p *Pool) Bytes(h Handle) []byte {
	return p.c.block(h)
}

// Count returns the number of free blocks.
func (p *Pool) Count() int {
	return int(p.c.count.Load())
}

// Capacity returns the number of blocks ever added to the pool.
func (p *Pool) Capacity() int {
	return int(p.c.total.Load())
}

// Tag returns the caller metadata attached to the pool.
func (p *Pool) Tag() any {
	return p.c.getTag()
}

// SetTag attaches v to the pool and returns the previous tag.
func (p *Pool) SetTag(v any) any {
	return p.c.setTag(v)
}

// Protector returns the protection strategy bound by Init.
func (p *Pool) Protector() Protector {
	return p.c.prot
}
