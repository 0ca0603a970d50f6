package fpool

import (
	"fmt"
	"sync/atomic"

	"github.com/holmberd/go-fpool/internal/freelist"
	"golang.org/x/sys/cpu"
)

type tagBox struct {
	v any
}

// core is the type-independent part of a pool. B is how a block is handed to
// the caller: a byte slice for Pool, a pointer for TypedPool.
type core[B any] struct {
	prot  Protector
	ready atomic.Bool
	debug bool

	// Guarded by prot.
	free      freelist.List
	allocated []uint64 // Debug only: bit h is set while block h is allocated.

	_ cpu.CacheLinePad

	// Read without entering prot.
	blocks atomic.Pointer[[]B] // Copy-on-write block table indexed by Handle.
	count  atomic.Int64        // Mirrors free.Len().
	total  atomic.Int64        // Blocks ever added.
	tag    atomic.Pointer[tagBox]
}

func (c *core[B]) init(prot Protector, tag any, debug bool) {
	if prot == nil {
		prot = InterruptMask()
	}
	c.prot = prot
	c.debug = debug
	c.free.Reset()
	c.allocated = nil
	c.blocks.Store(nil)
	c.count.Store(0)
	c.total.Store(0)
	c.tag.Store(&tagBox{v: tag})
	c.ready.Store(true)
}

func (c *core[B]) mustBeReady() {
	if !c.ready.Load() {
		panic(ErrNotInitialized)
	}
}

func (c *core[B]) table() []B {
	if t := c.blocks.Load(); t != nil {
		return *t
	}
	return nil
}

// add registers n blocks produced by block as one batch. It returns false,
// leaving the pool unchanged, if the pool cannot hold n more blocks.
func (c *core[B]) add(n int, block func(i int) B, init func(tag any, b B)) bool {
	c.mustBeReady()

	s := c.prot.Enter()
	defer c.prot.Leave(s)

	old := c.table()
	if n > MaxBlocks-len(old) {
		return false
	}
	tag := c.getTag()
	table := make([]B, len(old), len(old)+n)
	copy(table, old)
	for i := range n {
		b := block(i)
		if init != nil {
			init(tag, b)
		}
		table = append(table, b)
	}

	first := c.free.Grow(n)
	c.free.PushRange(first, n)
	if c.debug {
		words := (len(table) + 63) / 64
		c.allocated = append(c.allocated, make([]uint64, words-len(c.allocated))...)
	}
	c.blocks.Store(&table)
	c.total.Add(int64(n))
	c.count.Add(int64(n))
	return true
}

func (c *core[B]) alloc() (Handle, bool) {
	c.mustBeReady()

	s := c.prot.Enter()
	i, ok := c.free.Pop()
	if ok {
		c.count.Add(-1)
		if c.debug {
			c.allocated[i/64] |= 1 << (i % 64)
		}
	}
	c.prot.Leave(s)
	return Handle(i), ok
}

func (c *core[B]) release(h Handle) {
	c.mustBeReady()

	s := c.prot.Enter()
	defer c.prot.Leave(s)

	if int64(h) >= int64(c.free.Slots()) {
		panic(fmt.Errorf("%w: %d is out of range", ErrInvalidHandle, h))
	}
	if c.debug {
		word, bit := h/64, uint64(1)<<(h%64)
		if c.allocated[word]&bit == 0 {
			panic(fmt.Errorf("%w: handle %d", ErrDoubleFree, h))
		}
		c.allocated[word] &^= bit
	}
	c.free.Push(uint32(h))
	c.count.Add(1)
}

func (c *core[B]) block(h Handle) B {
	t := c.table()
	if int64(h) >= int64(len(t)) {
		panic(fmt.Errorf("%w: %d is out of range", ErrInvalidHandle, h))
	}
	return t[h]
}

func (c *core[B]) getTag() any {
	if b := c.tag.Load(); b != nil {
		return b.v
	}
	return nil
}

func (c *core[B]) setTag(v any) any {
	if old := c.tag.Swap(&tagBox{v: v}); old != nil {
		return old.v
	}
	return nil
}

// freeHandles returns the handles on the free list from head to tail.
// It is primarily intended as a helper in tests.
func (c *core[B]) freeHandles() []Handle {
	s := c.prot.Enter()
	defer c.prot.Leave(s)

	out := make([]Handle, 0, c.free.Len())
	c.free.Walk(func(i uint32) bool {
		out = append(out, Handle(i))
		return true
	})
	return out
}
