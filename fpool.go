// Package fpool implements fixed-block memory pools over caller-supplied
// storage.
//
// A pool carves one or more buffers into equally-sized blocks and serves
// allocation and release in O(1) from a LIFO free list. Buffers can be added
// at any time, and blocks from different buffers are never coalesced. Every
// mutation is bracketed by a Protector, which either masks (emulated)
// interrupts or delegates to a caller-supplied lock.
//
// Blocks are identified by a Handle rather than a pointer. A handle indexes the
// pool's block table, so releasing memory that never came from the pool is
// caught by a range check instead of silently corrupting the free list.
//
//	buf := make([]byte, 64)
//	var p fpool.Pool
//	p.Init(nil, nil) // Protected by interrupt masking.
//	p.AddBuffer(buf, 16, nil)
//
//	h, ok := p.Alloc()
//	if !ok {
//		// Pool exhausted.
//	}
//	copy(p.Bytes(h), "hello")
//	p.Free(h)
package fpool

import (
	"errors"
	"math"
	"math/bits"
	"unsafe"

	"github.com/holmberd/go-fpool/internal/freelist"
)

const (
	// MinItemSize is the smallest block size a pool accepts: the width of a
	// machine pointer, which is what a free-list link needs on the target.
	MinItemSize = int(unsafe.Sizeof(uintptr(0)))

	// MaxBlocks is the maximum number of blocks a single pool can hold.
	MaxBlocks = freelist.MaxSlots

	// MaxBufferSize is the largest buffer New and NewTyped preallocate, in
	// bytes. It stays below the runtime's allocation limit (48-bit addresses
	// on 64-bit platforms).
	MaxBufferSize = math.MaxInt >> (16 * (bits.UintSize / 64))
)

var (
	ErrInvalidConfig  = errors.New("invalid config")
	ErrNotInitialized = errors.New("pool is not initialized")
	ErrInvalidHandle  = errors.New("invalid block handle")
	ErrDoubleFree     = errors.New("block is already free")
)

// Handle identifies a block within the pool that allocated it.
// Handles are only meaningful to that pool.
type Handle uint32

// InitFunc is called once for each block of a buffer being added to a pool,
// with the pool's tag and the block. It runs inside the pool's critical
// section and must be short and must not block or call back into the pool.
type InitFunc func(tag any, block []byte)
