package fpool

import (
	"errors"
	"fmt"
)

// DefaultItemSize is the block size used by DefaultConfig: one cache line.
const DefaultItemSize = 64

type Config struct {
	// Protector brackets every pool mutation. Nil selects InterruptMask.
	Protector Protector

	Tag any // Initial caller metadata.

	// Debug tracks which blocks are allocated so that a double Free panics
	// with ErrDoubleFree instead of corrupting the free list. It costs one bit
	// per block.
	Debug bool

	// Items, when positive, preallocates a buffer of Items blocks at
	// construction.
	Items int

	// ItemSize is the block size of the preallocated buffer. Pool only;
	// a TypedPool's block size is the size of its item type.
	ItemSize int

	// Arena, if set, maps the preallocated buffer outside the Go heap.
	// Pool only; values of an arbitrary type T must live on the Go heap.
	Arena *Arena
}

func DefaultConfig() Config {
	return Config{
		ItemSize: DefaultItemSize,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Items < 0 {
		errs = append(errs, fmt.Errorf("%w: Items must not be negative", ErrInvalidConfig))
	}
	if c.Items > MaxBlocks {
		errs = append(errs, fmt.Errorf("%w: Items must be at most %d", ErrInvalidConfig, MaxBlocks))
	}
	if c.ItemSize < 0 || (c.ItemSize > 0 && c.ItemSize < MinItemSize) {
		errs = append(errs, fmt.Errorf(
			"%w: ItemSize %d is smaller than the minimum %d", ErrInvalidConfig, c.ItemSize, MinItemSize,
		))
	}
	if c.Items > 0 && c.ItemSize > 0 && c.ItemSize > MaxBufferSize/c.Items {
		errs = append(errs, fmt.Errorf(
			"%w: Items*ItemSize exceeds the maximum buffer size %d", ErrInvalidConfig, MaxBufferSize,
		))
	}
	return errors.Join(errs...)
}

// New creates a ready Pool from config, preallocating its first buffer if
// config.Items is positive.
func New(config Config) (*Pool, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Items > 0 && config.ItemSize == 0 {
		return nil, fmt.Errorf("%w: ItemSize is required to preallocate", ErrInvalidConfig)
	}

	p := &Pool{}
	p.c.init(config.Protector, config.Tag, config.Debug)
	if config.Items == 0 {
		return p, nil
	}

	size := config.Items * config.ItemSize
	var buf []byte
	if config.Arena != nil {
		var err error
		if buf, err = config.Arena.Map(size); err != nil {
			return nil, fmt.Errorf("preallocate pool buffer: %w", err)
		}
	} else {
		buf = make([]byte, size)
	}
	if !p.AddBuffer(buf, config.ItemSize, nil) {
		// Unrecoverable programmer error; config was validated above.
		panic(fmt.Errorf("internal error: preallocated buffer of %d bytes rejected", size))
	}
	return p, nil
}

// NewTyped creates a ready TypedPool from config, preallocating config.Items
// values of T if it is positive. config.ItemSize is ignored.
func NewTyped[T any](config Config) (*TypedPool[T], error) {
	config.ItemSize = 0
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Arena != nil {
		return nil, fmt.Errorf("%w: Arena is not supported by typed pools", ErrInvalidConfig)
	}

	p := &TypedPool[T]{}
	p.c.init(config.Protector, config.Tag, config.Debug)
	if size := p.ItemSize(); size < MinItemSize {
		return nil, fmt.Errorf(
			"%w: item type %T is %d bytes, smaller than the minimum %d",
			ErrInvalidConfig, *new(T), size, MinItemSize,
		)
	}
	if config.Items == 0 {
		return p, nil
	}
	if size := p.ItemSize(); size > MaxBufferSize/config.Items {
		return nil, fmt.Errorf(
			"%w: %d items of %d bytes exceed the maximum buffer size %d",
			ErrInvalidConfig, config.Items, size, MaxBufferSize,
		)
	}
	if !p.AddBuffer(make([]T, config.Items), nil) {
		// Unrecoverable programmer error; config was validated above.
		panic(fmt.Errorf("internal error: preallocated buffer of %d items rejected", config.Items))
	}
	return p, nil
}
