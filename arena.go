package fpool

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sys/unix"
)

var ErrInvalidSize = errors.New("invalid mapping size")

// Arena hands out raw buffers mapped outside the Go heap, for use as pool
// storage in place of a static array. Memory in an Arena is never scanned by
// the GC and is only returned to the operating system by Close.
type Arena struct {
	mu      sync.Mutex
	logger  *slog.Logger
	regions [][]byte
	mapped  int
}

// NewArena creates an empty arena. A nil logger selects slog.Default().
func NewArena(logger *slog.Logger) *Arena {
	if logger == nil {
		logger = slog.Default()
	}
	return &Arena{logger: logger}
}

// Map returns a zeroed buffer of size bytes.
func (a *Arena) Map(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	// Use unix.Mmap to allocate virtual memory that is not part the Go heap.
	data, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE,
	)
	if err != nil {
		return nil, fmt.Errorf("cannot allocate %d bytes via mmap: %w", size, err)
	}

	a.mu.Lock()
	a.regions = append(a.regions, data)
	a.mapped += size
	a.mu.Unlock()
	return data, nil
}

// Mapped returns the number of bytes currently mapped by the arena.
func (a *Arena) Mapped() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mapped
}

// Close unmaps every buffer handed out by Map. Pools using those buffers
// must not be touched afterwards.
func (a *Arena) Close() error {
	a.mu.Lock()
	regions := a.regions
	a.regions = nil
	a.mapped = 0
	a.mu.Unlock()

	// Perform unmap outside of the lock to avoid blocking other operations.
	var errs []error
	for _, r := range regions {
		if err := unix.Munmap(r); err != nil {
			a.logger.Error("failed to unmap buffer", "size", len(r), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
