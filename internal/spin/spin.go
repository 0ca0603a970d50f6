// Package spin implements a test-and-set spin lock.
package spin

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// spinsBeforeYield is the number of failed acquire attempts before the
// goroutine yields its processor.
const spinsBeforeYield = 16

// Lock is a spin lock. The zero value is an unlocked lock.
// It is padded to a cache line so that neighbouring hot fields don't share it.
type Lock struct {
	_     cpu.CacheLinePad
	state atomic.Uint32
	_     cpu.CacheLinePad
}

// Lock acquires the lock, spinning until it is available.
func (l *Lock) Lock() {
	for i := 1; !l.TryLock(); i++ {
		if i%spinsBeforeYield == 0 {
			runtime.Gosched()
		}
	}
}

// TryLock acquires the lock if it is free and reports whether it did.
func (l *Lock) TryLock() bool {
	return l.state.Load() == 0 && l.state.CompareAndSwap(0, 1)
}

// Unlock releases the lock.
// It panics if the lock is not held.
func (l *Lock) Unlock() {
	if !l.state.CompareAndSwap(1, 0) {
		panic("spin: unlock of unlocked lock")
	}
}

// Locked reports whether the lock is currently held.
func (l *Lock) Locked() bool {
	return l.state.Load() == 1
}
