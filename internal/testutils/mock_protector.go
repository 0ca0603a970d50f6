package testutils

import (
	"sync"
	"sync/atomic"

	"github.com/holmberd/go-fpool"
)

var _ fpool.Protector = (*MockProtector)(nil)

// MockProtector is a mutex-backed protector that counts Enter and Leave
// calls and tracks how many goroutines are inside at once.
type MockProtector struct {
	mu         sync.Mutex
	enterCalls atomic.Int64
	leaveCalls atomic.Int64
	inside     atomic.Int64
	maxInside  atomic.Int64
}

// Enter locks the protector. The returned state is the number of the call,
// so tests can check it is handed back to Leave unchanged.
func (p *MockProtector) Enter() fpool.State {
	p.mu.Lock()
	n := p.inside.Add(1)
	if n > p.maxInside.Load() {
		p.maxInside.Store(n)
	}
	return fpool.State(p.enterCalls.Add(1))
}

func (p *MockProtector) Leave(state fpool.State) {
	if state == 0 || int64(state) > p.enterCalls.Load() {
		p.inside.Add(-1)
		p.mu.Unlock()
		panic("testutils: Leave called with a state Enter never returned")
	}
	p.inside.Add(-1)
	p.leaveCalls.Add(1)
	p.mu.Unlock()
}

func (p *MockProtector) EnterCalls() int64 {
	return p.enterCalls.Load()
}

func (p *MockProtector) LeaveCalls() int64 {
	return p.leaveCalls.Load()
}

// Balanced reports whether every Enter has been matched by a Leave.
func (p *MockProtector) Balanced() bool {
	return p.EnterCalls() == p.LeaveCalls()
}

// MaxInside returns the largest number of callers observed inside at once.
func (p *MockProtector) MaxInside() int64 {
	return p.maxInside.Load()
}

// Reset clears the counters. It must not be called while a caller is inside.
func (p *MockProtector) Reset() {
	p.enterCalls.Store(0)
	p.leaveCalls.Store(0)
	p.inside.Store(0)
	p.maxInside.Store(0)
}

// Inside returns the number of callers currently inside.
func (p *MockProtector) Inside() int64 {
	return p.inside.Load()
}
