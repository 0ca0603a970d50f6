package fpool

import (
	"sync"

	"github.com/holmberd/go-fpool/internal/irq"
	"github.com/holmberd/go-fpool/internal/spin"
)

// State is the token returned by Protector.Enter and handed back to the
// matching Leave, e.g. the interrupt mask in effect before Enter.
type State uintptr

// Protector brackets a pool mutation with an Enter/Leave pair.
// Enter must not return until the caller has exclusive access to every pool
// bound to the same Protector.
type Protector interface {
	Enter() State
	Leave(State)
}

// SpinLock is a spin lock suitable for Region when critical sections are
// short enough that parking a goroutine costs more than spinning.
type SpinLock = spin.Lock

type interruptMask struct {
	c *irq.Controller
}

// InterruptMask returns the Protector that masks the process-wide emulated
// interrupt controller. It suits pools shared between ordinary code and
// interrupt-like handlers. All pools using it share one critical section,
// and Enter is not reentrant.
func InterruptMask() Protector {
	return interruptMask{c: irq.Global()}
}

func (m interruptMask) Enter() State {
	return State(m.c.Disable())
}

func (m interruptMask) Leave(s State) {
	m.c.Restore(irq.State(s))
}

type region struct {
	l sync.Locker
}

// Region returns a Protector that locks l on Enter and unlocks it on Leave.
func Region(l sync.Locker) Protector {
	if l == nil {
		panic("fpool: Region requires a non-nil lock")
	}
	return region{l: l}
}

func (r region) Enter() State {
	r.l.Lock()
	return 0
}

func (r region) Leave(State) {
	r.l.Unlock()
}

// RegionFuncs adapts a pair of enter/leave hooks, such as a scheduler's
// critical section, to a Protector. Nil hooks are skipped.
type RegionFuncs struct {
	OnEnter func()
	OnLeave func()
}

func (r RegionFuncs) Enter() State {
	if r.OnEnter != nil {
		r.OnEnter()
	}
	return 0
}

func (r RegionFuncs) Leave(State) {
	if r.OnLeave != nil {
		r.OnLeave()
	}
}
