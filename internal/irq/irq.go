// Package irq emulates the maskable-interrupt controller of a single-core
// target.
//
// Masking interrupts on such a target gives the caller exclusive use of the
// core until the mask is restored. Goroutines have no core to own, so the
// controller models the mask as one process-wide spin lock: Disable blocks
// until the mask is clear, sets it and reports the state it found.
//
// Unlike hardware masking the emulation is not reentrant. A goroutine that
// calls Disable twice without a Restore in between spins forever.
package irq

import "github.com/holmberd/go-fpool/internal/spin"

// State is the interrupt mask state as seen before a Disable.
type State uint8

const (
	Enabled State = iota // Interrupts were enabled.
	Masked               // Interrupts were already masked.
)

func (s State) String() string {
	switch s {
	case Enabled:
		return "enabled"
	case Masked:
		return "masked"
	default:
		return "unknown"
	}
}

// Controller is an emulated interrupt controller.
// The zero value has interrupts enabled.
type Controller struct {
	mask spin.Lock
}

var global Controller

// Global returns the process-wide controller shared by every pool that is
// protected by interrupt masking.
func Global() *Controller {
	return &global
}

// Disable masks interrupts and returns the previous state.
func (c *Controller) Disable() State {
	c.mask.Lock()
	return Enabled
}

// Restore puts the mask back to the state returned by the matching Disable.
func (c *Controller) Restore(s State) {
	if s == Enabled {
		c.mask.Unlock()
	}
}

// Masked reports whether interrupts are currently masked.
func (c *Controller) Masked() bool {
	return c.mask.Locked()
}
