// Package freelist implements an index-linked LIFO list of free slots.
//
// The links live in a side table rather than inside the slots themselves, so
// slot storage can be of any type and is never reinterpreted. A List is not
// safe for concurrent use; callers serialize access.
package freelist

import "math"

// MaxSlots is the maximum number of slots a List can track.
const MaxSlots = math.MaxInt32

// List is a singly-linked LIFO list of slot indices.
// The zero value is an empty list with no slots.
type List struct {
	// next[i] is the successor of slot i, biased by one so that 0 ends the list.
	// Entries of slots that are not on the list are zero.
	next []uint32
	head uint32 // Biased by one; 0 means the list is empty.
	n    int
}

// Len returns the number of slots on the list.
func (l *List) Len() int {
	return l.n
}

// Slots returns the number of slots the list knows about, free or not.
func (l *List) Slots() int {
	return len(l.next)
}

// Grow extends the list's slot range by n slots without linking them.
// It returns the index of the first new slot.
// It panics if the total would exceed MaxSlots.
func (l *List) Grow(n int) int {
	first := len(l.next)
	if n < 0 || n > MaxSlots-first {
		panic("freelist: slot count out of range")
	}
	l.next = append(l.next, make([]uint32, n)...)
	return first
}

// Push links slot i at the head of the list.
func (l *List) Push(i uint32) {
	l.next[i] = l.head
	l.head = i + 1
	l.n++
}

// PushRange links slots [first, first+n) so that first becomes the head and
// the slots pop in ascending order.
func (l *List) PushRange(first, n int) {
	for i := first + n - 1; i >= first; i-- {
		l.Push(uint32(i))
	}
}

// Pop unlinks and returns the head slot.
// The ok result is false if the list is empty.
func (l *List) Pop() (i uint32, ok bool) {
	if l.head == 0 {
		return 0, false
	}
	i = l.head - 1
	l.head = l.next[i]
	l.next[i] = 0
	l.n--
	return i, true
}

// Walk calls fn for each slot on the list from head to tail until fn
// returns false. It stops after Slots() steps, so a corrupted cycle
// cannot hang the caller.
func (l *List) Walk(fn func(i uint32) bool) {
	steps := 0
	for cur := l.head; cur != 0 && steps < len(l.next); steps++ {
		i := cur - 1
		if !fn(i) {
			return
		}
		cur = l.next[i]
	}
}

// Reset empties the list and forgets all slots.
func (l *List) Reset() {
	*l = List{}
}
