package fpool

// FreeHandles returns the handles on p's free list from head to tail.
func FreeHandles(p *Pool) []Handle {
	return p.c.freeHandles()
}

// TypedFreeHandles is FreeHandles for a TypedPool.
func TypedFreeHandles[T any](p *TypedPool[T]) []Handle {
	return p.c.freeHandles()
}
