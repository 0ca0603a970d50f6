package fpool

import (
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// ShardHandle identifies a block within a Sharded pool.
type ShardHandle struct {
	Shard  int
	Handle Handle
}

// Sharded spreads allocations over several independent pools to reduce
// contention. A caller key, e.g. a connection or worker id, selects the shard
// to try first; the remaining shards are tried in order before reporting
// exhaustion.
type Sharded struct {
	shards []*Pool
}

// NewSharded creates n pools from config. Each shard gets its own buffer when
// config.Items is positive. Unless config.Protector is set, each shard is
// protected by its own mutex rather than the global interrupt mask.
func NewSharded(n int, config Config) (*Sharded, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: shard count must be positive, got %d", ErrInvalidConfig, n)
	}
	s := &Sharded{shards: make([]*Pool, n)}
	for i := range s.shards {
		cfg := config
		if cfg.Protector == nil {
			cfg.Protector = Region(&sync.Mutex{})
		}
		p, err := New(cfg)
		if err != nil {
			return nil, fmt.Errorf("shard %d: %w", i, err)
		}
		s.shards[i] = p
	}
	return s, nil
}

// Len returns the number of shards.
func (s *Sharded) Len() int {
	return len(s.shards)
}

// Shard returns the i-th shard, e.g. to add buffers to it.
func (s *Sharded) Shard(i int) *Pool {
	return s.shards[i]
}

// Home returns the shard Alloc tries first for key.
func (s *Sharded) Home(key []byte) int {
	return int(xxhash.Sum64(key) % uint64(len(s.shards)))
}

// Alloc takes a block from the key's home shard, or from the next shard that
// has one. The ok result is false only if every shard is exhausted.
func (s *Sharded) Alloc(key []byte) (ShardHandle, bool) {
	home := s.Home(key)
	for i := range s.shards {
		idx := (home + i) % len(s.shards)
		if h, ok := s.shards[idx].Alloc(); ok {
			return ShardHandle{Shard: idx, Handle: h}, true
		}
	}
	return ShardHandle{}, false
}

func (s *Sharded) Free(h ShardHandle) {
	s.shard(h).Free(h.Handle)
}

func (s *Sharded) Bytes(h ShardHandle) []byte {
	return s.shard(h).Bytes(h.Handle)
}

func (s *Sharded) shard(h ShardHandle) *Pool {
	if h.Shard < 0 || h.Shard >= len(s.shards) {
		panic(fmt.Errorf("%w: shard %d is out of range", ErrInvalidHandle, h.Shard))
	}
	return s.shards[h.Shard]
}

// Count returns the number of free blocks across all shards.
func (s *Sharded) Count() int {
	n := 0
	for _, p := range s.shards {
		n += p.Count()
	}
	return n
}

// Capacity returns the number of blocks across all shards.
func (s *Sharded) Capacity() int {
	n := 0
	for _, p := range s.shards {
		n += p.Capacity()
	}
	return n
}
