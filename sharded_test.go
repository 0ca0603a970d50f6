package fpool_test

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/holmberd/go-fpool"
)

func TestSharded(t *testing.T) {
	t.Run("Invalid shard count", func(t *testing.T) {
		for _, n := range []int{0, -1} {
			_, err := fpool.NewSharded(n, fpool.Config{})
			require.ErrorIs(t, err, fpool.ErrInvalidConfig)
		}
	})

	t.Run("Invalid shard config", func(t *testing.T) {
		_, err := fpool.NewSharded(2, fpool.Config{Items: -1})
		require.ErrorIs(t, err, fpool.ErrInvalidConfig)
	})

	t.Run("Each shard gets its own buffer and lock", func(t *testing.T) {
		s, err := fpool.NewSharded(4, fpool.Config{Items: 2, ItemSize: 16})
		require.NoError(t, err)
		require.Equal(t, 4, s.Len())
		require.Equal(t, 8, s.Capacity())
		require.Equal(t, 8, s.Count())

		// Holding shard 0's lock must not block shard 1.
		state := s.Shard(0).Protector().Enter()
		h, ok := s.Shard(1).Alloc()
		require.True(t, ok)
		s.Shard(1).Free(h)
		s.Shard(0).Protector().Leave(state)
	})

	t.Run("Shared protector", func(t *testing.T) {
		prot := fpool.Region(&sync.Mutex{})
		s, err := fpool.NewSharded(2, fpool.Config{Protector: prot})
		require.NoError(t, err)
		require.Equal(t, prot, s.Shard(0).Protector())
		require.Equal(t, prot, s.Shard(1).Protector())
	})

	t.Run("Alloc prefers the home shard then falls back", func(t *testing.T) {
		s, err := fpool.NewSharded(4, fpool.Config{Items: 2, ItemSize: 16})
		require.NoError(t, err)

		key := []byte("conn-1")
		home := s.Home(key)
		require.Equal(t, home, s.Home(key), "home shard must be stable")

		var hs []fpool.ShardHandle
		for i := range s.Capacity() {
			h, ok := s.Alloc(key)
			require.True(t, ok)
			if i < 2 {
				require.Equal(t, home, h.Shard)
			} else {
				require.NotEqual(t, home, h.Shard)
			}
			hs = append(hs, h)
		}
		_, ok := s.Alloc(key)
		require.False(t, ok)
		require.Zero(t, s.Count())

		addrs := make(map[*byte]bool)
		for _, h := range hs {
			addrs[&s.Bytes(h)[0]] = true
			s.Free(h)
		}
		require.Len(t, addrs, 8)
		require.Equal(t, 8, s.Count())
	})

	t.Run("Invalid shard handle", func(t *testing.T) {
		s, err := fpool.NewSharded(2, fpool.Config{Items: 1, ItemSize: 16})
		require.NoError(t, err)
		err = recoverErr(t, func() { s.Free(fpool.ShardHandle{Shard: 2}) })
		require.ErrorIs(t, err, fpool.ErrInvalidHandle)
	})

	t.Run("Concurrent use", func(t *testing.T) {
		const workers = 8
		s, err := fpool.NewSharded(4, fpool.Config{Items: 2, ItemSize: 16, Debug: true})
		require.NoError(t, err)

		var wg sync.WaitGroup
		for w := range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				key := []byte(strconv.Itoa(w))
				for range 1000 {
					h, ok := s.Alloc(key)
					if !ok {
						continue
					}
					s.Bytes(h)[0] = byte(w)
					s.Free(h)
				}
			}()
		}
		wg.Wait()
		require.Equal(t, s.Capacity(), s.Count())
	})
}
