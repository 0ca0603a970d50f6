package fpool_test

import (
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/holmberd/go-fpool"
)

// GOMAXPROCS=4 go clean -testcache && go test -bench=BenchmarkPool -benchtime=10s -benchmem .

const benchBlocks = 1 << 10

func benchmarkPool(b *testing.B, prot fpool.Protector) {
	p, err := fpool.New(fpool.Config{Protector: prot, Items: benchBlocks, ItemSize: 64})
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			h, ok := p.Alloc()
			if !ok {
				continue
			}
			p.Bytes(h)[0]++
			p.Free(h)
		}
	})
}

// BenchmarkPoolInterruptMask measures alloc/free pairs under the global
// interrupt mask.
func BenchmarkPoolInterruptMask(b *testing.B) {
	benchmarkPool(b, fpool.InterruptMask())
}

func BenchmarkPoolMutex(b *testing.B) {
	benchmarkPool(b, fpool.Region(&sync.Mutex{}))
}

func BenchmarkPoolSpinLock(b *testing.B) {
	benchmarkPool(b, fpool.Region(&fpool.SpinLock{}))
}

// BenchmarkShardedMutex spreads the same workload over per-shard mutexes,
// each goroutine keyed by its own id.
func BenchmarkShardedMutex(b *testing.B) {
	s, err := fpool.NewSharded(8, fpool.Config{Items: benchBlocks / 8, ItemSize: 64})
	if err != nil {
		b.Fatal(err)
	}

	var ids atomic.Int64
	b.ResetTimer()
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		key := []byte(strconv.FormatInt(ids.Add(1), 10))
		for pb.Next() {
			h, ok := s.Alloc(key)
			if !ok {
				continue
			}
			s.Bytes(h)[0]++
			s.Free(h)
		}
	})
}
