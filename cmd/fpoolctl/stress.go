package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/holmberd/go-fpool"
	"github.com/spf13/cobra"
)

type stressOptions struct {
	Workers  int
	Cycles   int
	Blocks   int
	ItemSize int
	Protect  string
	Mmap     bool
	Debug    bool
}

type stressResult struct {
	Protect   string        `json:"protect"`
	Workers   int           `json:"workers"`
	Cycles    int           `json:"cycles"`
	Capacity  int           `json:"capacity"`
	Free      int           `json:"free"`
	Exhausted uint64        `json:"exhausted"`
	Duration  time.Duration `json:"duration_ns"`
}

var stressOpts = stressOptions{
	Workers:  runtime.GOMAXPROCS(0),
	Cycles:   100000,
	Blocks:   64,
	ItemSize: fpool.DefaultItemSize,
	Protect:  "irq",
}

func init() {
	cmd := newStressCmd()
	f := cmd.Flags()
	f.IntVar(&stressOpts.Workers, "workers", stressOpts.Workers, "Number of concurrent goroutines")
	f.IntVar(&stressOpts.Cycles, "cycles", stressOpts.Cycles, "Alloc/free cycles per goroutine")
	f.IntVar(&stressOpts.Blocks, "blocks", stressOpts.Blocks, "Number of blocks in the pool")
	f.IntVar(&stressOpts.ItemSize, "item-size", stressOpts.ItemSize, "Block size in bytes")
	f.StringVar(&stressOpts.Protect, "protect", stressOpts.Protect, "Protection strategy: irq, mutex or spin")
	f.BoolVar(&stressOpts.Mmap, "mmap", false, "Map the pool buffer outside the Go heap")
	f.BoolVar(&stressOpts.Debug, "debug", false, "Detect double frees")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stress",
		Short: "Run concurrent alloc/free cycles against a pool",
		Long: `The stress command runs several goroutines that repeatedly allocate a
block, fill it with a per-goroutine pattern, verify the pattern and free the
block. It fails if a block is ever shared or if the pool does not end up with
every block free.

Example:
  fpoolctl stress --workers 8 --cycles 100000 --blocks 8
  fpoolctl stress --protect spin --mmap --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(os.Stderr)
			res, err := runStress(stressOpts, logger)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"%s: %d workers x %d cycles in %s, %d/%d blocks free, %d exhausted allocations\n",
				res.Protect, res.Workers, res.Cycles, res.Duration, res.Free, res.Capacity, res.Exhausted,
			)
			return nil
		},
	}
}

// newArena creates the arena backing --mmap pools.
var newArena = fpool.NewArena

func protectorFor(name string) (fpool.Protector, error) {
	switch name {
	case "irq":
		return fpool.InterruptMask(), nil
	case "mutex":
		return fpool.Region(&sync.Mutex{}), nil
	case "spin":
		return fpool.Region(&fpool.SpinLock{}), nil
	default:
		return nil, fmt.Errorf("unknown protection strategy %q", name)
	}
}

func runStress(opts stressOptions, logger *slog.Logger) (res stressResult, err error) {
	if opts.Workers <= 0 || opts.Cycles <= 0 || opts.Blocks <= 0 {
		return stressResult{}, errors.New("workers, cycles and blocks must be positive")
	}
	prot, err := protectorFor(opts.Protect)
	if err != nil {
		return stressResult{}, err
	}

	cfg := fpool.Config{
		Protector: prot,
		Debug:     opts.Debug,
		Items:     opts.Blocks,
		ItemSize:  opts.ItemSize,
	}
	if opts.Mmap {
		arena := newArena(logger)
		defer func() {
			err = errors.Join(err, arena.Close())
		}()
		cfg.Arena = arena
	}
	p, err := fpool.New(cfg)
	if err != nil {
		return stressResult{}, err
	}
	logger.Debug("pool ready",
		"protect", opts.Protect,
		"blocks", p.Capacity(),
		"item_size", opts.ItemSize,
		"mmap", opts.Mmap,
	)

	var exhausted atomic.Uint64
	var wg sync.WaitGroup
	errs := make([]error, opts.Workers)
	start := time.Now()
	for w := range opts.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[w] = stressWorker(p, byte(w+1), opts.Cycles, &exhausted)
		}()
	}
	wg.Wait()

	res = stressResult{
		Protect:   opts.Protect,
		Workers:   opts.Workers,
		Cycles:    opts.Cycles,
		Capacity:  p.Capacity(),
		Free:      p.Count(),
		Exhausted: exhausted.Load(),
		Duration:  time.Since(start),
	}
	if werr := errors.Join(errs...); werr != nil {
		return res, werr
	}
	if res.Free != res.Capacity {
		return res, fmt.Errorf("pool leaked blocks: %d of %d free", res.Free, res.Capacity)
	}
	logger.Debug("stress finished", "duration", res.Duration, "exhausted", res.Exhausted)
	return res, nil
}

func stressWorker(p *fpool.Pool, pattern byte, cycles int, exhausted *atomic.Uint64) error {
	for i := 0; i < cycles; {
		h, ok := p.Alloc()
		if !ok {
			exhausted.Add(1)
			runtime.Gosched()
			continue
		}
		b := p.Bytes(h)
		for j := range b {
			b[j] = pattern
		}
		runtime.Gosched()
		for j := range b {
			if b[j] != pattern {
				return fmt.Errorf("block %d overwritten during cycle %d: want %#x, got %#x", h, i, pattern, b[j])
			}
		}
		p.Free(h)
		i++
	}
	return nil
}
