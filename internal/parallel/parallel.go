// Package parallel provides bounded fan-out helpers for the Grain
// engine's read-only batch paths.
//
// Training itself is strictly sequential by contract; only independent
// per-sample computations (batch prediction, evaluation) and independent
// Network instances may run concurrently. Results are written to
// index-addressed slots, so output order is deterministic regardless of
// scheduling.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls fan-out behavior.
type Config struct {
	Enabled      bool // whether fan-out is enabled at all
	NumWorkers   int  // number of worker goroutines
	MinChunkSize int  // minimum items per goroutine to justify the overhead
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 8,
	}
}

// Sequential disables fan-out entirely.
func Sequential() Config {
	return Config{}
}

// For executes f(i) for i in [0, n), fanning out across workers when the
// configuration allows it and n is large enough; otherwise it runs
// sequentially in index order.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || cfg.NumWorkers <= 1 || n < cfg.MinChunkSize {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	chunk := (n + cfg.NumWorkers - 1) / cfg.NumWorkers
	if chunk < cfg.MinChunkSize {
		chunk = cfg.MinChunkSize
	}

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ForErr executes f(i) for i in [0, n) like For, collecting per-index
// errors and returning the one with the lowest index, which keeps the
// reported failure deterministic under concurrency.
func ForErr(n int, f func(i int) error, cfg Config) error {
	errs := make([]error, n)
	For(n, func(i int) {
		errs[i] = f(i)
	}, cfg)
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
