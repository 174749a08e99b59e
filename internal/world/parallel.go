package world

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ForEachRow runs fn once per row on a bounded worker pool.
// fn must only write cells in its own row.
func ForEachRow(h int, fn func(y int)) {
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for y := 0; y < h; y++ {
		g.Go(func() error {
			fn(y)
			return nil
		})
	}
	_ = g.Wait()
}

// Hash01 maps integer coordinates and a seed to a stable value in [0, 1).
// Used where per-cell randomness must not depend on scan order.
func Hash01(seed int64, a, b, c int) float64 {
	h := uint64(seed)*0x9E3779B97F4A7C15 ^ uint64(int64(a))*0xBF58476D1CE4E5B9
	h ^= uint64(int64(b)) * 0x94D049BB133111EB
	h ^= uint64(int64(c)) * 0xD6E8FEB86659FD93
	h ^= h >> 31
	h *= 0x7FB5D329728EA185
	h ^= h >> 27
	h *= 0x81DADEF4BC2DD44D
	h ^= h >> 33
	return float64(h>>11) / float64(1<<53)
}
