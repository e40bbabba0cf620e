package render

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minColumnSpan keeps tiny triangles on the calling goroutine.
const minColumnSpan = 16

// Columns splits the column range [x0, x1) into contiguous spans and calls fn
// on each, running at most workers spans at once (GOMAXPROCS when workers
// <= 0). It returns once every span has finished. Spans never overlap, so fn
// may write any pixel in its columns without locking.
func Columns(x0, x1, workers int, fn func(lo, hi int)) {
	n := x1 - x0
	if n <= 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	span := max(minColumnSpan, (n+workers-1)/workers)
	if span >= n || workers == 1 {
		fn(x0, x1)
		return
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for lo := x0; lo < x1; lo += span {
		hi := min(lo+span, x1)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	_ = g.Wait()
}
