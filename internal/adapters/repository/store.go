// Package repository implements the expert review stores and the auto score
// cache. Every store satisfies review.Store: at most one row per review key
// and an atomic read-modify-write through Mutate.
package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/udrf/internal/domain/review"
	"github.com/okian/udrf/pkg/metrics"
)

var (
	_ review.Store = (*MemoryStore)(nil)
	_ review.Store = (*SQLStore)(nil)
)

const defaultMetricsUpdateInterval = 5 * time.Second

// gaugeLoop periodically publishes the number of stored reviews.
type gaugeLoop struct {
	interval time.Duration
	stop     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

func newGaugeLoop(interval time.Duration) *gaugeLoop {
	if interval <= 0 {
		interval = defaultMetricsUpdateInterval
	}
	return &gaugeLoop{interval: interval, stop: make(chan struct{})}
}

func (g *gaugeLoop) start(ctx context.Context, count func(context.Context) (int, error)) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		ticker := time.NewTicker(g.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-g.stop:
				return
			case <-ticker.C:
				if n, err := count(ctx); err == nil {
					metrics.UpdateReviewsTotal(n)
				}
			}
		}
	}()
}

func (g *gaugeLoop) close() {
	g.once.Do(func() { close(g.stop) })
	g.wg.Wait()
}
