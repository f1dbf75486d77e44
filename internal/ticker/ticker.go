// Package ticker drives the alarm clock at the start of every second.
package ticker

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	missedTicksCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alarm_clock_missed_ticks",
		Help: "count of ticks that were generated but never received by anything",
	})

	tickDelayMetric = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "alarm_clock_tick_delay_seconds",
		Help:    "time between the interval boundary and the tick being received",
		Buckets: prometheus.ExponentialBuckets(1e-6, 10, 8),
	})
)

// Tick sends the current time to ch at the instant each interval boundary
// passes (for one second, the instant the seconds change). An absent listener
// does not receive an outdated time: the tick is skipped and counted as missed.
// Cancelling the context causes Tick to return immediately.
func Tick(ctx context.Context, interval time.Duration, ch chan<- time.Time) error {
	if interval <= 0 {
		return fmt.Errorf("invalid tick interval %v", interval)
	}
	patience := interval / 2

	for {
		next := time.Now().Add(interval).Truncate(interval)

		select {
		case <-time.After(time.Until(next)):
		case <-ctx.Done():
			return fmt.Errorf("waiting for next tick: %w", ctx.Err())
		}

		select {
		case <-time.After(patience):
			missedTicksCounter.Inc()
		case <-ctx.Done():
			return fmt.Errorf("waiting to send tick: %w", ctx.Err())
		case ch <- next:
			tickDelayMetric.Observe(time.Since(next).Seconds())
		}
	}
}
