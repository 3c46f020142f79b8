// Package interval provides a timer-backed monitorable resource: its
// value is the time of the latest tick, and it notifies once per period.
// Useful for pipelines that must re-evaluate on a schedule even when no
// other input changes.
package interval

import (
	"context"
	"time"

	"github.com/rillflow/rill/internal/output"
)

// Driver implements the monitor driver contract for a fixed period.
type Driver struct {
	period time.Duration
}

// New creates a driver ticking every period. period must be positive.
func New(period time.Duration) *Driver {
	if period <= 0 {
		panic("interval: period must be positive")
	}
	return &Driver{period: period}
}

// Describe identifies the ticker in traces.
func (d *Driver) Describe() string { return "every:" + d.period.String() }

// Read returns the current time.
func (d *Driver) Read(ctx context.Context) output.Output[time.Time] {
	return output.Ok(time.Now())
}

// Watch starts a ticker invoking notify each period; unwatch stops it and
// waits for the forwarding goroutine to exit.
func (d *Driver) Watch(notify func()) (unwatch func()) {
	ticker := time.NewTicker(d.period)
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case <-ticker.C:
				notify()
			case <-stop:
				return
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(stop)
		<-done
	}
}
