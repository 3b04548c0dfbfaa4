package jobs

import (
	"context"
	"log/slog"
	"time"
)

// LifecycleAdvancer moves trips through their schedule
type LifecycleAdvancer interface {
	AdvanceLifecycle(ctx context.Context, now time.Time) (int, error)
}

// TripLifecycleJob starts departed trips and completes returned ones
type TripLifecycleJob struct {
	trips    LifecycleAdvancer
	interval time.Duration
	now      func() time.Time
	ticker   *time.Ticker
	done     chan bool
}

// NewTripLifecycleJob creates a new trip lifecycle job
func NewTripLifecycleJob(trips LifecycleAdvancer, interval time.Duration) *TripLifecycleJob {
	if interval <= 0 {
		interval = time.Minute
	}
	return &TripLifecycleJob{
		trips:    trips,
		interval: interval,
		now:      time.Now,
		done:     make(chan bool),
	}
}

// Start begins the background job
func (j *TripLifecycleJob) Start(ctx context.Context) {
	slog.Info("Starting trip lifecycle job", "check_interval", j.interval.String())

	j.ticker = time.NewTicker(j.interval)

	// Run initial check immediately
	j.runOnce(ctx)

	go func() {
		for {
			select {
			case <-j.ticker.C:
				j.runOnce(ctx)
			case <-ctx.Done():
				slog.Info("Trip lifecycle job stopped")
				return
			case <-j.done:
				slog.Info("Trip lifecycle job stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the background job
func (j *TripLifecycleJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
}

func (j *TripLifecycleJob) runOnce(ctx context.Context) {
	moved, err := j.trips.AdvanceLifecycle(ctx, j.now())
	if err != nil {
		slog.Error("Failed to advance trip lifecycle", "error", err)
		return
	}
	if moved > 0 {
		slog.Info("Trips advanced", "count", moved)
	} else {
		slog.Debug("No trips due for transition")
	}
}
