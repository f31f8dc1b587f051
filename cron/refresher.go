package cron

import (
	"context"
	"sync"
	"time"

	availabilityRepo "slotbook/database/repository/availability"
	bookingRepo "slotbook/database/repository/booking"
	"slotbook/services/matching"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultHorizon is how far ahead the refresher recounts bookings.
const DefaultHorizon = 14 * 24 * time.Hour

// Refresher periodically recomputes booked counts for upcoming rows and corrects is_full.
// A claim counter above the booked count on two consecutive passes is lowered to it, which
// returns capacity held by claims whose booking was never stored.
type Refresher struct {
	Availability availabilityRepo.AvailabilityRepository
	Bookings     bookingRepo.BookingRepository
	Spec         string
	Horizon      time.Duration
	Now          func() time.Time
	Logger       *zap.Logger

	mu   sync.Mutex
	cron *cron.Cron

	passMu  sync.Mutex
	surplus map[string]int
}

// RunOnce performs one refresh pass and returns how many rows changed.
func (r *Refresher) RunOnce(ctx context.Context) (int, error) {
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	horizon := r.Horizon
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	until := now.Add(horizon)

	rows, err := r.Availability.ListRange(ctx, now, until, "")
	if err != nil {
		return 0, err
	}
	bookings, err := r.Bookings.ListOverlapping(ctx, now, until, "")
	if err != nil {
		return 0, err
	}

	r.passMu.Lock()
	defer r.passMu.Unlock()
	seen := make(map[string]int)

	changed := 0
	for _, row := range rows {
		booked := matching.BookedCount(row.LocationID, row.Start, row.End, bookings)
		if row.Claimed > booked {
			// An in-flight booking holds its claim before it is stored, so only a surplus
			// that survived a whole interval is treated as leaked.
			if prev, ok := r.surplus[row.ID]; ok && prev == row.Claimed {
				ok, err := r.Availability.SetClaimed(ctx, row.ID, row.Claimed, booked)
				if err != nil {
					return changed, err
				}
				if ok {
					r.Logger.Warn("Released leaked claims",
						zap.String("availabilityID", row.ID),
						zap.Int("claimed", row.Claimed),
						zap.Int("booked", booked))
					changed++
				}
			} else {
				seen[row.ID] = row.Claimed
			}
		}

		full := booked >= row.Capacity
		if full == row.IsFull {
			continue
		}
		if err := r.Availability.SetFull(ctx, row.ID, full); err != nil {
			return changed, err
		}
		changed++
	}
	r.surplus = seen
	return changed, nil
}

// Start schedules RunOnce on Spec. Cancelling ctx stops the schedule like Stop does.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cron != nil {
		return nil
	}

	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.VerbosePrintfLogger(zap.NewStdLog(r.Logger))),
	))
	_, err := c.AddFunc(r.Spec, func() {
		n, err := r.RunOnce(ctx)
		if err != nil {
			r.Logger.Warn("Status refresh failed", zap.Error(err))
			return
		}
		if n > 0 {
			r.Logger.Debug("Status refresh corrected rows", zap.Int("changed", n))
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	r.cron = c
	r.Logger.Info("Status refresher started", zap.String("spec", r.Spec))

	go func() {
		<-ctx.Done()
		r.Stop()
	}()
	return nil
}

// Stop halts the schedule and waits for a running pass to finish. It is safe to call twice.
func (r *Refresher) Stop() {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	r.Logger.Info("Status refresher stopped")
}
