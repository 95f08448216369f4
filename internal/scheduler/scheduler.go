// Package scheduler runs the periodic reconciliation sweep that keeps
// vehicle occupancy in step with contract windows.  Bookings record
// the future RENTED interval up front, but the open "current" interval
// only flips when a contract window actually begins or ends; the sweep
// is what performs those flips.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/tuanngo/car-rental-api/internal/booking"
	"github.com/tuanngo/car-rental-api/internal/model"
	"github.com/tuanngo/car-rental-api/internal/repository"
)

// Store is the slice of the booking store the sweep needs.
// booking.Store satisfies it.
type Store interface {
	Begin(ctx context.Context) (booking.Tx, error)
	StartCandidates(ctx context.Context, now time.Time) ([]repository.SweepCandidate, error)
	EndCandidates(ctx context.Context, now time.Time) ([]repository.SweepCandidate, error)
}

// Scheduler drives the reconciliation sweep on a fixed interval.
type Scheduler struct {
	store    Store
	interval time.Duration
	now      func() time.Time
}

// New returns a Scheduler sweeping every interval.  An interval of
// zero or less falls back to one minute.
func New(store Store, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		store:    store,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run sweeps once immediately, then on every tick until the context
// is cancelled.  A failed sweep is logged and retried on the next
// tick; Run itself never returns an error and never panics the
// process over a sweep failure.
func (s *Scheduler) Run(ctx context.Context) {
	log.Printf("scheduler: reconciliation sweep every %s", s.interval)
	s.Sweep(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("scheduler: stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs the start sweep then the end sweep once.  Each vehicle
// flips in its own transaction, so one bad row cannot block the rest
// of the fleet.
func (s *Scheduler) Sweep(ctx context.Context) {
	now := s.now()

	starts, err := s.store.StartCandidates(ctx, now)
	if err != nil {
		log.Printf("scheduler: start sweep query failed: %v", err)
	}
	for _, c := range starts {
		if err := s.flip(ctx, c, model.StatusRented, now); err != nil {
			log.Printf("scheduler: start sweep vehicle %d: %v", c.VehicleID, err)
		}
	}

	ends, err := s.store.EndCandidates(ctx, now)
	if err != nil {
		log.Printf("scheduler: end sweep query failed: %v", err)
	}
	for _, c := range ends {
		if err := s.flip(ctx, c, model.StatusAvailable, now); err != nil {
			log.Printf("scheduler: end sweep vehicle %d: %v", c.VehicleID, err)
		}
	}
}

// flip closes the vehicle's open interval at now and opens a new
// open-ended one with the target status, keeping the branch the
// candidate query reported.
func (s *Scheduler) flip(ctx context.Context, c repository.SweepCandidate, status model.VehicleStatus, now time.Time) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := tx.CloseOpen(ctx, c.VehicleID, now); err != nil {
		return err
	}
	next := model.OccupancyInterval{
		VehicleID: c.VehicleID,
		Status:    status,
		BranchID:  c.BranchID,
		StartsAt:  now,
	}
	if err := tx.InsertInterval(ctx, &next); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
