package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanngo/car-rental-api/internal/booking/bookingtest"
	"github.com/tuanngo/car-rental-api/internal/model"
)

func at(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// seed puts a vehicle on an open AVAILABLE interval and books a
// contract window on it, returning the store.
func seed(vehicleID, branchID uint64, contractStart, contractEnd time.Time) *bookingtest.Store {
	store := bookingtest.NewStore()
	store.SeedInterval(model.OccupancyInterval{
		VehicleID: vehicleID,
		Status:    model.StatusAvailable,
		BranchID:  branchID,
		StartsAt:  at(time.January, 1),
	})
	store.SeedContract(model.RentalContract{
		CustomerID: 9,
		VehicleID:  vehicleID,
		StartsAt:   contractStart,
		EndsAt:     contractEnd,
	})
	return store
}

func TestSweepStartsRental(t *testing.T) {
	store := seed(1, 3, at(time.March, 1), at(time.March, 5))
	s := New(store, time.Minute)
	s.now = fixedNow(at(time.March, 2))

	s.Sweep(context.Background())

	ivs := store.Intervals(1)
	require.Len(t, ivs, 2)
	assert.Equal(t, model.StatusAvailable, ivs[0].Status)
	require.NotNil(t, ivs[0].EndsAt)
	assert.Equal(t, at(time.March, 2), *ivs[0].EndsAt)
	assert.Equal(t, model.StatusRented, ivs[1].Status)
	assert.Equal(t, uint64(3), ivs[1].BranchID, "branch survives the flip")
	assert.Nil(t, ivs[1].EndsAt)
}

func TestSweepEndsRental(t *testing.T) {
	store := bookingtest.NewStore()
	store.SeedInterval(model.OccupancyInterval{
		VehicleID: 1,
		Status:    model.StatusRented,
		BranchID:  3,
		StartsAt:  at(time.March, 1),
	})
	// No contract covers now: the rental is over.
	s := New(store, time.Minute)
	s.now = fixedNow(at(time.March, 6))

	s.Sweep(context.Background())

	ivs := store.Intervals(1)
	require.Len(t, ivs, 2)
	assert.Equal(t, model.StatusRented, ivs[0].Status)
	assert.Equal(t, at(time.March, 6), *ivs[0].EndsAt)
	assert.Equal(t, model.StatusAvailable, ivs[1].Status)
	assert.Equal(t, uint64(3), ivs[1].BranchID)
	assert.Nil(t, ivs[1].EndsAt)
}

func TestSweepIsIdempotent(t *testing.T) {
	store := seed(1, 3, at(time.March, 1), at(time.March, 5))
	s := New(store, time.Minute)
	s.now = fixedNow(at(time.March, 2))

	s.Sweep(context.Background())
	first := store.Intervals(1)
	s.Sweep(context.Background())
	assert.Equal(t, first, store.Intervals(1), "second sweep changes nothing")
}

func TestSweepFullCycle(t *testing.T) {
	store := seed(1, 3, at(time.March, 1), at(time.March, 5))
	s := New(store, time.Minute)

	s.now = fixedNow(at(time.March, 2))
	s.Sweep(context.Background())

	s.now = fixedNow(at(time.March, 7))
	s.Sweep(context.Background())

	ivs := store.Intervals(1)
	require.Len(t, ivs, 3)
	assert.Equal(t, model.StatusAvailable, ivs[0].Status)
	assert.Equal(t, model.StatusRented, ivs[1].Status)
	assert.Equal(t, at(time.March, 2), ivs[1].StartsAt)
	assert.Equal(t, at(time.March, 7), *ivs[1].EndsAt)
	assert.Equal(t, model.StatusAvailable, ivs[2].Status)
	assert.Nil(t, ivs[2].EndsAt)
}

func TestSweepFailureIsolation(t *testing.T) {
	store := seed(1, 3, at(time.March, 1), at(time.March, 5))
	store.SeedInterval(model.OccupancyInterval{
		VehicleID: 2,
		Status:    model.StatusAvailable,
		BranchID:  4,
		StartsAt:  at(time.January, 1),
	})
	store.SeedContract(model.RentalContract{
		CustomerID: 9,
		VehicleID:  2,
		StartsAt:   at(time.March, 1),
		EndsAt:     at(time.March, 5),
	})
	store.InsertIntervalErr = errors.New("disk full")
	store.FailVehicleID = 1

	s := New(store, time.Minute)
	s.now = fixedNow(at(time.March, 2))
	s.Sweep(context.Background())

	// Vehicle 1's flip rolled back whole; vehicle 2 still flipped.
	ivs1 := store.Intervals(1)
	require.Len(t, ivs1, 1)
	assert.Equal(t, model.StatusAvailable, ivs1[0].Status)
	assert.Nil(t, ivs1[0].EndsAt)

	ivs2 := store.Intervals(2)
	require.Len(t, ivs2, 2)
	assert.Equal(t, model.StatusRented, ivs2[1].Status)
}

func TestRunStopsOnCancel(t *testing.T) {
	store := bookingtest.NewStore()
	s := New(store, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestNewDefaultsInterval(t *testing.T) {
	s := New(bookingtest.NewStore(), 0)
	assert.Equal(t, time.Minute, s.interval)
}
