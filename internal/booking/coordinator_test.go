package booking_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanngo/car-rental-api/internal/booking"
	"github.com/tuanngo/car-rental-api/internal/booking/bookingtest"
	"github.com/tuanngo/car-rental-api/internal/model"
	"github.com/tuanngo/car-rental-api/internal/repository"
)

func date(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

// seedVehicle gives vehicle 1 an open-ended AVAILABLE interval at
// branch 3 starting Jan 1 and a published price, the state a vehicle
// is in right after onboarding.
func seedVehicle(s *bookingtest.Store) {
	s.SeedInterval(model.OccupancyInterval{
		VehicleID: 1,
		Status:    model.StatusAvailable,
		BranchID:  3,
		StartsAt:  date(time.January, 1),
	})
	s.SeedQuote(model.PriceQuote{VehicleID: 1, BranchID: 3, DailyRateCents: 450000})
}

func TestCreateBookingSplitsOpenAvailability(t *testing.T) {
	store := bookingtest.NewStore()
	seedVehicle(store)
	co := booking.NewCoordinator(store)

	id, err := co.CreateBooking(context.Background(), 9, 1,
		booking.Window{Start: date(time.March, 1), End: date(time.March, 5)}, 1, "airport pickup")
	require.NoError(t, err)
	assert.NotZero(t, id)

	ivs := store.Intervals(1)
	require.Len(t, ivs, 3)

	assert.Equal(t, model.StatusAvailable, ivs[0].Status)
	assert.Equal(t, date(time.January, 1), ivs[0].StartsAt)
	require.NotNil(t, ivs[0].EndsAt)
	assert.Equal(t, date(time.March, 1), *ivs[0].EndsAt)

	assert.Equal(t, model.StatusRented, ivs[1].Status)
	assert.Equal(t, date(time.March, 1), ivs[1].StartsAt)
	require.NotNil(t, ivs[1].EndsAt)
	assert.Equal(t, date(time.March, 5), *ivs[1].EndsAt)
	assert.Equal(t, uint64(3), ivs[1].BranchID, "rental keeps the availability's branch")

	assert.Equal(t, model.StatusAvailable, ivs[2].Status)
	assert.Equal(t, date(time.March, 5), ivs[2].StartsAt)
	assert.Nil(t, ivs[2].EndsAt, "open-ended availability resumes after the rental")

	contracts := store.Contracts()
	require.Len(t, contracts, 1)
	assert.Equal(t, uint64(9), contracts[0].CustomerID)
	assert.Equal(t, date(time.March, 1), contracts[0].StartsAt)
}

func TestCreateBookingRejectsOverlap(t *testing.T) {
	store := bookingtest.NewStore()
	seedVehicle(store)
	co := booking.NewCoordinator(store)
	ctx := context.Background()

	_, err := co.CreateBooking(ctx, 9, 1,
		booking.Window{Start: date(time.March, 1), End: date(time.March, 5)}, 1, "")
	require.NoError(t, err)

	_, err = co.CreateBooking(ctx, 10, 1,
		booking.Window{Start: date(time.March, 4), End: date(time.March, 8)}, 1, "")
	assert.ErrorIs(t, err, repository.ErrConflict)

	// Back-to-back is fine: windows are half-open.
	_, err = co.CreateBooking(ctx, 10, 1,
		booking.Window{Start: date(time.March, 5), End: date(time.March, 8)}, 1, "")
	assert.NoError(t, err)
}

func TestCreateBookingValidation(t *testing.T) {
	store := bookingtest.NewStore()
	seedVehicle(store)
	co := booking.NewCoordinator(store)
	ctx := context.Background()

	_, err := co.CreateBooking(ctx, 9, 1,
		booking.Window{Start: date(time.March, 5), End: date(time.March, 5)}, 1, "")
	assert.ErrorIs(t, err, booking.ErrInvalidWindow)

	_, err = co.CreateBooking(ctx, 9, 1,
		booking.Window{Start: date(time.March, 5), End: date(time.March, 1)}, 1, "")
	assert.ErrorIs(t, err, booking.ErrInvalidWindow)
}

func TestCreateBookingRequiresPrice(t *testing.T) {
	store := bookingtest.NewStore()
	store.SeedInterval(model.OccupancyInterval{
		VehicleID: 1, Status: model.StatusAvailable, BranchID: 3, StartsAt: date(time.January, 1),
	})
	co := booking.NewCoordinator(store)

	_, err := co.CreateBooking(context.Background(), 9, 1,
		booking.Window{Start: date(time.March, 1), End: date(time.March, 5)}, 1, "")
	assert.ErrorIs(t, err, booking.ErrNoPrice)
}

func TestCreateBookingConcurrentOneWins(t *testing.T) {
	store := bookingtest.NewStore()
	seedVehicle(store)
	co := booking.NewCoordinator(store)
	w := booking.Window{Start: date(time.March, 1), End: date(time.March, 5)}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = co.CreateBooking(context.Background(), uint64(100+i), 1, w, 1, "")
		}(i)
	}
	wg.Wait()

	var ok, conflict int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, repository.ErrConflict):
			conflict++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflict)
	require.Len(t, store.Contracts(), 1)
}

func TestCreateBookingRollsBackOnFailure(t *testing.T) {
	store := bookingtest.NewStore()
	seedVehicle(store)
	store.InsertContractErr = errors.New("contract table down")
	co := booking.NewCoordinator(store)

	_, err := co.CreateBooking(context.Background(), 9, 1,
		booking.Window{Start: date(time.March, 1), End: date(time.March, 5)}, 1, "")

	var txErr *booking.TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, "create booking", txErr.Op)

	// No partial state: the split never happened and nothing is rented.
	ivs := store.Intervals(1)
	require.Len(t, ivs, 1)
	assert.Equal(t, model.StatusAvailable, ivs[0].Status)
	assert.Nil(t, ivs[0].EndsAt)
	assert.Empty(t, store.Contracts())
}

func TestCancelBookingRestoresMergedAvailability(t *testing.T) {
	store := bookingtest.NewStore()
	seedVehicle(store)
	co := booking.NewCoordinator(store)
	ctx := context.Background()

	id, err := co.CreateBooking(ctx, 9, 1,
		booking.Window{Start: date(time.March, 1), End: date(time.March, 5)}, 1, "")
	require.NoError(t, err)

	require.NoError(t, co.CancelBooking(ctx, id))

	ivs := store.Intervals(1)
	require.Len(t, ivs, 1, "availability must merge back into one interval")
	assert.Equal(t, model.StatusAvailable, ivs[0].Status)
	assert.Equal(t, date(time.January, 1), ivs[0].StartsAt)
	assert.Nil(t, ivs[0].EndsAt)
	assert.Empty(t, store.Contracts())
}

func TestCancelBookingKeepsNeighborRentals(t *testing.T) {
	store := bookingtest.NewStore()
	seedVehicle(store)
	co := booking.NewCoordinator(store)
	ctx := context.Background()

	first, err := co.CreateBooking(ctx, 9, 1,
		booking.Window{Start: date(time.March, 1), End: date(time.March, 5)}, 1, "")
	require.NoError(t, err)
	_, err = co.CreateBooking(ctx, 10, 1,
		booking.Window{Start: date(time.March, 10), End: date(time.March, 12)}, 1, "")
	require.NoError(t, err)

	require.NoError(t, co.CancelBooking(ctx, first))

	ivs := store.Intervals(1)
	require.Len(t, ivs, 3)
	assert.Equal(t, model.StatusAvailable, ivs[0].Status)
	assert.Equal(t, date(time.January, 1), ivs[0].StartsAt)
	assert.Equal(t, date(time.March, 10), *ivs[0].EndsAt, "freed window merges with both neighbors")
	assert.Equal(t, model.StatusRented, ivs[1].Status)
	assert.Equal(t, date(time.March, 10), ivs[1].StartsAt)
	assert.Equal(t, model.StatusAvailable, ivs[2].Status)
	assert.Nil(t, ivs[2].EndsAt)
}

func TestCancelBookingUnknownContract(t *testing.T) {
	store := bookingtest.NewStore()
	co := booking.NewCoordinator(store)
	err := co.CancelBooking(context.Background(), 999)
	assert.ErrorIs(t, err, booking.ErrNotFound)
}

func TestChangeVehicleStatus(t *testing.T) {
	t.Run("into maintenance", func(t *testing.T) {
		store := bookingtest.NewStore()
		seedVehicle(store)
		co := booking.NewCoordinator(store)

		err := co.ChangeVehicleStatus(context.Background(), 1, model.StatusMaintenance, 4)
		require.NoError(t, err)

		ivs := store.Intervals(1)
		require.Len(t, ivs, 2)
		assert.Equal(t, model.StatusAvailable, ivs[0].Status)
		require.NotNil(t, ivs[0].EndsAt, "previous interval is closed")
		assert.Equal(t, model.StatusMaintenance, ivs[1].Status)
		assert.Equal(t, uint64(4), ivs[1].BranchID)
		assert.Nil(t, ivs[1].EndsAt)
	})

	t.Run("rented is never set by hand", func(t *testing.T) {
		store := bookingtest.NewStore()
		seedVehicle(store)
		co := booking.NewCoordinator(store)

		err := co.ChangeVehicleStatus(context.Background(), 1, model.StatusRented, 3)
		assert.ErrorIs(t, err, booking.ErrManualRent)
	})

	t.Run("blocked while rented", func(t *testing.T) {
		store := bookingtest.NewStore()
		store.SeedInterval(model.OccupancyInterval{
			VehicleID: 1, Status: model.StatusRented, BranchID: 3, StartsAt: date(time.January, 1),
		})
		co := booking.NewCoordinator(store)

		err := co.ChangeVehicleStatus(context.Background(), 1, model.StatusMaintenance, 3)
		assert.ErrorIs(t, err, repository.ErrVehicleRented)
	})

	t.Run("unknown vehicle", func(t *testing.T) {
		store := bookingtest.NewStore()
		co := booking.NewCoordinator(store)
		err := co.ChangeVehicleStatus(context.Background(), 42, model.StatusMaintenance, 3)
		assert.ErrorIs(t, err, booking.ErrNotFound)
	})

	t.Run("two open intervals is a data fault", func(t *testing.T) {
		store := bookingtest.NewStore()
		seedVehicle(store)
		// A second interval covering the same instant violates the
		// single-current-interval rule; the change must not proceed.
		store.SeedInterval(model.OccupancyInterval{
			VehicleID: 1, Status: model.StatusMaintenance, BranchID: 3, StartsAt: date(time.February, 1),
		})
		co := booking.NewCoordinator(store)

		err := co.ChangeVehicleStatus(context.Background(), 1, model.StatusMaintenance, 4)
		assert.ErrorIs(t, err, repository.ErrInvariant)
		var txErr *booking.TransactionError
		assert.ErrorAs(t, err, &txErr)

		// The corrupt timeline is left as-is for operators to inspect.
		require.Len(t, store.Intervals(1), 2)
	})

	t.Run("same status and branch is a no-op", func(t *testing.T) {
		store := bookingtest.NewStore()
		seedVehicle(store)
		co := booking.NewCoordinator(store)

		require.NoError(t, co.ChangeVehicleStatus(context.Background(), 1, model.StatusAvailable, 3))
		ivs := store.Intervals(1)
		require.Len(t, ivs, 1)
		assert.Nil(t, ivs[0].EndsAt)
	})
}
