package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanngo/car-rental-api/internal/model"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func TestOverlaps(t *testing.T) {
	iv := model.OccupancyInterval{StartsAt: day(5), EndsAt: ptr(day(10))}

	assert.True(t, Overlaps(iv, day(7), day(8)), "window inside interval")
	assert.True(t, Overlaps(iv, day(1), day(6)), "window covers interval start")
	assert.True(t, Overlaps(iv, day(9), day(20)), "window covers interval end")
	assert.True(t, Overlaps(iv, day(1), day(20)), "window covers whole interval")

	// Half-open boundaries: touching does not overlap.
	assert.False(t, Overlaps(iv, day(10), day(12)), "window starts at interval end")
	assert.False(t, Overlaps(iv, day(1), day(5)), "window ends at interval start")
	assert.False(t, Overlaps(iv, day(11), day(12)))

	open := model.OccupancyInterval{StartsAt: day(5)}
	assert.True(t, Overlaps(open, day(100), day(200)), "open end reaches any future window")
	assert.False(t, Overlaps(open, day(1), day(5)))
}

func TestHasConflict(t *testing.T) {
	rented := []model.OccupancyInterval{
		{StartsAt: day(1), EndsAt: ptr(day(3))},
		{StartsAt: day(10), EndsAt: ptr(day(12))},
	}
	assert.True(t, HasConflict(rented, day(11), day(15)))
	assert.False(t, HasConflict(rented, day(3), day(10)), "gap between rentals is free")
	assert.False(t, HasConflict(nil, day(1), day(2)))
}

func TestPlanSplitBothRemainders(t *testing.T) {
	avail := []model.OccupancyInterval{
		{ID: 7, VehicleID: 1, Status: model.StatusAvailable, BranchID: 3, StartsAt: day(1), EndsAt: ptr(day(20))},
	}
	plan := PlanSplit(avail, day(5), day(10))

	require.Len(t, plan.Close, 1)
	assert.Equal(t, uint64(7), plan.Close[0].IntervalID)
	assert.Equal(t, day(5), plan.Close[0].End)
	assert.Empty(t, plan.Delete)

	require.Len(t, plan.Insert, 1)
	after := plan.Insert[0]
	assert.Equal(t, day(10), after.StartsAt)
	require.NotNil(t, after.EndsAt)
	assert.Equal(t, day(20), *after.EndsAt)
	assert.Equal(t, uint64(3), after.BranchID)
	assert.Equal(t, model.StatusAvailable, after.Status)
}

func TestPlanSplitOpenEnded(t *testing.T) {
	avail := []model.OccupancyInterval{
		{ID: 7, VehicleID: 1, BranchID: 3, Status: model.StatusAvailable, StartsAt: day(1)},
	}
	plan := PlanSplit(avail, day(5), day(10))

	require.Len(t, plan.Close, 1)
	assert.Equal(t, day(5), plan.Close[0].End)
	require.Len(t, plan.Insert, 1)
	assert.Equal(t, day(10), plan.Insert[0].StartsAt)
	assert.Nil(t, plan.Insert[0].EndsAt, "open end survives the split")
}

func TestPlanSplitExactCover(t *testing.T) {
	avail := []model.OccupancyInterval{
		{ID: 7, StartsAt: day(5), EndsAt: ptr(day(10))},
	}
	plan := PlanSplit(avail, day(5), day(10))

	assert.Empty(t, plan.Close, "no zero-length before remainder")
	assert.Equal(t, []uint64{7}, plan.Delete)
	assert.Empty(t, plan.Insert, "no zero-length after remainder")
}

func TestPlanSplitNoOverlap(t *testing.T) {
	avail := []model.OccupancyInterval{
		{ID: 7, StartsAt: day(1), EndsAt: ptr(day(5))},
	}
	plan := PlanSplit(avail, day(5), day(10))
	assert.True(t, plan.Empty())
}

func TestMergeSpans(t *testing.T) {
	t.Run("adjacent", func(t *testing.T) {
		merged := MergeSpans([]model.OccupancyInterval{
			{StartsAt: day(1), EndsAt: ptr(day(5))},
			{StartsAt: day(5), EndsAt: ptr(day(10))},
		})
		require.Len(t, merged, 1)
		assert.Equal(t, day(1), merged[0].StartsAt)
		assert.Equal(t, day(10), *merged[0].EndsAt)
	})

	t.Run("overlapping", func(t *testing.T) {
		merged := MergeSpans([]model.OccupancyInterval{
			{StartsAt: day(1), EndsAt: ptr(day(7))},
			{StartsAt: day(5), EndsAt: ptr(day(10))},
			{StartsAt: day(6), EndsAt: ptr(day(8))},
		})
		require.Len(t, merged, 1)
		assert.Equal(t, day(1), merged[0].StartsAt)
		assert.Equal(t, day(10), *merged[0].EndsAt)
	})

	t.Run("gap stays split", func(t *testing.T) {
		merged := MergeSpans([]model.OccupancyInterval{
			{StartsAt: day(1), EndsAt: ptr(day(5))},
			{StartsAt: day(6), EndsAt: ptr(day(10))},
		})
		require.Len(t, merged, 2)
	})

	t.Run("open end absorbs the rest", func(t *testing.T) {
		merged := MergeSpans([]model.OccupancyInterval{
			{StartsAt: day(1), EndsAt: ptr(day(5))},
			{StartsAt: day(3)},
			{StartsAt: day(20), EndsAt: ptr(day(25))},
		})
		require.Len(t, merged, 1)
		assert.Equal(t, day(1), merged[0].StartsAt)
		assert.Nil(t, merged[0].EndsAt)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, MergeSpans(nil))
	})
}
