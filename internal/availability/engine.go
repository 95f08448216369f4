// Package availability computes the interval mutations a booking or
// cancellation requires.  Everything here is pure: the functions read
// interval values and return plans, and the booking coordinator
// applies those plans to the interval store inside its transaction.
// All comparisons use half-open [start, end) semantics; an interval
// ending exactly when a window starts does not overlap it, and a nil
// end is treated as +infinity.
package availability

import (
    "time"

    "github.com/tuanngo/car-rental-api/internal/model"
)

// Overlaps reports whether the interval overlaps the half-open
// window [windowStart, windowEnd).
func Overlaps(iv model.OccupancyInterval, windowStart, windowEnd time.Time) bool {
    if !iv.StartsAt.Before(windowEnd) {
        return false
    }
    return iv.EndsAt == nil || iv.EndsAt.After(windowStart)
}

// HasConflict reports whether any of the given RENTED intervals
// overlaps the requested window.  The store query already filters by
// overlap, but the predicate is kept explicit so the booking rule is
// testable on its own.
func HasConflict(rented []model.OccupancyInterval, windowStart, windowEnd time.Time) bool {
    for _, iv := range rented {
        if Overlaps(iv, windowStart, windowEnd) {
            return true
        }
    }
    return false
}

// Closure closes an existing interval at a new end boundary, turning
// it into the "before" remainder of a split.
type Closure struct {
    IntervalID uint64
    End        time.Time
}

// SplitPlan lists the interval mutations that carve a rental window
// out of the AVAILABLE timeline.  Originals that start before the
// window survive as their own "before" remainder (closed at the
// window start); originals fully consumed by the window are deleted;
// "after" remainders are inserted fresh.  The plan never contains a
// zero-length remainder.
type SplitPlan struct {
    Close  []Closure
    Delete []uint64
    Insert []model.OccupancyInterval
}

// Empty reports whether the plan mutates nothing.
func (p SplitPlan) Empty() bool {
    return len(p.Close) == 0 && len(p.Delete) == 0 && len(p.Insert) == 0
}

// PlanSplit computes the split-on-insert plan for booking the window
// [windowStart, windowEnd) against the given AVAILABLE intervals.
// There should be at most one overlapping interval when the merge
// invariant holds, but the set is handled defensively.  For each
// overlapping original [os, oe):
//
//   - os < s          → keep the original closed at s (before remainder)
//   - os >= s         → delete the original outright
//   - oe nil or > e   → insert [e, oe) with the original's branch; a
//     nil oe stays nil so open-ended availability resumes after the
//     rental
func PlanSplit(avails []model.OccupancyInterval, windowStart, windowEnd time.Time) SplitPlan {
    var plan SplitPlan
    for _, iv := range avails {
        if !Overlaps(iv, windowStart, windowEnd) {
            continue
        }
        if iv.StartsAt.Before(windowStart) {
            plan.Close = append(plan.Close, Closure{IntervalID: iv.ID, End: windowStart})
        } else {
            plan.Delete = append(plan.Delete, iv.ID)
        }
        if iv.EndsAt == nil || iv.EndsAt.After(windowEnd) {
            after := model.OccupancyInterval{
                VehicleID: iv.VehicleID,
                Status:    model.StatusAvailable,
                BranchID:  iv.BranchID,
                StartsAt:  windowEnd,
                EndsAt:    iv.EndsAt,
            }
            plan.Insert = append(plan.Insert, after)
        }
    }
    return plan
}

// MergeSpans coalesces AVAILABLE intervals for one vehicle+branch
// into the minimal non-fragmented set.  The input must be ordered by
// start ascending (the store query guarantees this).  The sweep keeps
// a running interval; each next interval is absorbed when it starts
// at or before the running end, or when the running interval is
// already open-ended.  Only StartsAt/EndsAt of the result are
// meaningful – the caller rewrites the whole set.
func MergeSpans(avails []model.OccupancyInterval) []model.OccupancyInterval {
    if len(avails) == 0 {
        return nil
    }
    merged := make([]model.OccupancyInterval, 0, len(avails))
    cur := avails[0]
    for _, next := range avails[1:] {
        if cur.EndsAt == nil {
            // open-ended running interval absorbs everything after it
            continue
        }
        if !next.StartsAt.After(*cur.EndsAt) {
            if next.EndsAt == nil {
                cur.EndsAt = nil
            } else if next.EndsAt.After(*cur.EndsAt) {
                cur.EndsAt = next.EndsAt
            }
            continue
        }
        merged = append(merged, cur)
        cur = next
    }
    return append(merged, cur)
}
