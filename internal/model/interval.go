package model

import "time"

// VehicleStatus enumerates the occupancy states a vehicle can be in.
// The numeric codes are stored in the occupancy_intervals.status_id
// column and must never be reordered.
type VehicleStatus uint8

const (
    StatusAvailable   VehicleStatus = 1 // vehicle is at a branch, free to rent
    StatusRented      VehicleStatus = 2 // vehicle is out on a rental contract
    StatusMaintenance VehicleStatus = 3 // vehicle is pulled from the fleet for service
)

// String returns a human readable name for the status code.
func (s VehicleStatus) String() string {
    switch s {
    case StatusAvailable:
        return "AVAILABLE"
    case StatusRented:
        return "RENTED"
    case StatusMaintenance:
        return "MAINTENANCE"
    default:
        return "UNKNOWN"
    }
}

// OccupancyInterval is one time-partitioned occupancy record on a
// vehicle's timeline.  Intervals use half-open [StartsAt, EndsAt)
// semantics; a nil EndsAt means the interval is open-ended and
// currently in effect.  For a given vehicle at most one interval may
// be open at any time, and no two RENTED intervals may overlap.
//
// Fields:
//  ID        – primary key identifier.
//  VehicleID – vehicle whose timeline this interval belongs to.
//  Status    – occupancy status during the interval.
//  BranchID  – branch the vehicle is attached to for the interval.
//  StartsAt  – inclusive start of the interval (UTC).
//  EndsAt    – exclusive end of the interval (UTC, nil = open-ended).
type OccupancyInterval struct {
    ID        uint64        // occupancy_intervals.id
    VehicleID uint64        // occupancy_intervals.vehicle_id
    Status    VehicleStatus // occupancy_intervals.status_id
    BranchID  uint64        // occupancy_intervals.branch_id
    StartsAt  time.Time     // occupancy_intervals.starts_at
    EndsAt    *time.Time    // occupancy_intervals.ends_at (nullable)
}

// Open reports whether the interval has no end boundary yet.
func (iv OccupancyInterval) Open() bool { return iv.EndsAt == nil }

// Contains reports whether the instant t falls inside the interval
// under [start, end) semantics.  A nil end is treated as +infinity.
func (iv OccupancyInterval) Contains(t time.Time) bool {
    if t.Before(iv.StartsAt) {
        return false
    }
    return iv.EndsAt == nil || t.Before(*iv.EndsAt)
}
