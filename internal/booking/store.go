package booking

import (
    "context"
    "time"

    "github.com/tuanngo/car-rental-api/internal/model"
    "github.com/tuanngo/car-rental-api/internal/repository"
)

// Tx is one transactional unit of work against the interval store
// and the contract table.  Every read and write issued through a Tx
// sees and locks the same snapshot, so the conflict check and the
// writes that follow it are serialized against concurrent
// transactions touching the same vehicle.  The caller must finish
// with exactly one Commit or Rollback.
type Tx interface {
    Commit() error
    Rollback() error

    // Interval store operations (§ interval timeline).
    Current(ctx context.Context, vehicleID uint64, asOf time.Time) (model.OccupancyInterval, error)
    OverlappingRented(ctx context.Context, vehicleID uint64, windowStart, windowEnd time.Time) ([]model.OccupancyInterval, error)
    OverlappingAvailable(ctx context.Context, vehicleID uint64, windowStart, windowEnd time.Time) ([]model.OccupancyInterval, error)
    InsertInterval(ctx context.Context, iv *model.OccupancyInterval) error
    CloseInterval(ctx context.Context, intervalID uint64, end time.Time) error
    DeleteInterval(ctx context.Context, intervalID uint64) error
    DeleteRentedOverlapping(ctx context.Context, vehicleID uint64, windowStart, windowEnd time.Time) ([]model.OccupancyInterval, error)
    ListAvailable(ctx context.Context, vehicleID, branchID uint64) ([]model.OccupancyInterval, error)
    ReplaceAvailable(ctx context.Context, vehicleID, branchID uint64, merged []model.OccupancyInterval) error
    CloseOpen(ctx context.Context, vehicleID uint64, at time.Time) error
    AnyBranch(ctx context.Context, vehicleID uint64) (uint64, error)

    // Contract and pricing operations.
    CurrentQuote(ctx context.Context, vehicleID uint64) (model.PriceQuote, error)
    InsertContract(ctx context.Context, c *model.RentalContract) error
    GetContract(ctx context.Context, contractID uint64) (model.RentalContract, error)
    DeleteContract(ctx context.Context, contractID uint64) error
}

// Store opens transactional units of work and serves the
// reconciliation sweep queries.  The production implementation is
// SQLStore; tests use the in-memory store from the bookingtest
// package.
type Store interface {
    Begin(ctx context.Context) (Tx, error)
    StartCandidates(ctx context.Context, now time.Time) ([]repository.SweepCandidate, error)
    EndCandidates(ctx context.Context, now time.Time) ([]repository.SweepCandidate, error)
}
