package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/tuanngo/car-rental-api/internal/model"
)

// VehicleRepo provides access to the vehicles table.  The live
// status shown in listings is never a stored column: it is projected
// at query time from the occupancy interval whose window contains
// UTC_TIMESTAMP(), so reads can never serve a stale cached status.
type VehicleRepo struct {
    db *sql.DB
}

// NewVehicleRepo returns a new VehicleRepo bound to the given database.
func NewVehicleRepo(db *sql.DB) *VehicleRepo { return &VehicleRepo{db: db} }

// CreateTx inserts a vehicle within the caller's transaction, so
// onboarding can create the vehicle and its opening AVAILABLE
// interval atomically.  Duplicate plate numbers map to ErrConflict.
func (r *VehicleRepo) CreateTx(ctx context.Context, tx Querier, v *model.Vehicle) error {
    const q = `INSERT INTO vehicles (owner_id, model_id, plate_number, seats) VALUES (?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, v.OwnerID, v.ModelID, v.PlateNumber, v.Seats)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return ErrConflict
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    v.ID = uint64(id)
    return nil
}

// Create inserts a vehicle outside any transaction.
func (r *VehicleRepo) Create(ctx context.Context, v *model.Vehicle) error {
    return r.CreateTx(ctx, r.db, v)
}

// DB exposes the underlying handle for handler-level transactions.
func (r *VehicleRepo) DB() *sql.DB { return r.db }

// GetByID fetches a vehicle by primary key.
func (r *VehicleRepo) GetByID(ctx context.Context, id uint64) (model.Vehicle, error) {
    const q = `SELECT id, owner_id, model_id, plate_number, seats, created_at
               FROM vehicles WHERE id = ?`
    var v model.Vehicle
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &v.ID, &v.OwnerID, &v.ModelID, &v.PlateNumber, &v.Seats, &v.CreatedAt)
    return v, err
}

// VehicleWithStatus is a vehicle row joined with its live status and
// current daily rate for listing screens.
type VehicleWithStatus struct {
    ID             uint64  `json:"id"`
    ModelID        uint64  `json:"model_id"`
    PlateNumber    string  `json:"plate_number"`
    Seats          uint8   `json:"seats"`
    Status         string  `json:"status"`
    BranchID       *uint64 `json:"branch_id,omitempty"`
    DailyRateCents *uint32 `json:"daily_rate_cents,omitempty"`
}

// ListByOwner returns an owner's vehicles with each vehicle's current
// status and branch resolved by the NOW() projection.  Vehicles with
// no current interval report status UNKNOWN with no branch.
func (r *VehicleRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]VehicleWithStatus, error) {
    const q = `SELECT v.id, v.model_id, v.plate_number, v.seats, cur.status_id, cur.branch_id, pq.daily_rate_cents
               FROM vehicles v
               LEFT JOIN occupancy_intervals cur ON cur.vehicle_id = v.id
                 AND cur.starts_at <= UTC_TIMESTAMP()
                 AND (cur.ends_at IS NULL OR cur.ends_at > UTC_TIMESTAMP())
               LEFT JOIN price_quotes pq ON pq.vehicle_id = v.id AND pq.retired_at IS NULL
               WHERE v.owner_id = ?
               ORDER BY v.id`
    return r.listWithStatus(ctx, q, ownerID)
}

// ListAvailableNow returns vehicles whose current interval is
// AVAILABLE, for the public browse screen.
func (r *VehicleRepo) ListAvailableNow(ctx context.Context) ([]VehicleWithStatus, error) {
    const q = `SELECT v.id, v.model_id, v.plate_number, v.seats, cur.status_id, cur.branch_id, pq.daily_rate_cents
               FROM vehicles v
               JOIN occupancy_intervals cur ON cur.vehicle_id = v.id
                 AND cur.starts_at <= UTC_TIMESTAMP()
                 AND (cur.ends_at IS NULL OR cur.ends_at > UTC_TIMESTAMP())
                 AND cur.status_id = 1
               LEFT JOIN price_quotes pq ON pq.vehicle_id = v.id AND pq.retired_at IS NULL
               ORDER BY v.id`
    return r.listWithStatus(ctx, q)
}

func (r *VehicleRepo) listWithStatus(ctx context.Context, q string, args ...interface{}) ([]VehicleWithStatus, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]VehicleWithStatus, 0)
    for rows.Next() {
        var v VehicleWithStatus
        var statusID sql.NullInt64
        var branchID sql.NullInt64
        var rate sql.NullInt64
        if err := rows.Scan(&v.ID, &v.ModelID, &v.PlateNumber, &v.Seats, &statusID, &branchID, &rate); err != nil {
            return nil, err
        }
        if statusID.Valid {
            v.Status = model.VehicleStatus(statusID.Int64).String()
        } else {
            v.Status = "UNKNOWN"
        }
        if branchID.Valid {
            b := uint64(branchID.Int64)
            v.BranchID = &b
        }
        if rate.Valid {
            c := uint32(rate.Int64)
            v.DailyRateCents = &c
        }
        out = append(out, v)
    }
    return out, rows.Err()
}
