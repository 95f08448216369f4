package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/tuanngo/car-rental-api/internal/model"
)

// IntervalRepo is the interval store: durable CRUD over the
// occupancy_intervals table, which partitions every vehicle's
// timeline into AVAILABLE / RENTED / MAINTENANCE records.  All
// writes that belong to a booking or cancellation must run through
// the Tx variants inside the transaction owned by the booking
// coordinator; the repo itself never begins or commits transactions.
// All timestamps are stored and compared in UTC.
type IntervalRepo struct {
    db *sql.DB
}

// NewIntervalRepo returns a new IntervalRepo bound to the given database.
func NewIntervalRepo(db *sql.DB) *IntervalRepo { return &IntervalRepo{db: db} }

// DB exposes the underlying handle so callers can begin transactions.
func (r *IntervalRepo) DB() *sql.DB { return r.db }

const intervalCols = `id, vehicle_id, status_id, branch_id, starts_at, ends_at`

func scanInterval(row interface{ Scan(...interface{}) error }) (model.OccupancyInterval, error) {
    var iv model.OccupancyInterval
    var ends sql.NullTime
    err := row.Scan(&iv.ID, &iv.VehicleID, &iv.Status, &iv.BranchID, &iv.StartsAt, &ends)
    if err != nil {
        return model.OccupancyInterval{}, err
    }
    if ends.Valid {
        t := ends.Time.UTC()
        iv.EndsAt = &t
    }
    iv.StartsAt = iv.StartsAt.UTC()
    return iv, nil
}

// CurrentTx returns the interval whose window contains asOf for the
// given vehicle.  At most one such interval may exist (a vehicle has
// at most one open record at a time); when the query returns more
// than one row the data is corrupt and ErrInvariant is returned so
// the caller aborts instead of guessing.  sql.ErrNoRows is returned
// when the vehicle has no current interval.
func (r *IntervalRepo) CurrentTx(ctx context.Context, tx Querier, vehicleID uint64, asOf time.Time) (model.OccupancyInterval, error) {
    const q = `SELECT ` + intervalCols + ` FROM occupancy_intervals
               WHERE vehicle_id = ? AND starts_at <= ? AND (ends_at IS NULL OR ends_at > ?)
               ORDER BY starts_at`
    rows, err := tx.QueryContext(ctx, q, vehicleID, asOf.UTC(), asOf.UTC())
    if err != nil {
        return model.OccupancyInterval{}, err
    }
    defer rows.Close()
    var found []model.OccupancyInterval
    for rows.Next() {
        iv, scanErr := scanInterval(rows)
        if scanErr != nil {
            return model.OccupancyInterval{}, scanErr
        }
        found = append(found, iv)
    }
    if err := rows.Err(); err != nil {
        return model.OccupancyInterval{}, err
    }
    switch len(found) {
    case 0:
        return model.OccupancyInterval{}, sql.ErrNoRows
    case 1:
        return found[0], nil
    default:
        return model.OccupancyInterval{}, ErrInvariant
    }
}

// Current is the read-only variant of CurrentTx used by projection
// endpoints that do not participate in a write transaction.
func (r *IntervalRepo) Current(ctx context.Context, vehicleID uint64, asOf time.Time) (model.OccupancyInterval, error) {
    tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
    if err != nil {
        return model.OccupancyInterval{}, err
    }
    defer func() { _ = tx.Rollback() }()
    return r.CurrentTx(ctx, tx, vehicleID, asOf)
}

// OverlappingTx returns all intervals of the given status that
// overlap the half-open window [windowStart, windowEnd), ordered by
// start ascending.  A NULL end is treated as +infinity.  When
// forUpdate is true the rows are locked with SELECT ... FOR UPDATE so
// that two concurrent bookings for the same vehicle serialize on the
// conflict check instead of both passing it.
func (r *IntervalRepo) OverlappingTx(ctx context.Context, tx Querier, vehicleID uint64, status model.VehicleStatus, windowStart, windowEnd time.Time, forUpdate bool) ([]model.OccupancyInterval, error) {
    q := `SELECT ` + intervalCols + ` FROM occupancy_intervals
          WHERE vehicle_id = ? AND status_id = ?
            AND starts_at < ? AND (ends_at IS NULL OR ends_at > ?)
          ORDER BY starts_at`
    if forUpdate {
        q += ` FOR UPDATE`
    }
    rows, err := tx.QueryContext(ctx, q, vehicleID, status, windowEnd.UTC(), windowStart.UTC())
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.OccupancyInterval, 0)
    for rows.Next() {
        iv, scanErr := scanInterval(rows)
        if scanErr != nil {
            return nil, scanErr
        }
        out = append(out, iv)
    }
    return out, rows.Err()
}

// InsertTx appends a new interval row and populates the generated ID
// on the provided record.  EndsAt may be nil for an open-ended
// interval.
func (r *IntervalRepo) InsertTx(ctx context.Context, tx Querier, iv *model.OccupancyInterval) error {
    const q = `INSERT INTO occupancy_intervals (vehicle_id, status_id, branch_id, starts_at, ends_at)
               VALUES (?, ?, ?, ?, ?)`
    var ends interface{}
    if iv.EndsAt != nil {
        ends = iv.EndsAt.UTC()
    }
    res, err := tx.ExecContext(ctx, q, iv.VehicleID, iv.Status, iv.BranchID, iv.StartsAt.UTC(), ends)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    iv.ID = uint64(id)
    return nil
}

// CloseTx sets the end boundary of an interval.  Closing is
// idempotent for the same end value; closing an interval that is
// already closed with a different end returns ErrConflict, and a
// missing row returns sql.ErrNoRows.
func (r *IntervalRepo) CloseTx(ctx context.Context, tx Querier, intervalID uint64, end time.Time) error {
    const q = `UPDATE occupancy_intervals SET ends_at = ?
               WHERE id = ? AND (ends_at IS NULL OR ends_at = ?)`
    res, err := tx.ExecContext(ctx, q, end.UTC(), intervalID, end.UTC())
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n > 0 {
        return nil
    }
    // Either the row is gone or it is closed with another end.
    var exists bool
    if err := tx.QueryRowContext(ctx,
        `SELECT EXISTS(SELECT 1 FROM occupancy_intervals WHERE id = ?)`, intervalID,
    ).Scan(&exists); err != nil {
        return err
    }
    if !exists {
        return sql.ErrNoRows
    }
    return ErrConflict
}

// DeleteTx removes an interval row.  It is used only during split and
// merge rewrites; bookings never delete RENTED history outside a
// cancellation.
func (r *IntervalRepo) DeleteTx(ctx context.Context, tx Querier, intervalID uint64) error {
    _, err := tx.ExecContext(ctx, `DELETE FROM occupancy_intervals WHERE id = ?`, intervalID)
    return err
}

// DeleteOverlappingTx removes every interval of the given status that
// overlaps [windowStart, windowEnd) and returns the removed rows so
// the caller knows which branches were affected.
func (r *IntervalRepo) DeleteOverlappingTx(ctx context.Context, tx Querier, vehicleID uint64, status model.VehicleStatus, windowStart, windowEnd time.Time) ([]model.OccupancyInterval, error) {
    removed, err := r.OverlappingTx(ctx, tx, vehicleID, status, windowStart, windowEnd, true)
    if err != nil {
        return nil, err
    }
    const q = `DELETE FROM occupancy_intervals
               WHERE vehicle_id = ? AND status_id = ?
                 AND starts_at < ? AND (ends_at IS NULL OR ends_at > ?)`
    if _, err := tx.ExecContext(ctx, q, vehicleID, status, windowEnd.UTC(), windowStart.UTC()); err != nil {
        return nil, err
    }
    return removed, nil
}

// ListAvailableTx returns every AVAILABLE interval for the
// vehicle+branch ordered by start ascending.  It feeds the merge
// sweep that runs after a cancellation.
func (r *IntervalRepo) ListAvailableTx(ctx context.Context, tx Querier, vehicleID, branchID uint64) ([]model.OccupancyInterval, error) {
    const q = `SELECT ` + intervalCols + ` FROM occupancy_intervals
               WHERE vehicle_id = ? AND status_id = ? AND branch_id = ?
               ORDER BY starts_at FOR UPDATE`
    rows, err := tx.QueryContext(ctx, q, vehicleID, model.StatusAvailable, branchID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.OccupancyInterval, 0)
    for rows.Next() {
        iv, scanErr := scanInterval(rows)
        if scanErr != nil {
            return nil, scanErr
        }
        out = append(out, iv)
    }
    return out, rows.Err()
}

// ReplaceAvailableTx rewrites the full AVAILABLE set for a
// vehicle+branch with the given merged intervals, delete-then-insert
// inside the caller's transaction.  Passing an empty slice clears the
// set.
func (r *IntervalRepo) ReplaceAvailableTx(ctx context.Context, tx Querier, vehicleID, branchID uint64, merged []model.OccupancyInterval) error {
    const del = `DELETE FROM occupancy_intervals
                 WHERE vehicle_id = ? AND status_id = ? AND branch_id = ?`
    if _, err := tx.ExecContext(ctx, del, vehicleID, model.StatusAvailable, branchID); err != nil {
        return err
    }
    if len(merged) == 0 {
        return nil
    }
    query := `INSERT INTO occupancy_intervals (vehicle_id, status_id, branch_id, starts_at, ends_at) VALUES `
    args := make([]interface{}, 0, len(merged)*5)
    for i, iv := range merged {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?, ?)"
        var ends interface{}
        if iv.EndsAt != nil {
            ends = iv.EndsAt.UTC()
        }
        args = append(args, vehicleID, model.StatusAvailable, branchID, iv.StartsAt.UTC(), ends)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// AnyBranchTx returns the branch of any interval on the vehicle's
// timeline, used to resolve which branch a new RENTED interval
// belongs to.  sql.ErrNoRows means the vehicle has no interval
// history at all.
func (r *IntervalRepo) AnyBranchTx(ctx context.Context, tx Querier, vehicleID uint64) (uint64, error) {
    var branchID uint64
    err := tx.QueryRowContext(ctx,
        `SELECT branch_id FROM occupancy_intervals WHERE vehicle_id = ? LIMIT 1`,
        vehicleID).Scan(&branchID)
    return branchID, err
}

// BookedWindow is one entry of the read-only "booked dates"
// projection consumed by the availability calendar.
type BookedWindow struct {
    StartsAt time.Time  `json:"starts_at"`
    EndsAt   *time.Time `json:"ends_at"` // null while the rental is still running
}

// BookedWindows returns the RENTED windows for a vehicle ordered by
// start.  Open-ended intervals (a rental in progress right now) are
// included with a null end so the calendar agrees with the conflict
// check.
func (r *IntervalRepo) BookedWindows(ctx context.Context, vehicleID uint64) ([]BookedWindow, error) {
    const q = `SELECT starts_at, ends_at FROM occupancy_intervals
               WHERE vehicle_id = ? AND status_id = ?
               ORDER BY starts_at ASC`
    rows, err := r.db.QueryContext(ctx, q, vehicleID, model.StatusRented)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]BookedWindow, 0)
    for rows.Next() {
        var w BookedWindow
        var ends sql.NullTime
        if err := rows.Scan(&w.StartsAt, &ends); err != nil {
            return nil, err
        }
        w.StartsAt = w.StartsAt.UTC()
        if ends.Valid {
            t := ends.Time.UTC()
            w.EndsAt = &t
        }
        out = append(out, w)
    }
    return out, rows.Err()
}

// Schedule returns a vehicle's full interval timeline ordered by
// start, for the owner's schedule view.
func (r *IntervalRepo) Schedule(ctx context.Context, vehicleID uint64) ([]model.OccupancyInterval, error) {
    const q = `SELECT ` + intervalCols + ` FROM occupancy_intervals
               WHERE vehicle_id = ? ORDER BY starts_at ASC`
    rows, err := r.db.QueryContext(ctx, q, vehicleID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.OccupancyInterval, 0)
    for rows.Next() {
        iv, scanErr := scanInterval(rows)
        if scanErr != nil {
            return nil, scanErr
        }
        out = append(out, iv)
    }
    return out, rows.Err()
}

// CloseOpenTx closes every open interval on the vehicle's timeline at
// the given instant.  The reconciliation sweeps use it before opening
// the replacement interval.
func (r *IntervalRepo) CloseOpenTx(ctx context.Context, tx Querier, vehicleID uint64, at time.Time) error {
    _, err := tx.ExecContext(ctx,
        `UPDATE occupancy_intervals SET ends_at = ? WHERE vehicle_id = ? AND ends_at IS NULL`,
        at.UTC(), vehicleID)
    return err
}
