package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/tuanngo/car-rental-api/internal/model"
)

// ContractRepo provides CRUD over the rental_contracts table.
// Contract writes always happen inside the same transaction as the
// interval writes they imply, so the mutating methods are Tx
// variants.  All timestamps are stored in UTC.
type ContractRepo struct {
    db *sql.DB
}

// NewContractRepo returns a new ContractRepo bound to the given database.
func NewContractRepo(db *sql.DB) *ContractRepo { return &ContractRepo{db: db} }

const contractCols = `id, customer_id, vehicle_id, price_quote_id, terms_id, starts_at, ends_at, detail, created_at`

func scanContract(row interface{ Scan(...interface{}) error }) (model.RentalContract, error) {
    var c model.RentalContract
    err := row.Scan(&c.ID, &c.CustomerID, &c.VehicleID, &c.PriceQuoteID, &c.TermsID,
        &c.StartsAt, &c.EndsAt, &c.Detail, &c.CreatedAt)
    if err != nil {
        return model.RentalContract{}, err
    }
    c.StartsAt = c.StartsAt.UTC()
    c.EndsAt = c.EndsAt.UTC()
    c.CreatedAt = c.CreatedAt.UTC()
    return c, nil
}

// CreateTx inserts a new contract within the caller's transaction and
// populates the generated ID on the record.
func (r *ContractRepo) CreateTx(ctx context.Context, tx Querier, c *model.RentalContract) error {
    const q = `INSERT INTO rental_contracts
               (customer_id, vehicle_id, price_quote_id, terms_id, starts_at, ends_at, detail, created_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, UTC_TIMESTAMP())`
    res, err := tx.ExecContext(ctx, q, c.CustomerID, c.VehicleID, c.PriceQuoteID, c.TermsID,
        c.StartsAt.UTC(), c.EndsAt.UTC(), c.Detail)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    c.ID = uint64(id)
    return nil
}

// GetTx loads a contract by ID inside a transaction, locking the row
// so a concurrent cancellation of the same contract serializes behind
// this one.  sql.ErrNoRows is returned when it does not exist.
func (r *ContractRepo) GetTx(ctx context.Context, tx Querier, contractID uint64) (model.RentalContract, error) {
    const q = `SELECT ` + contractCols + ` FROM rental_contracts WHERE id = ? FOR UPDATE`
    return scanContract(tx.QueryRowContext(ctx, q, contractID))
}

// GetByID loads a contract outside any transaction, for display.
func (r *ContractRepo) GetByID(ctx context.Context, contractID uint64) (model.RentalContract, error) {
    const q = `SELECT ` + contractCols + ` FROM rental_contracts WHERE id = ?`
    return scanContract(r.db.QueryRowContext(ctx, q, contractID))
}

// DeleteTx removes a contract row within the caller's transaction.
func (r *ContractRepo) DeleteTx(ctx context.Context, tx Querier, contractID uint64) error {
    _, err := tx.ExecContext(ctx, `DELETE FROM rental_contracts WHERE id = ?`, contractID)
    return err
}

// ListByCustomer returns a customer's contracts newest first.
func (r *ContractRepo) ListByCustomer(ctx context.Context, customerID uint64) ([]model.RentalContract, error) {
    const q = `SELECT ` + contractCols + ` FROM rental_contracts
               WHERE customer_id = ? ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, customerID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.RentalContract, 0)
    for rows.Next() {
        c, scanErr := scanContract(rows)
        if scanErr != nil {
            return nil, scanErr
        }
        out = append(out, c)
    }
    return out, rows.Err()
}

// SweepCandidate identifies a vehicle the reconciliation sweep must
// flip, together with the branch its replacement interval keeps.
type SweepCandidate struct {
    VehicleID uint64
    BranchID  uint64
}

// StartCandidates finds vehicles that have a contract whose window
// contains now but whose current (open) interval is not RENTED yet.
// The start sweep flips each of them to RENTED.
func (r *ContractRepo) StartCandidates(ctx context.Context, now time.Time) ([]SweepCandidate, error) {
    const q = `SELECT DISTINCT c.vehicle_id, iv.branch_id
               FROM rental_contracts c
               JOIN occupancy_intervals iv ON iv.vehicle_id = c.vehicle_id
               WHERE c.starts_at <= ? AND c.ends_at > ?
                 AND iv.ends_at IS NULL
                 AND iv.status_id <> ?`
    return r.sweep(ctx, q, now.UTC(), now.UTC(), model.StatusRented)
}

// EndCandidates finds vehicles whose current interval is RENTED but
// for which no contract window contains now.  The end sweep returns
// each of them to AVAILABLE.
func (r *ContractRepo) EndCandidates(ctx context.Context, now time.Time) ([]SweepCandidate, error) {
    const q = `SELECT iv.vehicle_id, iv.branch_id
               FROM occupancy_intervals iv
               WHERE iv.ends_at IS NULL AND iv.status_id = ?
                 AND NOT EXISTS (
                   SELECT 1 FROM rental_contracts c
                   WHERE c.vehicle_id = iv.vehicle_id
                     AND c.starts_at <= ? AND c.ends_at > ?
                 )`
    return r.sweep(ctx, q, model.StatusRented, now.UTC(), now.UTC())
}

func (r *ContractRepo) sweep(ctx context.Context, q string, args ...interface{}) ([]SweepCandidate, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]SweepCandidate, 0)
    for rows.Next() {
        var c SweepCandidate
        if err := rows.Scan(&c.VehicleID, &c.BranchID); err != nil {
            return nil, err
        }
        out = append(out, c)
    }
    return out, rows.Err()
}
