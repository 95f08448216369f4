package repository

import (
    "context"
    "database/sql"

    "github.com/tuanngo/car-rental-api/internal/model"
)

// PriceRepo manages the append-only price history in price_quotes.
// A vehicle's current price is the row with a NULL retired_at; price
// changes retire the current row and insert a new one, so contracts
// can keep referencing the quote that was in effect when they were
// signed.
type PriceRepo struct {
    db *sql.DB
}

// NewPriceRepo returns a new PriceRepo bound to the given database.
func NewPriceRepo(db *sql.DB) *PriceRepo { return &PriceRepo{db: db} }

const priceCols = `id, vehicle_id, branch_id, daily_rate_cents, effective_at, retired_at`

func scanQuote(row interface{ Scan(...interface{}) error }) (model.PriceQuote, error) {
    var p model.PriceQuote
    var retired sql.NullTime
    err := row.Scan(&p.ID, &p.VehicleID, &p.BranchID, &p.DailyRateCents, &p.EffectiveAt, &retired)
    if err != nil {
        return model.PriceQuote{}, err
    }
    if retired.Valid {
        t := retired.Time.UTC()
        p.RetiredAt = &t
    }
    p.EffectiveAt = p.EffectiveAt.UTC()
    return p, nil
}

// CurrentTx returns the quote currently in effect for the vehicle.
// It runs inside the booking transaction because the booking stores
// the quote ID on the contract.  sql.ErrNoRows means the vehicle has
// no published price.
func (r *PriceRepo) CurrentTx(ctx context.Context, tx Querier, vehicleID uint64) (model.PriceQuote, error) {
    const q = `SELECT ` + priceCols + ` FROM price_quotes
               WHERE vehicle_id = ? AND retired_at IS NULL
               ORDER BY effective_at DESC LIMIT 1`
    return scanQuote(tx.QueryRowContext(ctx, q, vehicleID))
}

// Current is the non-transactional variant used by display endpoints.
func (r *PriceRepo) Current(ctx context.Context, vehicleID uint64) (model.PriceQuote, error) {
    const q = `SELECT ` + priceCols + ` FROM price_quotes
               WHERE vehicle_id = ? AND retired_at IS NULL
               ORDER BY effective_at DESC LIMIT 1`
    return scanQuote(r.db.QueryRowContext(ctx, q, vehicleID))
}

// GetByID fetches a quote row, current or retired.
func (r *PriceRepo) GetByID(ctx context.Context, id uint64) (model.PriceQuote, error) {
    const q = `SELECT ` + priceCols + ` FROM price_quotes WHERE id = ?`
    return scanQuote(r.db.QueryRowContext(ctx, q, id))
}

// Publish retires the vehicle's current quote (if any) and inserts a
// new one, both inside one transaction so the history never has two
// current rows.
func (r *PriceRepo) Publish(ctx context.Context, p *model.PriceQuote) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    const retire = `UPDATE price_quotes SET retired_at = UTC_TIMESTAMP()
                    WHERE vehicle_id = ? AND retired_at IS NULL`
    if _, err := tx.ExecContext(ctx, retire, p.VehicleID); err != nil {
        return err
    }
    const ins = `INSERT INTO price_quotes (vehicle_id, branch_id, daily_rate_cents, effective_at, retired_at)
                 VALUES (?, ?, ?, UTC_TIMESTAMP(), NULL)`
    res, err := tx.ExecContext(ctx, ins, p.VehicleID, p.BranchID, p.DailyRateCents)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    p.ID = uint64(id)
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// History returns a vehicle's full price history newest first.
func (r *PriceRepo) History(ctx context.Context, vehicleID uint64) ([]model.PriceQuote, error) {
    const q = `SELECT ` + priceCols + ` FROM price_quotes
               WHERE vehicle_id = ? ORDER BY effective_at DESC`
    rows, err := r.db.QueryContext(ctx, q, vehicleID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.PriceQuote, 0)
    for rows.Next() {
        p, scanErr := scanQuote(rows)
        if scanErr != nil {
            return nil, scanErr
        }
        out = append(out, p)
    }
    return out, rows.Err()
}
