package repository

import (
    "context"
    "database/sql"

    "github.com/tuanngo/car-rental-api/internal/model"
)

// BranchRepo provides access to the branches table.
type BranchRepo struct {
    db *sql.DB
}

// NewBranchRepo returns a new BranchRepo bound to the given database.
func NewBranchRepo(db *sql.DB) *BranchRepo { return &BranchRepo{db: db} }

// Create inserts a branch and returns its generated ID.
func (r *BranchRepo) Create(ctx context.Context, b *model.Branch) error {
    const q = `INSERT INTO branches (owner_id, name, address, lat, lng) VALUES (?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, b.OwnerID, b.Name, b.Address, b.Lat, b.Lng)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    return nil
}

// GetByID fetches a branch by primary key.
func (r *BranchRepo) GetByID(ctx context.Context, id uint64) (model.Branch, error) {
    const q = `SELECT id, owner_id, name, address, lat, lng, created_at FROM branches WHERE id = ?`
    var b model.Branch
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &b.ID, &b.OwnerID, &b.Name, &b.Address, &b.Lat, &b.Lng, &b.CreatedAt)
    return b, err
}

// ListByOwner returns every branch operated by the owner.
func (r *BranchRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Branch, error) {
    const q = `SELECT id, owner_id, name, address, lat, lng, created_at
               FROM branches WHERE owner_id = ? ORDER BY id`
    rows, err := r.db.QueryContext(ctx, q, ownerID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Branch, 0)
    for rows.Next() {
        var b model.Branch
        if err := rows.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Address, &b.Lat, &b.Lng, &b.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, b)
    }
    return out, rows.Err()
}
