// Package booking orchestrates rental creation and cancellation as
// atomic units over the interval store.  The coordinator is the only
// writer of occupancy intervals; it re-checks the booking conflict
// inside the same transaction as the writes so that two concurrent
// bookings for one vehicle can never both pass the check.
package booking

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/tuanngo/car-rental-api/internal/availability"
    "github.com/tuanngo/car-rental-api/internal/model"
    "github.com/tuanngo/car-rental-api/internal/repository"
)

// Window is a half-open rental window [Start, End) in UTC.
type Window struct {
    Start time.Time
    End   time.Time
}

// Valid reports whether the window is non-empty.
func (w Window) Valid() bool { return w.End.After(w.Start) }

// Coordinator exposes the booking operations.  All multi-step writes
// run inside one transaction per call; on any failure after partial
// writes the whole operation is rolled back and surfaced as a
// TransactionError.
type Coordinator struct {
    store Store
    now   func() time.Time
}

// NewCoordinator returns a Coordinator over the given store.
func NewCoordinator(store Store) *Coordinator {
    return &Coordinator{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// CreateBooking books the vehicle for the customer over the given
// window.  It returns the new contract ID, repository.ErrConflict
// when the window overlaps an existing rental, ErrNoPrice when the
// vehicle has no published quote, or a TransactionError when any
// write fails (after full rollback).
func (c *Coordinator) CreateBooking(ctx context.Context, customerID, vehicleID uint64, w Window, termsID uint64, detail string) (uint64, error) {
    if !w.Valid() {
        return 0, ErrInvalidWindow
    }
    tx, err := c.store.Begin(ctx)
    if err != nil {
        return 0, txErr("create booking", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    // Conflict check under the transaction's row locks.  Anything
    // already RENTED in the window is a hard rejection.
    rented, err := tx.OverlappingRented(ctx, vehicleID, w.Start, w.End)
    if err != nil {
        return 0, txErr("create booking", err)
    }
    if availability.HasConflict(rented, w.Start, w.End) {
        return 0, repository.ErrConflict
    }

    // The contract references the price in effect right now.
    quote, err := tx.CurrentQuote(ctx, vehicleID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return 0, ErrNoPrice
        }
        return 0, txErr("create booking", err)
    }

    // Split the AVAILABLE timeline around the rental window.
    avails, err := tx.OverlappingAvailable(ctx, vehicleID, w.Start, w.End)
    if err != nil {
        return 0, txErr("create booking", err)
    }
    branchID, err := c.resolveBranch(ctx, tx, vehicleID, avails, quote)
    if err != nil {
        return 0, err
    }
    plan := availability.PlanSplit(avails, w.Start, w.End)
    for _, cl := range plan.Close {
        if err := tx.CloseInterval(ctx, cl.IntervalID, cl.End); err != nil {
            return 0, txErr("create booking", err)
        }
    }
    for _, id := range plan.Delete {
        if err := tx.DeleteInterval(ctx, id); err != nil {
            return 0, txErr("create booking", err)
        }
    }
    for i := range plan.Insert {
        if err := tx.InsertInterval(ctx, &plan.Insert[i]); err != nil {
            return 0, txErr("create booking", err)
        }
    }

    rentedIv := model.OccupancyInterval{
        VehicleID: vehicleID,
        Status:    model.StatusRented,
        BranchID:  branchID,
        StartsAt:  w.Start,
        EndsAt:    &w.End,
    }
    if err := tx.InsertInterval(ctx, &rentedIv); err != nil {
        return 0, txErr("create booking", err)
    }

    contract := model.RentalContract{
        CustomerID:   customerID,
        VehicleID:    vehicleID,
        PriceQuoteID: quote.ID,
        TermsID:      termsID,
        StartsAt:     w.Start,
        EndsAt:       w.End,
        Detail:       detail,
    }
    if err := tx.InsertContract(ctx, &contract); err != nil {
        return 0, txErr("create booking", err)
    }
    if err := tx.Commit(); err != nil {
        return 0, txErr("create booking", err)
    }
    committed = true
    return contract.ID, nil
}

// resolveBranch picks the branch for the new RENTED interval: the
// branch of the availability being interrupted, else any interval on
// the vehicle's timeline, else the branch publishing the current
// price.
func (c *Coordinator) resolveBranch(ctx context.Context, tx Tx, vehicleID uint64, avails []model.OccupancyInterval, quote model.PriceQuote) (uint64, error) {
    if len(avails) > 0 {
        return avails[0].BranchID, nil
    }
    branchID, err := tx.AnyBranch(ctx, vehicleID)
    if err == nil {
        return branchID, nil
    }
    if errors.Is(err, sql.ErrNoRows) {
        return quote.BranchID, nil
    }
    return 0, txErr("create booking", err)
}

// CancelBooking deletes the contract and restores availability over
// its window, re-merging the AVAILABLE timeline per affected branch
// so it never stays fragmented.  Returns ErrNotFound when the
// contract does not exist.
func (c *Coordinator) CancelBooking(ctx context.Context, contractID uint64) error {
    tx, err := c.store.Begin(ctx)
    if err != nil {
        return txErr("cancel booking", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    contract, err := tx.GetContract(ctx, contractID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return ErrNotFound
        }
        return txErr("cancel booking", err)
    }
    if err := tx.DeleteContract(ctx, contractID); err != nil {
        return txErr("cancel booking", err)
    }

    removed, err := tx.DeleteRentedOverlapping(ctx, contract.VehicleID, contract.StartsAt, contract.EndsAt)
    if err != nil {
        return txErr("cancel booking", err)
    }

    // Re-open the window as AVAILABLE on every branch that held a
    // removed rental record, then rewrite each branch's AVAILABLE set
    // as the merged sweep result.
    for _, branchID := range distinctBranches(removed) {
        reopened := model.OccupancyInterval{
            VehicleID: contract.VehicleID,
            Status:    model.StatusAvailable,
            BranchID:  branchID,
            StartsAt:  contract.StartsAt,
            EndsAt:    &contract.EndsAt,
        }
        if err := tx.InsertInterval(ctx, &reopened); err != nil {
            return txErr("cancel booking", err)
        }
        avails, err := tx.ListAvailable(ctx, contract.VehicleID, branchID)
        if err != nil {
            return txErr("cancel booking", err)
        }
        merged := availability.MergeSpans(avails)
        if err := tx.ReplaceAvailable(ctx, contract.VehicleID, branchID, merged); err != nil {
            return txErr("cancel booking", err)
        }
    }
    if err := tx.Commit(); err != nil {
        return txErr("cancel booking", err)
    }
    committed = true
    return nil
}

// ChangeVehicleStatus performs an owner-initiated status change:
// close the current interval now and open a new one with the
// requested status and branch.  Moving into RENTED by hand is always
// rejected; leaving RENTED by hand is rejected while a contract is
// running (repository.ErrVehicleRented).
func (c *Coordinator) ChangeVehicleStatus(ctx context.Context, vehicleID uint64, newStatus model.VehicleStatus, newBranchID uint64) error {
    if newStatus == model.StatusRented {
        return ErrManualRent
    }
    now := c.now()
    tx, err := c.store.Begin(ctx)
    if err != nil {
        return txErr("change status", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    cur, err := tx.Current(ctx, vehicleID, now)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return ErrNotFound
        }
        // ErrInvariant and I/O failures alike abort the change.
        return txErr("change status", err)
    }
    if cur.Status == model.StatusRented {
        return repository.ErrVehicleRented
    }
    if cur.Status == newStatus && cur.BranchID == newBranchID {
        // nothing to do
        if err := tx.Commit(); err != nil {
            return txErr("change status", err)
        }
        committed = true
        return nil
    }
    if err := tx.CloseInterval(ctx, cur.ID, now); err != nil {
        return txErr("change status", err)
    }
    next := model.OccupancyInterval{
        VehicleID: vehicleID,
        Status:    newStatus,
        BranchID:  newBranchID,
        StartsAt:  now,
    }
    if err := tx.InsertInterval(ctx, &next); err != nil {
        return txErr("change status", err)
    }
    if err := tx.Commit(); err != nil {
        return txErr("change status", err)
    }
    committed = true
    return nil
}

func distinctBranches(ivs []model.OccupancyInterval) []uint64 {
    seen := make(map[uint64]struct{}, len(ivs))
    out := make([]uint64, 0, len(ivs))
    for _, iv := range ivs {
        if _, ok := seen[iv.BranchID]; ok {
            continue
        }
        seen[iv.BranchID] = struct{}{}
        out = append(out, iv.BranchID)
    }
    return out
}
