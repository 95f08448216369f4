package booking

import (
    "context"
    "database/sql"
    "log"
    "time"

    "github.com/tuanngo/car-rental-api/internal/model"
    "github.com/tuanngo/car-rental-api/internal/repository"
)

// SQLStore implements Store on MySQL through the repository layer.
//
// When Degraded is set, Begin hands out a pseudo-transaction that
// executes directly against the bare handle with no-op
// commit/rollback.  That mode gives up atomicity and the
// serialization of the conflict check, so every Begin logs a loud
// warning; it exists only for stores that cannot provide
// transactions and must never be enabled in normal operation.
type SQLStore struct {
    db        *sql.DB
    intervals *repository.IntervalRepo
    contracts *repository.ContractRepo
    prices    *repository.PriceRepo
    Degraded  bool
}

// NewSQLStore wires a SQLStore from the shared database handle.
func NewSQLStore(db *sql.DB, degraded bool) *SQLStore {
    return &SQLStore{
        db:        db,
        intervals: repository.NewIntervalRepo(db),
        contracts: repository.NewContractRepo(db),
        prices:    repository.NewPriceRepo(db),
        Degraded:  degraded,
    }
}

// Begin opens a transaction.  In degraded mode a failed BeginTx falls
// back to the non-atomic path instead of failing the request.
func (s *SQLStore) Begin(ctx context.Context) (Tx, error) {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        if !s.Degraded {
            return nil, err
        }
        log.Printf("booking: WARNING: store does not provide transactions, running NON-ATOMIC best-effort writes (DEGRADED_NO_TX)")
        return &sqlTx{store: s, q: s.db}, nil
    }
    if s.Degraded {
        log.Printf("booking: WARNING: DEGRADED_NO_TX is set but transactions are available; using them")
    }
    return &sqlTx{store: s, q: tx, tx: tx}, nil
}

// StartCandidates implements the start-sweep query.
func (s *SQLStore) StartCandidates(ctx context.Context, now time.Time) ([]repository.SweepCandidate, error) {
    return s.contracts.StartCandidates(ctx, now)
}

// EndCandidates implements the end-sweep query.
func (s *SQLStore) EndCandidates(ctx context.Context, now time.Time) ([]repository.SweepCandidate, error) {
    return s.contracts.EndCandidates(ctx, now)
}

// sqlTx adapts the repository Tx methods to the booking.Tx interface.
// q is either the open *sql.Tx or, in degraded mode, the bare *sql.DB.
type sqlTx struct {
    store *SQLStore
    q     repository.Querier
    tx    *sql.Tx // nil in degraded mode
}

func (t *sqlTx) Commit() error {
    if t.tx == nil {
        return nil
    }
    return t.tx.Commit()
}

func (t *sqlTx) Rollback() error {
    if t.tx == nil {
        return nil
    }
    return t.tx.Rollback()
}

func (t *sqlTx) Current(ctx context.Context, vehicleID uint64, asOf time.Time) (model.OccupancyInterval, error) {
    return t.store.intervals.CurrentTx(ctx, t.q, vehicleID, asOf)
}

func (t *sqlTx) OverlappingRented(ctx context.Context, vehicleID uint64, windowStart, windowEnd time.Time) ([]model.OccupancyInterval, error) {
    return t.store.intervals.OverlappingTx(ctx, t.q, vehicleID, model.StatusRented, windowStart, windowEnd, t.tx != nil)
}

func (t *sqlTx) OverlappingAvailable(ctx context.Context, vehicleID uint64, windowStart, windowEnd time.Time) ([]model.OccupancyInterval, error) {
    return t.store.intervals.OverlappingTx(ctx, t.q, vehicleID, model.StatusAvailable, windowStart, windowEnd, t.tx != nil)
}

func (t *sqlTx) InsertInterval(ctx context.Context, iv *model.OccupancyInterval) error {
    return t.store.intervals.InsertTx(ctx, t.q, iv)
}

func (t *sqlTx) CloseInterval(ctx context.Context, intervalID uint64, end time.Time) error {
    return t.store.intervals.CloseTx(ctx, t.q, intervalID, end)
}

func (t *sqlTx) DeleteInterval(ctx context.Context, intervalID uint64) error {
    return t.store.intervals.DeleteTx(ctx, t.q, intervalID)
}

func (t *sqlTx) DeleteRentedOverlapping(ctx context.Context, vehicleID uint64, windowStart, windowEnd time.Time) ([]model.OccupancyInterval, error) {
    return t.store.intervals.DeleteOverlappingTx(ctx, t.q, vehicleID, model.StatusRented, windowStart, windowEnd)
}

func (t *sqlTx) ListAvailable(ctx context.Context, vehicleID, branchID uint64) ([]model.OccupancyInterval, error) {
    return t.store.intervals.ListAvailableTx(ctx, t.q, vehicleID, branchID)
}

func (t *sqlTx) ReplaceAvailable(ctx context.Context, vehicleID, branchID uint64, merged []model.OccupancyInterval) error {
    return t.store.intervals.ReplaceAvailableTx(ctx, t.q, vehicleID, branchID, merged)
}

func (t *sqlTx) CloseOpen(ctx context.Context, vehicleID uint64, at time.Time) error {
    return t.store.intervals.CloseOpenTx(ctx, t.q, vehicleID, at)
}

func (t *sqlTx) AnyBranch(ctx context.Context, vehicleID uint64) (uint64, error) {
    return t.store.intervals.AnyBranchTx(ctx, t.q, vehicleID)
}

func (t *sqlTx) CurrentQuote(ctx context.Context, vehicleID uint64) (model.PriceQuote, error) {
    return t.store.prices.CurrentTx(ctx, t.q, vehicleID)
}

func (t *sqlTx) InsertContract(ctx context.Context, c *model.RentalContract) error {
    return t.store.contracts.CreateTx(ctx, t.q, c)
}

func (t *sqlTx) GetContract(ctx context.Context, contractID uint64) (model.RentalContract, error) {
    return t.store.contracts.GetTx(ctx, t.q, contractID)
}

func (t *sqlTx) DeleteContract(ctx context.Context, contractID uint64) error {
    return t.store.contracts.DeleteTx(ctx, t.q, contractID)
}
