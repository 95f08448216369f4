// Package bookingtest provides an in-memory booking.Store for tests.
// Begin takes an exclusive lock that is held until Commit or
// Rollback, so concurrent transactions serialize the same way row
// locks do in the real store.  Writes land on a scratch copy and are
// published on Commit; Rollback discards them.
package bookingtest

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/tuanngo/car-rental-api/internal/booking"
	"github.com/tuanngo/car-rental-api/internal/model"
	"github.com/tuanngo/car-rental-api/internal/repository"
)

// Store is the in-memory fake.  The zero value is not usable; call
// NewStore.
type Store struct {
	mu sync.Mutex

	intervals map[uint64]model.OccupancyInterval
	contracts map[uint64]model.RentalContract
	quotes    map[uint64]model.PriceQuote // keyed by vehicle ID
	nextID    uint64

	// Failure injection: when set, the matching Tx method returns the
	// error instead of applying the write.  FailVehicleID narrows
	// InsertIntervalErr to one vehicle; zero means every vehicle.
	InsertContractErr error
	InsertIntervalErr error
	CloseIntervalErr  error
	FailVehicleID     uint64
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		intervals: make(map[uint64]model.OccupancyInterval),
		contracts: make(map[uint64]model.RentalContract),
		quotes:    make(map[uint64]model.PriceQuote),
		nextID:    1,
	}
}

// SeedInterval adds an interval to the committed state and returns
// its assigned ID.
func (s *Store) SeedInterval(iv model.OccupancyInterval) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	iv.ID = s.nextID
	s.nextID++
	s.intervals[iv.ID] = iv
	return iv.ID
}

// SeedQuote sets the current published price for a vehicle.
func (s *Store) SeedQuote(q model.PriceQuote) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	q.ID = s.nextID
	s.nextID++
	s.quotes[q.VehicleID] = q
	return q.ID
}

// SeedContract adds a contract to the committed state.
func (s *Store) SeedContract(c model.RentalContract) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.nextID
	s.nextID++
	s.contracts[c.ID] = c
	return c.ID
}

// Intervals returns the committed intervals for a vehicle ordered by
// start time, for assertions.
func (s *Store) Intervals(vehicleID uint64) []model.OccupancyInterval {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.OccupancyInterval, 0)
	for _, iv := range s.intervals {
		if iv.VehicleID == vehicleID {
			out = append(out, iv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out
}

// Contracts returns all committed contracts, for assertions.
func (s *Store) Contracts() []model.RentalContract {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.RentalContract, 0, len(s.contracts))
	for _, c := range s.contracts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Begin locks the store and hands out a transaction over a scratch
// copy of its state.
func (s *Store) Begin(ctx context.Context) (booking.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	t := &memTx{
		store:     s,
		intervals: make(map[uint64]model.OccupancyInterval, len(s.intervals)),
		contracts: make(map[uint64]model.RentalContract, len(s.contracts)),
		nextID:    s.nextID,
	}
	for id, iv := range s.intervals {
		t.intervals[id] = iv
	}
	for id, c := range s.contracts {
		t.contracts[id] = c
	}
	return t, nil
}

// StartCandidates mirrors the start-sweep query over committed state.
func (s *Store) StartCandidates(ctx context.Context, now time.Time) ([]repository.SweepCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[uint64]bool)
	out := make([]repository.SweepCandidate, 0)
	for _, c := range s.contracts {
		if c.StartsAt.After(now) || !c.EndsAt.After(now) {
			continue
		}
		for _, iv := range s.intervals {
			if iv.VehicleID == c.VehicleID && iv.Open() && iv.Status != model.StatusRented && !seen[c.VehicleID] {
				seen[c.VehicleID] = true
				out = append(out, repository.SweepCandidate{VehicleID: c.VehicleID, BranchID: iv.BranchID})
			}
		}
	}
	return out, nil
}

// EndCandidates mirrors the end-sweep query over committed state.
func (s *Store) EndCandidates(ctx context.Context, now time.Time) ([]repository.SweepCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]repository.SweepCandidate, 0)
	for _, iv := range s.intervals {
		if !iv.Open() || iv.Status != model.StatusRented {
			continue
		}
		active := false
		for _, c := range s.contracts {
			if c.VehicleID == iv.VehicleID && !c.StartsAt.After(now) && c.EndsAt.After(now) {
				active = true
				break
			}
		}
		if !active {
			out = append(out, repository.SweepCandidate{VehicleID: iv.VehicleID, BranchID: iv.BranchID})
		}
	}
	return out, nil
}

type memTx struct {
	store     *Store
	intervals map[uint64]model.OccupancyInterval
	contracts map[uint64]model.RentalContract
	nextID    uint64
	done      bool
}

func (t *memTx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	t.store.intervals = t.intervals
	t.store.contracts = t.contracts
	t.store.nextID = t.nextID
	t.store.mu.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

func (t *memTx) Current(ctx context.Context, vehicleID uint64, asOf time.Time) (model.OccupancyInterval, error) {
	var found []model.OccupancyInterval
	for _, iv := range t.intervals {
		if iv.VehicleID == vehicleID && iv.Contains(asOf) {
			found = append(found, iv)
		}
	}
	switch len(found) {
	case 0:
		return model.OccupancyInterval{}, sql.ErrNoRows
	case 1:
		return found[0], nil
	default:
		return model.OccupancyInterval{}, repository.ErrInvariant
	}
}

func (t *memTx) overlapping(vehicleID uint64, status model.VehicleStatus, ws, we time.Time) []model.OccupancyInterval {
	out := make([]model.OccupancyInterval, 0)
	for _, iv := range t.intervals {
		if iv.VehicleID != vehicleID || iv.Status != status {
			continue
		}
		if iv.StartsAt.Before(we) && (iv.EndsAt == nil || iv.EndsAt.After(ws)) {
			out = append(out, iv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out
}

func (t *memTx) OverlappingRented(ctx context.Context, vehicleID uint64, ws, we time.Time) ([]model.OccupancyInterval, error) {
	return t.overlapping(vehicleID, model.StatusRented, ws, we), nil
}

func (t *memTx) OverlappingAvailable(ctx context.Context, vehicleID uint64, ws, we time.Time) ([]model.OccupancyInterval, error) {
	return t.overlapping(vehicleID, model.StatusAvailable, ws, we), nil
}

func (t *memTx) InsertInterval(ctx context.Context, iv *model.OccupancyInterval) error {
	if err := t.store.InsertIntervalErr; err != nil {
		if t.store.FailVehicleID == 0 || t.store.FailVehicleID == iv.VehicleID {
			return err
		}
	}
	iv.ID = t.nextID
	t.nextID++
	t.intervals[iv.ID] = *iv
	return nil
}

func (t *memTx) CloseInterval(ctx context.Context, intervalID uint64, end time.Time) error {
	if err := t.store.CloseIntervalErr; err != nil {
		return err
	}
	iv, ok := t.intervals[intervalID]
	if !ok {
		return sql.ErrNoRows
	}
	if iv.EndsAt != nil && !iv.EndsAt.Equal(end) {
		return repository.ErrConflict
	}
	e := end
	iv.EndsAt = &e
	t.intervals[intervalID] = iv
	return nil
}

func (t *memTx) DeleteInterval(ctx context.Context, intervalID uint64) error {
	delete(t.intervals, intervalID)
	return nil
}

func (t *memTx) DeleteRentedOverlapping(ctx context.Context, vehicleID uint64, ws, we time.Time) ([]model.OccupancyInterval, error) {
	removed := t.overlapping(vehicleID, model.StatusRented, ws, we)
	for _, iv := range removed {
		delete(t.intervals, iv.ID)
	}
	return removed, nil
}

func (t *memTx) ListAvailable(ctx context.Context, vehicleID, branchID uint64) ([]model.OccupancyInterval, error) {
	out := make([]model.OccupancyInterval, 0)
	for _, iv := range t.intervals {
		if iv.VehicleID == vehicleID && iv.BranchID == branchID && iv.Status == model.StatusAvailable {
			out = append(out, iv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (t *memTx) ReplaceAvailable(ctx context.Context, vehicleID, branchID uint64, merged []model.OccupancyInterval) error {
	for id, iv := range t.intervals {
		if iv.VehicleID == vehicleID && iv.BranchID == branchID && iv.Status == model.StatusAvailable {
			delete(t.intervals, id)
		}
	}
	for _, span := range merged {
		iv := model.OccupancyInterval{
			ID:        t.nextID,
			VehicleID: vehicleID,
			Status:    model.StatusAvailable,
			BranchID:  branchID,
			StartsAt:  span.StartsAt,
			EndsAt:    span.EndsAt,
		}
		t.nextID++
		t.intervals[iv.ID] = iv
	}
	return nil
}

func (t *memTx) CloseOpen(ctx context.Context, vehicleID uint64, at time.Time) error {
	for id, iv := range t.intervals {
		if iv.VehicleID == vehicleID && iv.Open() {
			e := at
			iv.EndsAt = &e
			t.intervals[id] = iv
		}
	}
	return nil
}

func (t *memTx) AnyBranch(ctx context.Context, vehicleID uint64) (uint64, error) {
	best := uint64(0)
	found := false
	for id, iv := range t.intervals {
		if iv.VehicleID != vehicleID {
			continue
		}
		if !found || id < best {
			best = id
			found = true
		}
	}
	if !found {
		return 0, sql.ErrNoRows
	}
	return t.intervals[best].BranchID, nil
}

func (t *memTx) CurrentQuote(ctx context.Context, vehicleID uint64) (model.PriceQuote, error) {
	q, ok := t.store.quotes[vehicleID]
	if !ok {
		return model.PriceQuote{}, sql.ErrNoRows
	}
	return q, nil
}

func (t *memTx) InsertContract(ctx context.Context, c *model.RentalContract) error {
	if err := t.store.InsertContractErr; err != nil {
		return err
	}
	c.ID = t.nextID
	t.nextID++
	t.contracts[c.ID] = *c
	return nil
}

func (t *memTx) GetContract(ctx context.Context, contractID uint64) (model.RentalContract, error) {
	c, ok := t.contracts[contractID]
	if !ok {
		return model.RentalContract{}, sql.ErrNoRows
	}
	return c, nil
}

func (t *memTx) DeleteContract(ctx context.Context, contractID uint64) error {
	delete(t.contracts, contractID)
	return nil
}
