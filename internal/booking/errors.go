package booking

import (
    "errors"
    "fmt"
)

// ErrNotFound is returned when a referenced contract or vehicle does
// not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidWindow is returned when a requested rental window is
// empty or inverted.
var ErrInvalidWindow = errors.New("rental window end must be after start")

// ErrNoPrice is returned when a booking is attempted on a vehicle
// with no published price quote; the contract has nothing to
// reference.
var ErrNoPrice = errors.New("vehicle has no published price")

// ErrManualRent is returned when an owner tries to set a vehicle's
// status to RENTED by hand.  The rented state is only entered through
// a booking.
var ErrManualRent = errors.New("rented status can only be entered via booking")

// TransactionError wraps any failure inside a multi-step booking or
// cancellation sequence.  By the time it is returned, every write of
// the failed operation has been rolled back; no partial interval
// state persists.
type TransactionError struct {
    Op  string // operation that failed, e.g. "create booking"
    Err error  // underlying cause, kept for diagnostics
}

func (e *TransactionError) Error() string {
    return fmt.Sprintf("%s: transaction failed: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

func txErr(op string, err error) error { return &TransactionError{Op: op, Err: err} }
