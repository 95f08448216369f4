// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// booking coordinator and handlers to distinguish between different
// failure scenarios. For example, ErrConflict indicates that a
// requested rental window overlaps an existing RENTED interval, while
// ErrInvariant signals that the interval data itself is corrupt and
// the operation must not proceed.
package repository

import "errors"

// ErrConflict is returned when a booking cannot proceed because the
// requested window overlaps a committed RENTED interval for the same
// vehicle. Handlers should translate this into an HTTP 409 response;
// the caller recovers by choosing a different window.
var ErrConflict = errors.New("conflict")

// ErrVehicleRented is returned when an owner attempts a manual status
// change on a vehicle whose current interval is RENTED. The rented
// state may only be left via cancellation or the reconciliation
// sweep, never by hand.
var ErrVehicleRented = errors.New("vehicle is currently rented")

// ErrInvariant is returned when the interval data violates a
// consistency invariant that writes are supposed to preserve, e.g.
// more than one open interval on a single vehicle's timeline. It is
// never caused by request input; it indicates a prior bug and should
// be treated as fatal/alerting rather than shown to users.
var ErrInvariant = errors.New("interval invariant violation")
