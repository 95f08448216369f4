// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names used for rental lifecycle events.  Both queues are
// declared durable by publisher and consumer alike.
const (
	RentalBookedQueue    = "rental.booked"
	RentalCancelledQueue = "rental.cancelled"
)

// RentalBookedEvent is published when a booking transaction commits.
// It carries enough information for downstream consumers to log,
// notify, or trigger analytics without querying the primary database.
type RentalBookedEvent struct {
	ContractID     uint64 `json:"contract_id"`
	CustomerID     uint64 `json:"customer_id"`
	VehicleID      uint64 `json:"vehicle_id"`
	PlateNumber    string `json:"plate_number"`
	BranchID       uint64 `json:"branch_id"`
	StartsAt       string `json:"starts_at"`
	EndsAt         string `json:"ends_at"`
	DailyRateCents uint32 `json:"daily_rate_cents"`
	BookedAt       string `json:"booked_at"`
}

// RentalCancelledEvent is published when a contract is cancelled and
// the vehicle's availability has been restored.
type RentalCancelledEvent struct {
	ContractID  uint64 `json:"contract_id"`
	CustomerID  uint64 `json:"customer_id"`
	VehicleID   uint64 `json:"vehicle_id"`
	StartsAt    string `json:"starts_at"`
	EndsAt      string `json:"ends_at"`
	CancelledAt string `json:"cancelled_at"`
}
