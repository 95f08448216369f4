package model

import "time"

// RentalContract records a customer's rental of a vehicle over a
// half-open window [StartsAt, EndsAt).  A contract is created
// atomically together with the RENTED occupancy interval covering the
// same window; cancelling the contract atomically restores
// availability.  There is no stored foreign key to the interval it
// created – the pair is matched by vehicle and window, which the
// no-double-booking invariant keeps unambiguous.
//
// Fields:
//  ID           – primary key identifier.
//  CustomerID   – customer who booked.
//  VehicleID    – vehicle being rented.
//  PriceQuoteID – price row in effect when the contract was created.
//  TermsID      – usage terms accepted at contract time.
//  StartsAt     – inclusive rental start (UTC).
//  EndsAt       – exclusive rental end (UTC).
//  Detail       – free-text notes entered at booking time.
//  CreatedAt    – timestamp the contract was signed.
type RentalContract struct {
    ID           uint64    // rental_contracts.id
    CustomerID   uint64    // rental_contracts.customer_id
    VehicleID    uint64    // rental_contracts.vehicle_id
    PriceQuoteID uint64    // rental_contracts.price_quote_id
    TermsID      uint64    // rental_contracts.terms_id
    StartsAt     time.Time // rental_contracts.starts_at
    EndsAt       time.Time // rental_contracts.ends_at
    Detail       string    // rental_contracts.detail
    CreatedAt    time.Time // rental_contracts.created_at
}

// PriceQuote is one row of a vehicle's append-only price history.  A
// quote applies from EffectiveAt until RetiredAt; the current quote
// has a nil RetiredAt.  Contracts reference the quote that was
// current at contract creation time, so rows are never updated in
// place or deleted.
//
// Fields:
//  ID             – primary key identifier.
//  VehicleID      – vehicle the price applies to.
//  BranchID       – branch publishing the price.
//  DailyRateCents – daily rental rate in cents.
//  EffectiveAt    – when the quote became active (UTC).
//  RetiredAt      – when the quote was superseded (nil = current).
type PriceQuote struct {
    ID             uint64     // price_quotes.id
    VehicleID      uint64     // price_quotes.vehicle_id
    BranchID       uint64     // price_quotes.branch_id
    DailyRateCents uint32     // price_quotes.daily_rate_cents
    EffectiveAt    time.Time  // price_quotes.effective_at
    RetiredAt      *time.Time // price_quotes.retired_at (nullable)
}
