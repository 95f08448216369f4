package model

import "time"

// Vehicle represents a car listed on the marketplace as stored in the
// `vehicles` table.  A vehicle belongs to an owner and references a
// catalog model; its live status is never stored here but derived
// from the occupancy interval whose window contains "now".
//
// Fields:
//  ID          – primary key identifier.
//  OwnerID     – user (role OWNER) who listed the vehicle.
//  ModelID     – catalog model reference.
//  PlateNumber – unique registration plate.
//  Seats       – passenger capacity.
//  CreatedAt   – timestamp of creation.
type Vehicle struct {
    ID          uint64    // vehicles.id
    OwnerID     uint64    // vehicles.owner_id
    ModelID     uint64    // vehicles.model_id
    PlateNumber string    // vehicles.plate_number
    Seats       uint8     // vehicles.seats
    CreatedAt   time.Time // vehicles.created_at
}

// Branch is a rental branch operated by an owner.  Vehicles are
// attached to a branch through their occupancy intervals.
//
// Fields:
//  ID        – primary key identifier.
//  OwnerID   – owner operating the branch.
//  Name      – display name.
//  Address   – street address.
//  Lat, Lng  – coordinates for map display (out of core scope).
//  CreatedAt – timestamp of creation.
type Branch struct {
    ID        uint64    // branches.id
    OwnerID   uint64    // branches.owner_id
    Name      string    // branches.name
    Address   string    // branches.address
    Lat       float64   // branches.lat
    Lng       float64   // branches.lng
    CreatedAt time.Time // branches.created_at
}
