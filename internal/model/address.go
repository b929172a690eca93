package model

import "time"

// Address is a delivery address belonging to a person, mirroring the
// `addresses` table.  A person may register any number of addresses;
// rows are inserted once and never mutated afterwards.
//
// Fields:
//  ID        – primary key identifier.
//  PersonID  – owning person.
//  City      – optional city name.
//  PinCode   – optional postal code.
//  State     – optional state name.
//  District  – optional district name.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type Address struct {
	ID        uint64    // addresses.id
	PersonID  uint64    // addresses.person_id
	City      *string   // addresses.city (nullable)
	PinCode   *string   // addresses.pin_code (nullable)
	State     *string   // addresses.state (nullable)
	District  *string   // addresses.district (nullable)
	CreatedAt time.Time // addresses.created_at
	UpdatedAt time.Time // addresses.updated_at
}
