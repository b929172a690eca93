package model

import "time"

// Person represents a registered participant of the sapling
// distribution program as stored in the `persons` table.  A person
// may hold at most one tree reservation at a time; the OrderedTree
// field is the sole record of that reservation and is mutated only
// by the reservation engine.
//
// Fields:
//  ID              – primary key identifier.
//  FirstName       – required given name.
//  LastName        – optional family name.
//  Email           – optional email, unique when present.
//  Phone           – optional phone number.
//  OrderedTree     – ID of the reserved tree, nil when none.
//  PictureFilename – opaque key of the stored profile picture, nil
//                    when no picture has been uploaded.
//  CreatedAt       – timestamp of registration.
//  UpdatedAt       – timestamp of last update.
type Person struct {
	ID              uint64    // persons.id
	FirstName       string    // persons.first_name
	LastName        *string   // persons.last_name (nullable)
	Email           *string   // persons.email (nullable, unique)
	Phone           *string   // persons.phone (nullable)
	OrderedTree     *uint64   // persons.ordered_tree (nullable)
	PictureFilename *string   // persons.picture_filename (nullable)
	CreatedAt       time.Time // persons.created_at
	UpdatedAt       time.Time // persons.updated_at
}
