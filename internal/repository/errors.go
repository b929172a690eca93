// Package repository contains the data access layer over MySQL.  This
// file defines sentinel error values shared across repositories so
// that handlers can distinguish failure scenarios with errors.Is and
// translate them into HTTP statuses.
package repository

import "errors"

// ErrPersonNotFound indicates that no person row matched the lookup.
// Handlers should translate this into an HTTP 404 response.
var ErrPersonNotFound = errors.New("person not found")

// ErrTreeNotFound indicates that no tree row matched the lookup.
var ErrTreeNotFound = errors.New("tree not found")

// ErrEmailExists is returned when inserting a person whose email is
// already registered.  Handlers should translate this into an HTTP
// 409 response.
var ErrEmailExists = errors.New("email already exists")
