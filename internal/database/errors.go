package database

import "errors"

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrNotAvailable is returned when the selected option has no spots left.
	ErrNotAvailable = errors.New("no spots available")
)
