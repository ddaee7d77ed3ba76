package repositories

import "errors"

var (
	// ErrNotFound is returned when a user or post does not exist
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when an account with the email already exists
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidID is returned when an id is not a valid ObjectID hex string
	ErrInvalidID = errors.New("invalid id format")
)
