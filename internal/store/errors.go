package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateUsername is returned when a write would violate the unique
// index on username.
var ErrDuplicateUsername = errors.New("username already exists")
