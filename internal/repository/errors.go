package repository

import "errors"

var (
	// ErrNotFound is returned when a referenced room or message is absent.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a concurrent create already succeeded
	// for the same unique key (e.g. double-submit room creation).
	ErrConflict = errors.New("conflict")
	// ErrInvalidArgument is returned on validation failures (empty body,
	// unknown role or status, malformed pagination).
	ErrInvalidArgument = errors.New("invalid argument")
)
