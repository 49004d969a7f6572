package repository

import "errors"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when an insert hits the waitlist email unique key.
var ErrDuplicateEmail = errors.New("email already on the waitlist")

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"
