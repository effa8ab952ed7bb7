package storage

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("storage: not found")

// ErrConflict is returned when an insert violates a uniqueness constraint,
// e.g. a second cause at the same (question, row, column) cell.
var ErrConflict = errors.New("storage: conflict")
