package repositories

import "errors"

// ErrNotFound is returned when a requested record does not exist.
// It marks a soft gap, not a storage failure.
var ErrNotFound = errors.New("record not found")

// ErrVersionConflict is returned when a save is based on a stale read
var ErrVersionConflict = errors.New("record was changed by another writer")
