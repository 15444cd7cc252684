package interfaces

import "errors"

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("duplicate record")
	ErrVersionConflict = errors.New("version conflict")
	// ErrStatusConflict is returned when a conditional status update finds
	// the record in a different state than expected.
	ErrStatusConflict = errors.New("status precondition failed")
)
