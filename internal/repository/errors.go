package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	// ErrCorrupt means a stored value failed the read-side validation.
	ErrCorrupt = errors.New("stored value failed validation")
)
