package provider

import "errors"

// Sentinel errors for fixture loading.
var (
	ErrEmptyFixtures   = errors.New("fixture payload is empty")
	ErrMissingID       = errors.New("fixture department has no id")
	ErrMissingYear     = errors.New("fixture department has no academic year")
	ErrDuplicateRecord = errors.New("duplicate fixture department")
)
