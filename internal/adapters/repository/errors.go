package repository

import "errors"

// Sentinel errors for storage setup.
var (
	ErrUnsupportedDriver = errors.New("unsupported database driver")
	ErrNilDB             = errors.New("database handle is nil")
)
