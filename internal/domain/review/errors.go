package review

import "errors"

// Sentinel errors for review configuration.
var (
	ErrUnknownPolicy = errors.New("unknown lock policy")
	ErrNilStore      = errors.New("review store is nil")
)
