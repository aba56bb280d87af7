// Package review implements the expert review lifecycle and the review
// save, lock and unlock operations on top of a Store.
package review

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/udrf/internal/domain/apperr"
	"github.com/okian/udrf/internal/domain/model"
)

// State is the derived lifecycle state of a review.
type State string

// Lifecycle states. Pending is never persisted: it is the absence of a row.
const (
	StatePending    State = "pending"
	StateInProgress State = "in_progress"
	StateLocked     State = "locked"
)

// StateOf derives the lifecycle state of r. A legacy "completed" status is
// read as locked.
func StateOf(r *model.ExpertReview) State {
	switch {
	case r == nil:
		return StatePending
	case r.IsLocked, r.Status == model.StatusLocked, r.Status == model.StatusCompleted:
		return StateLocked
	default:
		return StateInProgress
	}
}

// CheckSave rejects regular saves on locked reviews.
func CheckSave(op string, r *model.ExpertReview) error {
	if StateOf(r) == StateLocked {
		return apperr.NewKind(op, apperr.ErrAlreadyLocked, "review is locked; unlock it before editing")
	}
	return nil
}

// ApplyLock moves an in-progress review to locked and stamps the completion
// time. It returns a new value; r is not modified.
func ApplyLock(op string, r *model.ExpertReview, now time.Time) (*model.ExpertReview, error) {
	switch StateOf(r) {
	case StatePending:
		return nil, apperr.NewKind(op, apperr.ErrNotFound, "review not found; save scores before locking")
	case StateLocked:
		return nil, apperr.NewKind(op, apperr.ErrAlreadyLocked, "review is already locked")
	}
	next := r.Clone()
	next.IsLocked = true
	next.Status = model.StatusLocked
	next.CompletedAt = &now
	next.UpdatedAt = now
	return next, nil
}

// ApplyUnlock moves a locked review back to in progress.
func ApplyUnlock(op string, r *model.ExpertReview, now time.Time) (*model.ExpertReview, error) {
	switch StateOf(r) {
	case StatePending:
		return nil, apperr.NewKind(op, apperr.ErrNotFound, "review not found")
	case StateInProgress:
		return nil, apperr.NewKind(op, apperr.ErrValidation, "review is not locked")
	}
	next := r.Clone()
	next.IsLocked = false
	next.Status = model.StatusInProgress
	next.UpdatedAt = now
	return next, nil
}

// LockPolicy decides how locked reviews may still change.
type LockPolicy string

// Lock policies.
const (
	// PolicyStrict: locked reviews are immutable until unlocked.
	PolicyStrict LockPolicy = "strict"
	// PolicyAdminOverride additionally allows administrators to update a
	// locked review through the dedicated administrative operation.
	PolicyAdminOverride LockPolicy = "admin_override"
)

// ParseLockPolicy parses a configured policy name.
func ParseLockPolicy(s string) (LockPolicy, error) {
	switch LockPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyStrict:
		return PolicyStrict, nil
	case PolicyAdminOverride:
		return PolicyAdminOverride, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}
