package api

import (
	"errors"
	"net/http"

	"github.com/okian/udrf/internal/adapters/mq/queue"
	service "github.com/okian/udrf/internal/app"
	"github.com/okian/udrf/internal/domain/apperr"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// statusOf maps an error to its HTTP status and response code.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, queue.ErrFull):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, queue.ErrClosed), errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	}

	switch apperr.KindOf(err) {
	case apperr.ErrValidation:
		return http.StatusBadRequest, "validation"
	case apperr.ErrNotFound:
		return http.StatusNotFound, "not_found"
	case apperr.ErrAlreadyLocked:
		return http.StatusConflict, "already_locked"
	case apperr.ErrConcurrencyConflict:
		return http.StatusConflict, "conflict"
	case apperr.ErrForbidden:
		return http.StatusForbidden, "forbidden"
	case apperr.ErrDataSource:
		return http.StatusServiceUnavailable, "data_source"
	}
	return http.StatusInternalServerError, "internal_error"
}

// messageOf hides internal details of server errors.
func messageOf(err error, status int) string {
	if status == http.StatusInternalServerError {
		return http.StatusText(status)
	}
	if msg := apperr.Message(err); msg != "" {
		return msg
	}
	return err.Error()
}
