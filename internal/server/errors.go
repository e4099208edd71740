package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/jobplus/internal/app"
	"github.com/jonathan/jobplus/internal/backend"
	"github.com/jonathan/jobplus/internal/fetch"
	"github.com/jonathan/jobplus/internal/session"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var validation *ErrValidation
	var fetchErr *fetch.Error

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrUnknownItem):
		return http.StatusNotFound
	case errors.Is(err, session.ErrNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, backend.ErrNotApplied), errors.As(err, &fetchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
