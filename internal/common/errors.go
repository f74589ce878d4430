// Package common holds the error taxonomy shared by repositories, services and
// the HTTP layer. Callers match with errors.Is.
package common

import (
	"errors"
	"strings"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("not authenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

var kinds = []error{ErrValidation, ErrUnauthenticated, ErrForbidden, ErrNotFound, ErrConflict}

// Message returns the client-facing text for err. Errors built as
// fmt.Errorf("<detail>: %w", ErrX) yield "<detail>"; anything that is not one
// of the client-visible kinds collapses to a generic message.
func Message(err error) string {
	for _, kind := range kinds {
		if !errors.Is(err, kind) {
			continue
		}
		msg := strings.TrimSuffix(err.Error(), ": "+kind.Error())
		if msg == "" || msg == err.Error() && err != kind {
			return kind.Error()
		}
		return msg
	}
	return "Internal server error"
}
