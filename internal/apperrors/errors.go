// Package apperrors is the error taxonomy of the API. Guard failures,
// missing rows, duplicate bids and bad transitions each map to one kind,
// and handlers translate kinds to HTTP statuses in a single place.
package apperrors

import (
	"errors"
	"net/http"
)

type Kind struct {
	Message    string
	StatusCode int
}

func (k *Kind) Error() string {
	return k.Message
}

var (
	ErrUnauthorized = &Kind{Message: "unauthorized", StatusCode: http.StatusUnauthorized}
	ErrForbidden    = &Kind{Message: "forbidden", StatusCode: http.StatusForbidden}
	ErrNotFound     = &Kind{Message: "not found", StatusCode: http.StatusNotFound}
	ErrValidation   = &Kind{Message: "validation failed", StatusCode: http.StatusBadRequest}
	ErrConflict     = &Kind{Message: "conflict", StatusCode: http.StatusConflict}
	ErrInvalidState = &Kind{Message: "invalid state", StatusCode: http.StatusBadRequest}
	ErrUnavailable  = &Kind{Message: "upstream unavailable", StatusCode: http.StatusInternalServerError}
)

// StatusCode resolves the HTTP status for err, defaulting to 500 for
// anything outside the taxonomy (opaque upstream failures).
func StatusCode(err error) int {
	var k *Kind
	if errors.As(err, &k) {
		return k.StatusCode
	}
	return http.StatusInternalServerError
}
