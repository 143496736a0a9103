package api

import (
	"errors"
	"net/http"

	"taskboard-api/domain"
	"taskboard-api/storage"
)

// errorResponse is the uniform error body returned by every endpoint.
type errorResponse struct {
	Error string `json:"error"`
}

// httpStatus maps the typed error taxonomy onto HTTP status codes. Anything
// outside the taxonomy is a persistence or unexpected failure and reports as
// an internal error without leaking its cause to the caller.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidFilter),
		errors.Is(err, domain.ErrInvalidCategory),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, domain.ErrInvalidID),
		domain.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrUserExists):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// errorBody renders err for the response, hiding internal causes.
func errorBody(err error) errorResponse {
	if httpStatus(err) == http.StatusInternalServerError {
		return errorResponse{Error: "internal error"}
	}
	return errorResponse{Error: err.Error()}
}
