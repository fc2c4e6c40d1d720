package domain

import (
	"errors"
	"net/http"
)

// Error kinds shared by the generation and billing paths. Callers wrap them
// with fmt.Errorf("%w: ...") and match with errors.Is.
var (
	ErrAuth       = errors.New("auth error")
	ErrValidation = errors.New("validation error")
	ErrUpstream   = errors.New("upstream error")
	ErrSignature  = errors.New("signature error")
	ErrNotFound   = errors.New("not found")
	ErrConfig     = errors.New("config error")
)

// StatusCode maps an error to the HTTP status the API responds with.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrSignature):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Kind returns a short machine-readable label for logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAuth):
		return "auth"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrSignature):
		return "signature"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	case errors.Is(err, ErrConfig):
		return "config"
	default:
		return "internal"
	}
}
