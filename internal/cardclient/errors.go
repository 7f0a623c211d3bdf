package cardclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrPermissionDenied matches any 403 response.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrUnauthorized matches any 401 response.
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is a non-2xx response from the card service.
type APIError struct {
	StatusCode int
	Message    string
	Detail     string // the envelope's error field
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("card service: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("card service: %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrPermissionDenied:
		return e.StatusCode == http.StatusForbidden
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	}
	return false
}
