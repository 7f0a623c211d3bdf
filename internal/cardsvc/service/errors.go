package service

import (
	"errors"
	"fmt"
)

var (
	// ErrPermissionDenied means an owner-scoped write touched zero rows: the
	// card exists for someone else or not at all.
	ErrPermissionDenied = errors.New("permission denied")

	ErrCardNotFound   = errors.New("card not found")
	ErrPlayerNotFound = errors.New("player not found")

	// ErrUnauthenticated means the session token is missing, invalid or names
	// an identity that no longer exists.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// ValidationError reports bad form input. It is raised before any remote
// call, so nothing has been written.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// StepError names the step of a multi-step flow that failed. Steps that ran
// before it are not rolled back.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func step(name string, err error) error {
	return &StepError{Step: name, Err: err}
}
