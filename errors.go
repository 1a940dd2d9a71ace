package quell

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a statement identifier or resource is
	// not found at any level of a resolution chain
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotConnected is returned by manager operations before Connect
	ErrNotConnected = errors.New("not connected")
	// ErrAlreadyConnected is returned when Connect is called twice
	ErrAlreadyConnected = errors.New("already connected")
	// ErrNotConfigured is returned by a connector used before Configure
	ErrNotConfigured = errors.New("connector not configured")
	// ErrAlreadyConfigured is returned when Configure is called twice
	ErrAlreadyConfigured = errors.New("connector already configured")
	// ErrShutdown is returned by a connector used after Shutdown
	ErrShutdown = errors.New("connector shut down")
)

// NotFoundError reports an identifier missing from every level of a
// statement chain. It carries the identifier and the source the lookup
// started from, and matches ErrNotFound under errors.Is.
type NotFoundError struct {
	Identifier string
	Source     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("identifier %q not found in %q or any parent source", e.Identifier, e.Source)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
