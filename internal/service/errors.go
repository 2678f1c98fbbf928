// Package service implements the application services sitting between
// the HTTP layer and storage: permission checks, input validation, and
// orchestration of the balance materializer around every mutation.
package service

import "errors"

var (
	// ErrInvalidInput marks requests rejected before any persistence.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPermissionDenied marks requests by users lacking the required
	// membership or ownership.
	ErrPermissionDenied = errors.New("permission denied")
)
