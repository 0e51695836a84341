package service

import (
	"errors"

	"github.com/iliyamo/coursehub-auth/internal/model"
)

// Expected outcomes of the session operations.  Anything else a service
// method returns is an infrastructure failure and should be reported to
// clients as a generic error.
var (
	// ErrInvalidInput means a required field was empty.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict means the email is already registered.
	ErrConflict = errors.New("email already registered")
	// ErrUnauthorized covers wrong credentials, inactive accounts and
	// refresh tokens that are unknown, expired, revoked or already rotated.
	// It never says which.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned by administrative operations on an unknown id.
	ErrNotFound = errors.New("not found")
)

// ReuseError is returned by RefreshManager.Lookup when an already rotated
// token is presented again.  It matches ErrUnauthorized under errors.Is.
type ReuseError struct {
	Token   model.RefreshToken // the replayed token
	Revoked int                // descendants revoked in response
}

func (e *ReuseError) Error() string { return "refresh token reuse detected" }

func (e *ReuseError) Unwrap() error { return ErrUnauthorized }
