// Package repository implements the account and refresh-token stores.
// The sentinel values below let the service layer tell expected outcomes
// apart from infrastructure failures, which are returned wrapped.
package repository

import "errors"

// ErrNotFound is returned when no row matches a lookup.  Handlers never see
// it directly; the service translates it into an authentication failure.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned by AccountRepo.Create when the unique email
// index rejects the insert.
var ErrEmailExists = errors.New("email already exists")

// ErrTokenInactive is returned by Rotate when the token being consumed is no
// longer active at write time, i.e. another request revoked or rotated it
// first.  The whole rotation is rolled back.
var ErrTokenInactive = errors.New("refresh token no longer active")

// ErrDuplicateToken is returned when a refresh token digest is already stored.
var ErrDuplicateToken = errors.New("refresh token already exists")
