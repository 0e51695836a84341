package model

import "time"

// Account represents a row in the `accounts` table.  The password hash
// never leaves the repository/service boundary; handlers build their own
// response types and copy only the public fields.
//
// Fields:
//  ID           – primary key identifier assigned by the store.
//  Email        – unique email address, compared as stored.
//  FullName     – display name shown in the UI and in access-token claims.
//  Role         – free-form role name (e.g. Student, Admin).
//  PasswordHash – bcrypt hash of the password.
//  IsActive     – false once the account has been soft-deactivated.
//  TargetBand   – optional target score chosen by a student.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Account struct {
	ID           uint64    `db:"id"`
	Email        string    `db:"email"`
	FullName     string    `db:"full_name"`
	Role         string    `db:"role"`
	PasswordHash string    `db:"password_hash"`
	IsActive     bool      `db:"is_active"`
	TargetBand   *float64  `db:"target_band"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// DefaultRole is assigned at registration when the caller supplies none.
const DefaultRole = "Student"

// AdminRole may deactivate other accounts.  It is never self-assigned
// unless the deployment explicitly allows it at registration.
const AdminRole = "Admin"

// Target bands are scores from 0 to 9 stored with one decimal place.
const (
	MinTargetBand = 0.0
	MaxTargetBand = 9.0
)

// ValidTargetBand reports whether b fits the target band range.
func ValidTargetBand(b float64) bool {
	return b >= MinTargetBand && b <= MaxTargetBand
}
