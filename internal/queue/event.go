// Package queue defines message payloads exchanged over the message broker
// and the publisher that sends them.
package queue

import "time"

// Queue names.  Each event type has its own durable queue and is sent
// through the default exchange with the queue name as routing key.
const (
	AccountRegisteredQueue    = "account.registered"
	SessionReuseDetectedQueue = "session.reuse_detected"
)

// AccountRegisteredEvent is published after a new account has been created.
// It carries enough of the profile for downstream consumers (welcome mail,
// course enrolment) to act without querying the accounts table.
type AccountRegisteredEvent struct {
	AccountID    uint64    `json:"account_id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	RegisteredAt time.Time `json:"registered_at"`
}

// SessionReuseDetectedEvent is published when an already rotated refresh
// token is presented again and its descendants have been revoked.  Token
// digests are deliberately absent; TokenID is the row id of the replayed token.
type SessionReuseDetectedEvent struct {
	AccountID  uint64    `json:"account_id"`
	TokenID    uint64    `json:"token_id"`
	DetectedAt time.Time `json:"detected_at"`
}
