// Package service implements registration, login and the refresh-token
// session lifecycle on top of the account and token stores.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/coursehub-auth/internal/model"
	"github.com/iliyamo/coursehub-auth/internal/queue"
)

// AccountStore is satisfied by repository.AccountRepo.  Lookups report a
// missing row with repository.ErrNotFound.
type AccountStore interface {
	Create(ctx context.Context, a *model.Account) error
	GetByEmail(ctx context.Context, email string) (model.Account, error)
	GetByID(ctx context.Context, id uint64) (model.Account, error)
}

// RefreshTokenStore is satisfied by repository.TokenRepo and
// repository.RedisTokenStore.  Rotate must revoke old and insert next as one
// atomic step, conditional on old being unrevoked, and return
// repository.ErrTokenInactive when that condition fails.
type RefreshTokenStore interface {
	Insert(ctx context.Context, t *model.RefreshToken) error
	FindByHash(ctx context.Context, hash string) (model.RefreshToken, error)
	Rotate(ctx context.Context, old model.RefreshToken, now time.Time, next *model.RefreshToken) error
	Revoke(ctx context.Context, t model.RefreshToken, now time.Time) (bool, error)
}

// EventPublisher receives domain events.  Implementations are best-effort;
// a returned error is logged and otherwise ignored.
type EventPublisher interface {
	AccountRegistered(ctx context.Context, ev queue.AccountRegisteredEvent) error
	SessionReuseDetected(ctx context.Context, ev queue.SessionReuseDetectedEvent) error
}

// Recorder receives operation outcomes.  *metrics.Metrics implements it.
type Recorder interface {
	Operation(op, result string)
	ReuseDetected()
}

type nopRecorder struct{}

func (nopRecorder) Operation(string, string) {}
func (nopRecorder) ReuseDetected()           {}
