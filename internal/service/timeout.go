package service

import (
	"context"
	"time"

	"github.com/iliyamo/coursehub-auth/internal/model"
)

// boundedAccounts and boundedTokens give every store call its own deadline so
// a hung database surfaces as an error instead of blocking the request.

type boundedAccounts struct {
	next AccountStore
	d    time.Duration
}

func (b boundedAccounts) Create(ctx context.Context, a *model.Account) error {
	ctx, cancel := context.WithTimeout(ctx, b.d)
	defer cancel()
	return b.next.Create(ctx, a)
}

func (b boundedAccounts) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, b.d)
	defer cancel()
	return b.next.GetByEmail(ctx, email)
}

func (b boundedAccounts) GetByID(ctx context.Context, id uint64) (model.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, b.d)
	defer cancel()
	return b.next.GetByID(ctx, id)
}

type boundedTokens struct {
	next RefreshTokenStore
	d    time.Duration
}

func (b boundedTokens) Insert(ctx context.Context, t *model.RefreshToken) error {
	ctx, cancel := context.WithTimeout(ctx, b.d)
	defer cancel()
	return b.next.Insert(ctx, t)
}

func (b boundedTokens) FindByHash(ctx context.Context, hash string) (model.RefreshToken, error) {
	ctx, cancel := context.WithTimeout(ctx, b.d)
	defer cancel()
	return b.next.FindByHash(ctx, hash)
}

func (b boundedTokens) Rotate(ctx context.Context, old model.RefreshToken, now time.Time, next *model.RefreshToken) error {
	ctx, cancel := context.WithTimeout(ctx, b.d)
	defer cancel()
	return b.next.Rotate(ctx, old, now, next)
}

func (b boundedTokens) Revoke(ctx context.Context, t model.RefreshToken, now time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, b.d)
	defer cancel()
	return b.next.Revoke(ctx, t, now)
}
