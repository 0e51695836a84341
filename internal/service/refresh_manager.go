package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/coursehub-auth/internal/logger"
	"github.com/iliyamo/coursehub-auth/internal/model"
	"github.com/iliyamo/coursehub-auth/internal/repository"
	"github.com/iliyamo/coursehub-auth/internal/utils"
)

// maxReuseChain bounds the replaced-by walk during reuse handling.
const maxReuseChain = 32

// RefreshManager issues opaque refresh secrets and drives their lifecycle.
// Only the keyed digest of a secret reaches the store; the plaintext is
// returned to the caller once and never kept.
//
// A token is Active while unrevoked and not past its expiry.  It leaves that
// state exactly once, either by explicit revocation or by being consumed in
// a rotation, which also records the digest of its successor.  Expiry is
// never written; it is computed from the time passed to each call.
type RefreshManager struct {
	store  RefreshTokenStore
	hasher utils.TokenHasher
	ttl    time.Duration
	size   int
	reuse  bool
}

// NewRefreshManager returns a manager whose secrets carry size random bytes
// and live for ttl.  With reuseDetection set, presenting a token that was
// already rotated revokes whatever is still active further down its chain.
func NewRefreshManager(store RefreshTokenStore, hasher utils.TokenHasher, ttl time.Duration, size int, reuseDetection bool) *RefreshManager {
	return &RefreshManager{store: store, hasher: hasher, ttl: ttl, size: size, reuse: reuseDetection}
}

func (m *RefreshManager) generate(owner uint64, now time.Time) (string, *model.RefreshToken, error) {
	secret, err := utils.NewRefreshSecret(m.size)
	if err != nil {
		return "", nil, fmt.Errorf("generate refresh secret: %w", err)
	}
	return secret, &model.RefreshToken{
		AccountID: owner,
		TokenHash: m.hasher.Hash(secret),
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}, nil
}

// Issue creates and stores a new token for owner.
func (m *RefreshManager) Issue(ctx context.Context, owner uint64, now time.Time) (string, model.RefreshToken, error) {
	secret, rec, err := m.generate(owner, now)
	if err != nil {
		return "", model.RefreshToken{}, err
	}
	if err := m.store.Insert(ctx, rec); err != nil {
		return "", model.RefreshToken{}, fmt.Errorf("store refresh token: %w", err)
	}
	return secret, *rec, nil
}

// Lookup returns the Active record for secret.  Unknown and inactive tokens
// yield ErrUnauthorized; a replayed rotated token yields a *ReuseError.
func (m *RefreshManager) Lookup(ctx context.Context, secret string, now time.Time) (model.RefreshToken, error) {
	rec, err := m.store.FindByHash(ctx, m.hasher.Hash(secret))
	if errors.Is(err, repository.ErrNotFound) {
		return model.RefreshToken{}, ErrUnauthorized
	}
	if err != nil {
		return model.RefreshToken{}, fmt.Errorf("find refresh token: %w", err)
	}
	if rec.Active(now) {
		return rec, nil
	}
	if m.reuse && rec.Rotated() {
		n, err := m.revokeDescendants(ctx, rec, now)
		if err != nil {
			return model.RefreshToken{}, err
		}
		return model.RefreshToken{}, &ReuseError{Token: rec, Revoked: n}
	}
	return model.RefreshToken{}, ErrUnauthorized
}

// revokeDescendants follows the replaced-by links from rec and revokes every
// token on the way that is still active.
func (m *RefreshManager) revokeDescendants(ctx context.Context, rec model.RefreshToken, now time.Time) (int, error) {
	revoked := 0
	cur := rec
	for i := 0; i < maxReuseChain && cur.ReplacedByTokenHash != nil; i++ {
		next, err := m.store.FindByHash(ctx, *cur.ReplacedByTokenHash)
		if errors.Is(err, repository.ErrNotFound) {
			break
		}
		if err != nil {
			return revoked, fmt.Errorf("follow refresh chain: %w", err)
		}
		if next.Active(now) {
			changed, err := m.store.Revoke(ctx, next, now)
			if err != nil {
				return revoked, fmt.Errorf("revoke refresh descendant: %w", err)
			}
			if changed {
				revoked++
			}
		}
		cur = next
	}
	return revoked, nil
}

// Rotate consumes old, which must have come from Lookup with the same now,
// and returns the secret and record of its successor.  When a concurrent
// rotation or revocation won the race nothing is written and
// ErrUnauthorized is returned.
func (m *RefreshManager) Rotate(ctx context.Context, old model.RefreshToken, now time.Time) (string, model.RefreshToken, error) {
	secret, next, err := m.generate(old.AccountID, now)
	if err != nil {
		return "", model.RefreshToken{}, err
	}
	err = m.store.Rotate(ctx, old, now, next)
	if errors.Is(err, repository.ErrTokenInactive) {
		logger.Warn().
			Uint64("account_id", old.AccountID).
			Uint64("token_id", old.ID).
			Msg("refresh token consumed concurrently")
		return "", model.RefreshToken{}, ErrUnauthorized
	}
	if err != nil {
		return "", model.RefreshToken{}, fmt.Errorf("rotate refresh token: %w", err)
	}
	return secret, *next, nil
}

// Revoke ends the session behind secret.  Unknown and already inactive
// tokens are a successful no-op.
func (m *RefreshManager) Revoke(ctx context.Context, secret string, now time.Time) error {
	rec, err := m.store.FindByHash(ctx, m.hasher.Hash(secret))
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find refresh token: %w", err)
	}
	if !rec.Active(now) {
		return nil
	}
	if _, err := m.store.Revoke(ctx, rec, now); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}
