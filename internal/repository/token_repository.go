package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/coursehub-auth/internal/model"
)

const tokenColumns = "id, account_id, token_hash, expires_at, created_at, revoked_at, replaced_by_token_hash"

// TokenRepo persists refresh token digests in the `refresh_tokens` table.
type TokenRepo struct{ db *sqlx.DB }

func NewTokenRepo(db *sqlx.DB) *TokenRepo { return &TokenRepo{db: db} }

// Insert stores a new refresh token row and fills in its ID.
func (r *TokenRepo) Insert(ctx context.Context, t *model.RefreshToken) error {
	return insertToken(ctx, r.db, t)
}

// FindByHash returns the row whose digest equals hash, whatever its state.
func (r *TokenRepo) FindByHash(ctx context.Context, hash string) (model.RefreshToken, error) {
	var t model.RefreshToken
	err := r.db.GetContext(ctx, &t,
		"SELECT "+tokenColumns+" FROM refresh_tokens WHERE token_hash = ? LIMIT 1", hash)
	return t, notFound(err, "find refresh token")
}

// Rotate consumes old and stores next as its successor in one transaction.
// The revoke is conditional on old still being unrevoked; when another
// request got there first no row matches, nothing is written and
// ErrTokenInactive is returned.  Expiry is immutable, so the caller checks it
// against the same now before calling.
func (r *TokenRepo) Rotate(ctx context.Context, old model.RefreshToken, now time.Time, next *model.RefreshToken) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rotation: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = ?, replaced_by_token_hash = ?
		 WHERE id = ? AND revoked_at IS NULL`,
		now, next.TokenHash, old.ID)
	if err != nil {
		return fmt.Errorf("revoke rotated token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke rotated token: %w", err)
	}
	if n == 0 {
		return ErrTokenInactive
	}
	if err := insertToken(ctx, tx, next); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rotation: %w", err)
	}
	committed = true
	return nil
}

// Revoke marks t revoked at now.  It reports whether this call performed
// the transition; revoking an already revoked token is not an error.
func (r *TokenRepo) Revoke(ctx context.Context, t model.RefreshToken, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL",
		now, t.ID)
	if err != nil {
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}
	return n > 0, nil
}

func insertToken(ctx context.Context, ex sqlx.ExecerContext, t *model.RefreshToken) error {
	res, err := ex.ExecContext(ctx,
		`INSERT INTO refresh_tokens (account_id, token_hash, expires_at, created_at, revoked_at, replaced_by_token_hash)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.AccountID, t.TokenHash, t.ExpiresAt, t.CreatedAt, t.RevokedAt, t.ReplacedByTokenHash)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicateToken
		}
		return fmt.Errorf("insert refresh token: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	t.ID = uint64(id)
	return nil
}
