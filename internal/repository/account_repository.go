package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/coursehub-auth/internal/model"
)

const mysqlDuplicateEntry = 1062

const accountColumns = "id, email, full_name, role, password_hash, is_active, target_band, created_at, updated_at"

// AccountRepo persists accounts in the `accounts` table.
type AccountRepo struct{ db *sqlx.DB }

func NewAccountRepo(db *sqlx.DB) *AccountRepo { return &AccountRepo{db: db} }

// Create inserts a and fills in its ID.  Zero timestamps are set to now.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) error {
	return insertAccount(ctx, r.db, a)
}

func insertAccount(ctx context.Context, ex sqlx.ExecerContext, a *model.Account) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
	res, err := ex.ExecContext(ctx,
		`INSERT INTO accounts (email, full_name, role, password_hash, is_active, target_band, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Email, a.FullName, a.Role, a.PasswordHash, a.IsActive, a.TargetBand, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	a.ID = uint64(id)
	return nil
}

// GetByEmail fetches an account by its exact email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	var a model.Account
	err := r.db.GetContext(ctx, &a,
		"SELECT "+accountColumns+" FROM accounts WHERE email = ? LIMIT 1", email)
	return a, notFound(err, "get account by email")
}

// GetByID fetches an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id uint64) (model.Account, error) {
	var a model.Account
	err := r.db.GetContext(ctx, &a,
		"SELECT "+accountColumns+" FROM accounts WHERE id = ? LIMIT 1", id)
	return a, notFound(err, "get account by id")
}

// UpdateProfile sets the display name and target band of an active account
// and nothing else.  A missing or deactivated account is ErrNotFound, so a
// concurrent deactivation is never undone.
func (r *AccountRepo) UpdateProfile(ctx context.Context, id uint64, fullName string, targetBand *float64, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET full_name = ?, target_band = ?, updated_at = ?
		 WHERE id = ? AND is_active = ?`,
		fullName, targetBand, at, id, true)
	if err != nil {
		return fmt.Errorf("update account profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account profile: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate soft-deletes an account.  Accounts are never removed.
func (r *AccountRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE accounts SET is_active = ?, updated_at = ? WHERE id = ?",
		false, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("deactivate account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate account: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// notFound maps sql.ErrNoRows to ErrNotFound and wraps everything else.
func notFound(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
