package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/coursehub-auth/internal/logger"
	"github.com/iliyamo/coursehub-auth/internal/model"
	"github.com/iliyamo/coursehub-auth/internal/repository"
)

// ProfileStore adds the mutating account operations to AccountStore.
type ProfileStore interface {
	AccountStore
	UpdateProfile(ctx context.Context, id uint64, fullName string, targetBand *float64, at time.Time) error
	Deactivate(ctx context.Context, id uint64) error
}

// ProfileUpdate lists the fields a user may change on their own account.
// Nil fields are left alone; ClearTargetBand removes the target band.
// A target band outside model.MinTargetBand..model.MaxTargetBand is
// ErrInvalidInput.
type ProfileUpdate struct {
	FullName        *string
	TargetBand      *float64
	ClearTargetBand bool
}

// AccountService reads and edits accounts.  It never hands out password
// hashes, and accounts are only ever soft-deactivated.
type AccountService struct {
	store   ProfileStore
	timeout time.Duration
	now     func() time.Time
}

func NewAccountService(store ProfileStore, storeTimeout time.Duration) *AccountService {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &AccountService{
		store:   store,
		timeout: storeTimeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Profile returns the summary of account id.  Missing or inactive accounts
// yield ErrUnauthorized, since the caller holds a token for them.
func (s *AccountService) Profile(ctx context.Context, id uint64) (AccountSummary, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return AccountSummary{}, err
	}
	return summaryOf(a), nil
}

// UpdateProfile applies u to account id and returns the new summary.  Only
// the name and target band are written, and only while the account is
// still active; a deactivation that lands first wins.
func (s *AccountService) UpdateProfile(ctx context.Context, id uint64, u ProfileUpdate) (AccountSummary, error) {
	if u.FullName != nil && strings.TrimSpace(*u.FullName) == "" {
		return AccountSummary{}, ErrInvalidInput
	}
	if !u.ClearTargetBand && u.TargetBand != nil && !model.ValidTargetBand(*u.TargetBand) {
		return AccountSummary{}, ErrInvalidInput
	}

	a, err := s.load(ctx, id)
	if err != nil {
		return AccountSummary{}, err
	}
	if u.FullName != nil {
		a.FullName = strings.TrimSpace(*u.FullName)
	}
	switch {
	case u.ClearTargetBand:
		a.TargetBand = nil
	case u.TargetBand != nil:
		band := *u.TargetBand
		a.TargetBand = &band
	}
	a.UpdatedAt = s.now()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err = s.store.UpdateProfile(ctx, a.ID, a.FullName, a.TargetBand, a.UpdatedAt)
	if errors.Is(err, repository.ErrNotFound) {
		return AccountSummary{}, ErrUnauthorized
	}
	if err != nil {
		return AccountSummary{}, fmt.Errorf("update account: %w", err)
	}
	return summaryOf(a), nil
}

// Deactivate soft-deletes account id.  The account keeps its email, can no
// longer log in, and its refresh tokens stop working at the next refresh.
// Deactivating an unknown id is ErrNotFound.
func (s *AccountService) Deactivate(ctx context.Context, id uint64) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err := s.store.Deactivate(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("deactivate account: %w", err)
	}
	logger.Info().Uint64("account_id", id).Msg("account deactivated")
	return nil
}

func (s *AccountService) load(ctx context.Context, id uint64) (model.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	a, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Account{}, ErrUnauthorized
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("load account: %w", err)
	}
	if !a.IsActive {
		return model.Account{}, ErrUnauthorized
	}
	return a, nil
}
