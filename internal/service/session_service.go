package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/coursehub-auth/internal/logger"
	"github.com/iliyamo/coursehub-auth/internal/metrics"
	"github.com/iliyamo/coursehub-auth/internal/model"
	"github.com/iliyamo/coursehub-auth/internal/queue"
	"github.com/iliyamo/coursehub-auth/internal/repository"
	"github.com/iliyamo/coursehub-auth/internal/utils"
)

// Operation names used as the metrics "op" label.
const (
	OpRegister = "register"
	OpLogin    = "login"
	OpRefresh  = "refresh"
	OpRevoke   = "revoke"
)

const eventTimeout = 3 * time.Second

// Options carries the tunables of a SessionService.  Zero values fall back
// to the defaults noted on each field.
type Options struct {
	RefreshTTL        time.Duration // 7 days
	RefreshTokenBytes int           // utils.MinRefreshTokenBytes
	TokenHashKey      string        // empty selects plain SHA-256 digests
	ReuseDetection    bool
	BcryptCost        int           // bcrypt.DefaultCost
	StoreTimeout      time.Duration // 5 seconds

	// RegisterRoles limits the roles a registrant may ask for.  Empty
	// accepts any role except model.AdminRole.
	RegisterRoles []string
}

// Option customises a SessionService.
type Option func(*SessionService)

// WithClock replaces the time source for both the service and its access
// token issuer.
func WithClock(now func() time.Time) Option {
	return func(s *SessionService) {
		s.now = now
		s.issuer = s.issuer.WithClock(now)
	}
}

// WithPublisher sends domain events to p.
func WithPublisher(p EventPublisher) Option {
	return func(s *SessionService) { s.events = p }
}

// WithRecorder reports operation outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(s *SessionService) { s.metrics = r }
}

// RegisterInput is the payload of Register.  Role defaults to
// model.DefaultRole and must be one of Options.RegisterRoles when that is
// set; without that list any role but model.AdminRole is accepted.
// TargetBand is optional.
type RegisterInput struct {
	Email      string
	Password   string
	FullName   string
	Role       string
	TargetBand *float64
}

// AccountSummary is the public view of an account.
type AccountSummary struct {
	ID         uint64
	Email      string
	FullName   string
	Role       string
	TargetBand *float64
}

// TokenPair is what Register, Login and Refresh hand back to the client.
// RefreshToken is the plaintext secret; this is the only time it is seen.
type TokenPair struct {
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	User                  AccountSummary
}

// SessionService implements Register, Login, Refresh and Revoke.  It is safe
// for concurrent use; all state lives in the stores.
type SessionService struct {
	accounts AccountStore
	refresh  *RefreshManager
	issuer   *utils.Issuer
	cost     int
	roles    map[string]bool
	now      func() time.Time
	events   EventPublisher
	metrics  Recorder
}

// NewSessionService wires the service.  issuer must already carry the
// signing key; a missing key fails in utils.NewIssuer, not here.
func NewSessionService(accounts AccountStore, tokens RefreshTokenStore, issuer *utils.Issuer, opts Options, extra ...Option) *SessionService {
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 7 * 24 * time.Hour
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 5 * time.Second
	}
	accounts = boundedAccounts{next: accounts, d: opts.StoreTimeout}
	tokens = boundedTokens{next: tokens, d: opts.StoreTimeout}

	refresh := NewRefreshManager(tokens, utils.NewTokenHasher(opts.TokenHashKey),
		opts.RefreshTTL, opts.RefreshTokenBytes, opts.ReuseDetection)

	var roles map[string]bool
	if len(opts.RegisterRoles) > 0 {
		roles = make(map[string]bool, len(opts.RegisterRoles))
		for _, r := range opts.RegisterRoles {
			roles[r] = true
		}
	}

	s := &SessionService{
		accounts: accounts,
		refresh:  refresh,
		issuer:   issuer,
		cost:     opts.BcryptCost,
		roles:    roles,
		now:      func() time.Time { return time.Now().UTC() },
		events:   queue.Noop{},
		metrics:  nopRecorder{},
	}
	for _, o := range extra {
		o(s)
	}
	return s
}

// Register creates an active account and opens its first session.
func (s *SessionService) Register(ctx context.Context, in RegisterInput) (pair TokenPair, err error) {
	defer func() { s.record(OpRegister, err) }()

	email := strings.TrimSpace(in.Email)
	name := strings.TrimSpace(in.FullName)
	if email == "" || in.Password == "" || name == "" {
		return TokenPair{}, ErrInvalidInput
	}
	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = model.DefaultRole
	}
	if !s.roleAllowed(role) {
		return TokenPair{}, ErrInvalidInput
	}
	if in.TargetBand != nil && !model.ValidTargetBand(*in.TargetBand) {
		return TokenPair{}, ErrInvalidInput
	}

	_, err = s.accounts.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return TokenPair{}, ErrConflict
	case !errors.Is(err, repository.ErrNotFound):
		return TokenPair{}, fmt.Errorf("check email: %w", err)
	}

	hash, err := utils.HashPassword(in.Password, s.cost)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return TokenPair{}, ErrInvalidInput
	}
	if err != nil {
		return TokenPair{}, fmt.Errorf("hash password: %w", err)
	}
	now := s.now()
	acct := &model.Account{
		Email:        email,
		FullName:     name,
		Role:         role,
		PasswordHash: hash,
		IsActive:     true,
		TargetBand:   in.TargetBand,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, acct); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return TokenPair{}, ErrConflict
		}
		return TokenPair{}, fmt.Errorf("create account: %w", err)
	}
	logger.Info().Uint64("account_id", acct.ID).Str("role", acct.Role).Msg("account registered")

	pair, err = s.issuePair(ctx, *acct, now)
	if err != nil {
		return TokenPair{}, err
	}
	s.publish(ctx, func(ctx context.Context) error {
		return s.events.AccountRegistered(ctx, queue.AccountRegisteredEvent{
			AccountID:    acct.ID,
			Email:        acct.Email,
			FullName:     acct.FullName,
			Role:         acct.Role,
			RegisteredAt: now,
		})
	})
	return pair, nil
}

// Login checks the password and opens a new session.  Unknown email, wrong
// password and inactive account all return ErrUnauthorized.
func (s *SessionService) Login(ctx context.Context, email, password string) (pair TokenPair, err error) {
	defer func() { s.record(OpLogin, err) }()

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return TokenPair{}, ErrInvalidInput
	}
	acct, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		// Spend the same bcrypt work as a real check.
		utils.VerifyPassword(dummyHash(s.cost), password)
		return TokenPair{}, ErrUnauthorized
	}
	if err != nil {
		return TokenPair{}, fmt.Errorf("load account: %w", err)
	}
	if !utils.VerifyPassword(acct.PasswordHash, password) || !acct.IsActive {
		return TokenPair{}, ErrUnauthorized
	}
	return s.issuePair(ctx, acct, s.now())
}

// Refresh consumes refreshToken and returns a new pair.  The owner is loaded
// before the rotation commits, so a refusal for a missing or inactive
// account leaves the presented token untouched.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (pair TokenPair, err error) {
	defer func() { s.record(OpRefresh, err) }()

	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return TokenPair{}, ErrInvalidInput
	}
	now := s.now()

	old, err := s.refresh.Lookup(ctx, refreshToken, now)
	var reuse *ReuseError
	if errors.As(err, &reuse) {
		s.reuseDetected(ctx, reuse, now)
		return TokenPair{}, err
	}
	if err != nil {
		return TokenPair{}, err
	}

	acct, err := s.accounts.GetByID(ctx, old.AccountID)
	if errors.Is(err, repository.ErrNotFound) {
		return TokenPair{}, ErrUnauthorized
	}
	if err != nil {
		return TokenPair{}, fmt.Errorf("load account: %w", err)
	}
	if !acct.IsActive {
		return TokenPair{}, ErrUnauthorized
	}

	secret, next, err := s.refresh.Rotate(ctx, old, now)
	if err != nil {
		return TokenPair{}, err
	}
	access, err := s.issuer.Issue(subjectOf(acct))
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	return TokenPair{
		AccessToken:           access.Token,
		AccessTokenExpiresAt:  access.Exp,
		RefreshToken:          secret,
		RefreshTokenExpiresAt: next.ExpiresAt,
		User:                  summaryOf(acct),
	}, nil
}

// Revoke ends the session behind refreshToken.  Empty, unknown and already
// inactive tokens succeed without effect; only store failures are errors.
func (s *SessionService) Revoke(ctx context.Context, refreshToken string) (err error) {
	defer func() { s.record(OpRevoke, err) }()

	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil
	}
	return s.refresh.Revoke(ctx, refreshToken, s.now())
}

func (s *SessionService) issuePair(ctx context.Context, acct model.Account, now time.Time) (TokenPair, error) {
	access, err := s.issuer.Issue(subjectOf(acct))
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	secret, rec, err := s.refresh.Issue(ctx, acct.ID, now)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:           access.Token,
		AccessTokenExpiresAt:  access.Exp,
		RefreshToken:          secret,
		RefreshTokenExpiresAt: rec.ExpiresAt,
		User:                  summaryOf(acct),
	}, nil
}

func (s *SessionService) reuseDetected(ctx context.Context, e *ReuseError, now time.Time) {
	s.metrics.ReuseDetected()
	logger.Warn().
		Uint64("account_id", e.Token.AccountID).
		Uint64("token_id", e.Token.ID).
		Int("revoked", e.Revoked).
		Msg("rotated refresh token presented again")
	s.publish(ctx, func(ctx context.Context) error {
		return s.events.SessionReuseDetected(ctx, queue.SessionReuseDetectedEvent{
			AccountID:  e.Token.AccountID,
			TokenID:    e.Token.ID,
			DetectedAt: now,
		})
	})
}

// publish runs send with its own deadline, detached from the request's
// cancellation, and only logs failures.
func (s *SessionService) publish(ctx context.Context, send func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventTimeout)
	defer cancel()
	if err := send(ctx); err != nil {
		logger.Warn().Err(err).Msg("publish event")
	}
}

func (s *SessionService) record(op string, err error) {
	s.metrics.Operation(op, resultOf(err))
}

// roleAllowed reports whether a registrant may pick role.  With no
// allowlist any role is accepted except model.AdminRole, which must be
// listed explicitly.
func (s *SessionService) roleAllowed(role string) bool {
	if s.roles != nil {
		return s.roles[role]
	}
	return !strings.EqualFold(role, model.AdminRole)
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, ErrInvalidInput):
		return metrics.ResultInvalid
	case errors.Is(err, ErrConflict):
		return metrics.ResultConflict
	case errors.Is(err, ErrUnauthorized):
		return metrics.ResultUnauthorized
	default:
		return metrics.ResultError
	}
}

func subjectOf(a model.Account) utils.Subject {
	return utils.Subject{ID: a.ID, Email: a.Email, FullName: a.FullName, Role: a.Role}
}

func summaryOf(a model.Account) AccountSummary {
	return AccountSummary{ID: a.ID, Email: a.Email, FullName: a.FullName, Role: a.Role, TargetBand: a.TargetBand}
}

var (
	dummyOnce sync.Once
	dummy     string
)

// dummyHash is a bcrypt hash of a random secret at the configured cost.
func dummyHash(cost int) string {
	dummyOnce.Do(func() {
		secret, err := utils.NewRefreshSecret(utils.MinRefreshTokenBytes)
		if err != nil {
			secret = "unused"
		}
		// bcrypt only looks at the first 72 bytes.
		if len(secret) > 72 {
			secret = secret[:72]
		}
		dummy, _ = utils.HashPassword(secret, cost)
	})
	return dummy
}
