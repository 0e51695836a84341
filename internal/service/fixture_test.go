package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/coursehub-auth/internal/model"
	"github.com/iliyamo/coursehub-auth/internal/queue"
	"github.com/iliyamo/coursehub-auth/internal/repository"
	"github.com/iliyamo/coursehub-auth/internal/repository/repotest"
	"github.com/iliyamo/coursehub-auth/internal/utils"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu         sync.Mutex
	registered []queue.AccountRegisteredEvent
	reused     []queue.SessionReuseDetectedEvent
	err        error
}

func (p *recordingPublisher) AccountRegistered(_ context.Context, ev queue.AccountRegisteredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registered = append(p.registered, ev)
	return p.err
}

func (p *recordingPublisher) SessionReuseDetected(_ context.Context, ev queue.SessionReuseDetectedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reused = append(p.reused, ev)
	return p.err
}

type countingRecorder struct {
	mu    sync.Mutex
	ops   map[string]int
	reuse int
}

func (r *countingRecorder) Operation(op, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ops == nil {
		r.ops = map[string]int{}
	}
	r.ops[op+"/"+result]++
}

func (r *countingRecorder) ReuseDetected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reuse++
}

func (r *countingRecorder) count(op, result string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ops[op+"/"+result]
}

type fixture struct {
	db       *sqlx.DB
	svc      *SessionService
	accounts *repository.AccountRepo
	tokens   *repository.TokenRepo
	issuer   *utils.Issuer
	clock    *testClock
	events   *recordingPublisher
	metrics  *countingRecorder
}

var testStart = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, tweak ...func(*Options)) *fixture {
	t.Helper()
	db := repotest.NewDB(t)
	issuer, err := utils.NewIssuer("test-signing-key", "coursehub", 15*time.Minute)
	require.NoError(t, err)

	opts := Options{
		RefreshTTL:     7 * 24 * time.Hour,
		TokenHashKey:   "test-hash-key",
		ReuseDetection: true,
		BcryptCost:     bcrypt.MinCost,
		StoreTimeout:   5 * time.Second,
	}
	for _, fn := range tweak {
		fn(&opts)
	}

	f := &fixture{
		db:       db,
		accounts: repository.NewAccountRepo(db),
		tokens:   repository.NewTokenRepo(db),
		clock:    &testClock{now: testStart},
		events:   &recordingPublisher{},
		metrics:  &countingRecorder{},
	}
	f.issuer = issuer.WithClock(f.clock.Now)
	f.svc = NewSessionService(f.accounts, f.tokens, issuer, opts,
		WithClock(f.clock.Now), WithPublisher(f.events), WithRecorder(f.metrics))
	return f
}

func (f *fixture) register(t *testing.T, email, password, name string) TokenPair {
	t.Helper()
	pair, err := f.svc.Register(context.Background(), RegisterInput{Email: email, Password: password, FullName: name})
	require.NoError(t, err)
	return pair
}

// hungTokens blocks every call until the context is done.
type hungTokens struct{ RefreshTokenStore }

func (hungTokens) FindByHash(ctx context.Context, _ string) (model.RefreshToken, error) {
	<-ctx.Done()
	return model.RefreshToken{}, ctx.Err()
}

// brokenAccounts fails every call with errDown.
type brokenAccounts struct{}

var errDown = errors.New("database is down")

func (brokenAccounts) Create(context.Context, *model.Account) error { return errDown }
func (brokenAccounts) GetByEmail(context.Context, string) (model.Account, error) {
	return model.Account{}, errDown
}
func (brokenAccounts) GetByID(context.Context, uint64) (model.Account, error) {
	return model.Account{}, errDown
}

// racedAccounts deactivates the account right after handing it out, the
// way an admin request landing between read and write would.
type racedAccounts struct{ *repository.AccountRepo }

func (r racedAccounts) GetByID(ctx context.Context, id uint64) (model.Account, error) {
	a, err := r.AccountRepo.GetByID(ctx, id)
	if err != nil {
		return a, err
	}
	return a, r.AccountRepo.Deactivate(ctx, id)
}

// lateDuplicateAccounts misses on the email lookup and then loses the
// insert to the unique index, as when two registrations race.
type lateDuplicateAccounts struct{ AccountStore }

func (lateDuplicateAccounts) GetByEmail(context.Context, string) (model.Account, error) {
	return model.Account{}, repository.ErrNotFound
}

func (lateDuplicateAccounts) Create(context.Context, *model.Account) error {
	return repository.ErrEmailExists
}
