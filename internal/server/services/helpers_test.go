package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/localbizsite/localbiz/internal/dbx"
	"github.com/localbizsite/localbiz/internal/logging"
	"github.com/localbizsite/localbiz/internal/server/auth"
	"github.com/localbizsite/localbiz/internal/server/models"
	"github.com/localbizsite/localbiz/internal/server/repositories/accounts"
	"github.com/localbizsite/localbiz/internal/server/repositories/repomanager"
	"github.com/localbizsite/localbiz/internal/timex"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var t0 = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

const tokenTTL = 7 * 24 * time.Hour

// spyHasher counts dummy verifications on top of real bcrypt.
type spyHasher struct {
	*auth.BcryptHasher
	dummies atomic.Int32
}

func (h *spyHasher) DummyVerify(password string) {
	h.dummies.Add(1)
	h.BcryptHasher.DummyVerify(password)
}

type env struct {
	clock  *timex.FixedClock
	rm     repomanager.RepositoryManager
	hasher *spyHasher
	tokens *auth.TokenIssuer

	accounts   *AccountService
	businesses *BusinessService
	reviews    *ReviewService
	leads      *LeadService
}

func newEnvWith(t *testing.T, rm repomanager.RepositoryManager, clock *timex.FixedClock) *env {
	t.Helper()
	log := logging.Discard()
	hasher := &spyHasher{BcryptHasher: auth.NewBcryptHasher(bcrypt.MinCost)}
	tokens := auth.NewTokenIssuer([]byte("test-secret"), tokenTTL, clock)
	return &env{
		clock:      clock,
		rm:         rm,
		hasher:     hasher,
		tokens:     tokens,
		accounts:   NewAccountService(rm, hasher, tokens, clock, log),
		businesses: NewBusinessService(rm, log),
		reviews:    NewReviewService(rm, log),
		leads:      NewLeadService(rm, log),
	}
}

func newEnv(t *testing.T) *env {
	t.Helper()
	clock := &timex.FixedClock{T: t0}
	return newEnvWith(t, repomanager.NewInMemoryRepositoryManager(clock), clock)
}

func (e *env) register(t *testing.T, name, email string) *Session {
	t.Helper()
	sess, err := e.accounts.Register(context.Background(), auth.Registration{Name: name, Email: email, Password: "Passw0rd!"})
	require.NoError(t, err)
	return sess
}

func (e *env) admin(t *testing.T) *models.Account {
	t.Helper()
	a, _, err := e.accounts.EnsureAdmin(context.Background(), "admin@localbiz.test", "Adm1n!pass")
	require.NoError(t, err)
	return a
}

func (e *env) business(t *testing.T, owner *models.Account, name string) *models.Business {
	t.Helper()
	b, err := e.businesses.Create(context.Background(), owner, BusinessInput{Name: name, City: "Springfield"})
	require.NoError(t, err)
	return b
}

// overrideRM swaps the accounts repository of an in-memory manager.
type overrideRM struct {
	*repomanager.InMemoryRepositoryManager
	accounts accounts.Repository
}

func (m *overrideRM) Accounts(dbx.DBTX) accounts.Repository { return m.accounts }

// brokenAccounts fails every call with err.
type brokenAccounts struct {
	accounts.Repository
	err error
}

func (b *brokenAccounts) Create(context.Context, *models.Account) (*models.Account, error) {
	return nil, b.err
}

func (b *brokenAccounts) GetByEmail(context.Context, string) (*models.Account, error) {
	return nil, b.err
}

func (b *brokenAccounts) GetByID(context.Context, string) (*models.Account, error) {
	return nil, b.err
}
