package repomanager

import (
	"context"

	"github.com/localbizsite/localbiz/internal/dbx"
	"github.com/localbizsite/localbiz/internal/server/repositories/accounts"
	"github.com/localbizsite/localbiz/internal/server/repositories/businesses"
	"github.com/localbizsite/localbiz/internal/server/repositories/leads"
	"github.com/localbizsite/localbiz/internal/server/repositories/memory"
	"github.com/localbizsite/localbiz/internal/server/repositories/reviews"
	"github.com/localbizsite/localbiz/internal/timex"
)

// InMemoryRepositoryManager serves every repository from one memory.Store.
// The DBTX handles passed to its factories are ignored.
type InMemoryRepositoryManager struct {
	store *memory.Store
}

func NewInMemoryRepositoryManager(clock timex.Clock) *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{store: memory.NewStore(clock)}
}

func (m *InMemoryRepositoryManager) Conn() dbx.DBTX { return nil }

func (m *InMemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *InMemoryRepositoryManager) Close() error { return nil }

func (m *InMemoryRepositoryManager) RunInTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return m.store.RunInTx(ctx, fn)
}

func (m *InMemoryRepositoryManager) Accounts(dbx.DBTX) accounts.Repository {
	return m.store.Accounts()
}

func (m *InMemoryRepositoryManager) Businesses(dbx.DBTX) businesses.Repository {
	return m.store.Businesses()
}

func (m *InMemoryRepositoryManager) Reviews(dbx.DBTX) reviews.Repository {
	return m.store.Reviews()
}

func (m *InMemoryRepositoryManager) Leads(dbx.DBTX) leads.Repository {
	return m.store.Leads()
}
