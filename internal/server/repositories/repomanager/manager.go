package repomanager

import (
	"context"

	"github.com/localbizsite/localbiz/internal/dbx"
	"github.com/localbizsite/localbiz/internal/server/repositories/accounts"
	"github.com/localbizsite/localbiz/internal/server/repositories/businesses"
	"github.com/localbizsite/localbiz/internal/server/repositories/leads"
	"github.com/localbizsite/localbiz/internal/server/repositories/reviews"
)

// RepositoryManager vends repositories bound to a connection or
// transaction handle and runs units of work atomically.
type RepositoryManager interface {
	dbx.TxRunner

	// Conn is the non-transactional handle to pass to the factories.
	Conn() dbx.DBTX
	RunMigrations(ctx context.Context) error
	Close() error

	Accounts(db dbx.DBTX) accounts.Repository
	Businesses(db dbx.DBTX) businesses.Repository
	Reviews(db dbx.DBTX) reviews.Repository
	Leads(db dbx.DBTX) leads.Repository
}
