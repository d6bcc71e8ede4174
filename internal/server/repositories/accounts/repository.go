package accounts

import (
	"context"
	"time"

	"github.com/localbizsite/localbiz/internal/server/models"
)

// Repository is the credential store. Emails are compared
// case-insensitively and are unique across all accounts.
type Repository interface {
	// Create inserts a and fills its ID, epoch and timestamps. It returns
	// common.ErrDuplicateEmail when the email is taken.
	Create(ctx context.Context, a *models.Account) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	UpdateProfile(ctx context.Context, id, name, phone string) (*models.Account, error)
	// BumpTokenEpoch increments the account's token epoch and returns it.
	BumpTokenEpoch(ctx context.Context, id string) (int64, error)
	// UpdateRole sets the role and bumps the token epoch in one step.
	UpdateRole(ctx context.Context, id string, role models.Role) (*models.Account, error)
}
