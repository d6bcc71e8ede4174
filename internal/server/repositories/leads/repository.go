package leads

import (
	"context"

	"github.com/localbizsite/localbiz/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, l *models.Lead) (*models.Lead, error)
	GetByID(ctx context.Context, id string) (*models.Lead, error)
	// ListByOwner returns leads for every business owned by ownerID,
	// newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Lead, error)
	UpdateStatus(ctx context.Context, id, status string) (*models.Lead, error)
}
