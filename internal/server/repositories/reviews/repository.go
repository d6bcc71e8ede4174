package reviews

import (
	"context"

	"github.com/localbizsite/localbiz/internal/server/models"
)

type Repository interface {
	// Create inserts r. A second review by the same author for the same
	// business yields common.ErrDuplicate.
	Create(ctx context.Context, r *models.Review) (*models.Review, error)
	ListByBusiness(ctx context.Context, businessID string) ([]*models.Review, error)
	Summary(ctx context.Context, businessID string) (models.RatingSummary, error)
}
