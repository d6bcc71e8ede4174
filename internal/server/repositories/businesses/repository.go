package businesses

import (
	"context"

	"github.com/localbizsite/localbiz/internal/server/models"
)

type Repository interface {
	// Create inserts b. A taken slug yields common.ErrDuplicate.
	Create(ctx context.Context, b *models.Business) (*models.Business, error)
	GetByID(ctx context.Context, id string) (*models.Business, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	// List returns active businesses matching f, premium and best rated first.
	List(ctx context.Context, f models.BusinessFilter) ([]*models.Business, error)
	Update(ctx context.Context, b *models.Business) (*models.Business, error)
	Delete(ctx context.Context, id string) error
	// LockForUpdate holds the business row until the surrounding transaction
	// ends so rating recomputations on it run one after another.
	LockForUpdate(ctx context.Context, id string) error
	SetRating(ctx context.Context, id string, s models.RatingSummary) error
}
