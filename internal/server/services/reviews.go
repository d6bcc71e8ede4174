package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/localbizsite/localbiz/internal/common"
	"github.com/localbizsite/localbiz/internal/dbx"
	"github.com/localbizsite/localbiz/internal/logging"
	"github.com/localbizsite/localbiz/internal/server/auth"
	"github.com/localbizsite/localbiz/internal/server/models"
	"github.com/localbizsite/localbiz/internal/server/repositories/repomanager"
)

const maxReviewComment = 1000

// ErrAlreadyReviewed is returned when an author reviews a business twice.
var ErrAlreadyReviewed = fmt.Errorf("%w: you have already reviewed this business", common.ErrDuplicate)

type ReviewService struct {
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewReviewService(m repomanager.RepositoryManager, logger logging.Logger) *ReviewService {
	return &ReviewService{repomanager: m, logger: logger.With("module", "reviews")}
}

func (s *ReviewService) internal(ctx context.Context, msg string, err error) error {
	s.logger.Error(ctx, msg, "error", err)
	return common.ErrorInternal
}

func (s *ReviewService) business(ctx context.Context, db dbx.DBTX, id string) (*models.Business, error) {
	b, err := s.repomanager.Businesses(db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.internal(ctx, "business lookup failed", err)
	}
	return b, nil
}

// roundRating keeps one decimal place.
func roundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}

// Create adds actor's review and recomputes the business rating in the
// same transaction. Owners cannot review their own listing.
func (s *ReviewService) Create(ctx context.Context, actor *models.Account, businessID string, rating int, comment string) (*models.Review, error) {
	comment = strings.TrimSpace(comment)

	verr := &auth.ValidationError{}
	if rating < 1 || rating > 5 {
		verr.Add("rating", auth.CodeInvalidValue, "rating must be between 1 and 5")
	}
	if utf8.RuneCountInString(comment) > maxReviewComment {
		verr.Add("comment", auth.CodeInvalidValue, fmt.Sprintf("comment must be at most %d characters", maxReviewComment))
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	b, err := s.business(ctx, s.repomanager.Conn(), businessID)
	if err != nil {
		return nil, err
	}
	if b.OwnerID == actor.ID {
		return nil, common.ErrForbidden
	}

	var out *models.Review
	err = s.repomanager.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		// Concurrent reviews of one business must see each other's rows
		// before the summary is taken.
		if err := s.repomanager.Businesses(tx).LockForUpdate(ctx, b.ID); err != nil {
			return err
		}

		rv, err := s.repomanager.Reviews(tx).Create(ctx, &models.Review{
			BusinessID: b.ID,
			AuthorID:   actor.ID,
			Rating:     rating,
			Comment:    comment,
		})
		if err != nil {
			return err
		}

		sum, err := s.repomanager.Reviews(tx).Summary(ctx, b.ID)
		if err != nil {
			return err
		}
		sum.Average = roundRating(sum.Average)

		if err := s.repomanager.Businesses(tx).SetRating(ctx, b.ID, sum); err != nil {
			return err
		}
		out = rv
		return nil
	})

	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, common.ErrDuplicate):
		return nil, ErrAlreadyReviewed
	case errors.Is(err, common.ErrorNotFound):
		return nil, common.ErrorNotFound
	default:
		return nil, s.internal(ctx, "review create failed", err)
	}
}

// List returns a business's reviews, newest first.
func (s *ReviewService) List(ctx context.Context, businessID string) ([]*models.Review, error) {
	if _, err := s.business(ctx, s.repomanager.Conn(), businessID); err != nil {
		return nil, err
	}

	out, err := s.repomanager.Reviews(s.repomanager.Conn()).ListByBusiness(ctx, businessID)
	if err != nil {
		return nil, s.internal(ctx, "review list failed", err)
	}
	return out, nil
}
