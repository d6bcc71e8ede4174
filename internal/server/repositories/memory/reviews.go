package memory

import (
	"context"

	"github.com/localbizsite/localbiz/internal/common"
	"github.com/localbizsite/localbiz/internal/server/models"
)

type ReviewRepository struct {
	s *Store
}

func reviewKey(businessID, authorID string) string {
	return businessID + "|" + authorID
}

func (r *ReviewRepository) Create(_ context.Context, rv *models.Review) (*models.Review, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.businesses[rv.BusinessID]; !ok {
		return nil, common.ErrorNotFound
	}
	key := reviewKey(rv.BusinessID, rv.AuthorID)
	if _, taken := s.reviewKeys[key]; taken {
		return nil, common.ErrDuplicate
	}

	rv.ID = s.newID()
	rv.CreatedAt = s.clock.Now()
	s.reviews[rv.ID] = cloneReview(rv)
	s.reviewKeys[key] = rv.ID
	return rv, nil
}

func (r *ReviewRepository) ListByBusiness(_ context.Context, businessID string) ([]*models.Review, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, rv := range s.reviews {
		if rv.BusinessID == businessID {
			ids = append(ids, id)
		}
	}
	s.newestFirst(ids)

	out := make([]*models.Review, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneReview(s.reviews[id]))
	}
	return out, nil
}

func (r *ReviewRepository) Summary(_ context.Context, businessID string) (models.RatingSummary, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum models.RatingSummary
	total := 0
	for _, rv := range s.reviews {
		if rv.BusinessID == businessID {
			sum.Count++
			total += rv.Rating
		}
	}
	if sum.Count > 0 {
		sum.Average = float64(total) / float64(sum.Count)
	}
	return sum, nil
}
