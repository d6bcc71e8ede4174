package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/localbizsite/localbiz/internal/common"
	"github.com/localbizsite/localbiz/internal/server/models"
)

type BusinessRepository struct {
	s *Store
}

func (r *BusinessRepository) Create(_ context.Context, b *models.Business) (*models.Business, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.slugs[b.Slug]; taken {
		return nil, common.ErrDuplicate
	}

	now := s.clock.Now()
	b.ID = s.newID()
	b.Rating = 0
	b.ReviewCount = 0
	b.CreatedAt = now
	b.UpdatedAt = now
	if b.Images == nil {
		b.Images = []string{}
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}

	s.businesses[b.ID] = cloneBusiness(b)
	s.slugs[b.Slug] = b.ID
	return b, nil
}

func (r *BusinessRepository) GetByID(_ context.Context, id string) (*models.Business, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.businesses[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneBusiness(b), nil
}

func (r *BusinessRepository) SlugExists(_ context.Context, slug string) (bool, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.slugs[slug]
	return ok, nil
}

func matches(b *models.Business, f models.BusinessFilter) bool {
	switch {
	case !b.IsActive:
		return false
	case f.Category != "" && b.Category != f.Category:
		return false
	case f.City != "" && !strings.EqualFold(b.City, f.City):
		return false
	case f.OwnerID != "" && b.OwnerID != f.OwnerID:
		return false
	case f.Query != "" && !containsFold(b.Name, f.Query) && !containsFold(b.Description, f.Query):
		return false
	}
	return true
}

func (r *BusinessRepository) List(_ context.Context, f models.BusinessFilter) ([]*models.Business, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []*models.Business
	for _, b := range s.businesses {
		if matches(b, f) {
			hits = append(hits, b)
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.IsPremium != b.IsPremium {
			return a.IsPremium
		}
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		return s.order[a.ID] > s.order[b.ID]
	})

	if f.Offset > 0 {
		if f.Offset >= len(hits) {
			hits = nil
		} else {
			hits = hits[f.Offset:]
		}
	}
	if f.Limit > 0 && len(hits) > f.Limit {
		hits = hits[:f.Limit]
	}

	out := make([]*models.Business, 0, len(hits))
	for _, b := range hits {
		out = append(out, cloneBusiness(b))
	}
	return out, nil
}

func (r *BusinessRepository) Update(_ context.Context, b *models.Business) (*models.Business, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.businesses[b.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}

	cur.Name = b.Name
	cur.Description = b.Description
	cur.Category = b.Category
	cur.Address = b.Address
	cur.City = b.City
	cur.State = b.State
	cur.Zip = b.Zip
	cur.Country = b.Country
	cur.Phone = b.Phone
	cur.Email = b.Email
	cur.Website = b.Website
	cur.Logo = b.Logo
	cur.Images = append([]string{}, b.Images...)
	cur.Tags = append([]string{}, b.Tags...)
	cur.IsActive = b.IsActive
	cur.UpdatedAt = s.clock.Now()

	return cloneBusiness(cur), nil
}

// Delete removes the business with its reviews and leads.
func (r *BusinessRepository) Delete(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.businesses[id]
	if !ok {
		return common.ErrorNotFound
	}

	delete(s.businesses, id)
	delete(s.slugs, b.Slug)
	delete(s.order, id)

	for rid, rv := range s.reviews {
		if rv.BusinessID == id {
			delete(s.reviews, rid)
			delete(s.reviewKeys, reviewKey(rv.BusinessID, rv.AuthorID))
			delete(s.order, rid)
		}
	}
	for lid, l := range s.leads {
		if l.BusinessID == id {
			delete(s.leads, lid)
			delete(s.order, lid)
		}
	}
	return nil
}

// LockForUpdate only checks existence. RunInTx already serializes
// transactions.
func (r *BusinessRepository) LockForUpdate(_ context.Context, id string) error {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.businesses[id]; !ok {
		return common.ErrorNotFound
	}
	return nil
}

func (r *BusinessRepository) SetRating(_ context.Context, id string, sum models.RatingSummary) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.businesses[id]
	if !ok {
		return common.ErrorNotFound
	}
	b.Rating = sum.Average
	b.ReviewCount = sum.Count
	b.UpdatedAt = s.clock.Now()
	return nil
}
