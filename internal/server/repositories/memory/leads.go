package memory

import (
	"context"

	"github.com/localbizsite/localbiz/internal/common"
	"github.com/localbizsite/localbiz/internal/server/models"
)

type LeadRepository struct {
	s *Store
}

func (r *LeadRepository) Create(_ context.Context, l *models.Lead) (*models.Lead, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.businesses[l.BusinessID]; !ok {
		return nil, common.ErrorNotFound
	}

	now := s.clock.Now()
	l.ID = s.newID()
	l.CreatedAt = now
	l.UpdatedAt = now
	s.leads[l.ID] = cloneLead(l)
	return l, nil
}

func (r *LeadRepository) GetByID(_ context.Context, id string) (*models.Lead, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.leads[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneLead(l), nil
}

func (r *LeadRepository) ListByOwner(_ context.Context, ownerID string) ([]*models.Lead, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, l := range s.leads {
		if b, ok := s.businesses[l.BusinessID]; ok && b.OwnerID == ownerID {
			ids = append(ids, id)
		}
	}
	s.newestFirst(ids)

	out := make([]*models.Lead, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneLead(s.leads[id]))
	}
	return out, nil
}

func (r *LeadRepository) UpdateStatus(_ context.Context, id, status string) (*models.Lead, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.leads[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	l.Status = status
	l.UpdatedAt = s.clock.Now()
	return cloneLead(l), nil
}
