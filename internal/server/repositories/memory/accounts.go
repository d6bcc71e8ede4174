package memory

import (
	"context"
	"strings"
	"time"

	"github.com/localbizsite/localbiz/internal/common"
	"github.com/localbizsite/localbiz/internal/server/models"
)

type AccountRepository struct {
	s *Store
}

func (r *AccountRepository) Create(_ context.Context, a *models.Account) (*models.Account, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(a.Email)
	if _, taken := s.emails[key]; taken {
		return nil, common.ErrDuplicateEmail
	}

	now := s.clock.Now()
	a.ID = s.newID()
	a.TokenEpoch = 0
	a.CreatedAt = now
	a.UpdatedAt = now

	s.accounts[a.ID] = cloneAccount(a)
	s.emails[key] = a.ID
	return a, nil
}

func (r *AccountRepository) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneAccount(s.accounts[id]), nil
}

func (r *AccountRepository) GetByID(_ context.Context, id string) (*models.Account, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneAccount(a), nil
}

// update applies fn to the stored account under the write lock.
func (r *AccountRepository) update(id string, fn func(a *models.Account)) (*models.Account, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	fn(a)
	return cloneAccount(a), nil
}

func (r *AccountRepository) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	_, err := r.update(id, func(a *models.Account) {
		t := at
		a.LastLoginAt = &t
	})
	return err
}

func (r *AccountRepository) UpdateProfile(_ context.Context, id, name, phone string) (*models.Account, error) {
	now := r.s.clock.Now()
	return r.update(id, func(a *models.Account) {
		a.Name = name
		a.Phone = phone
		a.UpdatedAt = now
	})
}

func (r *AccountRepository) BumpTokenEpoch(_ context.Context, id string) (int64, error) {
	a, err := r.update(id, func(a *models.Account) { a.TokenEpoch++ })
	if err != nil {
		return 0, err
	}
	return a.TokenEpoch, nil
}

func (r *AccountRepository) UpdateRole(_ context.Context, id string, role models.Role) (*models.Account, error) {
	now := r.s.clock.Now()
	return r.update(id, func(a *models.Account) {
		a.Role = role
		a.TokenEpoch++
		a.UpdatedAt = now
	})
}
