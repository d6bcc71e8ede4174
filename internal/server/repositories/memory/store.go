// Package memory keeps every repository in process memory. It backs the
// server when no database DSN is configured and doubles as the store for
// service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/localbizsite/localbiz/internal/dbx"
	"github.com/localbizsite/localbiz/internal/server/models"
	"github.com/localbizsite/localbiz/internal/timex"
)

// Store holds all records behind one lock. Uniqueness indexes (email,
// slug, one review per author) are checked and updated under the same lock
// as the insert, so concurrent creates cannot both succeed.
type Store struct {
	mu    sync.RWMutex
	txMu  sync.Mutex
	clock timex.Clock
	seq   int64

	accounts map[string]*models.Account
	emails   map[string]string

	businesses map[string]*models.Business
	slugs      map[string]string

	reviews    map[string]*models.Review
	reviewKeys map[string]string

	leads map[string]*models.Lead

	// order records insertion sequence for stable newest-first listings.
	order map[string]int64
}

func NewStore(clock timex.Clock) *Store {
	if clock == nil {
		clock = timex.RealClock{}
	}
	return &Store{
		clock:      clock,
		accounts:   make(map[string]*models.Account),
		emails:     make(map[string]string),
		businesses: make(map[string]*models.Business),
		slugs:      make(map[string]string),
		reviews:    make(map[string]*models.Review),
		reviewKeys: make(map[string]string),
		leads:      make(map[string]*models.Lead),
		order:      make(map[string]int64),
	}
}

// RunInTx serializes fn against other transactions. There is no rollback:
// writes made before fn fails stay applied.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx, nil)
}

// newID returns a fresh id and records its insertion order. Callers hold s.mu.
func (s *Store) newID() string {
	id := uuid.NewString()
	s.seq++
	s.order[id] = s.seq
	return id
}

func (s *Store) Accounts() *AccountRepository     { return &AccountRepository{s: s} }
func (s *Store) Businesses() *BusinessRepository { return &BusinessRepository{s: s} }
func (s *Store) Reviews() *ReviewRepository       { return &ReviewRepository{s: s} }
func (s *Store) Leads() *LeadRepository           { return &LeadRepository{s: s} }

func cloneAccount(a *models.Account) *models.Account {
	c := *a
	if a.LastLoginAt != nil {
		t := *a.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}

func cloneBusiness(b *models.Business) *models.Business {
	c := *b
	c.Images = append([]string{}, b.Images...)
	c.Tags = append([]string{}, b.Tags...)
	return &c
}

func cloneReview(r *models.Review) *models.Review {
	c := *r
	return &c
}

func cloneLead(l *models.Lead) *models.Lead {
	c := *l
	return &c
}

// newestFirst sorts ids by descending insertion order. Callers hold s.mu.
func (s *Store) newestFirst(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return s.order[ids[i]] > s.order[ids[j]] })
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
