package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/localbizsite/localbiz/internal/common"
	"github.com/localbizsite/localbiz/internal/logging"
	"github.com/localbizsite/localbiz/internal/server/auth"
	"github.com/localbizsite/localbiz/internal/server/models"
	"github.com/localbizsite/localbiz/internal/server/repositories/repomanager"
)

const (
	maxLeadName    = 100
	maxLeadMessage = 2000
)

// LeadInput is a public enquiry submitted from a listing page.
type LeadInput struct {
	BusinessID string
	Name       string
	Email      string
	Phone      string
	Message    string
	Source     string
}

type LeadService struct {
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewLeadService(m repomanager.RepositoryManager, logger logging.Logger) *LeadService {
	return &LeadService{repomanager: m, logger: logger.With("module", "leads")}
}

func (s *LeadService) internal(ctx context.Context, msg string, err error) error {
	s.logger.Error(ctx, msg, "error", err)
	return common.ErrorInternal
}

func normalizeLead(in LeadInput) (LeadInput, error) {
	in.BusinessID = strings.TrimSpace(in.BusinessID)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = auth.NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Message = strings.TrimSpace(in.Message)
	in.Source = strings.TrimSpace(in.Source)
	if in.Source == "" {
		in.Source = models.LeadSourceContactForm
	}

	verr := &auth.ValidationError{}
	if in.BusinessID == "" {
		verr.Add("businessId", auth.CodeRequired, "businessId is required")
	}
	if utf8.RuneCountInString(in.Name) > maxLeadName {
		verr.Add("name", auth.CodeInvalidValue, fmt.Sprintf("name must be at most %d characters", maxLeadName))
	}
	switch {
	case in.Email == "" && in.Phone == "":
		verr.Add("email", auth.CodeRequired, "email or phone is required")
	case in.Email != "" && !auth.ValidEmail(in.Email):
		verr.Add("email", auth.CodeInvalidEmail, "email is not a valid address")
	}
	if utf8.RuneCountInString(in.Message) > maxLeadMessage {
		verr.Add("message", auth.CodeInvalidValue, fmt.Sprintf("message must be at most %d characters", maxLeadMessage))
	}
	if !models.ValidLeadSource(in.Source) {
		verr.Add("source", auth.CodeInvalidValue, "source must be contact_form or cta_button")
	}

	if err := verr.Err(); err != nil {
		return LeadInput{}, err
	}
	return in, nil
}

// Create records an enquiry for an active business.
func (s *LeadService) Create(ctx context.Context, in LeadInput) (*models.Lead, error) {
	in, err := normalizeLead(in)
	if err != nil {
		return nil, err
	}

	b, err := s.repomanager.Businesses(s.repomanager.Conn()).GetByID(ctx, in.BusinessID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.internal(ctx, "business lookup failed", err)
	}
	if !b.IsActive {
		return nil, common.ErrorNotFound
	}

	l, err := s.repomanager.Leads(s.repomanager.Conn()).Create(ctx, &models.Lead{
		BusinessID: b.ID,
		Name:       in.Name,
		Email:      in.Email,
		Phone:      in.Phone,
		Message:    in.Message,
		Source:     in.Source,
		Status:     models.LeadStatusNew,
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.internal(ctx, "lead create failed", err)
	}

	s.logger.Debug(ctx, "lead received", "lead_id", l.ID, "business_id", b.ID)
	return l, nil
}

// ListMine returns leads for every business actor owns.
func (s *LeadService) ListMine(ctx context.Context, actor *models.Account) ([]*models.Lead, error) {
	out, err := s.repomanager.Leads(s.repomanager.Conn()).ListByOwner(ctx, actor.ID)
	if err != nil {
		return nil, s.internal(ctx, "lead list failed", err)
	}
	return out, nil
}

// UpdateStatus moves a lead through new, contacted and closed. Only the
// business owner or an admin may do so.
func (s *LeadService) UpdateStatus(ctx context.Context, actor *models.Account, id, status string) (*models.Lead, error) {
	status = strings.TrimSpace(status)
	if !models.ValidLeadStatus(status) {
		verr := &auth.ValidationError{}
		verr.Add("status", auth.CodeInvalidValue, "status must be new, contacted or closed")
		return nil, verr
	}

	leads := s.repomanager.Leads(s.repomanager.Conn())

	l, err := leads.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.internal(ctx, "lead lookup failed", err)
	}

	b, err := s.repomanager.Businesses(s.repomanager.Conn()).GetByID(ctx, l.BusinessID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.internal(ctx, "business lookup failed", err)
	}
	if !CanManage(actor, b) {
		return nil, common.ErrForbidden
	}

	out, err := leads.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.internal(ctx, "lead update failed", err)
	}
	return out, nil
}
