package models

import "time"

const (
	LeadSourceContactForm = "contact_form"
	LeadSourceCTAButton   = "cta_button"

	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusClosed    = "closed"
)

// Lead is an inbound enquiry for a business.
type Lead struct {
	ID         string
	BusinessID string
	Name       string
	Email      string
	Phone      string
	Message    string
	Source     string
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func ValidLeadSource(s string) bool {
	return s == LeadSourceContactForm || s == LeadSourceCTAButton
}

func ValidLeadStatus(s string) bool {
	return s == LeadStatusNew || s == LeadStatusContacted || s == LeadStatusClosed
}
