package httpapi

import (
	"time"

	"github.com/localbizsite/localbiz/internal/server/models"
)

// PublicAccount is the only account shape that is ever serialized. It has
// no password field.
type PublicAccount struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Phone       string     `json:"phone,omitempty"`
	Role        string     `json:"role"`
	PlanKey     string     `json:"planKey"`
	IsVerified  bool       `json:"isVerified"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

func publicAccount(a *models.Account) *PublicAccount {
	if a == nil {
		return nil
	}
	return &PublicAccount{
		ID:          a.ID,
		Email:       a.Email,
		Name:        a.Name,
		Phone:       a.Phone,
		Role:        string(a.Role),
		PlanKey:     a.PlanKey,
		IsVerified:  a.IsVerified,
		IsActive:    a.IsActive,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		LastLoginAt: a.LastLoginAt,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type profileRequest struct {
	Name     *string `json:"name"`
	FullName *string `json:"fullName"`
	Phone    *string `json:"phone"`
}

type roleRequest struct {
	Role string `json:"role"`
}

type businessDTO struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	Zip         string    `json:"zip"`
	Country     string    `json:"country"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Website     string    `json:"website"`
	Logo        string    `json:"logo"`
	Images      []string  `json:"images"`
	Tags        []string  `json:"tags"`
	Rating      float64   `json:"rating"`
	ReviewCount int       `json:"reviewCount"`
	IsVerified  bool      `json:"isVerified"`
	IsPremium   bool      `json:"isPremium"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func nonNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}

func toBusinessDTO(b *models.Business) businessDTO {
	return businessDTO{
		ID:          b.ID,
		OwnerID:     b.OwnerID,
		Name:        b.Name,
		Slug:        b.Slug,
		Description: b.Description,
		Category:    b.Category,
		Address:     b.Address,
		City:        b.City,
		State:       b.State,
		Zip:         b.Zip,
		Country:     b.Country,
		Phone:       b.Phone,
		Email:       b.Email,
		Website:     b.Website,
		Logo:        b.Logo,
		Images:      nonNil(b.Images),
		Tags:        nonNil(b.Tags),
		Rating:      b.Rating,
		ReviewCount: b.ReviewCount,
		IsVerified:  b.IsVerified,
		IsPremium:   b.IsPremium,
		IsActive:    b.IsActive,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

type businessRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Address     string   `json:"address"`
	City        string   `json:"city"`
	State       string   `json:"state"`
	Zip         string   `json:"zip"`
	Country     string   `json:"country"`
	Phone       string   `json:"phone"`
	Email       string   `json:"email"`
	Website     string   `json:"website"`
	Logo        string   `json:"logo"`
	Images      []string `json:"images"`
	Tags        []string `json:"tags"`
	IsActive    *bool    `json:"isActive"`
}

type reviewDTO struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"businessId"`
	AuthorID   string    `json:"authorId"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toReviewDTO(r *models.Review) reviewDTO {
	return reviewDTO{
		ID:         r.ID,
		BusinessID: r.BusinessID,
		AuthorID:   r.AuthorID,
		Rating:     r.Rating,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt,
	}
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type leadDTO struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"businessId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Message    string    `json:"message"`
	Source     string    `json:"source"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toLeadDTO(l *models.Lead) leadDTO {
	return leadDTO{
		ID:         l.ID,
		BusinessID: l.BusinessID,
		Name:       l.Name,
		Email:      l.Email,
		Phone:      l.Phone,
		Message:    l.Message,
		Source:     l.Source,
		Status:     l.Status,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
}

type leadRequest struct {
	BusinessID string `json:"businessId"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Message    string `json:"message"`
	Source     string `json:"source"`
}

type leadStatusRequest struct {
	Status string `json:"status"`
}

type uploadURLRequest struct {
	ContentType string `json:"contentType"`
}
