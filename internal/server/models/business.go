package models

import "time"

// Categories accepted for a Business.
var Categories = []string{
	"retail", "service", "restaurant", "healthcare", "education", "entertainment", "other",
}

// ValidCategory reports whether c is in Categories.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Business struct {
	ID          string
	OwnerID     string
	Name        string
	Slug        string
	Description string
	Category    string
	Address     string
	City        string
	State       string
	Zip         string
	Country     string
	Phone       string
	Email       string
	Website     string
	Logo        string
	Images      []string
	Tags        []string
	Rating      float64
	ReviewCount int
	IsVerified  bool
	IsPremium   bool
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BusinessFilter narrows a business listing. Zero values mean "any".
type BusinessFilter struct {
	Category string
	City     string
	Query    string
	OwnerID  string
	Limit    int
	Offset   int
}
