package models

import "time"

type Review struct {
	ID         string
	BusinessID string
	AuthorID   string
	Rating     int
	Comment    string
	CreatedAt  time.Time
}

// RatingSummary is the aggregate stored back onto a Business.
type RatingSummary struct {
	Average float64
	Count   int
}
