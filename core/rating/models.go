package rating

import (
	"time"

	"github.com/trezcool/vidyalaya/core"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"

	DefaultTestimonialsLimit = 4
	MaxTestimonialsLimit     = 20

	defaultRole    = "Visitor"
	defaultContent = "Great school!"
)

var (
	Statuses = []string{StatusPending, StatusApproved, StatusRejected}

	ErrNotFound = core.NewNotFoundError("rating not found")
)

type Rating struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Relationship string    `json:"relationship"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

type NewRating struct {
	Name         string `json:"name" validate:"required,max=100"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"required,max=20"`
	Relationship string `json:"relationship" validate:"required,max=50"`
	Rating       int    `json:"rating" validate:"ratingvalue"`
	Comment      string `json:"comment" validate:"max=2000"`
}

type Moderate struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected"`
}

type Testimonial struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	Content string `json:"content"`
	Rating  int    `json:"rating"`
}

type Testimonials struct {
	Testimonials  []Testimonial `json:"testimonials"`
	Count         int           `json:"count"`
	AverageRating float64       `json:"average_rating"`
}
