package content

import (
	"time"

	"github.com/google/uuid"
)

// SiteContent is a keyed block of editable page copy.
type SiteContent struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type TeamMember struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Position     string    `json:"position"`
	Bio          string    `json:"bio"`
	Specialties  []string  `json:"specialties"`
	PhotoURL     string    `json:"photoUrl"`
	DisplayOrder int       `json:"order"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Review is a testimonial. Public submissions start unapproved and only
// appear on the site after moderation.
type Review struct {
	ID         uuid.UUID  `json:"id"`
	UserID     *uuid.UUID `json:"userId,omitempty"`
	Name       string     `json:"name"`
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	Rating     int        `json:"rating"`
	IsApproved bool       `json:"isApproved"`
	IsFeatured bool       `json:"isFeatured"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

type ContactMessage struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}
