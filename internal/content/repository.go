package content

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrContentNotFound = errors.New("content block not found")
	ErrSettingNotFound = errors.New("setting not found")
	ErrMemberNotFound  = errors.New("team member not found")
	ErrReviewNotFound  = errors.New("review not found")
	ErrMessageNotFound = errors.New("contact message not found")
)

type ReviewFilter struct {
	ApprovedOnly bool
	FeaturedOnly bool
	Limit        int
}

type Repository interface {
	ListContent(ctx context.Context) ([]SiteContent, error)
	GetContent(ctx context.Context, key string) (*SiteContent, error)
	UpsertContent(ctx context.Context, key, value string) (*SiteContent, error)
	DeleteContent(ctx context.Context, key string) error

	ListSettings(ctx context.Context) ([]Setting, error)
	GetSetting(ctx context.Context, key string) (*Setting, error)
	UpsertSetting(ctx context.Context, key, value string) (*Setting, error)

	ListTeam(ctx context.Context, activeOnly bool) ([]TeamMember, error)
	GetTeamMember(ctx context.Context, id uuid.UUID) (*TeamMember, error)
	CreateTeamMember(ctx context.Context, m *TeamMember) error
	UpdateTeamMember(ctx context.Context, m *TeamMember) error
	DeleteTeamMember(ctx context.Context, id uuid.UUID) error

	ListReviews(ctx context.Context, filter ReviewFilter) ([]Review, error)
	GetReview(ctx context.Context, id uuid.UUID) (*Review, error)
	CreateReview(ctx context.Context, r *Review) error
	UpdateReview(ctx context.Context, r *Review) error
	DeleteReview(ctx context.Context, id uuid.UUID) error

	CreateMessage(ctx context.Context, m *ContactMessage) error
	ListMessages(ctx context.Context, unreadOnly bool) ([]ContactMessage, error)
	MarkMessageRead(ctx context.Context, id uuid.UUID) error
	DeleteMessage(ctx context.Context, id uuid.UUID) error
}
