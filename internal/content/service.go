package content

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/centrobenavente/booking-server/internal/apperr"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Manager serves the editable site surface: page copy, settings, the team
// roster, testimonials and contact messages.
type Manager struct {
	repo   Repository
	logger zerolog.Logger
}

func NewManager(repo Repository, logger zerolog.Logger) *Manager {
	return &Manager{repo: repo, logger: logger}
}

func (m *Manager) ListContent(ctx context.Context) ([]SiteContent, error) {
	return m.repo.ListContent(ctx)
}

func (m *Manager) GetContent(ctx context.Context, key string) (*SiteContent, error) {
	c, err := m.repo.GetContent(ctx, key)
	if errors.Is(err, ErrContentNotFound) {
		return nil, apperr.NotFound("Contenido no encontrado")
	}
	return c, err
}

func (m *Manager) SetContent(ctx context.Context, key, value string) (*SiteContent, error) {
	if strings.TrimSpace(key) == "" {
		return nil, apperr.Validation("La clave es requerida")
	}
	return m.repo.UpsertContent(ctx, strings.TrimSpace(key), value)
}

func (m *Manager) DeleteContent(ctx context.Context, key string) error {
	err := m.repo.DeleteContent(ctx, key)
	if errors.Is(err, ErrContentNotFound) {
		return apperr.NotFound("Contenido no encontrado")
	}
	return err
}

func (m *Manager) ListSettings(ctx context.Context) ([]Setting, error) {
	return m.repo.ListSettings(ctx)
}

func (m *Manager) GetSetting(ctx context.Context, key string) (*Setting, error) {
	s, err := m.repo.GetSetting(ctx, key)
	if errors.Is(err, ErrSettingNotFound) {
		return nil, apperr.NotFound("Configuración no encontrada")
	}
	return s, err
}

func (m *Manager) SetSetting(ctx context.Context, key, value string) (*Setting, error) {
	if strings.TrimSpace(key) == "" {
		return nil, apperr.Validation("La clave es requerida")
	}
	return m.repo.UpsertSetting(ctx, strings.TrimSpace(key), value)
}

type TeamMemberInput struct {
	Name         string
	Position     string
	Bio          string
	Specialties  []string
	PhotoURL     string
	DisplayOrder int
	IsActive     *bool
}

func (m *Manager) ListTeam(ctx context.Context, activeOnly bool) ([]TeamMember, error) {
	return m.repo.ListTeam(ctx, activeOnly)
}

func (m *Manager) CreateTeamMember(ctx context.Context, in TeamMemberInput) (*TeamMember, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Position) == "" {
		return nil, apperr.Validation("Nombre y cargo son requeridos")
	}

	member := &TeamMember{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(in.Name),
		Position:     strings.TrimSpace(in.Position),
		Bio:          in.Bio,
		Specialties:  in.Specialties,
		PhotoURL:     in.PhotoURL,
		DisplayOrder: in.DisplayOrder,
		IsActive:     true,
	}
	if member.Specialties == nil {
		member.Specialties = []string{}
	}
	if in.IsActive != nil {
		member.IsActive = *in.IsActive
	}

	if err := m.repo.CreateTeamMember(ctx, member); err != nil {
		return nil, fmt.Errorf("create team member: %w", err)
	}
	return member, nil
}

func (m *Manager) UpdateTeamMember(ctx context.Context, id uuid.UUID, in TeamMemberInput) (*TeamMember, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Position) == "" {
		return nil, apperr.Validation("Nombre y cargo son requeridos")
	}

	member, err := m.repo.GetTeamMember(ctx, id)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return nil, apperr.NotFound("Integrante no encontrado")
		}
		return nil, fmt.Errorf("load team member: %w", err)
	}

	member.Name = strings.TrimSpace(in.Name)
	member.Position = strings.TrimSpace(in.Position)
	member.Bio = in.Bio
	if in.Specialties != nil {
		member.Specialties = in.Specialties
	}
	member.PhotoURL = in.PhotoURL
	member.DisplayOrder = in.DisplayOrder
	if in.IsActive != nil {
		member.IsActive = *in.IsActive
	}

	if err := m.repo.UpdateTeamMember(ctx, member); err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return nil, apperr.NotFound("Integrante no encontrado")
		}
		return nil, fmt.Errorf("update team member: %w", err)
	}
	return member, nil
}

func (m *Manager) DeleteTeamMember(ctx context.Context, id uuid.UUID) error {
	err := m.repo.DeleteTeamMember(ctx, id)
	if errors.Is(err, ErrMemberNotFound) {
		return apperr.NotFound("Integrante no encontrado")
	}
	return err
}

type ReviewInput struct {
	UserID  *uuid.UUID
	Name    string
	Role    string
	Content string
	Rating  int
}

// PublicReviews returns only approved testimonials, newest first.
func (m *Manager) PublicReviews(ctx context.Context, featuredOnly bool, limit int) ([]Review, error) {
	return m.repo.ListReviews(ctx, ReviewFilter{
		ApprovedOnly: true,
		FeaturedOnly: featuredOnly,
		Limit:        limit,
	})
}

func (m *Manager) AllReviews(ctx context.Context) ([]Review, error) {
	return m.repo.ListReviews(ctx, ReviewFilter{})
}

// SubmitReview stores a visitor testimonial pending moderation.
func (m *Manager) SubmitReview(ctx context.Context, in ReviewInput) (*Review, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Content) == "" {
		return nil, apperr.Validation("Nombre y comentario son requeridos")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperr.Validation("La calificación debe estar entre 1 y 5")
	}

	review := &Review{
		ID:      uuid.New(),
		UserID:  in.UserID,
		Name:    strings.TrimSpace(in.Name),
		Role:    strings.TrimSpace(in.Role),
		Content: strings.TrimSpace(in.Content),
		Rating:  in.Rating,
	}
	if err := m.repo.CreateReview(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	m.logger.Info().
		Stringer("review_id", review.ID).
		Int("rating", review.Rating).
		Msg("review submitted for moderation")
	return review, nil
}

type ReviewModeration struct {
	IsApproved *bool
	IsFeatured *bool
	Rating     *int
	Content    *string
}

func (m *Manager) ModerateReview(ctx context.Context, id uuid.UUID, in ReviewModeration) (*Review, error) {
	review, err := m.repo.GetReview(ctx, id)
	if err != nil {
		if errors.Is(err, ErrReviewNotFound) {
			return nil, apperr.NotFound("Reseña no encontrada")
		}
		return nil, fmt.Errorf("load review: %w", err)
	}

	if in.Rating != nil {
		if *in.Rating < 1 || *in.Rating > 5 {
			return nil, apperr.Validation("La calificación debe estar entre 1 y 5")
		}
		review.Rating = *in.Rating
	}
	if in.Content != nil {
		review.Content = *in.Content
	}
	if in.IsApproved != nil {
		review.IsApproved = *in.IsApproved
	}
	if in.IsFeatured != nil {
		review.IsFeatured = *in.IsFeatured
	}

	if err := m.repo.UpdateReview(ctx, review); err != nil {
		if errors.Is(err, ErrReviewNotFound) {
			return nil, apperr.NotFound("Reseña no encontrada")
		}
		return nil, fmt.Errorf("update review: %w", err)
	}
	return review, nil
}

func (m *Manager) DeleteReview(ctx context.Context, id uuid.UUID) error {
	err := m.repo.DeleteReview(ctx, id)
	if errors.Is(err, ErrReviewNotFound) {
		return apperr.NotFound("Reseña no encontrada")
	}
	return err
}

type ContactInput struct {
	Name    string
	Email   string
	Phone   *string
	Message string
}

func (m *Manager) SubmitContact(ctx context.Context, in ContactInput) (*ContactMessage, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Message) == "" {
		return nil, apperr.Validation("Nombre y mensaje son requeridos")
	}
	if !emailPattern.MatchString(in.Email) {
		return nil, apperr.Validation("El correo electrónico no es válido")
	}

	msg := &ContactMessage{
		ID:      uuid.New(),
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Phone:   in.Phone,
		Message: strings.TrimSpace(in.Message),
	}
	if err := m.repo.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("create contact message: %w", err)
	}
	return msg, nil
}

func (m *Manager) ListMessages(ctx context.Context, unreadOnly bool) ([]ContactMessage, error) {
	return m.repo.ListMessages(ctx, unreadOnly)
}

func (m *Manager) MarkMessageRead(ctx context.Context, id uuid.UUID) error {
	err := m.repo.MarkMessageRead(ctx, id)
	if errors.Is(err, ErrMessageNotFound) {
		return apperr.NotFound("Mensaje no encontrado")
	}
	return err
}

func (m *Manager) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	err := m.repo.DeleteMessage(ctx, id)
	if errors.Is(err, ErrMessageNotFound) {
		return apperr.NotFound("Mensaje no encontrado")
	}
	return err
}
