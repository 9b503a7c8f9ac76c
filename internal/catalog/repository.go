package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrSlugTaken       = errors.New("slug already in use")
)

type Repository interface {
	List(ctx context.Context, activeOnly bool) ([]Service, error)
	GetByIDOrSlug(ctx context.Context, idOrSlug string) (*Service, error)
	GetBySlug(ctx context.Context, slug string) (*Service, error)
	Create(ctx context.Context, svc *Service) error
	Update(ctx context.Context, svc *Service) error
	Delete(ctx context.Context, id uuid.UUID) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	HasAppointments(ctx context.Context, id uuid.UUID) (bool, error)
	Reorder(ctx context.Context, orders map[uuid.UUID]int) error
}
