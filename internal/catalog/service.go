package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/centrobenavente/booking-server/internal/apperr"
)

type Manager struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

func NewManager(repo Repository, logger zerolog.Logger) *Manager {
	return &Manager{repo: repo, logger: logger, now: time.Now}
}

type ServiceInput struct {
	Title            string
	Description      string
	ShortDescription string
	Icon             string
	Price            int
	PriceType        PriceType
	DurationMinutes  int
	ResourceType     ResourceType
	IsActive         *bool
	DisplayOrder     int
}

func (m *Manager) validate(in ServiceInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return apperr.Validation("El título es requerido")
	}
	if in.DurationMinutes <= 0 {
		return apperr.Validation("La duración debe ser positiva")
	}
	if in.Price < 0 {
		return apperr.Validation("El precio no puede ser negativo")
	}
	if in.PriceType != "" && !in.PriceType.Valid() {
		return apperr.Validation("Tipo de precio inválido")
	}
	if in.ResourceType != "" && !in.ResourceType.Valid() {
		return apperr.Validation("Tipo de recurso inválido")
	}
	return nil
}

func (m *Manager) List(ctx context.Context, activeOnly bool) ([]Service, error) {
	return m.repo.List(ctx, activeOnly)
}

func (m *Manager) Get(ctx context.Context, idOrSlug string) (*Service, error) {
	svc, err := m.repo.GetByIDOrSlug(ctx, idOrSlug)
	if err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			return nil, apperr.NotFound("Servicio no encontrado")
		}
		return nil, fmt.Errorf("load service: %w", err)
	}
	return svc, nil
}

func (m *Manager) Create(ctx context.Context, in ServiceInput) (*Service, error) {
	if err := m.validate(in); err != nil {
		return nil, err
	}

	svc := &Service{
		ID:               uuid.New(),
		Title:            strings.TrimSpace(in.Title),
		Slug:             Slugify(in.Title),
		Description:      in.Description,
		ShortDescription: in.ShortDescription,
		Icon:             in.Icon,
		Price:            in.Price,
		PriceType:        in.PriceType,
		DurationMinutes:  in.DurationMinutes,
		ResourceType:     in.ResourceType,
		IsActive:         true,
		DisplayOrder:     in.DisplayOrder,
	}
	if svc.PriceType == "" {
		svc.PriceType = PriceFixed
	}
	if svc.ResourceType == "" {
		svc.ResourceType = ResourceNurse
	}
	if in.IsActive != nil {
		svc.IsActive = *in.IsActive
	}

	if _, err := m.repo.GetBySlug(ctx, svc.Slug); err == nil {
		svc.Slug = fmt.Sprintf("%s-%d", svc.Slug, m.now().UnixMilli())
	} else if !errors.Is(err, ErrServiceNotFound) {
		return nil, fmt.Errorf("check slug: %w", err)
	}

	if err := m.repo.Create(ctx, svc); err != nil {
		if errors.Is(err, ErrSlugTaken) {
			return nil, apperr.Conflict("Ya existe un servicio con ese nombre")
		}
		return nil, fmt.Errorf("create service: %w", err)
	}
	return svc, nil
}

func (m *Manager) Update(ctx context.Context, id uuid.UUID, in ServiceInput) (*Service, error) {
	if err := m.validate(in); err != nil {
		return nil, err
	}

	svc, err := m.Get(ctx, id.String())
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title != svc.Title {
		slug := Slugify(title)
		if existing, err := m.repo.GetBySlug(ctx, slug); err == nil && existing.ID != id {
			slug = fmt.Sprintf("%s-%d", slug, m.now().UnixMilli())
		} else if err != nil && !errors.Is(err, ErrServiceNotFound) {
			return nil, fmt.Errorf("check slug: %w", err)
		}
		svc.Slug = slug
	}

	svc.Title = title
	svc.Description = in.Description
	svc.ShortDescription = in.ShortDescription
	svc.Icon = in.Icon
	svc.Price = in.Price
	if in.PriceType != "" {
		svc.PriceType = in.PriceType
	}
	svc.DurationMinutes = in.DurationMinutes
	if in.ResourceType != "" {
		svc.ResourceType = in.ResourceType
	}
	if in.IsActive != nil {
		svc.IsActive = *in.IsActive
	}
	svc.DisplayOrder = in.DisplayOrder

	if err := m.repo.Update(ctx, svc); err != nil {
		if errors.Is(err, ErrSlugTaken) {
			return nil, apperr.Conflict("Ya existe un servicio con ese nombre")
		}
		return nil, fmt.Errorf("update service: %w", err)
	}
	return svc, nil
}

// Delete removes a service outright when nothing references it; a service
// with appointment history is deactivated instead so the records keep their
// join target.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) error {
	referenced, err := m.repo.HasAppointments(ctx, id)
	if err != nil {
		return fmt.Errorf("check references: %w", err)
	}

	if referenced {
		m.logger.Info().Stringer("service_id", id).Msg("service has appointments, deactivating instead of deleting")
		if err := m.repo.Deactivate(ctx, id); err != nil {
			if errors.Is(err, ErrServiceNotFound) {
				return apperr.NotFound("Servicio no encontrado")
			}
			return fmt.Errorf("deactivate service: %w", err)
		}
		return nil
	}

	if err := m.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			return apperr.NotFound("Servicio no encontrado")
		}
		return fmt.Errorf("delete service: %w", err)
	}
	return nil
}

func (m *Manager) Reorder(ctx context.Context, orders map[uuid.UUID]int) error {
	if len(orders) == 0 {
		return apperr.Validation("Se requiere un listado de órdenes")
	}
	if err := m.repo.Reorder(ctx, orders); err != nil {
		return fmt.Errorf("reorder services: %w", err)
	}
	return nil
}
