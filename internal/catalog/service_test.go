package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centrobenavente/booking-server/internal/apperr"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		slug  string
	}{
		{"Curaciones Simples", "curaciones-simples"},
		{"Administración de Tratamientos", "administracion-de-tratamientos"},
		{"Procedimientos de Enfermería", "procedimientos-de-enfermeria"},
		{"  Retiro   de Suturas  ", "retiro-de-suturas"},
		{"Año Nuevo: ¡Atención 24/7!", "ano-nuevo-atencion-24-7"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.slug, Slugify(tt.title), "title %q", tt.title)
	}
}

type mockCatalogRepo struct {
	byID        map[uuid.UUID]*Service
	bySlug      map[string]*Service
	referenced  map[uuid.UUID]bool
	deactivated []uuid.UUID
	deleted     []uuid.UUID
}

func newMockCatalogRepo() *mockCatalogRepo {
	return &mockCatalogRepo{
		byID:       make(map[uuid.UUID]*Service),
		bySlug:     make(map[string]*Service),
		referenced: make(map[uuid.UUID]bool),
	}
}

func (m *mockCatalogRepo) List(_ context.Context, activeOnly bool) ([]Service, error) {
	var out []Service
	for _, s := range m.byID {
		if !activeOnly || s.IsActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockCatalogRepo) GetByIDOrSlug(_ context.Context, idOrSlug string) (*Service, error) {
	if id, err := uuid.Parse(idOrSlug); err == nil {
		if s, ok := m.byID[id]; ok {
			copied := *s
			return &copied, nil
		}
		return nil, ErrServiceNotFound
	}
	if s, ok := m.bySlug[idOrSlug]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, ErrServiceNotFound
}

func (m *mockCatalogRepo) GetBySlug(_ context.Context, slug string) (*Service, error) {
	if s, ok := m.bySlug[slug]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, ErrServiceNotFound
}

func (m *mockCatalogRepo) Create(_ context.Context, svc *Service) error {
	if _, taken := m.bySlug[svc.Slug]; taken {
		return ErrSlugTaken
	}
	svc.CreatedAt = time.Now()
	svc.UpdatedAt = svc.CreatedAt
	copied := *svc
	m.byID[svc.ID] = &copied
	m.bySlug[svc.Slug] = &copied
	return nil
}

func (m *mockCatalogRepo) Update(_ context.Context, svc *Service) error {
	old, ok := m.byID[svc.ID]
	if !ok {
		return ErrServiceNotFound
	}
	if other, taken := m.bySlug[svc.Slug]; taken && other.ID != svc.ID {
		return ErrSlugTaken
	}
	delete(m.bySlug, old.Slug)
	copied := *svc
	m.byID[svc.ID] = &copied
	m.bySlug[svc.Slug] = &copied
	return nil
}

func (m *mockCatalogRepo) Delete(_ context.Context, id uuid.UUID) error {
	s, ok := m.byID[id]
	if !ok {
		return ErrServiceNotFound
	}
	delete(m.bySlug, s.Slug)
	delete(m.byID, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockCatalogRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	s, ok := m.byID[id]
	if !ok {
		return ErrServiceNotFound
	}
	s.IsActive = false
	m.deactivated = append(m.deactivated, id)
	return nil
}

func (m *mockCatalogRepo) HasAppointments(_ context.Context, id uuid.UUID) (bool, error) {
	return m.referenced[id], nil
}

func (m *mockCatalogRepo) Reorder(_ context.Context, orders map[uuid.UUID]int) error {
	for id, order := range orders {
		if s, ok := m.byID[id]; ok {
			s.DisplayOrder = order
		}
	}
	return nil
}

func validServiceInput() ServiceInput {
	return ServiceInput{
		Title:           "Curaciones Simples",
		Price:           15000,
		DurationMinutes: 30,
	}
}

func TestManagerCreateDefaults(t *testing.T) {
	repo := newMockCatalogRepo()
	mgr := NewManager(repo, zerolog.Nop())

	svc, err := mgr.Create(context.Background(), validServiceInput())
	require.NoError(t, err)

	assert.Equal(t, "curaciones-simples", svc.Slug)
	assert.Equal(t, PriceFixed, svc.PriceType)
	assert.Equal(t, ResourceNurse, svc.ResourceType)
	assert.True(t, svc.IsActive)
}

func TestManagerCreateValidation(t *testing.T) {
	mgr := NewManager(newMockCatalogRepo(), zerolog.Nop())

	in := validServiceInput()
	in.Title = "  "
	_, err := mgr.Create(context.Background(), in)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	in = validServiceInput()
	in.DurationMinutes = 0
	_, err = mgr.Create(context.Background(), in)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	in = validServiceInput()
	in.Price = -1
	_, err = mgr.Create(context.Background(), in)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestManagerCreateDeduplicatesSlug(t *testing.T) {
	repo := newMockCatalogRepo()
	mgr := NewManager(repo, zerolog.Nop())
	mgr.now = func() time.Time { return time.UnixMilli(1700000000000) }

	first, err := mgr.Create(context.Background(), validServiceInput())
	require.NoError(t, err)
	assert.Equal(t, "curaciones-simples", first.Slug)

	second, err := mgr.Create(context.Background(), validServiceInput())
	require.NoError(t, err)
	assert.Equal(t, "curaciones-simples-1700000000000", second.Slug)
}

func TestManagerGetBySlugOrID(t *testing.T) {
	repo := newMockCatalogRepo()
	mgr := NewManager(repo, zerolog.Nop())

	created, err := mgr.Create(context.Background(), validServiceInput())
	require.NoError(t, err)

	byID, err := mgr.Get(context.Background(), created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created.ID, byID.ID)

	bySlug, err := mgr.Get(context.Background(), "curaciones-simples")
	require.NoError(t, err)
	assert.Equal(t, created.ID, bySlug.ID)

	_, err = mgr.Get(context.Background(), "no-such-service")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestManagerUpdateReslugsOnTitleChange(t *testing.T) {
	repo := newMockCatalogRepo()
	mgr := NewManager(repo, zerolog.Nop())

	created, err := mgr.Create(context.Background(), validServiceInput())
	require.NoError(t, err)

	in := validServiceInput()
	in.Title = "Curaciones Avanzadas"
	updated, err := mgr.Update(context.Background(), created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "curaciones-avanzadas", updated.Slug)
}

func TestManagerDeleteOutright(t *testing.T) {
	repo := newMockCatalogRepo()
	mgr := NewManager(repo, zerolog.Nop())

	created, err := mgr.Create(context.Background(), validServiceInput())
	require.NoError(t, err)

	require.NoError(t, mgr.Delete(context.Background(), created.ID))
	assert.Contains(t, repo.deleted, created.ID)
	assert.Empty(t, repo.deactivated)
}

func TestManagerDeleteReferencedDeactivates(t *testing.T) {
	repo := newMockCatalogRepo()
	mgr := NewManager(repo, zerolog.Nop())

	created, err := mgr.Create(context.Background(), validServiceInput())
	require.NoError(t, err)
	repo.referenced[created.ID] = true

	require.NoError(t, mgr.Delete(context.Background(), created.ID))
	assert.Contains(t, repo.deactivated, created.ID)
	assert.Empty(t, repo.deleted)
	assert.False(t, repo.byID[created.ID].IsActive)
}

func TestManagerReorderRequiresInput(t *testing.T) {
	mgr := NewManager(newMockCatalogRepo(), zerolog.Nop())

	err := mgr.Reorder(context.Background(), nil)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
