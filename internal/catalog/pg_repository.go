package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const serviceColumns = `id, title, slug, description, short_description, icon,
	price, price_type, duration_minutes, resource_type, is_active, display_order,
	created_at, updated_at`

func scanService(row pgx.Row) (*Service, error) {
	var s Service
	err := row.Scan(
		&s.ID,
		&s.Title,
		&s.Slug,
		&s.Description,
		&s.ShortDescription,
		&s.Icon,
		&s.Price,
		&s.PriceType,
		&s.DurationMinutes,
		&s.ResourceType,
		&s.IsActive,
		&s.DisplayOrder,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *PgRepository) List(ctx context.Context, activeOnly bool) ([]Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY display_order, title`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetByIDOrSlug(ctx context.Context, idOrSlug string) (*Service, error) {
	if id, err := uuid.Parse(idOrSlug); err == nil {
		return scanService(r.pool.QueryRow(ctx,
			`SELECT `+serviceColumns+` FROM services WHERE id = $1`, id))
	}
	return r.GetBySlug(ctx, idOrSlug)
}

func (r *PgRepository) GetBySlug(ctx context.Context, slug string) (*Service, error) {
	return scanService(r.pool.QueryRow(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE slug = $1`, slug))
}

func (r *PgRepository) Create(ctx context.Context, svc *Service) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO services (
			id, title, slug, description, short_description, icon,
			price, price_type, duration_minutes, resource_type, is_active, display_order,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())
		RETURNING created_at, updated_at
	`, svc.ID, svc.Title, svc.Slug, svc.Description, svc.ShortDescription, svc.Icon,
		svc.Price, svc.PriceType, svc.DurationMinutes, svc.ResourceType, svc.IsActive, svc.DisplayOrder).
		Scan(&svc.CreatedAt, &svc.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrSlugTaken
	}
	return err
}

func (r *PgRepository) Update(ctx context.Context, svc *Service) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE services
		SET title = $2, slug = $3, description = $4, short_description = $5, icon = $6,
		    price = $7, price_type = $8, duration_minutes = $9, resource_type = $10,
		    is_active = $11, display_order = $12, updated_at = now()
		WHERE id = $1
	`, svc.ID, svc.Title, svc.Slug, svc.Description, svc.ShortDescription, svc.Icon,
		svc.Price, svc.PriceType, svc.DurationMinutes, svc.ResourceType, svc.IsActive, svc.DisplayOrder)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlugTaken
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrServiceNotFound
	}
	return nil
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrServiceNotFound
	}
	return nil
}

func (r *PgRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE services SET is_active = FALSE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrServiceNotFound
	}
	return nil
}

func (r *PgRepository) HasAppointments(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM appointments WHERE service_id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *PgRepository) Reorder(ctx context.Context, orders map[uuid.UUID]int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for id, order := range orders {
		if _, err := tx.Exec(ctx,
			`UPDATE services SET display_order = $2, updated_at = now() WHERE id = $1`,
			id, order); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
