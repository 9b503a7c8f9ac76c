package content

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) ListContent(ctx context.Context) ([]SiteContent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT key, value, updated_at FROM site_content ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SiteContent
	for rows.Next() {
		var c SiteContent
		if err := rows.Scan(&c.Key, &c.Value, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetContent(ctx context.Context, key string) (*SiteContent, error) {
	var c SiteContent
	err := r.pool.QueryRow(ctx,
		`SELECT key, value, updated_at FROM site_content WHERE key = $1`, key).
		Scan(&c.Key, &c.Value, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PgRepository) UpsertContent(ctx context.Context, key, value string) (*SiteContent, error) {
	var c SiteContent
	err := r.pool.QueryRow(ctx, `
		INSERT INTO site_content (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
		RETURNING key, value, updated_at
	`, key, value).Scan(&c.Key, &c.Value, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PgRepository) DeleteContent(ctx context.Context, key string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM site_content WHERE key = $1`, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrContentNotFound
	}
	return nil
}

func (r *PgRepository) ListSettings(ctx context.Context) ([]Setting, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT key, value, updated_at FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetSetting(ctx context.Context, key string) (*Setting, error) {
	var s Setting
	err := r.pool.QueryRow(ctx,
		`SELECT key, value, updated_at FROM settings WHERE key = $1`, key).
		Scan(&s.Key, &s.Value, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSettingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PgRepository) UpsertSetting(ctx context.Context, key, value string) (*Setting, error) {
	var s Setting
	err := r.pool.QueryRow(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
		RETURNING key, value, updated_at
	`, key, value).Scan(&s.Key, &s.Value, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

const memberColumns = `id, name, position, bio, specialties, photo_url,
	display_order, is_active, created_at, updated_at`

func scanMember(row pgx.Row) (*TeamMember, error) {
	var m TeamMember
	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Position,
		&m.Bio,
		&m.Specialties,
		&m.PhotoURL,
		&m.DisplayOrder,
		&m.IsActive,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *PgRepository) ListTeam(ctx context.Context, activeOnly bool) ([]TeamMember, error) {
	query := `SELECT ` + memberColumns + ` FROM team_members`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY display_order, name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TeamMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetTeamMember(ctx context.Context, id uuid.UUID) (*TeamMember, error) {
	return scanMember(r.pool.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM team_members WHERE id = $1`, id))
}

func (r *PgRepository) CreateTeamMember(ctx context.Context, m *TeamMember) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO team_members (id, name, position, bio, specialties, photo_url,
			display_order, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING created_at, updated_at
	`, m.ID, m.Name, m.Position, m.Bio, m.Specialties, m.PhotoURL,
		m.DisplayOrder, m.IsActive).Scan(&m.CreatedAt, &m.UpdatedAt)
}

func (r *PgRepository) UpdateTeamMember(ctx context.Context, m *TeamMember) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE team_members
		SET name = $2, position = $3, bio = $4, specialties = $5, photo_url = $6,
		    display_order = $7, is_active = $8, updated_at = now()
		WHERE id = $1
	`, m.ID, m.Name, m.Position, m.Bio, m.Specialties, m.PhotoURL,
		m.DisplayOrder, m.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (r *PgRepository) DeleteTeamMember(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM team_members WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}

const reviewColumns = `id, user_id, name, role, content, rating,
	is_approved, is_featured, created_at, updated_at`

func scanReview(row pgx.Row) (*Review, error) {
	var rv Review
	err := row.Scan(
		&rv.ID,
		&rv.UserID,
		&rv.Name,
		&rv.Role,
		&rv.Content,
		&rv.Rating,
		&rv.IsApproved,
		&rv.IsFeatured,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return &rv, nil
}

func (r *PgRepository) ListReviews(ctx context.Context, filter ReviewFilter) ([]Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE TRUE`
	if filter.ApprovedOnly {
		query += ` AND is_approved`
	}
	if filter.FeaturedOnly {
		query += ` AND is_featured`
	}
	query += ` ORDER BY created_at DESC`

	args := []any{}
	if filter.Limit > 0 {
		query += ` LIMIT $1`
		args = append(args, filter.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rv)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetReview(ctx context.Context, id uuid.UUID) (*Review, error) {
	return scanReview(r.pool.QueryRow(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id))
}

func (r *PgRepository) CreateReview(ctx context.Context, rv *Review) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO reviews (id, user_id, name, role, content, rating,
			is_approved, is_featured, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING created_at, updated_at
	`, rv.ID, rv.UserID, rv.Name, rv.Role, rv.Content, rv.Rating,
		rv.IsApproved, rv.IsFeatured).Scan(&rv.CreatedAt, &rv.UpdatedAt)
}

func (r *PgRepository) UpdateReview(ctx context.Context, rv *Review) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reviews
		SET name = $2, role = $3, content = $4, rating = $5,
		    is_approved = $6, is_featured = $7, updated_at = now()
		WHERE id = $1
	`, rv.ID, rv.Name, rv.Role, rv.Content, rv.Rating, rv.IsApproved, rv.IsFeatured)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (r *PgRepository) DeleteReview(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (r *PgRepository) CreateMessage(ctx context.Context, m *ContactMessage) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO contact_messages (id, name, email, phone, message, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, now())
		RETURNING created_at
	`, m.ID, m.Name, m.Email, m.Phone, m.Message).Scan(&m.CreatedAt)
}

func (r *PgRepository) ListMessages(ctx context.Context, unreadOnly bool) ([]ContactMessage, error) {
	query := `SELECT id, name, email, phone, message, is_read, created_at FROM contact_messages`
	if unreadOnly {
		query += ` WHERE NOT is_read`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ContactMessage
	for rows.Next() {
		var m ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.Message, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (r *PgRepository) MarkMessageRead(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE contact_messages SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *PgRepository) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contact_messages WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}
