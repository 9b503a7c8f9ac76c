package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

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

const appointmentDetailColumns = `
	a.id, a.service_id, a.user_id, a.date, a.start_time, a.end_time,
	a.patient_name, a.patient_rut, a.patient_email, a.patient_phone,
	a.address, a.notes, a.status, a.cancel_token,
	a.confirmed_at, a.cancelled_at, a.cancel_reason,
	a.created_at, a.updated_at,
	s.title, s.price, s.duration_minutes`

const appointmentDetailFrom = `
	FROM appointments a
	JOIN services s ON s.id = a.service_id`

// Helpers

func scanAppointmentDetail(row pgx.Row) (*AppointmentDetail, error) {
	var d AppointmentDetail

	err := row.Scan(
		&d.ID,
		&d.ServiceID,
		&d.UserID,
		&d.Date,
		&d.StartTime,
		&d.EndTime,
		&d.PatientName,
		&d.PatientRUT,
		&d.PatientEmail,
		&d.PatientPhone,
		&d.Address,
		&d.Notes,
		&d.Status,
		&d.CancelToken,
		&d.ConfirmedAt,
		&d.CancelledAt,
		&d.CancelReason,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.ServiceTitle,
		&d.ServicePrice,
		&d.ServiceDuration,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &d, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.ServiceID,
		&a.UserID,
		&a.Date,
		&a.StartTime,
		&a.EndTime,
		&a.PatientName,
		&a.PatientRUT,
		&a.PatientEmail,
		&a.PatientPhone,
		&a.Address,
		&a.Notes,
		&a.Status,
		&a.CancelToken,
		&a.ConfirmedAt,
		&a.CancelledAt,
		&a.CancelReason,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func scanRule(row pgx.Row) (*AvailabilityRule, error) {
	var r AvailabilityRule

	err := row.Scan(
		&r.ID,
		&r.DayOfWeek,
		&r.StartTime,
		&r.EndTime,
		&r.SlotMinutes,
		&r.MaxBookings,
		&r.ResourceType,
		&r.ServiceID,
		&r.IsActive,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, err
	}

	return &r, nil
}

func scanBlockedDate(row pgx.Row) (*BlockedDate, error) {
	var b BlockedDate

	err := row.Scan(
		&b.ID,
		&b.Date,
		&b.IsFullDay,
		&b.StartTime,
		&b.EndTime,
		&b.Reason,
		&b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBlockedDateNotFound
		}
		return nil, err
	}

	return &b, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Interface methods

func (r *PgRepository) GetServiceInfo(ctx context.Context, id uuid.UUID) (*ServiceInfo, error) {
	var s ServiceInfo
	err := r.pool.QueryRow(ctx, `
		SELECT id, title, price, duration_minutes, resource_type, is_active
		FROM services
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Title, &s.Price, &s.DurationMinutes, &s.ResourceType, &s.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListRulesForDay returns the active rules that apply to a weekday: unscoped
// rules always, plus the ones scoped to the service or its resource type.
func (r *PgRepository) ListRulesForDay(ctx context.Context, dayOfWeek int, serviceID *uuid.UUID) ([]AvailabilityRule, error) {
	query := `
		SELECT id, day_of_week, start_time, end_time, slot_minutes, max_bookings,
		       resource_type, service_id, is_active, created_at, updated_at
		FROM availability_rules
		WHERE day_of_week = $1 AND is_active`
	args := []any{dayOfWeek}

	if serviceID != nil {
		query += `
		  AND (service_id IS NULL AND resource_type IS NULL
		       OR service_id = $2
		       OR resource_type = (SELECT resource_type FROM services WHERE id = $2))`
		args = append(args, *serviceID)
	}
	query += ` ORDER BY start_time`

	return r.collectRules(ctx, query, args...)
}

func (r *PgRepository) ListActiveRules(ctx context.Context, serviceID *uuid.UUID) ([]AvailabilityRule, error) {
	query := `
		SELECT id, day_of_week, start_time, end_time, slot_minutes, max_bookings,
		       resource_type, service_id, is_active, created_at, updated_at
		FROM availability_rules
		WHERE is_active`
	args := []any{}

	if serviceID != nil {
		query += `
		  AND (service_id IS NULL AND resource_type IS NULL
		       OR service_id = $1
		       OR resource_type = (SELECT resource_type FROM services WHERE id = $1))`
		args = append(args, *serviceID)
	}
	query += ` ORDER BY day_of_week, start_time`

	return r.collectRules(ctx, query, args...)
}

func (r *PgRepository) collectRules(ctx context.Context, query string, args ...any) ([]AvailabilityRule, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AvailabilityRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rule)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetBlockedDate(ctx context.Context, date time.Time) (*BlockedDate, error) {
	b, err := scanBlockedDate(r.pool.QueryRow(ctx, `
		SELECT id, date, is_full_day, start_time, end_time, reason, created_at
		FROM blocked_dates
		WHERE date = $1
		ORDER BY is_full_day DESC
		LIMIT 1
	`, Midnight(date)))
	if errors.Is(err, ErrBlockedDateNotFound) {
		return nil, nil
	}
	return b, err
}

func (r *PgRepository) ListBlockedBetween(ctx context.Context, from, to time.Time) ([]BlockedDate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, date, is_full_day, start_time, end_time, reason, created_at
		FROM blocked_dates
		WHERE date BETWEEN $1 AND $2
		ORDER BY date
	`, Midnight(from), Midnight(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BlockedDate
	for rows.Next() {
		b, err := scanBlockedDate(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}
	return result, rows.Err()
}

func (r *PgRepository) CountActiveBySlot(ctx context.Context, date time.Time, serviceID *uuid.UUID) (map[string]int, error) {
	query := `
		SELECT start_time, COUNT(*)
		FROM appointments
		WHERE date = $1 AND status IN ('pending', 'confirmed', 'in_progress')`
	args := []any{Midnight(date)}

	if serviceID != nil {
		query += ` AND service_id = $2`
		args = append(args, *serviceID)
	}
	query += ` GROUP BY start_time`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var start string
		var n int
		if err := rows.Scan(&start, &n); err != nil {
			return nil, err
		}
		counts[start] = n
	}
	return counts, rows.Err()
}

func (r *PgRepository) CountActiveAt(ctx context.Context, date time.Time, startTime string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM appointments
		WHERE date = $1 AND start_time = $2
		  AND status IN ('pending', 'confirmed', 'in_progress')
	`, Midnight(date), startTime).Scan(&n)
	return n, err
}

func (r *PgRepository) HasActiveForPatient(ctx context.Context, rut string, date time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE patient_rut = $1 AND date = $2
			  AND status IN ('pending', 'confirmed', 'in_progress')
		)
	`, rut, Midnight(date)).Scan(&exists)
	return exists, err
}

func (r *PgRepository) CreateAppointment(ctx context.Context, a *Appointment) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (
			id, service_id, user_id, date, start_time, end_time,
			patient_name, patient_rut, patient_email, patient_phone,
			address, notes, status, cancel_token, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now(), now())
		RETURNING created_at, updated_at
	`, a.ID, a.ServiceID, a.UserID, a.Date, a.StartTime, a.EndTime,
		a.PatientName, a.PatientRUT, a.PatientEmail, a.PatientPhone,
		a.Address, a.Notes, a.Status, a.CancelToken)

	if err := row.Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicatePatientDay
		}
		return err
	}
	return nil
}

func (r *PgRepository) GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	return scanAppointmentDetail(r.pool.QueryRow(ctx,
		`SELECT`+appointmentDetailColumns+appointmentDetailFrom+` WHERE a.id = $1`, id))
}

func (r *PgRepository) GetAppointmentByToken(ctx context.Context, token string) (*AppointmentDetail, error) {
	return scanAppointmentDetail(r.pool.QueryRow(ctx,
		`SELECT`+appointmentDetailColumns+appointmentDetailFrom+` WHERE a.cancel_token = $1`, token))
}

// UpdateAppointmentStatus is a compare-and-swap: the row only moves when it
// is still in the expected state, which closes the race between two staff
// members updating the same appointment.
func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status, stamp StatusStamp) (*Appointment, error) {
	return scanAppointment(r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $3,
		    confirmed_at = COALESCE($4, confirmed_at),
		    cancelled_at = COALESCE($5, cancelled_at),
		    cancel_reason = COALESCE($6, cancel_reason),
		    updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING id, service_id, user_id, date, start_time, end_time,
		          patient_name, patient_rut, patient_email, patient_phone,
		          address, notes, status, cancel_token,
		          confirmed_at, cancelled_at, cancel_reason, created_at, updated_at
	`, id, from, to, stamp.ConfirmedAt, stamp.CancelledAt, stamp.CancelReason))
}

func (r *PgRepository) UpdateAppointment(ctx context.Context, id uuid.UUID, upd AppointmentUpdate) (*AppointmentDetail, error) {
	set := []string{"updated_at = now()"}
	args := []any{id}

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Date != nil {
		add("date", Midnight(*upd.Date))
	}
	if upd.StartTime != nil {
		add("start_time", *upd.StartTime)
	}
	if upd.EndTime != nil {
		add("end_time", *upd.EndTime)
	}
	if upd.PatientName != nil {
		add("patient_name", *upd.PatientName)
	}
	if upd.PatientEmail != nil {
		add("patient_email", *upd.PatientEmail)
	}
	if upd.PatientPhone != nil {
		add("patient_phone", *upd.PatientPhone)
	}
	if upd.Address != nil {
		add("address", *upd.Address)
	}
	if upd.Notes != nil {
		add("notes", *upd.Notes)
	}

	tag, err := r.pool.Exec(ctx,
		fmt.Sprintf("UPDATE appointments SET %s WHERE id = $1", strings.Join(set, ", ")),
		args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicatePatientDay
		}
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrAppointmentNotFound
	}

	return r.GetAppointment(ctx, id)
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) SearchByPatient(ctx context.Context, rut, email string, limit int) ([]AppointmentDetail, error) {
	conds := []string{}
	args := []any{}
	if rut != "" {
		args = append(args, rut)
		conds = append(conds, fmt.Sprintf("a.patient_rut = $%d", len(args)))
	}
	if email != "" {
		args = append(args, email)
		conds = append(conds, fmt.Sprintf("a.patient_email = $%d", len(args)))
	}
	args = append(args, limit)

	query := `SELECT` + appointmentDetailColumns + appointmentDetailFrom + `
		WHERE ` + strings.Join(conds, " OR ") + `
		ORDER BY a.date DESC, a.start_time DESC
		LIMIT $` + fmt.Sprint(len(args))

	return r.collectDetails(ctx, query, args...)
}

func (r *PgRepository) ListAppointments(ctx context.Context, f ListFilter) ([]AppointmentDetail, int, error) {
	conds := []string{"TRUE"}
	args := []any{}

	if f.Status != nil {
		args = append(args, *f.Status)
		conds = append(conds, fmt.Sprintf("a.status = $%d", len(args)))
	}
	if f.Date != nil {
		args = append(args, Midnight(*f.Date))
		conds = append(conds, fmt.Sprintf("a.date = $%d", len(args)))
	}
	if f.ServiceID != nil {
		args = append(args, *f.ServiceID)
		conds = append(conds, fmt.Sprintf("a.service_id = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(a.patient_name ILIKE $%d OR a.patient_rut ILIKE $%d OR a.patient_email ILIKE $%d OR a.patient_phone ILIKE $%d)",
			n, n, n, n))
	}

	where := strings.Join(conds, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM appointments a WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (f.Page - 1) * f.Limit
	args = append(args, f.Limit, offset)
	query := fmt.Sprintf(`SELECT%s%s WHERE %s
		ORDER BY a.date ASC, a.start_time ASC
		LIMIT $%d OFFSET $%d`,
		appointmentDetailColumns, appointmentDetailFrom, where, len(args)-1, len(args))

	details, err := r.collectDetails(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

func (r *PgRepository) ListForUser(ctx context.Context, userID uuid.UUID, email string) ([]AppointmentDetail, error) {
	query := `SELECT` + appointmentDetailColumns + appointmentDetailFrom + `
		WHERE a.user_id = $1 OR a.patient_email = $2
		ORDER BY a.date DESC, a.start_time ASC`
	return r.collectDetails(ctx, query, userID, email)
}

func (r *PgRepository) ListConfirmedForDate(ctx context.Context, date time.Time) ([]AppointmentDetail, error) {
	query := `SELECT` + appointmentDetailColumns + appointmentDetailFrom + `
		WHERE a.date = $1 AND a.status = 'confirmed'
		ORDER BY a.start_time`
	return r.collectDetails(ctx, query, Midnight(date))
}

func (r *PgRepository) AppointmentStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByStatus: make(map[Status]int)}

	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*) FROM appointments GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var st Status
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		stats.ByStatus[st] = n
		stats.Total += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE date = CURRENT_DATE),
			COUNT(*) FILTER (WHERE date > CURRENT_DATE AND status IN ('pending', 'confirmed'))
		FROM appointments
	`).Scan(&stats.Today, &stats.Upcoming)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *PgRepository) collectDetails(ctx context.Context, query string, args ...any) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentDetail
	for rows.Next() {
		d, err := scanAppointmentDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

// Schedule administration

func (r *PgRepository) CreateRule(ctx context.Context, rule *AvailabilityRule) error {
	rule.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO availability_rules (
			id, day_of_week, start_time, end_time, slot_minutes, max_bookings,
			resource_type, service_id, is_active, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING created_at, updated_at
	`, rule.ID, rule.DayOfWeek, rule.StartTime, rule.EndTime, rule.SlotMinutes,
		rule.MaxBookings, rule.ResourceType, rule.ServiceID, rule.IsActive).
		Scan(&rule.CreatedAt, &rule.UpdatedAt)
}

func (r *PgRepository) ListRules(ctx context.Context) ([]AvailabilityRule, error) {
	return r.collectRules(ctx, `
		SELECT id, day_of_week, start_time, end_time, slot_minutes, max_bookings,
		       resource_type, service_id, is_active, created_at, updated_at
		FROM availability_rules
		ORDER BY day_of_week, start_time`)
}

func (r *PgRepository) UpdateRule(ctx context.Context, rule *AvailabilityRule) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE availability_rules
		SET day_of_week = $2, start_time = $3, end_time = $4, slot_minutes = $5,
		    max_bookings = $6, resource_type = $7, service_id = $8, is_active = $9,
		    updated_at = now()
		WHERE id = $1
	`, rule.ID, rule.DayOfWeek, rule.StartTime, rule.EndTime, rule.SlotMinutes,
		rule.MaxBookings, rule.ResourceType, rule.ServiceID, rule.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRuleNotFound
	}
	return nil
}

func (r *PgRepository) DeleteRule(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM availability_rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRuleNotFound
	}
	return nil
}

func (r *PgRepository) CreateBlockedDate(ctx context.Context, bd *BlockedDate) error {
	bd.ID = uuid.New()
	bd.Date = Midnight(bd.Date)
	return r.pool.QueryRow(ctx, `
		INSERT INTO blocked_dates (id, date, is_full_day, start_time, end_time, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING created_at
	`, bd.ID, bd.Date, bd.IsFullDay, bd.StartTime, bd.EndTime, bd.Reason).
		Scan(&bd.CreatedAt)
}

func (r *PgRepository) ListBlockedDates(ctx context.Context, from time.Time) ([]BlockedDate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, date, is_full_day, start_time, end_time, reason, created_at
		FROM blocked_dates
		WHERE date >= $1
		ORDER BY date
	`, Midnight(from))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BlockedDate
	for rows.Next() {
		b, err := scanBlockedDate(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}
	return result, rows.Err()
}

func (r *PgRepository) DeleteBlockedDate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM blocked_dates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBlockedDateNotFound
	}
	return nil
}
