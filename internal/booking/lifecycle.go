package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// transitions is the legal edge table of the appointment state machine.
// completed, cancelled and no_show are terminal.
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled, StatusNoShow},
	StatusConfirmed:  {StatusInProgress, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted, StatusNoShow},
}

func canTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SetStatus performs a staff-driven transition, enforcing the edge table.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, newStatus Status) (*AppointmentDetail, error) {
	if !newStatus.Valid() {
		return nil, validationError("Estado inválido")
	}

	detail, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, notFoundError("Cita no encontrada")
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if !canTransition(detail.Status, newStatus) {
		return nil, transitionError("No es posible cambiar la cita de %s a %s", detail.Status, newStatus)
	}

	now := s.now()
	var stamp StatusStamp
	if newStatus == StatusConfirmed && detail.ConfirmedAt == nil {
		stamp.ConfirmedAt = &now
	}
	if newStatus == StatusCancelled {
		stamp.CancelledAt = &now
		stamp.CancelReason = strPtr("Cancelada por administrador")
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, detail.Status, newStatus, stamp)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Lost a race with another transition.
			return nil, conflictError("La cita fue modificada por otra operación, intenta nuevamente")
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	detail.Appointment = *updated
	return detail, nil
}

// GetByToken resolves a booking for the public cancellation page.
func (s *Service) GetByToken(ctx context.Context, token string) (*AppointmentDetail, error) {
	detail, err := s.repo.GetAppointmentByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, notFoundError("Cita no encontrada")
		}
		return nil, fmt.Errorf("load appointment by token: %w", err)
	}
	return detail, nil
}

// CancelByToken is the patient-facing self-service cancellation. It enforces
// the minimum lead time; late cancellations must go through support.
func (s *Service) CancelByToken(ctx context.Context, token, reason string) (*AppointmentDetail, error) {
	detail, err := s.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if detail.Status != StatusPending && detail.Status != StatusConfirmed {
		return nil, transitionError("Esta cita no puede ser cancelada")
	}

	startsAt, err := appointmentTime(detail.Date, detail.StartTime)
	if err != nil {
		return nil, fmt.Errorf("parse appointment time: %w", err)
	}
	if startsAt.Sub(s.now()) < s.opts.CancelLeadTime {
		hours := int(s.opts.CancelLeadTime / time.Hour)
		return nil, policyError(
			"No es posible cancelar con menos de %d horas de anticipación. Por favor, contáctanos directamente.", hours)
	}

	now := s.now()
	cancelReason := strings.TrimSpace(reason)
	if cancelReason == "" {
		cancelReason = "Cancelada por el paciente"
	}
	stamp := StatusStamp{CancelledAt: &now, CancelReason: &cancelReason}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, detail.ID, detail.Status, StatusCancelled, stamp)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, conflictError("La cita fue modificada por otra operación, intenta nuevamente")
		}
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}
	detail.Appointment = *updated

	s.dispatch("booking_cancelled", func(ctx context.Context) error {
		return s.notifier.BookingCancelled(ctx, *detail)
	})

	return detail, nil
}

func appointmentTime(date time.Time, startTime string) (time.Time, error) {
	m, err := minuteOfDay(startTime)
	if err != nil {
		return time.Time{}, err
	}
	day := Midnight(date)
	return day.Add(time.Duration(m) * time.Minute), nil
}

// --- Patient search ---

// SearchResult is the sanitized listing row: the raw cancel token is never
// included, only a cancel URL for rows that are still cancellable.
type SearchResult struct {
	ID        uuid.UUID `json:"id"`
	Service   string    `json:"service"`
	Date      string    `json:"date"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	Status    Status    `json:"status"`
	CanCancel bool      `json:"canCancel"`
	CancelURL *string   `json:"cancelUrl"`
}

// SearchByIdentifier finds a patient's recent appointments by RUT or email.
func (s *Service) SearchByIdentifier(ctx context.Context, rut, email string) ([]SearchResult, error) {
	rut = strings.TrimSpace(rut)
	email = strings.ToLower(strings.TrimSpace(email))

	if rut == "" && email == "" {
		return nil, validationError("Debe proporcionar RUT o email para buscar")
	}
	if rut != "" {
		if !ValidateRUT(rut) {
			return nil, identifierError("El RUT ingresado no es válido")
		}
		rut = FormatRUT(rut)
	}

	details, err := s.repo.SearchByPatient(ctx, rut, email, 10)
	if err != nil {
		return nil, fmt.Errorf("search appointments: %w", err)
	}

	results := make([]SearchResult, 0, len(details))
	for _, d := range details {
		res := SearchResult{
			ID:        d.ID,
			Service:   d.ServiceTitle,
			Date:      d.Date.Format("2006-01-02"),
			StartTime: d.StartTime,
			EndTime:   d.EndTime,
			Status:    d.Status,
			CanCancel: d.Status == StatusPending || d.Status == StatusConfirmed,
		}
		if res.CanCancel {
			res.CancelURL = strPtr(s.cancelURL(d.CancelToken))
		}
		results = append(results, res)
	}
	return results, nil
}

// --- Staff and admin operations ---

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	detail, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, notFoundError("Cita no encontrada")
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	return detail, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]AppointmentDetail, int, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	return s.repo.ListAppointments(ctx, f)
}

func (s *Service) ListMine(ctx context.Context, userID uuid.UUID, email string) ([]AppointmentDetail, error) {
	return s.repo.ListForUser(ctx, userID, strings.ToLower(email))
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.AppointmentStats(ctx)
}

// Update edits an appointment's non-status fields. Status changes must go
// through SetStatus so the state machine cannot be bypassed.
func (s *Service) Update(ctx context.Context, id uuid.UUID, upd AppointmentUpdate) (*AppointmentDetail, error) {
	if upd.StartTime != nil {
		if _, err := minuteOfDay(*upd.StartTime); err != nil {
			return nil, validationError("Hora inválida (formato HH:MM)")
		}
	}
	if upd.EndTime != nil {
		if _, err := minuteOfDay(*upd.EndTime); err != nil {
			return nil, validationError("Hora inválida (formato HH:MM)")
		}
	}
	if upd.PatientEmail != nil {
		email := strings.ToLower(strings.TrimSpace(*upd.PatientEmail))
		if !emailPattern.MatchString(email) {
			return nil, validationError("El correo electrónico no es válido")
		}
		upd.PatientEmail = &email
	}

	detail, err := s.repo.UpdateAppointment(ctx, id, upd)
	if err != nil {
		switch {
		case errors.Is(err, ErrAppointmentNotFound):
			return nil, notFoundError("Cita no encontrada")
		case errors.Is(err, ErrDuplicatePatientDay):
			return nil, conflictError("El paciente ya tiene una cita activa ese día")
		}
		return nil, fmt.Errorf("update appointment: %w", err)
	}
	return detail, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteAppointment(ctx, id); err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return notFoundError("Cita no encontrada")
		}
		return fmt.Errorf("delete appointment: %w", err)
	}
	return nil
}

// --- Schedule administration ---

func (s *Service) validateRule(rule *AvailabilityRule) error {
	if rule.DayOfWeek < 0 || rule.DayOfWeek > 6 {
		return validationError("Día de la semana inválido")
	}
	start, err := minuteOfDay(rule.StartTime)
	if err != nil {
		return validationError("Hora inválida (formato HH:MM)")
	}
	end, err := minuteOfDay(rule.EndTime)
	if err != nil {
		return validationError("Hora inválida (formato HH:MM)")
	}
	if start >= end {
		return validationError("La hora de inicio debe ser anterior a la de término")
	}
	if rule.SlotMinutes <= 0 {
		return validationError("La duración del slot debe ser positiva")
	}
	if rule.MaxBookings <= 0 {
		rule.MaxBookings = 1
	}
	return nil
}

func (s *Service) CreateRule(ctx context.Context, rule *AvailabilityRule) error {
	if err := s.validateRule(rule); err != nil {
		return err
	}
	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return fmt.Errorf("create rule: %w", err)
	}
	s.invalidateCalendar(ctx)
	return nil
}

func (s *Service) UpdateRule(ctx context.Context, rule *AvailabilityRule) error {
	if err := s.validateRule(rule); err != nil {
		return err
	}
	if err := s.repo.UpdateRule(ctx, rule); err != nil {
		if errors.Is(err, ErrRuleNotFound) {
			return notFoundError("Horario no encontrado")
		}
		return fmt.Errorf("update rule: %w", err)
	}
	s.invalidateCalendar(ctx)
	return nil
}

func (s *Service) ListRules(ctx context.Context) ([]AvailabilityRule, error) {
	return s.repo.ListRules(ctx)
}

func (s *Service) DeleteRule(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteRule(ctx, id); err != nil {
		if errors.Is(err, ErrRuleNotFound) {
			return notFoundError("Horario no encontrado")
		}
		return fmt.Errorf("delete rule: %w", err)
	}
	s.invalidateCalendar(ctx)
	return nil
}

func (s *Service) CreateBlockedDate(ctx context.Context, bd *BlockedDate) error {
	if bd.Date.IsZero() {
		return validationError("La fecha es requerida")
	}
	if !bd.IsFullDay {
		if bd.StartTime == nil || bd.EndTime == nil {
			return validationError("Un bloqueo parcial requiere hora de inicio y término")
		}
		start, err := minuteOfDay(*bd.StartTime)
		if err != nil {
			return validationError("Hora inválida (formato HH:MM)")
		}
		end, err := minuteOfDay(*bd.EndTime)
		if err != nil {
			return validationError("Hora inválida (formato HH:MM)")
		}
		if start >= end {
			return validationError("La hora de inicio debe ser anterior a la de término")
		}
	}
	if err := s.repo.CreateBlockedDate(ctx, bd); err != nil {
		return fmt.Errorf("create blocked date: %w", err)
	}
	s.invalidateCalendar(ctx)
	return nil
}

func (s *Service) ListBlockedDates(ctx context.Context) ([]BlockedDate, error) {
	return s.repo.ListBlockedDates(ctx, Midnight(s.now()))
}

func (s *Service) DeleteBlockedDate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteBlockedDate(ctx, id); err != nil {
		if errors.Is(err, ErrBlockedDateNotFound) {
			return notFoundError("Fecha bloqueada no encontrada")
		}
		return fmt.Errorf("delete blocked date: %w", err)
	}
	s.invalidateCalendar(ctx)
	return nil
}

func (s *Service) invalidateCalendar(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("calendar cache invalidation failed")
	}
}

// --- Reminder worker ---

// SendReminders mails every confirmed appointment scheduled for the day
// after now. Intended to be called periodically by the reminder worker;
// individual delivery failures are logged and skipped.
func (s *Service) SendReminders(ctx context.Context) error {
	tomorrow := Midnight(s.now()).AddDate(0, 0, 1)

	appointments, err := s.repo.ListConfirmedForDate(ctx, tomorrow)
	if err != nil {
		return fmt.Errorf("list confirmed appointments: %w", err)
	}

	for _, appt := range appointments {
		if err := s.notifier.AppointmentReminder(ctx, appt); err != nil {
			s.logger.Error().Err(err).
				Stringer("appointment_id", appt.ID).
				Msg("reminder delivery failed")
		}
	}
	return nil
}
