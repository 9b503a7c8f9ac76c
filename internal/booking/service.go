package booking

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	redisclient "github.com/centrobenavente/booking-server/internal/redis"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Notifier delivers booking mails. Implementations must be safe for
// concurrent use; the service never lets a delivery failure fail a booking.
type Notifier interface {
	BookingCreated(ctx context.Context, appt AppointmentDetail, cancelURL string) error
	BookingCancelled(ctx context.Context, appt AppointmentDetail) error
	AppointmentReminder(ctx context.Context, appt AppointmentDetail) error
}

type Options struct {
	Fallback       FallbackSchedule
	CancelLeadTime time.Duration
	PublicBaseURL  string
}

type Service struct {
	repo     Repository
	locker   redisclient.Locker
	cache    *redisclient.CalendarCache
	notifier Notifier
	logger   zerolog.Logger
	opts     Options

	now func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, cache *redisclient.CalendarCache, notifier Notifier, logger zerolog.Logger, opts Options) *Service {
	if opts.CancelLeadTime <= 0 {
		opts.CancelLeadTime = 2 * time.Hour
	}
	return &Service{
		repo:     repo,
		locker:   locker,
		cache:    cache,
		notifier: notifier,
		logger:   logger,
		opts:     opts,
		now:      time.Now,
	}
}

// --- Availability ---

type DaySlots struct {
	Date      string             `json:"date"`
	ServiceID *uuid.UUID         `json:"serviceId,omitempty"`
	Slots     []SlotAvailability `json:"slots"`
	Reason    *string            `json:"reason,omitempty"`
}

// ResolveAvailability computes the open/booked status of every slot on a
// date. Past dates yield an empty result with reason "past", matching the
// calendar convention.
func (s *Service) ResolveAvailability(ctx context.Context, date time.Time, serviceID *uuid.UUID) (*DaySlots, error) {
	result := &DaySlots{
		Date:      date.Format("2006-01-02"),
		ServiceID: serviceID,
		Slots:     []SlotAvailability{},
	}

	today := Midnight(s.now())
	if Midnight(date).Before(today) {
		reason := "past"
		result.Reason = &reason
		return result, nil
	}

	slots, err := s.generateForDate(ctx, date, serviceID)
	if err != nil {
		return nil, err
	}

	counts, err := s.repo.CountActiveBySlot(ctx, date, serviceID)
	if err != nil {
		return nil, fmt.Errorf("count active appointments: %w", err)
	}

	sameDay := Midnight(date).Equal(today)
	nowClock := s.now().Format("15:04")

	for _, slot := range slots {
		booked := counts[slot.StartTime]
		available := booked < slot.MaxBookings
		// No same-day bookings for slots that already started.
		if sameDay && slot.StartTime <= nowClock {
			available = false
		}
		result.Slots = append(result.Slots, SlotAvailability{
			Slot:          slot,
			Available:     available,
			BookingsCount: booked,
		})
	}

	return result, nil
}

func (s *Service) generateForDate(ctx context.Context, date time.Time, serviceID *uuid.UUID) ([]Slot, error) {
	rules, err := s.repo.ListRulesForDay(ctx, int(date.Weekday()), serviceID)
	if err != nil {
		return nil, fmt.Errorf("load availability rules: %w", err)
	}
	blocked, err := s.repo.GetBlockedDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load blocked date: %w", err)
	}
	return GenerateSlots(date, rules, blocked, s.opts.Fallback), nil
}

// --- Calendar ---

type MonthView struct {
	Year  int               `json:"year"`
	Month int               `json:"month"`
	Days  []DayAvailability `json:"days"`
}

// MonthAvailability produces the coarse per-day signal for the calendar
// widget. It ignores slot-level occupancy on purpose; that is the resolver's
// job.
func (s *Service) MonthAvailability(ctx context.Context, year, month int, serviceID *uuid.UUID) (*MonthView, error) {
	if month < 1 || month > 12 {
		return nil, validationError("Mes inválido")
	}
	if year < 2000 || year > 2100 {
		return nil, validationError("Año inválido")
	}

	cacheKey := fmt.Sprintf("%04d-%02d:all", year, month)
	if serviceID != nil {
		cacheKey = fmt.Sprintf("%04d-%02d:%s", year, month, serviceID)
	}
	if s.cache != nil {
		if data, ok := s.cache.Get(ctx, cacheKey); ok {
			var cached MonthView
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	loc := s.now().Location()
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)

	blocked, err := s.repo.ListBlockedBetween(ctx, first, last)
	if err != nil {
		return nil, fmt.Errorf("load blocked dates: %w", err)
	}
	fullDayBlocked := make(map[string]bool)
	for _, b := range blocked {
		if b.IsFullDay {
			fullDayBlocked[b.Date.Format("2006-01-02")] = true
		}
	}

	rules, err := s.repo.ListActiveRules(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("load availability rules: %w", err)
	}
	openWeekday := make(map[int]bool)
	for _, r := range rules {
		openWeekday[r.DayOfWeek] = true
	}
	for dow, window := range s.opts.Fallback.Hours {
		// Fallback hours only apply to weekdays with no active rule.
		if window != "" && !openWeekday[dow] {
			openWeekday[dow] = true
		}
	}

	view := &MonthView{Year: year, Month: month}
	today := Midnight(s.now())

	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		entry := DayAvailability{
			Date:      day.Format("2006-01-02"),
			DayOfWeek: int(day.Weekday()),
			Available: true,
		}
		switch {
		case day.Before(today):
			entry.Available = false
			entry.Reason = strPtr("past")
		case fullDayBlocked[entry.Date]:
			entry.Available = false
			entry.Reason = strPtr("blocked")
		case !openWeekday[entry.DayOfWeek]:
			entry.Available = false
			entry.Reason = strPtr("closed")
		}
		view.Days = append(view.Days, entry)
	}

	if s.cache != nil {
		if data, err := json.Marshal(view); err == nil {
			if err := s.cache.Set(ctx, cacheKey, data); err != nil {
				s.logger.Warn().Err(err).Msg("calendar cache write failed")
			}
		}
	}

	return view, nil
}

func strPtr(s string) *string { return &s }

// --- Booking creation ---

type CreateBookingInput struct {
	ServiceID    uuid.UUID
	UserID       *uuid.UUID
	Date         time.Time
	StartTime    string
	PatientName  string
	PatientRUT   string
	PatientEmail string
	PatientPhone string
	Address      string
	Notes        string
}

type BookingConfirmation struct {
	Detail    AppointmentDetail
	CancelURL string
}

// CreateBooking validates and atomically creates a pending appointment. The
// capacity and duplicate checks run inside a per-(date, startTime) lock so
// two concurrent requests for the same slot cannot both pass them; the
// partial unique index on (patient_rut, date) backstops the duplicate check.
func (s *Service) CreateBooking(ctx context.Context, in CreateBookingInput) (*BookingConfirmation, error) {
	if in.ServiceID == uuid.Nil || in.Date.IsZero() || in.StartTime == "" ||
		strings.TrimSpace(in.PatientName) == "" || strings.TrimSpace(in.PatientRUT) == "" ||
		strings.TrimSpace(in.PatientEmail) == "" {
		return nil, validationError("Todos los campos obligatorios deben ser completados")
	}
	if !ValidateRUT(in.PatientRUT) {
		return nil, identifierError("El RUT ingresado no es válido")
	}
	email := strings.ToLower(strings.TrimSpace(in.PatientEmail))
	if !emailPattern.MatchString(email) {
		return nil, validationError("El correo electrónico no es válido")
	}
	if _, err := minuteOfDay(in.StartTime); err != nil {
		return nil, validationError("Hora inválida (formato HH:MM)")
	}

	svc, err := s.repo.GetServiceInfo(ctx, in.ServiceID)
	if err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			return nil, notFoundError("El servicio seleccionado no está disponible")
		}
		return nil, fmt.Errorf("load service: %w", err)
	}
	if !svc.IsActive {
		return nil, notFoundError("El servicio seleccionado no está disponible")
	}

	endTime, err := AddMinutes(in.StartTime, svc.DurationMinutes)
	if err != nil {
		return nil, validationError("Hora inválida (formato HH:MM)")
	}

	token, err := newCancelToken()
	if err != nil {
		return nil, fmt.Errorf("generate cancel token: %w", err)
	}

	date := Midnight(in.Date)
	rut := FormatRUT(in.PatientRUT)

	appt := &Appointment{
		ID:           uuid.New(),
		ServiceID:    svc.ID,
		UserID:       in.UserID,
		Date:         date,
		StartTime:    in.StartTime,
		EndTime:      endTime,
		PatientName:  strings.TrimSpace(in.PatientName),
		PatientRUT:   rut,
		PatientEmail: email,
		PatientPhone: optional(in.PatientPhone),
		Address:      optional(in.Address),
		Notes:        optional(in.Notes),
		Status:       StatusPending,
		CancelToken:  token,
	}

	err = s.locker.WithSlotLock(ctx, date.Format("2006-01-02"), in.StartTime, func(lockCtx context.Context) error {
		slots, err := s.generateForDate(lockCtx, date, &svc.ID)
		if err != nil {
			return err
		}
		slot, ok := findSlot(slots, in.StartTime)
		if !ok {
			return conflictError("Este horario ya no está disponible. Por favor, selecciona otro.")
		}

		booked, err := s.repo.CountActiveAt(lockCtx, date, in.StartTime)
		if err != nil {
			return fmt.Errorf("count bookings at slot: %w", err)
		}
		if booked >= slot.MaxBookings {
			return conflictError("Este horario ya no está disponible. Por favor, selecciona otro.")
		}

		taken, err := s.repo.HasActiveForPatient(lockCtx, rut, date)
		if err != nil {
			return fmt.Errorf("check patient bookings: %w", err)
		}
		if taken {
			return conflictError("Ya tienes una cita agendada para este día")
		}

		if err := s.repo.CreateAppointment(lockCtx, appt); err != nil {
			if errors.Is(err, ErrDuplicatePatientDay) {
				return conflictError("Ya tienes una cita agendada para este día")
			}
			return fmt.Errorf("create appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, conflictError("Este horario está siendo reservado, intenta nuevamente")
		}
		return nil, err
	}

	detail := AppointmentDetail{
		Appointment:     *appt,
		ServiceTitle:    svc.Title,
		ServicePrice:    svc.Price,
		ServiceDuration: svc.DurationMinutes,
	}
	cancelURL := s.cancelURL(token)

	s.dispatch("booking_created", func(ctx context.Context) error {
		return s.notifier.BookingCreated(ctx, detail, cancelURL)
	})

	return &BookingConfirmation{Detail: detail, CancelURL: cancelURL}, nil
}

func findSlot(slots []Slot, startTime string) (Slot, bool) {
	for _, s := range slots {
		if s.StartTime == startTime {
			return s, true
		}
	}
	return Slot{}, false
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func (s *Service) cancelURL(token string) string {
	return strings.TrimRight(s.opts.PublicBaseURL, "/") + "/cancelar-cita/" + token
}

// newCancelToken returns a 192-bit random token. The token is a bearer
// credential, so it comes from crypto/rand rather than the uuid generator.
func newCancelToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// dispatch runs a notification outside the request lifecycle. Failures are
// logged and never surfaced to the caller.
func (s *Service) dispatch(event string, fn func(ctx context.Context) error) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.logger.Error().Err(err).Str("event", event).Msg("notification dispatch failed")
		}
	}()
}
