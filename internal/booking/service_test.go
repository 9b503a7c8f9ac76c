package booking

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centrobenavente/booking-server/internal/apperr"
	redisclient "github.com/centrobenavente/booking-server/internal/redis"
)

// mockRepo is an in-memory Repository for service tests.
type mockRepo struct {
	services      map[uuid.UUID]*ServiceInfo
	rules         []AvailabilityRule
	blocked       map[string]*BlockedDate
	countAt       map[string]int  // "date|start" -> active bookings
	patientActive map[string]bool // "rut|date"
	appointments  map[uuid.UUID]*AppointmentDetail
	byToken       map[string]*AppointmentDetail
	created       []*Appointment
	confirmed     []AppointmentDetail
	searchRUT     string
	searchEmail   string
	searchResults []AppointmentDetail

	createErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		services:      make(map[uuid.UUID]*ServiceInfo),
		blocked:       make(map[string]*BlockedDate),
		countAt:       make(map[string]int),
		patientActive: make(map[string]bool),
		appointments:  make(map[uuid.UUID]*AppointmentDetail),
		byToken:       make(map[string]*AppointmentDetail),
	}
}

func slotKey(date time.Time, start string) string {
	return date.Format("2006-01-02") + "|" + start
}

func (m *mockRepo) GetServiceInfo(_ context.Context, id uuid.UUID) (*ServiceInfo, error) {
	svc, ok := m.services[id]
	if !ok {
		return nil, ErrServiceNotFound
	}
	return svc, nil
}

func (m *mockRepo) ListRulesForDay(_ context.Context, dayOfWeek int, _ *uuid.UUID) ([]AvailabilityRule, error) {
	var out []AvailabilityRule
	for _, r := range m.rules {
		if r.DayOfWeek == dayOfWeek {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRepo) ListActiveRules(_ context.Context, _ *uuid.UUID) ([]AvailabilityRule, error) {
	var out []AvailabilityRule
	for _, r := range m.rules {
		if r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRepo) GetBlockedDate(_ context.Context, date time.Time) (*BlockedDate, error) {
	return m.blocked[date.Format("2006-01-02")], nil
}

func (m *mockRepo) ListBlockedBetween(_ context.Context, from, to time.Time) ([]BlockedDate, error) {
	var out []BlockedDate
	for _, b := range m.blocked {
		if !b.Date.Before(from) && !b.Date.After(to) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockRepo) CountActiveBySlot(_ context.Context, date time.Time, _ *uuid.UUID) (map[string]int, error) {
	out := make(map[string]int)
	prefix := date.Format("2006-01-02") + "|"
	for key, n := range m.countAt {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			out[key[len(prefix):]] = n
		}
	}
	return out, nil
}

func (m *mockRepo) CountActiveAt(_ context.Context, date time.Time, startTime string) (int, error) {
	return m.countAt[slotKey(date, startTime)], nil
}

func (m *mockRepo) HasActiveForPatient(_ context.Context, rut string, date time.Time) (bool, error) {
	return m.patientActive[rut+"|"+date.Format("2006-01-02")], nil
}

func (m *mockRepo) CreateAppointment(_ context.Context, appt *Appointment) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, appt)
	return nil
}

func (m *mockRepo) GetAppointment(_ context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	d, ok := m.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	copied := *d
	return &copied, nil
}

func (m *mockRepo) GetAppointmentByToken(_ context.Context, token string) (*AppointmentDetail, error) {
	d, ok := m.byToken[token]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	copied := *d
	return &copied, nil
}

func (m *mockRepo) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to Status, stamp StatusStamp) (*Appointment, error) {
	d, ok := m.appointments[id]
	if !ok || d.Status != from {
		return nil, ErrAppointmentNotFound
	}
	d.Status = to
	if stamp.ConfirmedAt != nil {
		d.ConfirmedAt = stamp.ConfirmedAt
	}
	if stamp.CancelledAt != nil {
		d.CancelledAt = stamp.CancelledAt
	}
	if stamp.CancelReason != nil {
		d.CancelReason = stamp.CancelReason
	}
	copied := d.Appointment
	return &copied, nil
}

func (m *mockRepo) UpdateAppointment(_ context.Context, id uuid.UUID, upd AppointmentUpdate) (*AppointmentDetail, error) {
	d, ok := m.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if upd.PatientName != nil {
		d.PatientName = *upd.PatientName
	}
	if upd.PatientEmail != nil {
		d.PatientEmail = *upd.PatientEmail
	}
	if upd.StartTime != nil {
		d.StartTime = *upd.StartTime
	}
	copied := *d
	return &copied, nil
}

func (m *mockRepo) DeleteAppointment(_ context.Context, id uuid.UUID) error {
	if _, ok := m.appointments[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(m.appointments, id)
	return nil
}

func (m *mockRepo) SearchByPatient(_ context.Context, rut, email string, _ int) ([]AppointmentDetail, error) {
	m.searchRUT = rut
	m.searchEmail = email
	return m.searchResults, nil
}

func (m *mockRepo) ListAppointments(_ context.Context, _ ListFilter) ([]AppointmentDetail, int, error) {
	var out []AppointmentDetail
	for _, d := range m.appointments {
		out = append(out, *d)
	}
	return out, len(out), nil
}

func (m *mockRepo) ListForUser(_ context.Context, _ uuid.UUID, _ string) ([]AppointmentDetail, error) {
	return nil, nil
}

func (m *mockRepo) ListConfirmedForDate(_ context.Context, _ time.Time) ([]AppointmentDetail, error) {
	return m.confirmed, nil
}

func (m *mockRepo) AppointmentStats(_ context.Context) (*Stats, error) {
	return &Stats{Total: len(m.appointments)}, nil
}

func (m *mockRepo) CreateRule(_ context.Context, rule *AvailabilityRule) error {
	rule.ID = uuid.New()
	m.rules = append(m.rules, *rule)
	return nil
}

func (m *mockRepo) ListRules(_ context.Context) ([]AvailabilityRule, error) {
	return m.rules, nil
}

func (m *mockRepo) UpdateRule(_ context.Context, rule *AvailabilityRule) error {
	for i := range m.rules {
		if m.rules[i].ID == rule.ID {
			m.rules[i] = *rule
			return nil
		}
	}
	return ErrRuleNotFound
}

func (m *mockRepo) DeleteRule(_ context.Context, id uuid.UUID) error {
	for i := range m.rules {
		if m.rules[i].ID == id {
			m.rules = append(m.rules[:i], m.rules[i+1:]...)
			return nil
		}
	}
	return ErrRuleNotFound
}

func (m *mockRepo) CreateBlockedDate(_ context.Context, bd *BlockedDate) error {
	bd.ID = uuid.New()
	m.blocked[bd.Date.Format("2006-01-02")] = bd
	return nil
}

func (m *mockRepo) ListBlockedDates(_ context.Context, _ time.Time) ([]BlockedDate, error) {
	var out []BlockedDate
	for _, b := range m.blocked {
		out = append(out, *b)
	}
	return out, nil
}

func (m *mockRepo) DeleteBlockedDate(_ context.Context, id uuid.UUID) error {
	for key, b := range m.blocked {
		if b.ID == id {
			delete(m.blocked, key)
			return nil
		}
	}
	return ErrBlockedDateNotFound
}

// fakeLocker runs the critical section inline.
type fakeLocker struct {
	contended bool
	lastDate  string
	lastStart string
}

func (l *fakeLocker) WithSlotLock(ctx context.Context, date, startTime string, fn func(ctx context.Context) error) error {
	l.lastDate = date
	l.lastStart = startTime
	if l.contended {
		return redisclient.ErrLockNotAcquired
	}
	return fn(ctx)
}

// testNow is a Tuesday morning; bookings in tests target the following
// Monday unless stated otherwise.
var testNow = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

func newTestService(repo *mockRepo, locker *fakeLocker) *Service {
	svc := NewService(repo, locker, nil, nil, zerolog.Nop(), Options{
		Fallback:       testFallback,
		CancelLeadTime: 2 * time.Hour,
		PublicBaseURL:  "https://centrobenavente.cl",
	})
	svc.now = func() time.Time { return testNow }
	return svc
}

func addService(repo *mockRepo, duration int, active bool) uuid.UUID {
	id := uuid.New()
	repo.services[id] = &ServiceInfo{
		ID:              id,
		Title:           "Curaciones Simples",
		Price:           15000,
		DurationMinutes: duration,
		ResourceType:    "nurse",
		IsActive:        active,
	}
	return id
}

func validInput(serviceID uuid.UUID) CreateBookingInput {
	return CreateBookingInput{
		ServiceID:    serviceID,
		Date:         monday,
		StartTime:    "10:00",
		PatientName:  "María Pérez",
		PatientRUT:   "12345678-5",
		PatientEmail: "maria@example.com",
		PatientPhone: "+56911112222",
	}
}

func TestResolveAvailabilityPastDate(t *testing.T) {
	svc := newTestService(newMockRepo(), &fakeLocker{})

	day, err := svc.ResolveAvailability(context.Background(), testNow.AddDate(0, 0, -1), nil)
	require.NoError(t, err)
	require.NotNil(t, day.Reason)
	assert.Equal(t, "past", *day.Reason)
	assert.Empty(t, day.Slots)
}

func TestResolveAvailabilityCountsBookings(t *testing.T) {
	repo := newMockRepo()
	repo.countAt[slotKey(monday, "08:00")] = 1
	svc := newTestService(repo, &fakeLocker{})

	day, err := svc.ResolveAvailability(context.Background(), monday, nil)
	require.NoError(t, err)
	require.Len(t, day.Slots, 10)

	assert.False(t, day.Slots[0].Available)
	assert.Equal(t, 1, day.Slots[0].BookingsCount)
	assert.True(t, day.Slots[1].Available)
}

func TestResolveAvailabilitySameDayElapsedSlots(t *testing.T) {
	svc := newTestService(newMockRepo(), &fakeLocker{})

	day, err := svc.ResolveAvailability(context.Background(), testNow, nil)
	require.NoError(t, err)

	for _, slot := range day.Slots {
		if slot.StartTime <= "10:00" {
			assert.False(t, slot.Available, "slot %s already started", slot.StartTime)
		} else {
			assert.True(t, slot.Available, "slot %s is still open", slot.StartTime)
		}
	}
}

func TestCreateBookingSuccess(t *testing.T) {
	repo := newMockRepo()
	locker := &fakeLocker{}
	serviceID := addService(repo, 45, true)
	svc := newTestService(repo, locker)

	conf, err := svc.CreateBooking(context.Background(), validInput(serviceID))
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	appt := repo.created[0]
	assert.Equal(t, StatusPending, appt.Status)
	assert.Equal(t, "12.345.678-5", appt.PatientRUT)
	assert.Equal(t, "10:00", appt.StartTime)
	assert.Equal(t, "10:45", appt.EndTime)
	assert.NotEmpty(t, appt.CancelToken)

	assert.Equal(t, "2026-09-07", locker.lastDate)
	assert.Equal(t, "10:00", locker.lastStart)

	assert.Contains(t, conf.CancelURL, "https://centrobenavente.cl/cancelar-cita/")
	assert.Contains(t, conf.CancelURL, appt.CancelToken)
	assert.Equal(t, "Curaciones Simples", conf.Detail.ServiceTitle)
}

func TestCreateBookingMissingFields(t *testing.T) {
	repo := newMockRepo()
	serviceID := addService(repo, 60, true)
	svc := newTestService(repo, &fakeLocker{})

	in := validInput(serviceID)
	in.PatientName = ""

	_, err := svc.CreateBooking(context.Background(), in)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCreateBookingInvalidRUT(t *testing.T) {
	repo := newMockRepo()
	serviceID := addService(repo, 60, true)
	svc := newTestService(repo, &fakeLocker{})

	in := validInput(serviceID)
	in.PatientRUT = "12345678-9"

	_, err := svc.CreateBooking(context.Background(), in)
	assert.Equal(t, apperr.KindInvalidIdentifier, apperr.KindOf(err))
}

func TestCreateBookingInvalidEmail(t *testing.T) {
	repo := newMockRepo()
	serviceID := addService(repo, 60, true)
	svc := newTestService(repo, &fakeLocker{})

	in := validInput(serviceID)
	in.PatientEmail = "not-an-email"

	_, err := svc.CreateBooking(context.Background(), in)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCreateBookingInactiveService(t *testing.T) {
	repo := newMockRepo()
	serviceID := addService(repo, 60, false)
	svc := newTestService(repo, &fakeLocker{})

	_, err := svc.CreateBooking(context.Background(), validInput(serviceID))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCreateBookingUnknownService(t *testing.T) {
	svc := newTestService(newMockRepo(), &fakeLocker{})

	_, err := svc.CreateBooking(context.Background(), validInput(uuid.New()))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCreateBookingSlotNotInSchedule(t *testing.T) {
	repo := newMockRepo()
	serviceID := addService(repo, 60, true)
	svc := newTestService(repo, &fakeLocker{})

	in := validInput(serviceID)
	in.StartTime = "23:00"

	_, err := svc.CreateBooking(context.Background(), in)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Empty(t, repo.created)
}

func TestCreateBookingSlotFull(t *testing.T) {
	repo := newMockRepo()
	serviceID := addService(repo, 60, true)
	repo.countAt[slotKey(monday, "10:00")] = 1 // fallback capacity is 1
	svc := newTestService(repo, &fakeLocker{})

	_, err := svc.CreateBooking(context.Background(), validInput(serviceID))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Empty(t, repo.created)
}

func TestCreateBookingPatientAlreadyBooked(t *testing.T) {
	repo := newMockRepo()
	serviceID := addService(repo, 60, true)
	repo.patientActive["12.345.678-5|2026-09-07"] = true
	svc := newTestService(repo, &fakeLocker{})

	_, err := svc.CreateBooking(context.Background(), validInput(serviceID))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Empty(t, repo.created)
}

func TestCreateBookingDuplicateRace(t *testing.T) {
	repo := newMockRepo()
	serviceID := addService(repo, 60, true)
	repo.createErr = ErrDuplicatePatientDay
	svc := newTestService(repo, &fakeLocker{})

	_, err := svc.CreateBooking(context.Background(), validInput(serviceID))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestCreateBookingLockContention(t *testing.T) {
	repo := newMockRepo()
	serviceID := addService(repo, 60, true)
	svc := newTestService(repo, &fakeLocker{contended: true})

	_, err := svc.CreateBooking(context.Background(), validInput(serviceID))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Empty(t, repo.created)
}

func TestMonthAvailability(t *testing.T) {
	repo := newMockRepo()
	blockedDay := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	repo.blocked["2026-09-10"] = &BlockedDate{ID: uuid.New(), Date: blockedDay, IsFullDay: true}
	svc := newTestService(repo, &fakeLocker{})

	view, err := svc.MonthAvailability(context.Background(), 2026, 9, nil)
	require.NoError(t, err)
	require.Len(t, view.Days, 30)

	byDate := make(map[string]DayAvailability)
	for _, d := range view.Days {
		byDate[d.Date] = d
	}

	require.NotNil(t, byDate["2026-09-10"].Reason)
	assert.Equal(t, "blocked", *byDate["2026-09-10"].Reason)

	// Sunday the 6th has no fallback window.
	require.NotNil(t, byDate["2026-09-06"].Reason)
	assert.Equal(t, "closed", *byDate["2026-09-06"].Reason)

	// The 1st is today, still open; the day before the view starts is past.
	assert.True(t, byDate["2026-09-01"].Available)

	require.NotNil(t, byDate["2026-09-07"])
	assert.True(t, byDate["2026-09-07"].Available)
}

func TestMonthAvailabilityValidation(t *testing.T) {
	svc := newTestService(newMockRepo(), &fakeLocker{})

	_, err := svc.MonthAvailability(context.Background(), 2026, 13, nil)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.MonthAvailability(context.Background(), 1990, 5, nil)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestMonthAvailabilityMarksPastDays(t *testing.T) {
	svc := newTestService(newMockRepo(), &fakeLocker{})

	view, err := svc.MonthAvailability(context.Background(), 2026, 8, nil)
	require.NoError(t, err)

	for _, d := range view.Days {
		assert.False(t, d.Available, "day %s is in the past", d.Date)
		if assert.NotNil(t, d.Reason) {
			assert.Equal(t, "past", *d.Reason)
		}
	}
}

func TestSendRemindersLogsFailuresAndContinues(t *testing.T) {
	repo := newMockRepo()
	repo.confirmed = []AppointmentDetail{
		{Appointment: Appointment{ID: uuid.New(), PatientEmail: "a@example.com"}},
		{Appointment: Appointment{ID: uuid.New(), PatientEmail: "b@example.com"}},
	}

	notifier := &recordingNotifier{failFor: "a@example.com"}
	svc := NewService(repo, &fakeLocker{}, nil, notifier, zerolog.Nop(), Options{Fallback: testFallback})
	svc.now = func() time.Time { return testNow }

	err := svc.SendReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, notifier.reminded)
}

type recordingNotifier struct {
	failFor   string
	reminded  []string
	created   []string
	cancelled []string
}

func (n *recordingNotifier) BookingCreated(_ context.Context, appt AppointmentDetail, _ string) error {
	n.created = append(n.created, appt.PatientEmail)
	return nil
}

func (n *recordingNotifier) BookingCancelled(_ context.Context, appt AppointmentDetail) error {
	n.cancelled = append(n.cancelled, appt.PatientEmail)
	return nil
}

func (n *recordingNotifier) AppointmentReminder(_ context.Context, appt AppointmentDetail) error {
	n.reminded = append(n.reminded, appt.PatientEmail)
	if appt.PatientEmail == n.failFor {
		return fmt.Errorf("gateway down")
	}
	return nil
}
