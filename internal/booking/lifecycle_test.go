package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centrobenavente/booking-server/internal/apperr"
)

func addAppointment(repo *mockRepo, status Status, date time.Time, startTime string) *AppointmentDetail {
	d := &AppointmentDetail{
		Appointment: Appointment{
			ID:           uuid.New(),
			ServiceID:    uuid.New(),
			Date:         date,
			StartTime:    startTime,
			EndTime:      "13:00",
			PatientName:  "María Pérez",
			PatientRUT:   "12.345.678-5",
			PatientEmail: "maria@example.com",
			Status:       status,
			CancelToken:  "tok-" + uuid.NewString(),
		},
		ServiceTitle: "Curaciones Simples",
	}
	repo.appointments[d.ID] = d
	repo.byToken[d.CancelToken] = d
	return d
}

func TestSetStatusLegalTransitions(t *testing.T) {
	legal := []struct {
		from, to Status
	}{
		{StatusPending, StatusConfirmed},
		{StatusPending, StatusCancelled},
		{StatusPending, StatusNoShow},
		{StatusConfirmed, StatusInProgress},
		{StatusConfirmed, StatusCancelled},
		{StatusConfirmed, StatusNoShow},
		{StatusInProgress, StatusCompleted},
		{StatusInProgress, StatusNoShow},
	}

	for _, tc := range legal {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			repo := newMockRepo()
			svc := newTestService(repo, &fakeLocker{})
			appt := addAppointment(repo, tc.from, monday, "12:00")

			updated, err := svc.SetStatus(context.Background(), appt.ID, tc.to)
			require.NoError(t, err)
			assert.Equal(t, tc.to, updated.Status)
		})
	}
}

func TestSetStatusIllegalTransitions(t *testing.T) {
	illegal := []struct {
		from, to Status
	}{
		{StatusPending, StatusCompleted},
		{StatusPending, StatusInProgress},
		{StatusConfirmed, StatusCompleted},
		{StatusCompleted, StatusPending},
		{StatusCancelled, StatusConfirmed},
		{StatusNoShow, StatusPending},
		{StatusInProgress, StatusCancelled},
	}

	for _, tc := range illegal {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			repo := newMockRepo()
			svc := newTestService(repo, &fakeLocker{})
			appt := addAppointment(repo, tc.from, monday, "12:00")

			_, err := svc.SetStatus(context.Background(), appt.ID, tc.to)
			assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
		})
	}
}

func TestSetStatusInvalidStatus(t *testing.T) {
	svc := newTestService(newMockRepo(), &fakeLocker{})

	_, err := svc.SetStatus(context.Background(), uuid.New(), Status("archived"))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestSetStatusNotFound(t *testing.T) {
	svc := newTestService(newMockRepo(), &fakeLocker{})

	_, err := svc.SetStatus(context.Background(), uuid.New(), StatusConfirmed)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestSetStatusConfirmStampsTimestamp(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &fakeLocker{})
	appt := addAppointment(repo, StatusPending, monday, "12:00")

	updated, err := svc.SetStatus(context.Background(), appt.ID, StatusConfirmed)
	require.NoError(t, err)
	require.NotNil(t, updated.ConfirmedAt)
	assert.Equal(t, testNow, *updated.ConfirmedAt)
}

func TestSetStatusCancelStampsReason(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &fakeLocker{})
	appt := addAppointment(repo, StatusPending, monday, "12:00")

	updated, err := svc.SetStatus(context.Background(), appt.ID, StatusCancelled)
	require.NoError(t, err)
	require.NotNil(t, updated.CancelledAt)
	require.NotNil(t, updated.CancelReason)
	assert.Equal(t, "Cancelada por administrador", *updated.CancelReason)
}

func TestCancelByToken(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &fakeLocker{})
	appt := addAppointment(repo, StatusConfirmed, monday, "12:00")

	updated, err := svc.CancelByToken(context.Background(), appt.CancelToken, "")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, updated.Status)
	require.NotNil(t, updated.CancelReason)
	assert.Equal(t, "Cancelada por el paciente", *updated.CancelReason)
}

func TestCancelByTokenCustomReason(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &fakeLocker{})
	appt := addAppointment(repo, StatusPending, monday, "12:00")

	updated, err := svc.CancelByToken(context.Background(), appt.CancelToken, "Viaje imprevisto")
	require.NoError(t, err)
	require.NotNil(t, updated.CancelReason)
	assert.Equal(t, "Viaje imprevisto", *updated.CancelReason)
}

func TestCancelByTokenLeadTime(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &fakeLocker{})
	// Appointment today at 11:00, one hour from testNow (10:00).
	appt := addAppointment(repo, StatusConfirmed, testNow, "11:00")

	_, err := svc.CancelByToken(context.Background(), appt.CancelToken, "")
	assert.Equal(t, apperr.KindPolicy, apperr.KindOf(err))
}

func TestCancelByTokenAlreadyCancelled(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &fakeLocker{})
	appt := addAppointment(repo, StatusCancelled, monday, "12:00")

	_, err := svc.CancelByToken(context.Background(), appt.CancelToken, "")
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
}

func TestCancelByTokenUnknownToken(t *testing.T) {
	svc := newTestService(newMockRepo(), &fakeLocker{})

	_, err := svc.CancelByToken(context.Background(), "no-such-token", "")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestSearchByIdentifierRequiresInput(t *testing.T) {
	svc := newTestService(newMockRepo(), &fakeLocker{})

	_, err := svc.SearchByIdentifier(context.Background(), "", "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestSearchByIdentifierRejectsBadRUT(t *testing.T) {
	svc := newTestService(newMockRepo(), &fakeLocker{})

	_, err := svc.SearchByIdentifier(context.Background(), "12345678-9", "")
	assert.Equal(t, apperr.KindInvalidIdentifier, apperr.KindOf(err))
}

func TestSearchByIdentifierNormalizesInput(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &fakeLocker{})

	_, err := svc.SearchByIdentifier(context.Background(), "12345678-5", "  Maria@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "12.345.678-5", repo.searchRUT)
	assert.Equal(t, "maria@example.com", repo.searchEmail)
}

func TestSearchByIdentifierHidesTokenFromTerminalRows(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &fakeLocker{})
	repo.searchResults = []AppointmentDetail{
		{Appointment: Appointment{ID: uuid.New(), Date: monday, StartTime: "10:00", EndTime: "11:00", Status: StatusConfirmed, CancelToken: "secret-1"}, ServiceTitle: "A"},
		{Appointment: Appointment{ID: uuid.New(), Date: monday, StartTime: "12:00", EndTime: "13:00", Status: StatusCompleted, CancelToken: "secret-2"}, ServiceTitle: "B"},
	}

	results, err := svc.SearchByIdentifier(context.Background(), "12345678-5", "")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, results[0].CanCancel)
	require.NotNil(t, results[0].CancelURL)
	assert.Contains(t, *results[0].CancelURL, "secret-1")

	assert.False(t, results[1].CanCancel)
	assert.Nil(t, results[1].CancelURL)
}

func TestUpdateValidatesFields(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &fakeLocker{})
	appt := addAppointment(repo, StatusPending, monday, "12:00")

	badTime := "25:99"
	_, err := svc.Update(context.Background(), appt.ID, AppointmentUpdate{StartTime: &badTime})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	badEmail := "nope"
	_, err = svc.Update(context.Background(), appt.ID, AppointmentUpdate{PatientEmail: &badEmail})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestUpdateNormalizesEmail(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &fakeLocker{})
	appt := addAppointment(repo, StatusPending, monday, "12:00")

	email := " NEW@Example.com "
	updated, err := svc.Update(context.Background(), appt.ID, AppointmentUpdate{PatientEmail: &email})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.PatientEmail)
}

func TestCreateRuleValidation(t *testing.T) {
	svc := newTestService(newMockRepo(), &fakeLocker{})

	tests := []struct {
		name string
		rule AvailabilityRule
	}{
		{"bad day", AvailabilityRule{DayOfWeek: 7, StartTime: "09:00", EndTime: "10:00", SlotMinutes: 60}},
		{"bad start", AvailabilityRule{DayOfWeek: 1, StartTime: "xx", EndTime: "10:00", SlotMinutes: 60}},
		{"inverted window", AvailabilityRule{DayOfWeek: 1, StartTime: "12:00", EndTime: "10:00", SlotMinutes: 60}},
		{"zero slot", AvailabilityRule{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00", SlotMinutes: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := tt.rule
			err := svc.CreateRule(context.Background(), &rule)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestCreateRuleDefaultsCapacity(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &fakeLocker{})

	rule := AvailabilityRule{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00", SlotMinutes: 60}
	require.NoError(t, svc.CreateRule(context.Background(), &rule))
	assert.Equal(t, 1, rule.MaxBookings)
}

func TestCreateBlockedDatePartialRequiresWindow(t *testing.T) {
	svc := newTestService(newMockRepo(), &fakeLocker{})

	bd := BlockedDate{Date: monday, IsFullDay: false}
	err := svc.CreateBlockedDate(context.Background(), &bd)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	start, end := "12:00", "10:00"
	bd = BlockedDate{Date: monday, IsFullDay: false, StartTime: &start, EndTime: &end}
	err = svc.CreateBlockedDate(context.Background(), &bd)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
