package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrServiceNotFound     = errors.New("service not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrRuleNotFound        = errors.New("availability rule not found")
	ErrBlockedDateNotFound = errors.New("blocked date not found")

	// ErrDuplicatePatientDay surfaces the partial unique index on
	// (patient_rut, date); it is the arbiter for concurrent duplicate
	// bookings by the same patient.
	ErrDuplicatePatientDay = errors.New("patient already has an active appointment that day")
)

// ListFilter narrows the staff appointment listing.
type ListFilter struct {
	Status    *Status
	Date      *time.Time
	ServiceID *uuid.UUID
	Search    string // matches patient name, RUT, email or phone
	Page      int
	Limit     int
}

// AppointmentUpdate carries the admin-editable fields. Status is
// deliberately absent: transitions go through the lifecycle controller.
type AppointmentUpdate struct {
	Date         *time.Time
	StartTime    *string
	EndTime      *string
	PatientName  *string
	PatientEmail *string
	PatientPhone *string
	Address      *string
	Notes        *string
}

// StatusStamp holds the timestamps written alongside a transition.
type StatusStamp struct {
	ConfirmedAt  *time.Time
	CancelledAt  *time.Time
	CancelReason *string
}

type Stats struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"byStatus"`
	Today    int            `json:"today"`
	Upcoming int            `json:"upcoming"`
}

// Repository contains all DB interactions needed by the booking service.
type Repository interface {
	GetServiceInfo(ctx context.Context, id uuid.UUID) (*ServiceInfo, error)

	// Slot inputs
	ListRulesForDay(ctx context.Context, dayOfWeek int, serviceID *uuid.UUID) ([]AvailabilityRule, error)
	ListActiveRules(ctx context.Context, serviceID *uuid.UUID) ([]AvailabilityRule, error)
	GetBlockedDate(ctx context.Context, date time.Time) (*BlockedDate, error)
	ListBlockedBetween(ctx context.Context, from, to time.Time) ([]BlockedDate, error)

	// Availability and conflict checks
	CountActiveBySlot(ctx context.Context, date time.Time, serviceID *uuid.UUID) (map[string]int, error)
	CountActiveAt(ctx context.Context, date time.Time, startTime string) (int, error)
	HasActiveForPatient(ctx context.Context, rut string, date time.Time) (bool, error)

	// Creation and lifecycle
	CreateAppointment(ctx context.Context, appt *Appointment) error
	GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error)
	GetAppointmentByToken(ctx context.Context, token string) (*AppointmentDetail, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status, stamp StatusStamp) (*Appointment, error)
	UpdateAppointment(ctx context.Context, id uuid.UUID, upd AppointmentUpdate) (*AppointmentDetail, error)
	DeleteAppointment(ctx context.Context, id uuid.UUID) error

	// Queries
	SearchByPatient(ctx context.Context, rut, email string, limit int) ([]AppointmentDetail, error)
	ListAppointments(ctx context.Context, f ListFilter) ([]AppointmentDetail, int, error)
	ListForUser(ctx context.Context, userID uuid.UUID, email string) ([]AppointmentDetail, error)
	ListConfirmedForDate(ctx context.Context, date time.Time) ([]AppointmentDetail, error)
	AppointmentStats(ctx context.Context) (*Stats, error)

	// Schedule administration
	CreateRule(ctx context.Context, rule *AvailabilityRule) error
	ListRules(ctx context.Context) ([]AvailabilityRule, error)
	UpdateRule(ctx context.Context, rule *AvailabilityRule) error
	DeleteRule(ctx context.Context, id uuid.UUID) error
	CreateBlockedDate(ctx context.Context, bd *BlockedDate) error
	ListBlockedDates(ctx context.Context, from time.Time) ([]BlockedDate, error)
	DeleteBlockedDate(ctx context.Context, id uuid.UUID) error
}
