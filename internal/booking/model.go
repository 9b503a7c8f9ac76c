package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

// ActiveStatuses are the statuses that count against slot capacity.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed, StatusInProgress}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusInProgress
}

// AvailabilityRule is a recurring weekly template of open hours, optionally
// scoped to a resource type or a single service.
type AvailabilityRule struct {
	ID           uuid.UUID
	DayOfWeek    int // 0=Sunday .. 6=Saturday
	StartTime    string
	EndTime      string
	SlotMinutes  int
	MaxBookings  int
	ResourceType *string
	ServiceID    *uuid.UUID
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BlockedDate removes some or all slots on a single date.
type BlockedDate struct {
	ID        uuid.UUID
	Date      time.Time
	IsFullDay bool
	StartTime *string
	EndTime   *string
	Reason    string
	CreatedAt time.Time
}

type Appointment struct {
	ID           uuid.UUID
	ServiceID    uuid.UUID
	UserID       *uuid.UUID // nil for guest bookings
	Date         time.Time  // calendar day, time stripped to midnight
	StartTime    string
	EndTime      string
	PatientName  string
	PatientRUT   string
	PatientEmail string
	PatientPhone *string
	Address      *string
	Notes        *string
	Status       Status
	CancelToken  string
	ConfirmedAt  *time.Time
	CancelledAt  *time.Time
	CancelReason *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AppointmentDetail joins the referenced service for list and detail views.
type AppointmentDetail struct {
	Appointment
	ServiceTitle    string
	ServicePrice    int
	ServiceDuration int
}

// ServiceInfo is the slice of the catalog the booking flow needs.
type ServiceInfo struct {
	ID              uuid.UUID
	Title           string
	Price           int
	DurationMinutes int
	ResourceType    string
	IsActive        bool
}

type Slot struct {
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	MaxBookings int    `json:"maxBookings"`
}

type SlotAvailability struct {
	Slot
	Available     bool `json:"available"`
	BookingsCount int  `json:"bookingsCount"`
}

type DayAvailability struct {
	Date      string  `json:"date"`
	DayOfWeek int     `json:"dayOfWeek"`
	Available bool    `json:"available"`
	Reason    *string `json:"reason"`
}

// minuteOfDay parses an "HH:MM" 24-hour string.
func minuteOfDay(hhmm string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q", hhmm)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", hhmm)
	}
	return h*60 + m, nil
}

func formatMinute(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// AddMinutes advances an "HH:MM" time, carrying across hour boundaries.
func AddMinutes(hhmm string, minutes int) (string, error) {
	m, err := minuteOfDay(hhmm)
	if err != nil {
		return "", err
	}
	return formatMinute(m + minutes), nil
}

// Midnight strips the time-of-day component, used for day matching.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
