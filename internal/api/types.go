package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/centrobenavente/booking-server/internal/booking"
)

type CreateBookingRequest struct {
	ServiceID    string `json:"serviceId"`
	Date         string `json:"date"`
	StartTime    string `json:"startTime"`
	PatientName  string `json:"patientName"`
	PatientRUT   string `json:"patientRut"`
	PatientEmail string `json:"patientEmail"`
	PatientPhone string `json:"patientPhone"`
	Address      string `json:"address"`
	Notes        string `json:"notes"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type UpdateAppointmentRequest struct {
	Date         *string `json:"date"`
	StartTime    *string `json:"startTime"`
	EndTime      *string `json:"endTime"`
	PatientName  *string `json:"patientName"`
	PatientEmail *string `json:"patientEmail"`
	PatientPhone *string `json:"patientPhone"`
	Address      *string `json:"address"`
	Notes        *string `json:"notes"`
}

type RuleRequest struct {
	DayOfWeek    int     `json:"dayOfWeek"`
	StartTime    string  `json:"startTime"`
	EndTime      string  `json:"endTime"`
	SlotMinutes  int     `json:"slotDuration"`
	MaxBookings  int     `json:"maxBookings"`
	ResourceType *string `json:"resourceType"`
	ServiceID    *string `json:"serviceId"`
	IsActive     *bool   `json:"isActive"`
}

type BlockedDateRequest struct {
	Date      string  `json:"date"`
	IsFullDay *bool   `json:"isFullDay"`
	StartTime *string `json:"startTime"`
	EndTime   *string `json:"endTime"`
	Reason    string  `json:"reason"`
}

type ServiceRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	ShortDescription string `json:"shortDescription"`
	Icon             string `json:"icon"`
	Price            int    `json:"price"`
	PriceType        string `json:"priceType"`
	DurationMinutes  int    `json:"duration"`
	ResourceType     string `json:"resourceType"`
	IsActive         *bool  `json:"isActive"`
	DisplayOrder     int    `json:"order"`
}

type ReorderRequest struct {
	Orders []struct {
		ID           string `json:"id"`
		DisplayOrder int    `json:"order"`
	} `json:"orders"`
}

type ContentRequest struct {
	Value string `json:"value"`
}

type TeamMemberRequest struct {
	Name         string   `json:"name"`
	Position     string   `json:"position"`
	Bio          string   `json:"bio"`
	Specialties  []string `json:"specialties"`
	PhotoURL     string   `json:"photoUrl"`
	DisplayOrder int      `json:"order"`
	IsActive     *bool    `json:"isActive"`
}

type ReviewRequest struct {
	Name    string `json:"name"`
	Role    string `json:"role"`
	Content string `json:"content"`
	Rating  int    `json:"rating"`
}

type ModerateReviewRequest struct {
	IsApproved *bool   `json:"isApproved"`
	IsFeatured *bool   `json:"isFeatured"`
	Rating     *int    `json:"rating"`
	Content    *string `json:"content"`
}

type ContactRequest struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   *string `json:"phone"`
	Message string  `json:"message"`
}

// AppointmentResponse flattens an appointment and its service for the client.
type AppointmentResponse struct {
	ID           uuid.UUID      `json:"id"`
	ServiceID    uuid.UUID      `json:"serviceId"`
	ServiceTitle string         `json:"serviceTitle"`
	ServicePrice int            `json:"servicePrice"`
	Date         string         `json:"date"`
	StartTime    string         `json:"startTime"`
	EndTime      string         `json:"endTime"`
	PatientName  string         `json:"patientName"`
	PatientRUT   string         `json:"patientRut"`
	PatientEmail string         `json:"patientEmail"`
	PatientPhone *string        `json:"patientPhone"`
	Address      *string        `json:"address"`
	Notes        *string        `json:"notes"`
	Status       booking.Status `json:"status"`
	ConfirmedAt  *time.Time     `json:"confirmedAt,omitempty"`
	CancelledAt  *time.Time     `json:"cancelledAt,omitempty"`
	CancelReason *string        `json:"cancelReason,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

func toAppointmentResponse(d booking.AppointmentDetail) AppointmentResponse {
	return AppointmentResponse{
		ID:           d.ID,
		ServiceID:    d.ServiceID,
		ServiceTitle: d.ServiceTitle,
		ServicePrice: d.ServicePrice,
		Date:         d.Date.Format("2006-01-02"),
		StartTime:    d.StartTime,
		EndTime:      d.EndTime,
		PatientName:  d.PatientName,
		PatientRUT:   d.PatientRUT,
		PatientEmail: d.PatientEmail,
		PatientPhone: d.PatientPhone,
		Address:      d.Address,
		Notes:        d.Notes,
		Status:       d.Status,
		ConfirmedAt:  d.ConfirmedAt,
		CancelledAt:  d.CancelledAt,
		CancelReason: d.CancelReason,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func toAppointmentResponses(details []booking.AppointmentDetail) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(details))
	for _, d := range details {
		out = append(out, toAppointmentResponse(d))
	}
	return out
}

type RuleResponse struct {
	ID           uuid.UUID  `json:"id"`
	DayOfWeek    int        `json:"dayOfWeek"`
	StartTime    string     `json:"startTime"`
	EndTime      string     `json:"endTime"`
	SlotMinutes  int        `json:"slotDuration"`
	MaxBookings  int        `json:"maxBookings"`
	ResourceType *string    `json:"resourceType"`
	ServiceID    *uuid.UUID `json:"serviceId"`
	IsActive     bool       `json:"isActive"`
}

func toRuleResponse(r booking.AvailabilityRule) RuleResponse {
	return RuleResponse{
		ID:           r.ID,
		DayOfWeek:    r.DayOfWeek,
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		SlotMinutes:  r.SlotMinutes,
		MaxBookings:  r.MaxBookings,
		ResourceType: r.ResourceType,
		ServiceID:    r.ServiceID,
		IsActive:     r.IsActive,
	}
}

type BlockedDateResponse struct {
	ID        uuid.UUID `json:"id"`
	Date      string    `json:"date"`
	IsFullDay bool      `json:"isFullDay"`
	StartTime *string   `json:"startTime"`
	EndTime   *string   `json:"endTime"`
	Reason    string    `json:"reason"`
}

func toBlockedDateResponse(bd booking.BlockedDate) BlockedDateResponse {
	return BlockedDateResponse{
		ID:        bd.ID,
		Date:      bd.Date.Format("2006-01-02"),
		IsFullDay: bd.IsFullDay,
		StartTime: bd.StartTime,
		EndTime:   bd.EndTime,
		Reason:    bd.Reason,
	}
}
