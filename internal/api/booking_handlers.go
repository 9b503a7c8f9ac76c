package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/centrobenavente/booking-server/internal/booking"
)

// BookingHandler serves the public booking flow: availability, calendar,
// creation, cancellation by token and patient search.
type BookingHandler struct {
	svc    *booking.Service
	logger zerolog.Logger
}

func NewBookingHandler(svc *booking.Service, logger zerolog.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, logger: logger}
}

func parseDate(value string) (time.Time, bool) {
	date, err := time.Parse("2006-01-02", value)
	return date, err == nil
}

func parseServiceID(value string) (*uuid.UUID, bool) {
	if value == "" {
		return nil, true
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, false
	}
	return &id, true
}

func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request) {
	date, ok := parseDate(r.URL.Query().Get("date"))
	if !ok {
		badRequest(w, "Fecha inválida (formato YYYY-MM-DD)")
		return
	}
	serviceID, ok := parseServiceID(r.URL.Query().Get("serviceId"))
	if !ok {
		badRequest(w, "El servicio indicado no es válido")
		return
	}

	day, err := h.svc.ResolveAvailability(r.Context(), date, serviceID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, day)
}

func (h *BookingHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		badRequest(w, "Año inválido")
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		badRequest(w, "Mes inválido")
		return
	}
	serviceID, ok := parseServiceID(r.URL.Query().Get("serviceId"))
	if !ok {
		badRequest(w, "El servicio indicado no es válido")
		return
	}

	view, err := h.svc.MonthAvailability(r.Context(), year, month, serviceID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, view)
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		badRequest(w, "El servicio indicado no es válido")
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		badRequest(w, "Fecha inválida (formato YYYY-MM-DD)")
		return
	}

	in := booking.CreateBookingInput{
		ServiceID:    serviceID,
		Date:         date,
		StartTime:    req.StartTime,
		PatientName:  req.PatientName,
		PatientRUT:   req.PatientRUT,
		PatientEmail: req.PatientEmail,
		PatientPhone: req.PatientPhone,
		Address:      req.Address,
		Notes:        req.Notes,
	}
	if claims := GetClaims(r.Context()); claims != nil {
		if userID, err := uuid.Parse(claims.UserID); err == nil {
			in.UserID = &userID
		}
	}

	conf, err := h.svc.CreateBooking(r.Context(), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeMessage(w, http.StatusCreated, map[string]any{
		"appointment": toAppointmentResponse(conf.Detail),
		"cancelUrl":   conf.CancelURL,
	}, "Tu cita ha sido agendada. Te enviamos un correo de confirmación.")
}

func (h *BookingHandler) GetByToken(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.GetByToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, toAppointmentResponse(*detail))
}

func (h *BookingHandler) CancelByToken(w http.ResponseWriter, r *http.Request) {
	var req CancelBookingRequest
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}

	detail, err := h.svc.CancelByToken(r.Context(), chi.URLParam(r, "token"), req.Reason)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, toAppointmentResponse(*detail), "Tu cita ha sido cancelada")
}

func (h *BookingHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	results, err := h.svc.SearchByIdentifier(r.Context(), q.Get("rut"), q.Get("email"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, results)
}
