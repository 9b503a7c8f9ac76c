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

// AppointmentHandler serves the staff and admin appointment surface.
type AppointmentHandler struct {
	svc    *booking.Service
	logger zerolog.Logger
}

func NewAppointmentHandler(svc *booking.Service, logger zerolog.Logger) *AppointmentHandler {
	return &AppointmentHandler{svc: svc, logger: logger}
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "El identificador no es válido")
		return uuid.Nil, false
	}
	return id, true
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := booking.ListFilter{Search: q.Get("search")}

	if v := q.Get("status"); v != "" {
		status := booking.Status(v)
		if !status.Valid() {
			badRequest(w, "Estado inválido")
			return
		}
		filter.Status = &status
	}
	if v := q.Get("date"); v != "" {
		date, ok := parseDate(v)
		if !ok {
			badRequest(w, "Fecha inválida (formato YYYY-MM-DD)")
			return
		}
		filter.Date = &date
	}
	if v := q.Get("serviceId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			badRequest(w, "El servicio indicado no es válido")
			return
		}
		filter.ServiceID = &id
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	details, total, err := h.svc.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	writePage(w, toAppointmentResponses(details), NewPagination(page, limit, total))
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	detail, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, toAppointmentResponse(*detail))
}

func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	detail, err := h.svc.SetStatus(r.Context(), id, booking.Status(req.Status))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, toAppointmentResponse(*detail), "Estado actualizado")
}

func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateAppointmentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	upd := booking.AppointmentUpdate{
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		PatientName:  req.PatientName,
		PatientEmail: req.PatientEmail,
		PatientPhone: req.PatientPhone,
		Address:      req.Address,
		Notes:        req.Notes,
	}
	if req.Date != nil {
		date, ok := parseDate(*req.Date)
		if !ok {
			badRequest(w, "Fecha inválida (formato YYYY-MM-DD)")
			return
		}
		upd.Date = &date
	}

	detail, err := h.svc.Update(r.Context(), id, upd)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, toAppointmentResponse(*detail), "Cita actualizada")
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, nil, "Cita eliminada")
}

func (h *AppointmentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, stats)
}

// Mine lists the authenticated user's own appointments.
func (h *AppointmentHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, envelope{Success: false, Message: "Autenticación requerida"})
		return
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, envelope{Success: false, Message: "Token inválido o expirado"})
		return
	}

	details, err := h.svc.ListMine(r.Context(), userID, claims.Subject)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, toAppointmentResponses(details))
}

// Day lists confirmed appointments for a single date, defaulting to today.
func (h *AppointmentHandler) Day(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	date := time.Now()
	if dateStr != "" {
		parsed, ok := parseDate(dateStr)
		if !ok {
			badRequest(w, "Fecha inválida (formato YYYY-MM-DD)")
			return
		}
		date = parsed
	}

	filter := booking.ListFilter{Date: &date, Limit: 100}
	details, _, err := h.svc.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, toAppointmentResponses(details))
}
