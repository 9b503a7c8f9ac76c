package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/centrobenavente/booking-server/internal/booking"
)

// ScheduleHandler serves the admin schedule surface: weekly availability
// rules and blocked dates.
type ScheduleHandler struct {
	svc    *booking.Service
	logger zerolog.Logger
}

func NewScheduleHandler(svc *booking.Service, logger zerolog.Logger) *ScheduleHandler {
	return &ScheduleHandler{svc: svc, logger: logger}
}

func (h *ScheduleHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.svc.ListRules(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out := make([]RuleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, toRuleResponse(rule))
	}
	writeData(w, http.StatusOK, out)
}

func ruleFromRequest(w http.ResponseWriter, req RuleRequest) (*booking.AvailabilityRule, bool) {
	rule := &booking.AvailabilityRule{
		DayOfWeek:    req.DayOfWeek,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		SlotMinutes:  req.SlotMinutes,
		MaxBookings:  req.MaxBookings,
		ResourceType: req.ResourceType,
		IsActive:     true,
	}
	if req.ServiceID != nil {
		id, err := uuid.Parse(*req.ServiceID)
		if err != nil {
			badRequest(w, "El servicio indicado no es válido")
			return nil, false
		}
		rule.ServiceID = &id
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	return rule, true
}

func (h *ScheduleHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req RuleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rule, ok := ruleFromRequest(w, req)
	if !ok {
		return
	}

	if err := h.svc.CreateRule(r.Context(), rule); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusCreated, toRuleResponse(*rule), "Horario creado")
}

func (h *ScheduleHandler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req RuleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rule, ok := ruleFromRequest(w, req)
	if !ok {
		return
	}
	rule.ID = id

	if err := h.svc.UpdateRule(r.Context(), rule); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, toRuleResponse(*rule), "Horario actualizado")
}

func (h *ScheduleHandler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteRule(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, nil, "Horario eliminado")
}

func (h *ScheduleHandler) ListBlockedDates(w http.ResponseWriter, r *http.Request) {
	blocked, err := h.svc.ListBlockedDates(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out := make([]BlockedDateResponse, 0, len(blocked))
	for _, bd := range blocked {
		out = append(out, toBlockedDateResponse(bd))
	}
	writeData(w, http.StatusOK, out)
}

func (h *ScheduleHandler) CreateBlockedDate(w http.ResponseWriter, r *http.Request) {
	var req BlockedDateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	date, ok := parseDate(req.Date)
	if !ok {
		badRequest(w, "Fecha inválida (formato YYYY-MM-DD)")
		return
	}

	bd := &booking.BlockedDate{
		Date:      date,
		IsFullDay: true,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Reason:    req.Reason,
	}
	if req.IsFullDay != nil {
		bd.IsFullDay = *req.IsFullDay
	}

	if err := h.svc.CreateBlockedDate(r.Context(), bd); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusCreated, toBlockedDateResponse(*bd), "Fecha bloqueada")
}

func (h *ScheduleHandler) DeleteBlockedDate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteBlockedDate(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, nil, "Bloqueo eliminado")
}
