package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/centrobenavente/booking-server/internal/apperr"
)

// envelope is the response shape every endpoint returns.
type envelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Errors     []string    `json:"errors,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func NewPagination(page, limit, total int) *Pagination {
	pages := (total + limit - 1) / limit
	if pages < 1 {
		pages = 1
	}
	return &Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, envelope{Success: true, Data: data, Message: message})
}

func writePage(w http.ResponseWriter, data any, p *Pagination) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Pagination: p})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindInvalidIdentifier, apperr.KindPolicy:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict, apperr.KindInvalidTransition:
		return http.StatusConflict
	case apperr.KindAuthorization:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a domain error onto the envelope. Unknown errors become an
// opaque 500; the message never leaks internals to the client.
func writeError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	if kind := apperr.KindOf(err); kind != 0 {
		writeJSON(w, statusFor(kind), envelope{Success: false, Message: err.Error()})
		return
	}

	logger.Error().Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("request_id", GetRequestID(r.Context())).
		Msg("request failed")
	writeJSON(w, http.StatusInternalServerError, envelope{
		Success: false,
		Message: "Error interno del servidor",
	})
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		badRequest(w, "El cuerpo de la solicitud no es válido")
		return false
	}
	return true
}
