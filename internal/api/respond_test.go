package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centrobenavente/booking-server/internal/apperr"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func TestWriteErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", apperr.Validation("campo requerido"), http.StatusBadRequest},
		{"bad identifier", apperr.InvalidIdentifier("RUT inválido"), http.StatusBadRequest},
		{"policy", apperr.Policy("muy tarde para cancelar"), http.StatusBadRequest},
		{"not found", apperr.NotFound("no existe"), http.StatusNotFound},
		{"conflict", apperr.Conflict("horario ocupado"), http.StatusConflict},
		{"bad transition", apperr.InvalidTransition("no permitido"), http.StatusConflict},
		{"authorization", apperr.Authorization("sin permiso"), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/test", nil)

			writeError(rec, req, zerolog.Nop(), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			env := decodeEnvelope(t, rec)
			assert.False(t, env.Success)
			assert.Equal(t, tt.err.Error(), env.Message)
		})
	}
}

func TestWriteErrorHidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)

	writeError(rec, req, zerolog.Nop(), errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "Error interno del servidor", env.Message)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestWriteData(t *testing.T) {
	rec := httptest.NewRecorder()

	writeData(rec, http.StatusCreated, map[string]string{"id": "abc"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 20, 45)
	assert.Equal(t, 3, p.TotalPages)

	p = NewPagination(1, 20, 0)
	assert.Equal(t, 1, p.TotalPages)

	p = NewPagination(1, 20, 20)
	assert.Equal(t, 1, p.TotalPages)
}
