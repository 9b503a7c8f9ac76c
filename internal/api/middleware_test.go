package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centrobenavente/booking-server/internal/auth"
)

const testSecret = "test-secret"

func issueToken(t *testing.T, role string) string {
	t.Helper()
	claims := auth.Claims{
		UserID: uuid.NewString(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "maria@example.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func claimsEcho() (http.Handler, *auth.Claims) {
	var captured auth.Claims
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c := GetClaims(r.Context()); c != nil {
			captured = *c
		}
		w.WriteHeader(http.StatusOK)
	})
	return handler, &captured
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDMiddlewareKeepsIncomingID(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "upstream-id", seen)
}

func TestAuthenticateMissingToken(t *testing.T) {
	handler, _ := claimsEcho()
	rec := httptest.NewRecorder()

	Authenticate(testSecret)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "Autenticación requerida", env.Message)
}

func TestAuthenticateBadToken(t *testing.T) {
	handler, _ := claimsEcho()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")

	Authenticate(testSecret)(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "Token inválido o expirado", env.Message)
}

func TestAuthenticateValidToken(t *testing.T) {
	handler, captured := claimsEcho()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, auth.RoleUser))

	Authenticate(testSecret)(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, auth.RoleUser, captured.Role)
	assert.Equal(t, "maria@example.com", captured.Subject)
}

func TestOptionalAuthLetsAnonymousThrough(t *testing.T) {
	handler, captured := claimsEcho()
	rec := httptest.NewRecorder()

	OptionalAuth(testSecret)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, captured.UserID)
}

func TestOptionalAuthIgnoresBadToken(t *testing.T) {
	handler, captured := claimsEcho()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")

	OptionalAuth(testSecret)(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, captured.UserID)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name   string
		role   string
		needs  string
		status int
	}{
		{"admin passes admin gate", auth.RoleAdmin, auth.RoleAdmin, http.StatusOK},
		{"admin passes staff gate", auth.RoleAdmin, auth.RoleStaff, http.StatusOK},
		{"staff passes staff gate", auth.RoleStaff, auth.RoleStaff, http.StatusOK},
		{"staff blocked from admin", auth.RoleStaff, auth.RoleAdmin, http.StatusForbidden},
		{"user blocked from staff", auth.RoleUser, auth.RoleStaff, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := claimsEcho()
			chain := Authenticate(testSecret)(RequireRole(tt.needs)(handler))

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+issueToken(t, tt.role))
			chain.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRequireRoleWithoutClaims(t *testing.T) {
	handler, _ := claimsEcho()
	rec := httptest.NewRecorder()

	RequireRole(auth.RoleAdmin)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "No tienes permisos para esta acción", env.Message)
}
