package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"alcyxob/intern-platform/internal/domain"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPing(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/ping", nil, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t)
	student := s.student("Ali")

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
		{"expired", "Bearer " + token(t, student, testIssuer, -time.Minute)},
		{"foreign issuer", "Bearer " + token(t, student, "someone-else", time.Hour)},
		{"bad user id", "Bearer " + rawToken(t, jwtClaims{UserID: "not-hex", Role: domain.RoleStudent, RegisteredClaims: jwt.RegisteredClaims{
			Issuer: testIssuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}})},
		{"missing role", "Bearer " + rawToken(t, jwtClaims{UserID: student.ID.Hex(), RegisteredClaims: jwt.RegisteredClaims{
			Issuer: testIssuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"code":"unauthorized"`)
		})
	}

	var me map[string]string
	w := s.do(http.MethodGet, "/api/v1/me", student, nil, &me)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, student.ID.Hex(), me["userId"])
	assert.Equal(t, "student", me["role"])
}

func TestRoleMiddleware(t *testing.T) {
	s := newTestServer(t)
	company := s.company("Arkas")

	var errResp ErrorResponse
	w := s.do(http.MethodPost, "/api/v1/study-plans", company, CreatePlanRequest{TargetCompanyID: company.ID.Hex()}, &errResp)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", errResp.Code)

	w = s.do(http.MethodGet, "/api/v1/admin/study-plans", company, nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/study-plans", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownObjectIDIsNotFound(t *testing.T) {
	s := newTestServer(t)
	student := s.student("Ali")
	w := s.do(http.MethodGet, "/api/v1/study-plans/"+primitive.NewObjectID().Hex(), student, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
