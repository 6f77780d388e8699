package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"alcyxob/intern-platform/internal/config"
	"alcyxob/intern-platform/internal/domain"
	"alcyxob/intern-platform/internal/llm"
	"alcyxob/intern-platform/internal/logger"
	"alcyxob/intern-platform/internal/repository/memory"
	"alcyxob/intern-platform/internal/service"
	"alcyxob/intern-platform/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret"
	testIssuer = "intern-platform-identity"
)

type testServer struct {
	t        *testing.T
	router   *gin.Engine
	db       *memory.DB
	svc      *service.Services
	now      time.Time
	provider *llm.MockProvider
}

// lessonOnlyProvider serves lesson content and fails every other request,
// so curricula and chat use their fallbacks.
func lessonOnlyProvider() *llm.MockProvider {
	return llm.NewMockProviderFunc(func(req llm.Request) llm.MockResponse {
		if req.Schema == nil || !strings.HasPrefix(req.Schema.Name, "lesson-content") {
			return llm.MockResponse{Err: &llm.ErrProviderUnavailable{}}
		}
		tiers := []string{"easy", "medium", "hard"}
		qs := make([]map[string]any, 20)
		for i := range qs {
			opts := []string{"Port", "Starboard", "Bow", "Stern"}
			qs[i] = map[string]any{
				"questionText":  fmt.Sprintf("Question %d?", i+1),
				"options":       opts,
				"correctAnswer": opts[i%4],
				"difficulty":    tiers[i%3],
			}
		}
		raw, _ := json.Marshal(map[string]any{"content": "## Lesson\n\nBody text.", "questions": qs})
		return llm.MockResponse{Content: raw}
	})
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &testServer{
		t:        t,
		db:       memory.Open(),
		now:      time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		provider: lessonOnlyProvider(),
	}
	log := logger.Nop()
	cfg := &config.Config{
		JWT:       config.JWTConfig{Secret: testSecret, Issuer: testIssuer},
		StudyPlan: config.DefaultStudyPlanConfig(),
	}
	s.svc = service.NewServices(service.Repositories{
		Users:       s.db.Users,
		Internships: s.db.Internships,
		Plans:       s.db.Plans,
		Lessons:     s.db.Lessons,
	}, s.provider, storage.NewMediaResolver(nil, 0, log), cfg.StudyPlan, func() time.Time { return s.now }, log)

	s.router = NewRouter(cfg, log)
	SetupRoutes(s.router, cfg.JWT, log, s.svc.Plans, s.svc.Days, s.svc.Lessons, s.svc.Assistant)
	return s
}

func (s *testServer) user(u domain.User) *domain.User {
	s.t.Helper()
	_, err := s.db.Users.Create(context.Background(), &u)
	require.NoError(s.t, err)
	return &u
}

func (s *testServer) student(name string) *domain.User {
	return s.user(domain.User{Name: name, Surname: "Yılmaz", Role: domain.RoleStudent, GPA: 2.1, EnglishLevel: "B1"})
}

func (s *testServer) company(name string) *domain.User {
	return s.user(domain.User{Name: name, Role: domain.RoleCompany, CompanyInfo: &domain.CompanyInfo{Sector: "Tanker"}})
}

func token(t *testing.T, u *domain.User, issuer string, ttl time.Duration) string {
	t.Helper()
	claims := jwtClaims{
		UserID: u.ID.Hex(),
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return rawToken(t, claims)
}

func rawToken(t *testing.T, claims jwtClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

// do performs a request as u (anonymous when u is nil) and decodes the body into out.
func (s *testServer) do(method, path string, u *domain.User, body any, out any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if u != nil {
		req.Header.Set("Authorization", "Bearer "+token(s.t, u, testIssuer, time.Hour))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if out != nil && w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w
}

func (s *testServer) createPlan(student, company *domain.User) *domain.Plan {
	s.t.Helper()
	var resp CreatePlanResponse
	w := s.do(http.MethodPost, "/api/v1/study-plans", student, CreatePlanRequest{TargetCompanyID: company.ID.Hex()}, &resp)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(s.t, resp.Plan)
	return resp.Plan
}

func ids(from, to int) []string {
	out := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, fmt.Sprintf("q%d", i))
	}
	return out
}
