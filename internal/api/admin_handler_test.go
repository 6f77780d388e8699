package api

import (
	"net/http"
	"testing"

	"alcyxob/intern-platform/internal/domain"
	"alcyxob/intern-platform/internal/llm"
	"alcyxob/intern-platform/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminPlans(t *testing.T) {
	s := newTestServer(t)
	admin := s.user(domain.User{Name: "Root", Role: domain.RoleAdmin})
	student := s.student("Ali")
	plan := s.createPlan(student, s.company("Arkas"))
	s.createPlan(student, s.company("Borusan"))

	var page PlanPage
	w := s.do(http.MethodGet, "/api/v1/admin/study-plans?limit=1", admin, nil, &page)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, page.Total)
	assert.Len(t, page.Items, 1)
	assert.EqualValues(t, 1, page.Limit)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/v1/admin/study-plans", student, nil, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodDelete, "/api/v1/admin/study-plans/xyz", admin, nil, nil).Code)

	w = s.do(http.MethodDelete, "/api/v1/admin/study-plans/"+plan.ID.Hex(), admin, nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodDelete, "/api/v1/admin/study-plans/"+plan.ID.Hex(), admin, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminLessons(t *testing.T) {
	s := newTestServer(t)
	admin := s.user(domain.User{Name: "Root", Role: domain.RoleAdmin})

	var lesson domain.MasterLesson
	w := s.do(http.MethodPost, "/api/v1/admin/lessons/regenerate", admin, RegenerateLessonRequest{Topic: "Gemi Manevrası"}, &lesson)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "gemi-manevrasi", lesson.Slug)
	assert.Len(t, lesson.Questions, 20)

	var page LessonPage
	w = s.do(http.MethodGet, "/api/v1/admin/lessons", admin, nil, &page)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, page.Total)

	var bySlug domain.MasterLesson
	w = s.do(http.MethodGet, "/api/v1/admin/lessons/gemi-manevrasi", admin, nil, &bySlug)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, lesson.ID, bySlug.ID)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/admin/lessons/"+lesson.ID.Hex(), admin, nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/admin/lessons/unknown", admin, nil, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/v1/admin/lessons/regenerate", admin, map[string]string{}, nil).Code)
}

func TestAdminRegenerate_BlankTopic(t *testing.T) {
	s := newTestServer(t)
	admin := s.user(domain.User{Name: "Root", Role: domain.RoleAdmin})

	var errResp ErrorResponse
	w := s.do(http.MethodPost, "/api/v1/admin/lessons/regenerate", admin, RegenerateLessonRequest{Topic: "   "}, &errResp)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request", errResp.Code)
	assert.Contains(t, errResp.Error, service.ErrTopicRequired.Error())
}

func TestAdminRegenerate_ProviderDown(t *testing.T) {
	s := newTestServer(t)
	admin := s.user(domain.User{Name: "Root", Role: domain.RoleAdmin})

	var errResp ErrorResponse
	w := s.do(http.MethodPost, "/api/v1/admin/lessons/regenerate", admin, RegenerateLessonRequest{Topic: "Gemi Manevrası"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Canned responses are served before the handler.
	s.provider.AddResponse(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
	w = s.do(http.MethodPost, "/api/v1/admin/lessons/regenerate", admin, RegenerateLessonRequest{Topic: "Gemi Manevrası"}, &errResp)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "generation_failed", errResp.Code)
}
