package api

import (
	"net/http"
	"testing"
	"time"

	"alcyxob/intern-platform/internal/domain"
	"alcyxob/intern-platform/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePlan(t *testing.T) {
	s := newTestServer(t)
	student := s.student("Ali")
	company := s.company("Arkas")

	plan := s.createPlan(student, company)
	assert.Equal(t, "ali-yilmaz-arkas-hazirlik", plan.Slug)
	assert.Len(t, plan.Days, 60)

	var again CreatePlanResponse
	w := s.do(http.MethodPost, "/api/v1/study-plans", student, CreatePlanRequest{TargetCompanyID: company.ID.Hex()}, &again)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, again.Created)
	assert.Equal(t, plan.ID, again.Plan.ID)
	assert.Equal(t, 3.0, again.AvgGPA)
	assert.Equal(t, "B1", again.AvgEnglish)
}

func TestCreatePlan_Rejections(t *testing.T) {
	s := newTestServer(t)
	student := s.student("Ali")
	strong := s.user(domain.User{Name: "Ece", Role: domain.RoleStudent, GPA: 3.8, EnglishLevel: "C1"})
	company := s.company("Arkas")

	var errResp ErrorResponse
	w := s.do(http.MethodPost, "/api/v1/study-plans", student, CreatePlanRequest{}, &errResp)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request", errResp.Code)

	w = s.do(http.MethodPost, "/api/v1/study-plans", student, CreatePlanRequest{TargetCompanyID: "nope"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/study-plans", student, CreatePlanRequest{TargetCompanyID: student.ID.Hex()}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var notNeeded CreatePlanResponse
	w = s.do(http.MethodPost, "/api/v1/study-plans", strong, CreatePlanRequest{TargetCompanyID: company.ID.Hex()}, &notNeeded)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, notNeeded.NeedsPlan)
	assert.Nil(t, notNeeded.Plan)
}

func TestCreatePlan_Limit(t *testing.T) {
	s := newTestServer(t)
	student := s.student("Ali")
	for _, name := range []string{"Arkas", "Borusan", "Ciner"} {
		s.createPlan(student, s.company(name))
	}

	var errResp ErrorResponse
	w := s.do(http.MethodPost, "/api/v1/study-plans", student, CreatePlanRequest{TargetCompanyID: s.company("Denizcilik").ID.Hex()}, &errResp)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "limit_exceeded", errResp.Code)
	assert.EqualValues(t, 3, errResp.Details["limit"])
	assert.EqualValues(t, 3, errResp.Details["active"])
}

func TestDayFlow(t *testing.T) {
	s := newTestServer(t)
	student := s.student("Ali")
	plan := s.createPlan(student, s.company("Arkas"))
	base := "/api/v1/study-plans/" + plan.Slug

	var view service.DayView
	w := s.do(http.MethodGet, base+"/days/1", student, nil, &view)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, view.Questions, 20)
	assert.False(t, view.Fallback)
	assert.NotContains(t, view.Content, domain.PlaceholderMarker)

	var failed service.SubmitResult
	w = s.do(http.MethodPost, base+"/days/1/submit", student, SubmitDayRequest{CorrectQuestionIDs: ids(1, 7)}, &failed)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, failed.Passed)
	assert.Equal(t, 7, failed.Score)
	assert.Equal(t, 10, failed.Required)
	assert.Equal(t, 20, failed.Total)

	var passed service.SubmitResult
	w = s.do(http.MethodPost, base+"/days/1/submit", student, SubmitDayRequest{CorrectQuestionIDs: ids(1, 12)}, &passed)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, passed.Passed)
	assert.Equal(t, 88, passed.XPAwarded)
	assert.Equal(t, 2, passed.NextDay)
	require.NotNil(t, passed.NextUnlockAt)
	assert.True(t, passed.NextUnlockAt.Equal(s.now.Add(20*time.Hour)))

	var errResp ErrorResponse
	w = s.do(http.MethodPost, base+"/days/1/submit", student, SubmitDayRequest{CorrectQuestionIDs: ids(1, 12)}, &errResp)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_completed", errResp.Code)

	errResp = ErrorResponse{}
	w = s.do(http.MethodGet, base+"/days/2", student, nil, &errResp)
	assert.Equal(t, http.StatusLocked, w.Code)
	assert.Equal(t, "day_locked", errResp.Code)
	assert.Contains(t, errResp.Details, "unlockAt")

	s.now = s.now.Add(20 * time.Hour)
	w = s.do(http.MethodGet, base+"/days/2", student, nil, &view)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubmitDay_BadInput(t *testing.T) {
	s := newTestServer(t)
	student := s.student("Ali")
	plan := s.createPlan(student, s.company("Arkas"))
	base := "/api/v1/study-plans/" + plan.ID.Hex()

	w := s.do(http.MethodPost, base+"/days/zero/submit", student, SubmitDayRequest{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var errResp ErrorResponse
	w = s.do(http.MethodPost, base+"/days/1/submit", student, SubmitDayRequest{}, &errResp)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_submission", errResp.Code)

	w = s.do(http.MethodPost, base+"/days/99/submit", student, SubmitDayRequest{CorrectQuestionIDs: ids(1, 12)}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlanOwnershipAndArchive(t *testing.T) {
	s := newTestServer(t)
	owner := s.student("Ali")
	other := s.student("Veli")
	lecturer := s.user(domain.User{Name: "Hoca", Role: domain.RoleLecturer})
	plan := s.createPlan(owner, s.company("Arkas"))
	path := "/api/v1/study-plans/" + plan.Slug

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, path, other, nil, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, path, lecturer, nil, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPut, path+"/archive", other, nil, nil).Code)

	var archived domain.Plan
	w := s.do(http.MethodPut, path+"/archive", owner, nil, &archived)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, archived.IsActive)

	var active, history []domain.Plan
	s.do(http.MethodGet, "/api/v1/study-plans/active", owner, nil, &active)
	s.do(http.MethodGet, "/api/v1/study-plans/history", owner, nil, &history)
	assert.Empty(t, active)
	assert.NotNil(t, active)
	require.Len(t, history, 1)
	assert.Equal(t, plan.ID, history[0].ID)

	var errResp ErrorResponse
	w = s.do(http.MethodPost, path+"/days/1/submit", owner, SubmitDayRequest{CorrectQuestionIDs: ids(1, 12)}, &errResp)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "plan_archived", errResp.Code)
}
