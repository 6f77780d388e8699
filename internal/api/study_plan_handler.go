package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"alcyxob/intern-platform/internal/domain"
	"alcyxob/intern-platform/internal/logger"
	"alcyxob/intern-platform/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type StudyPlanHandler struct {
	plans service.PlanService
	days  service.DayService
	log   *logger.Logger
}

func NewStudyPlanHandler(plans service.PlanService, days service.DayService, log *logger.Logger) *StudyPlanHandler {
	return &StudyPlanHandler{plans: plans, days: days, log: log}
}

// --- DTOs ---

type CreatePlanRequest struct {
	TargetCompanyID string `json:"targetCompanyId"`
}

type CreatePlanResponse struct {
	Plan       *domain.Plan `json:"plan,omitempty"`
	Created    bool         `json:"created"`
	NeedsPlan  bool         `json:"needsPlan"`
	AvgGPA     float64      `json:"avgGpa"`
	AvgEnglish string       `json:"avgEnglish"`
	Samples    int          `json:"samples"`
	Message    string       `json:"message,omitempty"`
}

type SubmitDayRequest struct {
	CorrectQuestionIDs []string `json:"correctQuestionIds"`
	CorrectCount       *int     `json:"correctCount"`
}

// --- Handler Methods ---

// CreatePlan godoc
// @Summary Create a study plan for a target company
// @Description Creates a 60-day plan when the student is below the company's benchmark.
// @Tags StudyPlans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreatePlanRequest true "Target company"
// @Success 201 {object} CreatePlanResponse "Plan created"
// @Success 200 {object} CreatePlanResponse "Existing plan, or no plan needed"
// @Failure 400 {object} ErrorResponse "Missing or invalid target company"
// @Failure 403 {object} ErrorResponse "Not a student"
// @Failure 404 {object} ErrorResponse "Company not found"
// @Failure 409 {object} ErrorResponse "Active plan limit reached"
// @Router /study-plans [post]
func (h *StudyPlanHandler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request", "Validation error: "+err.Error())
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	companyID := primitive.NilObjectID
	if ref := strings.TrimSpace(req.TargetCompanyID); ref != "" {
		id, err := primitive.ObjectIDFromHex(ref)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "invalid_request", "Invalid target company ID format.")
			return
		}
		companyID = id
	}

	res, err := h.plans.Create(c.Request.Context(), actor, companyID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	resp := CreatePlanResponse{
		Plan:       res.Plan,
		Created:    res.Created,
		NeedsPlan:  res.NeedsPlan,
		AvgGPA:     res.Benchmark.AvgGPA,
		AvgEnglish: res.Benchmark.AvgEnglish,
		Samples:    res.Benchmark.Samples,
	}
	switch {
	case res.Created:
		c.JSON(http.StatusCreated, resp)
	case !res.NeedsPlan:
		resp.Message = "Your profile already meets this company's benchmark."
		c.JSON(http.StatusOK, resp)
	default:
		resp.Message = "An active plan for this company already exists."
		c.JSON(http.StatusOK, resp)
	}
}

// GetActivePlans godoc
// @Summary List my active study plans
// @Tags StudyPlans
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Plan
// @Router /study-plans/active [get]
func (h *StudyPlanHandler) GetActivePlans(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	plans, err := h.plans.ListActive(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, nonNilPlans(plans))
}

// GetPlanHistory godoc
// @Summary List my archived study plans
// @Tags StudyPlans
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Plan
// @Router /study-plans/history [get]
func (h *StudyPlanHandler) GetPlanHistory(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	plans, err := h.plans.ListArchived(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, nonNilPlans(plans))
}

// GetPlan godoc
// @Summary Get a study plan by id or slug
// @Tags StudyPlans
// @Produce json
// @Security BearerAuth
// @Param ref path string true "Plan ObjectID hex or slug"
// @Success 200 {object} domain.Plan
// @Failure 403 {object} ErrorResponse "Not the owner"
// @Failure 404 {object} ErrorResponse "Plan not found"
// @Router /study-plans/{ref} [get]
func (h *StudyPlanHandler) GetPlan(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	plan, err := h.plans.Get(c.Request.Context(), actor, c.Param("ref"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// ArchivePlan godoc
// @Summary Archive a study plan
// @Tags StudyPlans
// @Produce json
// @Security BearerAuth
// @Param ref path string true "Plan ObjectID hex or slug"
// @Success 200 {object} domain.Plan
// @Router /study-plans/{ref}/archive [put]
func (h *StudyPlanHandler) ArchivePlan(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	plan, err := h.plans.Archive(c.Request.Context(), actor, c.Param("ref"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// GetDay godoc
// @Summary Get the content of one day
// @Description Lesson content is generated on first read when the day still holds a placeholder.
// @Tags StudyPlans
// @Produce json
// @Security BearerAuth
// @Param ref path string true "Plan ObjectID hex or slug"
// @Param day path int true "Day number"
// @Success 200 {object} service.DayView
// @Failure 423 {object} ErrorResponse "Day is locked"
// @Router /study-plans/{ref}/days/{day} [get]
func (h *StudyPlanHandler) GetDay(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	day, ok := dayParam(c)
	if !ok {
		return
	}
	view, err := h.days.GetDay(c.Request.Context(), actor, c.Param("ref"), day)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SubmitDay godoc
// @Summary Submit the quiz result of one day
// @Description A score below the pass mark is not an error: the response has passed=false and the day stays open.
// @Tags StudyPlans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param ref path string true "Plan ObjectID hex or slug"
// @Param day path int true "Day number"
// @Param request body SubmitDayRequest true "Correct answers"
// @Success 200 {object} service.SubmitResult
// @Failure 400 {object} ErrorResponse "Malformed submission"
// @Failure 409 {object} ErrorResponse "Already completed or plan archived"
// @Failure 423 {object} ErrorResponse "Day is locked"
// @Router /study-plans/{ref}/days/{day}/submit [post]
func (h *StudyPlanHandler) SubmitDay(c *gin.Context) {
	var req SubmitDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request", "Validation error: "+err.Error())
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	day, ok := dayParam(c)
	if !ok {
		return
	}

	res, err := h.days.Submit(c.Request.Context(), actor, c.Param("ref"), day, service.Submission{
		CorrectQuestionIDs: req.CorrectQuestionIDs,
		CorrectCount:       req.CorrectCount,
	})
	if err != nil {
		var scoreErr *service.InsufficientScoreError
		if errors.As(err, &scoreErr) {
			c.JSON(http.StatusOK, service.SubmitResult{
				Passed:   false,
				Day:      day,
				Score:    scoreErr.Correct,
				Required: scoreErr.Required,
				Total:    scoreErr.Total,
			})
			return
		}
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func dayParam(c *gin.Context) (int, bool) {
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil || day < 1 {
		abortWithError(c, http.StatusBadRequest, "invalid_request", "Day must be a positive number.")
		return 0, false
	}
	return day, true
}

func nonNilPlans(plans []domain.Plan) []domain.Plan {
	if plans == nil {
		return []domain.Plan{}
	}
	return plans
}
