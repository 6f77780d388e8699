package api

import (
	"net/http"
	"strconv"

	"alcyxob/intern-platform/internal/domain"
	"alcyxob/intern-platform/internal/logger"
	"alcyxob/intern-platform/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type AdminHandler struct {
	plans   service.PlanService
	lessons service.LessonCache
	log     *logger.Logger
}

func NewAdminHandler(plans service.PlanService, lessons service.LessonCache, log *logger.Logger) *AdminHandler {
	return &AdminHandler{plans: plans, lessons: lessons, log: log}
}

type PlanPage struct {
	Items  []domain.Plan `json:"items"`
	Total  int64         `json:"total"`
	Limit  int64         `json:"limit"`
	Offset int64         `json:"offset"`
}

type LessonPage struct {
	Items  []domain.MasterLesson `json:"items"`
	Total  int64                 `json:"total"`
	Limit  int64                 `json:"limit"`
	Offset int64                 `json:"offset"`
}

type RegenerateLessonRequest struct {
	Topic string `json:"topic" binding:"required"`
}

// ListPlans godoc
// @Summary List all study plans
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} PlanPage
// @Router /admin/study-plans [get]
func (h *AdminHandler) ListPlans(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)
	plans, total, err := h.plans.ListAll(c.Request.Context(), actor, limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, PlanPage{Items: nonNilPlans(plans), Total: total, Limit: limit, Offset: offset})
}

// DeletePlan godoc
// @Summary Delete a study plan
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "Plan ObjectID hex"
// @Success 204
// @Router /admin/study-plans/{id} [delete]
func (h *AdminHandler) DeletePlan(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request", "Invalid plan ID format.")
		return
	}
	if err := h.plans.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListLessons godoc
// @Summary List cached lessons
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} LessonPage
// @Router /admin/lessons [get]
func (h *AdminHandler) ListLessons(c *gin.Context) {
	limit, offset := pagination(c)
	lessons, total, err := h.lessons.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if lessons == nil {
		lessons = []domain.MasterLesson{}
	}
	c.JSON(http.StatusOK, LessonPage{Items: lessons, Total: total, Limit: limit, Offset: offset})
}

// GetLesson godoc
// @Summary Get a cached lesson by id or slug
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param ref path string true "Lesson ObjectID hex or slug"
// @Success 200 {object} domain.MasterLesson
// @Router /admin/lessons/{ref} [get]
func (h *AdminHandler) GetLesson(c *gin.Context) {
	lesson, err := h.lessons.Get(c.Request.Context(), c.Param("ref"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, lesson)
}

// RegenerateLesson godoc
// @Summary Regenerate the cached lesson for a topic
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RegenerateLessonRequest true "Topic"
// @Success 200 {object} domain.MasterLesson
// @Failure 502 {object} ErrorResponse "Provider could not produce the lesson"
// @Router /admin/lessons/regenerate [post]
func (h *AdminHandler) RegenerateLesson(c *gin.Context) {
	var req RegenerateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request", "Validation error: "+err.Error())
		return
	}
	lesson, err := h.lessons.Regenerate(c.Request.Context(), req.Topic)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, lesson)
}

func pagination(c *gin.Context) (limit, offset int64) {
	limit, err := strconv.ParseInt(c.Query("limit"), 10, 64)
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err = strconv.ParseInt(c.Query("offset"), 10, 64)
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
