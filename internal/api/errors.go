package api

import (
	"errors"
	"net/http"

	"alcyxob/intern-platform/internal/logger"
	"alcyxob/intern-platform/internal/service"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every rejected request.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Code: code})
}

// respondError maps a service error to its HTTP status and body. Unknown
// errors are logged and reported as a generic 500.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	var (
		limitErr  *service.LimitExceededError
		lockedErr *service.DayLockedError
		scoreErr  *service.InsufficientScoreError
		validErr  *service.ValidationError
	)
	switch {
	case errors.As(err, &limitErr):
		c.AbortWithStatusJSON(http.StatusConflict, ErrorResponse{
			Error:   err.Error(),
			Code:    "limit_exceeded",
			Details: map[string]any{"limit": limitErr.Limit, "active": limitErr.Active},
		})
	case errors.As(err, &lockedErr):
		details := map[string]any{"day": lockedErr.Day}
		if lockedErr.UnlockAt != nil {
			details["unlockAt"] = lockedErr.UnlockAt
		}
		c.AbortWithStatusJSON(http.StatusLocked, ErrorResponse{Error: err.Error(), Code: "day_locked", Details: details})
	case errors.As(err, &scoreErr):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   err.Error(),
			Code:    "insufficient_score",
			Details: map[string]any{"required": scoreErr.Required, "correct": scoreErr.Correct, "total": scoreErr.Total},
		})
	case errors.As(err, &validErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Error:   err.Error(),
			Code:    "invalid_submission",
			Details: map[string]any{"reason": validErr.Reason},
		})

	case errors.Is(err, service.ErrPlanNotFound),
		errors.Is(err, service.ErrDayNotFound),
		errors.Is(err, service.ErrLessonNotFound),
		errors.Is(err, service.ErrStudentNotFound),
		errors.Is(err, service.ErrTargetCompanyNotFound):
		abortWithError(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrNotStudent):
		abortWithError(c, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, service.ErrTargetCompanyRequired),
		errors.Is(err, service.ErrTopicRequired),
		errors.Is(err, service.ErrEmptyMessage):
		abortWithError(c, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, service.ErrAlreadyCompleted):
		abortWithError(c, http.StatusConflict, "already_completed", err.Error())
	case errors.Is(err, service.ErrPlanArchived):
		abortWithError(c, http.StatusConflict, "plan_archived", err.Error())
	case errors.Is(err, service.ErrGenerationFailed):
		log.Warn("generation failed", "path", c.FullPath(), "error", err)
		abortWithError(c, http.StatusBadGateway, "generation_failed", err.Error())
	default:
		log.Error("request failed", "path", c.FullPath(), "requestID", c.GetString(ContextRequestIDKey), "error", err)
		abortWithError(c, http.StatusInternalServerError, "internal", "Internal server error")
	}
}
