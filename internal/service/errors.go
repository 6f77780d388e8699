package service

import (
	"errors"
	"fmt"
	"time"
)

// --- Error Definitions ---
var (
	ErrPlanNotFound          = errors.New("study plan not found")
	ErrDayNotFound           = errors.New("day not found in study plan")
	ErrForbidden             = errors.New("access denied to this study plan")
	ErrNotStudent            = errors.New("only students can hold study plans")
	ErrStudentNotFound       = errors.New("student not found")
	ErrTargetCompanyRequired = errors.New("target company is required")
	ErrTargetCompanyNotFound = errors.New("target company not found")
	ErrPlanArchived          = errors.New("study plan is archived")
	ErrAlreadyCompleted      = errors.New("day already completed")
	ErrDayLocked             = errors.New("day is locked")
	ErrInsufficientScore     = errors.New("not enough correct answers")
	ErrLimitExceeded         = errors.New("active study plan limit reached")
	ErrInvalidSubmission     = errors.New("invalid submission")
	ErrLessonNotFound        = errors.New("lesson not found")
	ErrTopicRequired         = errors.New("topic is required")
	ErrEmptyMessage          = errors.New("message is required")
	ErrGenerationFailed      = errors.New("content generation failed")
)

// LimitExceededError reports the active plan limit that blocked a create.
type LimitExceededError struct {
	Limit  int
	Active int64
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("%s: %d of %d active plans", ErrLimitExceeded, e.Active, e.Limit)
}

func (e *LimitExceededError) Unwrap() error { return ErrLimitExceeded }

// InsufficientScoreError carries the counts for "10 of 20 required, you got 7".
type InsufficientScoreError struct {
	Required int
	Correct  int
	Total    int
}

func (e *InsufficientScoreError) Error() string {
	return fmt.Sprintf("%s: %d of %d required, got %d", ErrInsufficientScore, e.Required, e.Total, e.Correct)
}

func (e *InsufficientScoreError) Unwrap() error { return ErrInsufficientScore }

// DayLockedError says when a locked day opens. UnlockAt is nil while the
// previous day is still incomplete.
type DayLockedError struct {
	Day      int
	UnlockAt *time.Time
}

func (e *DayLockedError) Error() string {
	if e.UnlockAt == nil {
		return fmt.Sprintf("day %d is locked until the previous day is completed", e.Day)
	}
	return fmt.Sprintf("day %d is locked until %s", e.Day, e.UnlockAt.Format(time.RFC3339))
}

func (e *DayLockedError) Unwrap() error { return ErrDayLocked }

// ValidationError wraps ErrInvalidSubmission with the offending detail.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidSubmission, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidSubmission }
