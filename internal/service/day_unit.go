package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alcyxob/intern-platform/internal/config"
	"alcyxob/intern-platform/internal/domain"
	"alcyxob/intern-platform/internal/logger"
	"alcyxob/intern-platform/internal/repository"
	"alcyxob/intern-platform/internal/storage"
	"alcyxob/intern-platform/internal/topic"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DayView is a day unit as shown to the reader, with its effective state.
type DayView struct {
	PlanID   primitive.ObjectID `json:"planId"`
	PlanSlug string             `json:"planSlug"`
	domain.DayUnit
	// Fallback is set when the lesson body is a stand-in for content the
	// provider could not produce. It is regenerated on the next read.
	Fallback bool `json:"fallback,omitempty"`
}

// Submission is a quiz result. CorrectQuestionIDs is preferred; a bare
// CorrectCount is accepted from older clients.
type Submission struct {
	CorrectQuestionIDs []string `json:"correctQuestionIds"`
	CorrectCount       *int     `json:"correctCount"`
}

type SubmitResult struct {
	Passed        bool       `json:"passed"`
	Day           int        `json:"day"`
	Score         int        `json:"correctCount"`
	Required      int        `json:"required"`
	Total         int        `json:"total"`
	XPAwarded     int        `json:"xpAwarded"`
	TotalXP       int        `json:"totalXp"`
	Level         int        `json:"level"`
	LeveledUp     bool       `json:"leveledUp"`
	NextDay       int        `json:"nextDay,omitempty"`
	NextUnlockAt  *time.Time `json:"nextUnlockAt,omitempty"`
	PlanCompleted bool       `json:"planCompleted"`
}

// DayService drives the per-day state machine of a plan.
type DayService interface {
	GetDay(ctx context.Context, actor Actor, planRef string, dayNumber int) (*DayView, error)
	Submit(ctx context.Context, actor Actor, planRef string, dayNumber int, sub Submission) (*SubmitResult, error)
}

type dayService struct {
	planRepo repository.StudyPlanRepository
	lessons  LessonCache
	ledger   GamificationLedger
	media    *storage.MediaResolver
	cfg      config.StudyPlanConfig
	now      Clock
	log      *logger.Logger
}

func NewDayService(
	planRepo repository.StudyPlanRepository,
	lessons LessonCache,
	ledger GamificationLedger,
	media *storage.MediaResolver,
	cfg config.StudyPlanConfig,
	now Clock,
	log *logger.Logger,
) DayService {
	if now == nil {
		now = systemClock
	}
	return &dayService{
		planRepo: planRepo,
		lessons:  lessons,
		ledger:   ledger,
		media:    media,
		cfg:      cfg,
		now:      now,
		log:      log,
	}
}

// GetDay returns a readable day, attaching lesson content on first access.
func (s *dayService) GetDay(ctx context.Context, actor Actor, planRef string, dayNumber int) (*DayView, error) {
	plan, err := loadPlan(ctx, s.planRepo, planRef)
	if err != nil {
		return nil, err
	}
	if !actor.canRead(plan.StudentID) {
		return nil, ErrForbidden
	}
	unit := plan.Day(dayNumber)
	if unit == nil {
		return nil, ErrDayNotFound
	}

	view := &DayView{PlanID: plan.ID, PlanSlug: plan.Slug, DayUnit: *unit}
	view.State = unit.StateAt(s.now())
	if view.State == domain.DayLocked {
		return nil, &DayLockedError{Day: dayNumber, UnlockAt: unit.UnlockAt}
	}

	if view.State != domain.DayCompleted && unit.NeedsContent(s.cfg.QuestionsPerDay) {
		s.attachContent(ctx, plan, view)
	}
	view.MediaURL = s.media.Resolve(ctx, view.MediaURL)
	return view, nil
}

func (s *dayService) attachContent(ctx context.Context, plan *domain.Plan, view *DayView) {
	content, hit, err := s.lessons.Resolve(ctx, view.Topic, topic.IsEmphasized(view.Topic))
	if err != nil {
		s.log.Warn("lesson generation failed, serving fallback",
			"planID", plan.ID.Hex(), "day", view.DayNumber, "topic", view.Topic, "error", err)
		fb := FallbackLesson(view.Topic, s.cfg.QuestionsPerDay)
		if len(view.Questions) == 0 {
			// keep the placeholder body so the next read tries again
			view.Questions = fb.Questions
			if err := s.planRepo.SetDayContent(ctx, plan.ID, view.DayNumber, repository.DayContent{
				Content:   view.Content,
				Questions: fb.Questions,
			}); err != nil {
				s.log.Error("saving fallback questions failed", "planID", plan.ID.Hex(), "day", view.DayNumber, "error", err)
			}
		}
		view.Content = fb.Body
		view.Fallback = true
		return
	}

	view.Content = content.Body
	view.Questions = content.Questions
	if content.MediaURL != "" {
		view.MediaURL = content.MediaURL
	}
	if err := s.planRepo.SetDayContent(ctx, plan.ID, view.DayNumber, repository.DayContent{
		Content:   content.Body,
		Questions: content.Questions,
		MediaURL:  content.MediaURL,
	}); err != nil {
		s.log.Error("saving day content failed", "planID", plan.ID.Hex(), "day", view.DayNumber, "error", err)
	}
	s.log.Debug("day content attached", "planID", plan.ID.Hex(), "day", view.DayNumber, "cacheHit", hit)
}

// Submit completes a day when the score clears the gate. The transition is a
// single conditional write, so of two racing submissions exactly one wins.
func (s *dayService) Submit(ctx context.Context, actor Actor, planRef string, dayNumber int, sub Submission) (*SubmitResult, error) {
	plan, err := loadPlan(ctx, s.planRepo, planRef)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleStudent || plan.StudentID != actor.ID {
		return nil, ErrForbidden
	}
	if !plan.IsActive {
		return nil, ErrPlanArchived
	}
	unit := plan.Day(dayNumber)
	if unit == nil {
		return nil, ErrDayNotFound
	}

	now := s.now()
	switch unit.StateAt(now) {
	case domain.DayCompleted:
		return nil, ErrAlreadyCompleted
	case domain.DayLocked:
		return nil, &DayLockedError{Day: dayNumber, UnlockAt: unit.UnlockAt}
	}

	correct, total, xp, err := s.grade(unit, sub)
	if err != nil {
		return nil, err
	}
	required := min(s.cfg.RequiredCorrect, total)
	if correct < required {
		return nil, &InsufficientScoreError{Required: required, Correct: correct, Total: total}
	}

	nextUnlock := now.Add(s.cfg.UnlockDelay)
	err = s.planRepo.CompleteDay(ctx, plan.ID, repository.DayCompletion{
		DayNumber:    dayNumber,
		Score:        correct,
		XP:           xp,
		CompletedAt:  now,
		NextUnlockAt: nextUnlock,
	})
	if err != nil {
		return nil, s.classifyCompletionFailure(ctx, plan.ID, dayNumber, now, err)
	}

	award, err := s.ledger.Award(ctx, actor.ID, xp)
	if err != nil {
		s.log.Error("day completed but xp award failed",
			"planID", plan.ID.Hex(), "day", dayNumber, "xp", xp, "error", err)
		return nil, fmt.Errorf("awarding xp: %w", err)
	}

	result := &SubmitResult{
		Passed:        true,
		Day:           dayNumber,
		Score:         correct,
		Required:      required,
		Total:         total,
		XPAwarded:     xp,
		TotalXP:       award.TotalXP,
		Level:         award.Level,
		LeveledUp:     award.LeveledUp(),
		PlanCompleted: plan.CompletedDays()+1 == len(plan.Days),
	}
	if next := plan.Day(dayNumber + 1); next != nil {
		result.NextDay = next.DayNumber
		result.NextUnlockAt = &nextUnlock
	}
	s.log.Info("day completed",
		"planID", plan.ID.Hex(), "day", dayNumber, "score", correct, "xp", xp, "level", award.Level)
	return result, nil
}

// grade returns the correct count, the quiz size the gate applies to and the
// experience earned.
func (s *dayService) grade(unit *domain.DayUnit, sub Submission) (correct, total, xp int, err error) {
	total = len(unit.Questions)
	if total == 0 {
		total = s.cfg.QuestionsPerDay
	}
	switch {
	case sub.CorrectQuestionIDs != nil:
		byID := make(map[string]domain.Difficulty, total)
		for _, q := range unit.Questions {
			byID[q.ID] = q.Difficulty
		}
		seen := make(map[string]struct{}, len(sub.CorrectQuestionIDs))
		for _, id := range sub.CorrectQuestionIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			d, ok := byID[id]
			if !ok {
				return 0, 0, 0, &ValidationError{Reason: fmt.Sprintf("unknown question id %q", id)}
			}
			seen[id] = struct{}{}
			correct++
			xp += d.Points()
		}
		return correct, total, xp, nil

	case sub.CorrectCount != nil:
		n := *sub.CorrectCount
		if n < 0 || n > total {
			return 0, 0, 0, &ValidationError{Reason: fmt.Sprintf("correctCount must be between 0 and %d", total)}
		}
		return n, total, n * domain.DifficultyEasy.Points(), nil
	}
	return 0, 0, 0, &ValidationError{Reason: "correctQuestionIds or correctCount is required"}
}

// classifyCompletionFailure re-reads the plan to explain why the conditional
// write matched nothing.
func (s *dayService) classifyCompletionFailure(ctx context.Context, planID primitive.ObjectID, dayNumber int, now time.Time, cause error) error {
	if errors.Is(cause, repository.ErrNotFound) {
		return ErrPlanNotFound
	}
	if !errors.Is(cause, repository.ErrConflict) {
		return fmt.Errorf("completing day: %w", cause)
	}
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return fmt.Errorf("re-reading plan: %w", err)
	}
	if !plan.IsActive {
		return ErrPlanArchived
	}
	unit := plan.Day(dayNumber)
	if unit == nil {
		return ErrDayNotFound
	}
	switch unit.StateAt(now) {
	case domain.DayCompleted:
		return ErrAlreadyCompleted
	case domain.DayLocked:
		return &DayLockedError{Day: dayNumber, UnlockAt: unit.UnlockAt}
	}
	return fmt.Errorf("completing day: %w", cause)
}
