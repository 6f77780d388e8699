package service

import (
	"alcyxob/intern-platform/internal/config"
	"alcyxob/intern-platform/internal/llm"
	"alcyxob/intern-platform/internal/logger"
	"alcyxob/intern-platform/internal/repository"
	"alcyxob/intern-platform/internal/storage"
)

// Repositories groups the stores the services depend on.
type Repositories struct {
	Users       repository.UserRepository
	Internships repository.InternshipRepository
	Plans       repository.StudyPlanRepository
	Lessons     repository.LessonRepository
}

// Services is the wired study plan engine.
type Services struct {
	Plans     PlanService
	Days      DayService
	Lessons   LessonCache
	Assistant AssistantService
	Ledger    GamificationLedger
	Migrator  *SlugMigrator
}

// NewServices wires every service against repos. A nil clock uses UTC wall time.
func NewServices(
	repos Repositories,
	provider llm.Provider,
	media *storage.MediaResolver,
	cfg config.StudyPlanConfig,
	now Clock,
	log *logger.Logger,
) *Services {
	lessons := NewLessonCache(repos.Lessons, NewContentGenerator(provider, cfg.QuestionsPerDay), LessonCacheOptions{
		MinQuestions:        cfg.QuestionsPerDay,
		SimilarityThreshold: cfg.SimilarityThreshold,
		ScanLimit:           int64(cfg.SimilarityScanLimit),
	}, now, log.With("component", "lesson-cache"))
	ledger := NewGamificationLedger(repos.Users, cfg.LevelThreshold)
	weakness := NewWeaknessAnalyzer(repos.Users, repos.Plans, cfg.WeakGrades, cfg.WeakScoreRatio, cfg.QuestionsPerDay, log)
	curriculum := NewCurriculumGenerator(provider, cfg.PlanLength, log.With("component", "curriculum"))
	plans := NewPlanService(repos.Users, repos.Internships, repos.Plans, weakness, curriculum, cfg, now, log.With("component", "plans"))

	return &Services{
		Plans:     plans,
		Days:      NewDayService(repos.Plans, lessons, ledger, media, cfg, now, log.With("component", "days")),
		Lessons:   lessons,
		Assistant: NewAssistantService(provider, plans, repos.Users, repos.Internships, log.With("component", "assistant")),
		Ledger:    ledger,
		Migrator:  NewSlugMigrator(repos.Users, repos.Plans, repos.Lessons, log),
	}
}
