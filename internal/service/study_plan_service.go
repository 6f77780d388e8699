package service

import (
	"context"
	"errors"
	"fmt"

	"alcyxob/intern-platform/internal/config"
	"alcyxob/intern-platform/internal/domain"
	"alcyxob/intern-platform/internal/logger"
	"alcyxob/intern-platform/internal/repository"
	"alcyxob/intern-platform/internal/slug"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateResult is the outcome of a create request. Plan is nil when the
// student already meets the company's benchmark.
type CreateResult struct {
	Plan      *domain.Plan
	Created   bool
	NeedsPlan bool
	Benchmark Benchmark
}

// PlanService manages the lifecycle of study plans.
type PlanService interface {
	Create(ctx context.Context, actor Actor, companyID primitive.ObjectID) (*CreateResult, error)
	Get(ctx context.Context, actor Actor, ref string) (*domain.Plan, error)
	ListActive(ctx context.Context, actor Actor) ([]domain.Plan, error)
	ListArchived(ctx context.Context, actor Actor) ([]domain.Plan, error)
	Archive(ctx context.Context, actor Actor, ref string) (*domain.Plan, error)

	// Admin only
	ListAll(ctx context.Context, actor Actor, limit, offset int64) ([]domain.Plan, int64, error)
	Delete(ctx context.Context, actor Actor, id primitive.ObjectID) error
}

type planService struct {
	userRepo       repository.UserRepository
	internshipRepo repository.InternshipRepository
	planRepo       repository.StudyPlanRepository
	weakness       WeaknessAnalyzer
	curriculum     CurriculumGenerator
	cfg            config.StudyPlanConfig
	now            Clock
	log            *logger.Logger
}

// NewPlanService creates a new instance of planService.
func NewPlanService(
	userRepo repository.UserRepository,
	internshipRepo repository.InternshipRepository,
	planRepo repository.StudyPlanRepository,
	weakness WeaknessAnalyzer,
	curriculum CurriculumGenerator,
	cfg config.StudyPlanConfig,
	now Clock,
	log *logger.Logger,
) PlanService {
	if now == nil {
		now = systemClock
	}
	return &planService{
		userRepo:       userRepo,
		internshipRepo: internshipRepo,
		planRepo:       planRepo,
		weakness:       weakness,
		curriculum:     curriculum,
		cfg:            cfg,
		now:            now,
		log:            log,
	}
}

func (s *planService) Create(ctx context.Context, actor Actor, companyID primitive.ObjectID) (*CreateResult, error) {
	if companyID.IsZero() {
		return nil, ErrTargetCompanyRequired
	}
	if actor.Role != domain.RoleStudent {
		return nil, ErrNotStudent
	}
	student, err := s.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("loading student: %w", err)
	}
	company, err := s.userRepo.GetByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTargetCompanyNotFound
		}
		return nil, fmt.Errorf("loading company: %w", err)
	}
	if !company.IsCompany() {
		return nil, ErrTargetCompanyNotFound
	}

	bench, err := companyBenchmark(ctx, s.internshipRepo, s.userRepo, companyID, s.cfg.DefaultMinGPA, s.cfg.DefaultMinEnglish)
	if err != nil {
		return nil, err
	}

	existing, err := s.planRepo.FindActiveForTarget(ctx, student.ID, companyID)
	switch {
	case err == nil:
		return &CreateResult{Plan: existing, NeedsPlan: true, Benchmark: bench}, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("checking existing plan: %w", err)
	}

	if !bench.NeedsPlan(student) {
		return &CreateResult{NeedsPlan: false, Benchmark: bench}, nil
	}

	// The count and the insert are not serialized; a burst of requests can
	// overshoot the limit by one.
	active, err := s.planRepo.CountActive(ctx, student.ID)
	if err != nil {
		return nil, fmt.Errorf("counting active plans: %w", err)
	}
	if active >= int64(s.cfg.MaxActivePlans) {
		return nil, &LimitExceededError{Limit: s.cfg.MaxActivePlans, Active: active}
	}

	weak := s.weakness.Analyze(ctx, student.ID)
	info := domain.CompanyInfo{}
	if company.CompanyInfo != nil {
		info = *company.CompanyInfo
	}
	cur := s.curriculum.Generate(ctx, StudentProfile{
		GPA:          student.GPA,
		EnglishLevel: student.EnglishLevel,
		Department:   student.Department,
		WeakSubjects: weak,
	}, CompanyProfile{Name: company.Name, Sector: info.Sector, About: info.About})

	plan := s.buildPlan(student, company, weak, cur)
	for attempt := 0; ; attempt++ {
		plan.Slug, err = slug.Unique(ctx, planSlugBase(student.FullName(), company.Name), "study-plan", s.planRepo.SlugExists)
		if err != nil {
			return nil, fmt.Errorf("plan slug: %w", err)
		}
		plan.ID, err = s.planRepo.Create(ctx, plan)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicate) || attempt > 0 {
			return nil, fmt.Errorf("creating plan: %w", err)
		}
	}

	s.log.Info("study plan created",
		"planID", plan.ID.Hex(), "studentID", student.ID.Hex(), "companyID", companyID.Hex(),
		"source", cur.Source, "weakSubjects", len(weak))
	return &CreateResult{Plan: plan, Created: true, NeedsPlan: true, Benchmark: bench}, nil
}

func (s *planService) buildPlan(student, company *domain.User, weak []string, cur Curriculum) *domain.Plan {
	now := s.now()
	taken := make(map[string]struct{}, len(cur.Days))
	days := make([]domain.DayUnit, len(cur.Days))
	for i, entry := range cur.Days {
		day := domain.DayUnit{
			DayNumber: entry.Day,
			Slug:      slug.UniqueIn(slug.Make(entry.Topic), fmt.Sprintf("day-%d", entry.Day), taken),
			Topic:     entry.Topic,
			Content:   placeholderBody(entry.Topic, entry.Emphasized),
			State:     domain.DayLocked,
		}
		if i == 0 {
			day.State = domain.DayUnlocked
		}
		if cur.Source == SourceFallback {
			day.Questions = FallbackQuestions(entry.Topic, s.cfg.QuestionsPerDay)
		}
		days[i] = day
	}
	return &domain.Plan{
		StudentID:         student.ID,
		TargetCompanyID:   company.ID,
		TargetCompanyName: company.Name,
		WeakSubjects:      weak,
		CurriculumSource:  cur.Source,
		Days:              days,
		IsActive:          true,
		StartDate:         now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func planSlugBase(studentName, companyName string) string {
	return slug.Make(studentName + "-" + companyName + "-hazirlik")
}

func placeholderBody(topic string, emphasized bool) string {
	note := ""
	if emphasized {
		note = "> This subject was flagged as weak in your records. Take extra care.\n\n"
	}
	return fmt.Sprintf("## %s\n\n%s%s Content will be prepared when you open this day.", topic, note, domain.PlaceholderMarker)
}

func (s *planService) Get(ctx context.Context, actor Actor, ref string) (*domain.Plan, error) {
	plan, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !actor.canRead(plan.StudentID) {
		return nil, ErrForbidden
	}
	plan.ResolveStates(s.now())
	return plan, nil
}

// load finds a plan by hex id or slug.
func (s *planService) load(ctx context.Context, ref string) (*domain.Plan, error) {
	return loadPlan(ctx, s.planRepo, ref)
}

func loadPlan(ctx context.Context, repo repository.StudyPlanRepository, ref string) (*domain.Plan, error) {
	var (
		plan *domain.Plan
		err  error
	)
	if id, perr := primitive.ObjectIDFromHex(ref); perr == nil {
		plan, err = repo.GetByID(ctx, id)
	} else {
		plan, err = repo.GetBySlug(ctx, ref)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("loading plan: %w", err)
	}
	return plan, nil
}

func (s *planService) ListActive(ctx context.Context, actor Actor) ([]domain.Plan, error) {
	if actor.Role != domain.RoleStudent {
		return nil, ErrNotStudent
	}
	return s.resolved(s.planRepo.ListByStudent(ctx, actor.ID, true))
}

func (s *planService) ListArchived(ctx context.Context, actor Actor) ([]domain.Plan, error) {
	if actor.Role != domain.RoleStudent {
		return nil, ErrNotStudent
	}
	return s.resolved(s.planRepo.ListByStudent(ctx, actor.ID, false))
}

// resolved applies lazy unlocking to a listing.
func (s *planService) resolved(plans []domain.Plan, err error) ([]domain.Plan, error) {
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range plans {
		plans[i].ResolveStates(now)
	}
	return plans, nil
}

// Archive deactivates a plan. Archiving an archived plan is a no-op.
func (s *planService) Archive(ctx context.Context, actor Actor, ref string) (*domain.Plan, error) {
	plan, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	if plan.StudentID != actor.ID && actor.Role != domain.RoleAdmin {
		return nil, ErrForbidden
	}
	if !plan.IsActive {
		plan.ResolveStates(s.now())
		return plan, nil
	}
	at := s.now()
	if err := s.planRepo.Archive(ctx, plan.ID, at); err != nil && !errors.Is(err, repository.ErrConflict) {
		return nil, fmt.Errorf("archiving plan: %w", err)
	}
	s.log.Info("study plan archived", "planID", plan.ID.Hex(), "by", actor.ID.Hex())
	archived, err := s.load(ctx, plan.ID.Hex())
	if err != nil {
		return nil, err
	}
	archived.ResolveStates(at)
	return archived, nil
}

func (s *planService) ListAll(ctx context.Context, actor Actor, limit, offset int64) ([]domain.Plan, int64, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, 0, ErrForbidden
	}
	plans, total, err := s.planRepo.ListAll(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	now := s.now()
	for i := range plans {
		plans[i].ResolveStates(now)
	}
	return plans, total, nil
}

func (s *planService) Delete(ctx context.Context, actor Actor, id primitive.ObjectID) error {
	if actor.Role != domain.RoleAdmin {
		return ErrForbidden
	}
	if err := s.planRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return fmt.Errorf("deleting plan: %w", err)
	}
	s.log.Warn("study plan deleted", "planID", id.Hex(), "by", actor.ID.Hex())
	return nil
}
