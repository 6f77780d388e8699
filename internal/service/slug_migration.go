package service

import (
	"context"
	"fmt"

	"alcyxob/intern-platform/internal/domain"
	"alcyxob/intern-platform/internal/logger"
	"alcyxob/intern-platform/internal/repository"
	"alcyxob/intern-platform/internal/slug"
)

// MigrationReport counts the slugs written by a backfill run.
type MigrationReport struct {
	Plans   int
	Days    int
	Lessons int
}

// SlugMigrator backfills slugs on records created before slugs existed.
type SlugMigrator struct {
	userRepo   repository.UserRepository
	planRepo   repository.StudyPlanRepository
	lessonRepo repository.LessonRepository
	log        *logger.Logger
}

func NewSlugMigrator(
	userRepo repository.UserRepository,
	planRepo repository.StudyPlanRepository,
	lessonRepo repository.LessonRepository,
	log *logger.Logger,
) *SlugMigrator {
	return &SlugMigrator{userRepo: userRepo, planRepo: planRepo, lessonRepo: lessonRepo, log: log}
}

// Run is safe to repeat; records that already carry a slug keep it.
func (m *SlugMigrator) Run(ctx context.Context) (MigrationReport, error) {
	var report MigrationReport

	plans, err := m.planRepo.ListMissingSlugs(ctx)
	if err != nil {
		return report, fmt.Errorf("listing plans without slugs: %w", err)
	}
	for i := range plans {
		plan := &plans[i]
		wrotePlan, days, err := m.fillPlan(ctx, plan)
		if err != nil {
			return report, err
		}
		if err := m.planRepo.UpdateSlugs(ctx, plan); err != nil {
			return report, fmt.Errorf("saving slugs for plan %s: %w", plan.ID.Hex(), err)
		}
		if wrotePlan {
			report.Plans++
		}
		report.Days += days
		m.log.Debug("plan slugs backfilled", "planID", plan.ID.Hex(), "slug", plan.Slug, "days", days)
	}

	lessons, err := m.lessonRepo.ListMissingSlugs(ctx)
	if err != nil {
		return report, fmt.Errorf("listing lessons without slugs: %w", err)
	}
	for _, l := range lessons {
		s, err := slug.Unique(ctx, slug.Make(l.DisplayTopic), "lesson", m.lessonRepo.SlugExists)
		if err != nil {
			return report, fmt.Errorf("lesson slug: %w", err)
		}
		if err := m.lessonRepo.SetSlug(ctx, l.ID, s); err != nil {
			return report, fmt.Errorf("saving slug for lesson %s: %w", l.ID.Hex(), err)
		}
		report.Lessons++
	}

	m.log.Info("slug migration finished", "plans", report.Plans, "days", report.Days, "lessons", report.Lessons)
	return report, nil
}

func (m *SlugMigrator) fillPlan(ctx context.Context, plan *domain.Plan) (bool, int, error) {
	wrotePlan := false
	if plan.Slug == "" {
		studentName := "student"
		if u, err := m.userRepo.GetByID(ctx, plan.StudentID); err == nil {
			studentName = u.FullName()
		}
		companyName := plan.TargetCompanyName
		if c, err := m.userRepo.GetByID(ctx, plan.TargetCompanyID); err == nil {
			companyName = c.Name
		}
		s, err := slug.Unique(ctx, planSlugBase(studentName, companyName), "study-plan", m.planRepo.SlugExists)
		if err != nil {
			return false, 0, fmt.Errorf("plan slug: %w", err)
		}
		plan.Slug = s
		wrotePlan = true
	}

	taken := make(map[string]struct{}, len(plan.Days))
	for _, d := range plan.Days {
		if d.Slug != "" {
			taken[d.Slug] = struct{}{}
		}
	}
	days := 0
	for i := range plan.Days {
		d := &plan.Days[i]
		if d.Slug != "" {
			continue
		}
		d.Slug = slug.UniqueIn(slug.Make(d.Topic), fmt.Sprintf("day-%d", d.DayNumber), taken)
		days++
	}
	return wrotePlan, days, nil
}
