package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"alcyxob/intern-platform/internal/domain"
	"alcyxob/intern-platform/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type StudyPlanRepository struct {
	t     map[primitive.ObjectID]*domain.Plan
	mutex sync.RWMutex
}

var _ repository.StudyPlanRepository = (*StudyPlanRepository)(nil)

func NewStudyPlanRepository() *StudyPlanRepository {
	return &StudyPlanRepository{t: make(map[primitive.ObjectID]*domain.Plan)}
}

func (r *StudyPlanRepository) Create(_ context.Context, plan *domain.Plan) (primitive.ObjectID, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if plan.Slug != "" {
		for _, p := range r.t {
			if p.Slug == plan.Slug {
				return primitive.NilObjectID, repository.ErrDuplicate
			}
		}
	}
	if plan.ID.IsZero() {
		plan.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now
	r.t[plan.ID] = clonePlan(plan)
	return plan.ID, nil
}

func (r *StudyPlanRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Plan, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	p, ok := r.t[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clonePlan(p), nil
}

func (r *StudyPlanRepository) GetBySlug(_ context.Context, slug string) (*domain.Plan, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, p := range r.t {
		if p.Slug == slug {
			return clonePlan(p), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *StudyPlanRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, err := r.GetBySlug(ctx, slug)
	if err == repository.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *StudyPlanRepository) ListByStudent(_ context.Context, studentID primitive.ObjectID, active bool) ([]domain.Plan, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	plans := make([]domain.Plan, 0)
	for _, p := range r.t {
		if p.StudentID == studentID && p.IsActive == active {
			plans = append(plans, *clonePlan(p))
		}
	}
	sortPlansNewestFirst(plans)
	return plans, nil
}

func (r *StudyPlanRepository) FindActiveForTarget(_ context.Context, studentID, companyID primitive.ObjectID) (*domain.Plan, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, p := range r.t {
		if p.StudentID == studentID && p.TargetCompanyID == companyID && p.IsActive {
			return clonePlan(p), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *StudyPlanRepository) CountActive(_ context.Context, studentID primitive.ObjectID) (int64, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var n int64
	for _, p := range r.t {
		if p.StudentID == studentID && p.IsActive {
			n++
		}
	}
	return n, nil
}

func (r *StudyPlanRepository) ListAll(_ context.Context, limit, offset int64) ([]domain.Plan, int64, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	plans := make([]domain.Plan, 0, len(r.t))
	for _, p := range r.t {
		plans = append(plans, *clonePlan(p))
	}
	sortPlansNewestFirst(plans)
	return page(plans, limit, offset), int64(len(plans)), nil
}

func (r *StudyPlanRepository) Archive(_ context.Context, id primitive.ObjectID, at time.Time) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	p, ok := r.t[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !p.IsActive {
		return repository.ErrConflict
	}
	p.IsActive = false
	p.ArchivedAt = &at
	p.UpdatedAt = at
	return nil
}

func (r *StudyPlanRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.t[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.t, id)
	return nil
}

func (r *StudyPlanRepository) CompleteDay(_ context.Context, planID primitive.ObjectID, c repository.DayCompletion) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	p, ok := r.t[planID]
	if !ok {
		return repository.ErrNotFound
	}
	if !p.IsActive {
		return repository.ErrConflict
	}
	next := clonePlan(p)
	if err := next.CompleteDay(c.DayNumber, c.Score, c.XP, c.CompletedAt, c.NextUnlockAt.Sub(c.CompletedAt)); err != nil {
		return repository.ErrConflict
	}
	// Only days whose predecessor is done may be completed.
	if err := next.CheckProgression(c.CompletedAt); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrConflict, err)
	}
	r.t[planID] = next
	return nil
}

func (r *StudyPlanRepository) SetDayContent(_ context.Context, planID primitive.ObjectID, dayNumber int, content repository.DayContent) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	p, ok := r.t[planID]
	if !ok {
		return repository.ErrNotFound
	}
	day := p.Day(dayNumber)
	if day == nil {
		return repository.ErrNotFound
	}
	day.Content = content.Content
	day.Questions = cloneQuestions(content.Questions)
	if content.MediaURL != "" {
		day.MediaURL = content.MediaURL
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *StudyPlanRepository) ListMissingSlugs(_ context.Context) ([]domain.Plan, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	plans := make([]domain.Plan, 0)
	for _, p := range r.t {
		missing := p.Slug == ""
		for _, d := range p.Days {
			if d.Slug == "" {
				missing = true
			}
		}
		if missing {
			plans = append(plans, *clonePlan(p))
		}
	}
	sortPlansNewestFirst(plans)
	return plans, nil
}

func (r *StudyPlanRepository) UpdateSlugs(_ context.Context, plan *domain.Plan) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	p, ok := r.t[plan.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, other := range r.t {
		if id != plan.ID && plan.Slug != "" && other.Slug == plan.Slug {
			return repository.ErrDuplicate
		}
	}
	p.Slug = plan.Slug
	for i := range p.Days {
		if d := plan.Day(p.Days[i].DayNumber); d != nil {
			p.Days[i].Slug = d.Slug
		}
	}
	return nil
}
