// Package memory implements the repositories on mutex-guarded maps. It backs
// the "memory" database driver and the service tests.
package memory

import (
	"sort"

	"alcyxob/intern-platform/internal/domain"
)

// DB groups the in-memory tables so they can be handed to the services together.
type DB struct {
	Users       *UserRepository
	Internships *InternshipRepository
	Plans       *StudyPlanRepository
	Lessons     *LessonRepository
}

func Open() *DB {
	return &DB{
		Users:       NewUserRepository(),
		Internships: NewInternshipRepository(),
		Plans:       NewStudyPlanRepository(),
		Lessons:     NewLessonRepository(),
	}
}

func cloneQuestions(qs []domain.Question) []domain.Question {
	if qs == nil {
		return nil
	}
	out := make([]domain.Question, len(qs))
	for i, q := range qs {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}

func clonePlan(p *domain.Plan) *domain.Plan {
	c := *p
	c.WeakSubjects = append([]string(nil), p.WeakSubjects...)
	c.Days = make([]domain.DayUnit, len(p.Days))
	for i, d := range p.Days {
		d.Questions = cloneQuestions(d.Questions)
		if d.UnlockAt != nil {
			t := *d.UnlockAt
			d.UnlockAt = &t
		}
		if d.CompletedAt != nil {
			t := *d.CompletedAt
			d.CompletedAt = &t
		}
		c.Days[i] = d
	}
	if p.ArchivedAt != nil {
		t := *p.ArchivedAt
		c.ArchivedAt = &t
	}
	return &c
}

func cloneLesson(l *domain.MasterLesson) *domain.MasterLesson {
	c := *l
	c.Questions = cloneQuestions(l.Questions)
	return &c
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.Transcript = append([]domain.TranscriptEntry(nil), u.Transcript...)
	if u.CompanyInfo != nil {
		ci := *u.CompanyInfo
		c.CompanyInfo = &ci
	}
	return &c
}

func page[T any](items []T, limit, offset int64) []T {
	if offset >= int64(len(items)) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < int64(len(items)) {
		items = items[:limit]
	}
	return items
}

func sortPlansNewestFirst(plans []domain.Plan) {
	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].CreatedAt.After(plans[j].CreatedAt)
	})
}
