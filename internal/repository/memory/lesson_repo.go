package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"alcyxob/intern-platform/internal/domain"
	"alcyxob/intern-platform/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type LessonRepository struct {
	byKey map[string]*domain.MasterLesson
	mutex sync.RWMutex
}

var _ repository.LessonRepository = (*LessonRepository)(nil)

func NewLessonRepository() *LessonRepository {
	return &LessonRepository{byKey: make(map[string]*domain.MasterLesson)}
}

func (r *LessonRepository) FindByKey(_ context.Context, topicKey string) (*domain.MasterLesson, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	l, ok := r.byKey[topicKey]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneLesson(l), nil
}

func (r *LessonRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.MasterLesson, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, l := range r.byKey {
		if l.ID == id {
			return cloneLesson(l), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *LessonRepository) GetBySlug(_ context.Context, slug string) (*domain.MasterLesson, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, l := range r.byKey {
		if l.Slug == slug {
			return cloneLesson(l), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *LessonRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, err := r.GetBySlug(ctx, slug)
	if err == repository.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *LessonRepository) sorted() []*domain.MasterLesson {
	lessons := make([]*domain.MasterLesson, 0, len(r.byKey))
	for _, l := range r.byKey {
		lessons = append(lessons, l)
	}
	sort.SliceStable(lessons, func(i, j int) bool {
		if lessons[i].LastUpdated.Equal(lessons[j].LastUpdated) {
			return lessons[i].TopicKey < lessons[j].TopicKey
		}
		return lessons[i].LastUpdated.After(lessons[j].LastUpdated)
	})
	return lessons
}

func (r *LessonRepository) Scan(ctx context.Context, limit int64, fn func(*domain.MasterLesson) bool) error {
	r.mutex.RLock()
	lessons := r.sorted()
	copies := make([]*domain.MasterLesson, 0, len(lessons))
	for i, l := range lessons {
		if limit > 0 && int64(i) >= limit {
			break
		}
		copies = append(copies, cloneLesson(l))
	}
	r.mutex.RUnlock()

	for _, l := range copies {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fn(l) {
			return nil
		}
	}
	return nil
}

func (r *LessonRepository) Upsert(_ context.Context, lesson *domain.MasterLesson) (*domain.MasterLesson, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := time.Now().UTC()
	stored := cloneLesson(lesson)
	if existing, ok := r.byKey[lesson.TopicKey]; ok {
		stored.ID = existing.ID
		stored.Slug = existing.Slug
		stored.CreatedAt = existing.CreatedAt
	} else {
		for _, l := range r.byKey {
			if stored.Slug != "" && l.Slug == stored.Slug {
				return nil, repository.ErrDuplicate
			}
		}
		if stored.ID.IsZero() {
			stored.ID = primitive.NewObjectID()
		}
		stored.CreatedAt = now
	}
	stored.LastUpdated = now
	r.byKey[stored.TopicKey] = stored
	return cloneLesson(stored), nil
}

func (r *LessonRepository) List(_ context.Context, limit, offset int64) ([]domain.MasterLesson, int64, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	sorted := r.sorted()
	lessons := make([]domain.MasterLesson, 0, len(sorted))
	for _, l := range sorted {
		lessons = append(lessons, *cloneLesson(l))
	}
	return page(lessons, limit, offset), int64(len(lessons)), nil
}

func (r *LessonRepository) ListMissingSlugs(_ context.Context) ([]domain.MasterLesson, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	lessons := make([]domain.MasterLesson, 0)
	for _, l := range r.sorted() {
		if l.Slug == "" {
			lessons = append(lessons, *cloneLesson(l))
		}
	}
	return lessons, nil
}

func (r *LessonRepository) SetSlug(_ context.Context, id primitive.ObjectID, slug string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var target *domain.MasterLesson
	for _, l := range r.byKey {
		if l.ID == id {
			target = l
		} else if l.Slug == slug {
			return repository.ErrDuplicate
		}
	}
	if target == nil {
		return repository.ErrNotFound
	}
	target.Slug = slug
	return nil
}
