package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"alcyxob/intern-platform/internal/domain"
	"alcyxob/intern-platform/internal/logger"
	"alcyxob/intern-platform/internal/repository"
	"alcyxob/intern-platform/internal/slug"
	"alcyxob/intern-platform/internal/topic"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const lessonLanguage = "tr"

// LessonCacheOptions tunes the similarity fallback of the cache.
type LessonCacheOptions struct {
	MinQuestions        int
	SimilarityThreshold float64
	ScanLimit           int64
}

// LessonCache is the shared master lesson store, filled on demand.
type LessonCache interface {
	// Find returns a usable cached lesson for t, or nil on a miss.
	Find(ctx context.Context, t string) *domain.MasterLesson
	// Resolve returns cached content for t or generates and caches it.
	Resolve(ctx context.Context, t string, emphasize bool) (*LessonContent, bool, error)
	// Store upserts content under t. Failures are logged, never returned.
	Store(ctx context.Context, t string, content *LessonContent) *domain.MasterLesson
	// Regenerate bypasses the cache and overwrites the entry for t.
	Regenerate(ctx context.Context, t string) (*domain.MasterLesson, error)
	List(ctx context.Context, limit, offset int64) ([]domain.MasterLesson, int64, error)
	// Get looks a lesson up by hex id or slug.
	Get(ctx context.Context, ref string) (*domain.MasterLesson, error)
}

type lessonCache struct {
	repo      repository.LessonRepository
	generator ContentGenerator
	opts      LessonCacheOptions
	now       Clock
	log       *logger.Logger
}

func NewLessonCache(
	repo repository.LessonRepository,
	generator ContentGenerator,
	opts LessonCacheOptions,
	now Clock,
	log *logger.Logger,
) LessonCache {
	if now == nil {
		now = systemClock
	}
	if opts.SimilarityThreshold <= 0 {
		opts.SimilarityThreshold = topic.DefaultThreshold
	}
	return &lessonCache{repo: repo, generator: generator, opts: opts, now: now, log: log}
}

// Find tries the exact normalized key first, then scans entries in recency
// order and takes the first whose display topic is similar enough. The scan
// is linear in the cache size, bounded by ScanLimit.
func (c *lessonCache) Find(ctx context.Context, t string) *domain.MasterLesson {
	key := topic.Normalize(t)
	if key == "" {
		return nil
	}

	lesson, err := c.repo.FindByKey(ctx, key)
	switch {
	case err == nil:
		if c.usable(lesson) {
			return lesson
		}
	case !errors.Is(err, repository.ErrNotFound):
		c.log.Warn("lesson cache lookup failed", "topicKey", key, "error", err)
		return nil
	}

	var matchID primitive.ObjectID
	err = c.repo.Scan(ctx, c.opts.ScanLimit, func(l *domain.MasterLesson) bool {
		if l.TopicKey == key {
			return true
		}
		if topic.Similar(l.DisplayTopic, t, c.opts.SimilarityThreshold) {
			matchID = l.ID
			return false
		}
		return true
	})
	if err != nil {
		c.log.Warn("lesson cache scan failed", "topic", t, "error", err)
		return nil
	}
	if matchID.IsZero() {
		return nil
	}

	lesson, err = c.repo.GetByID(ctx, matchID)
	if err != nil {
		c.log.Warn("loading similar lesson failed", "id", matchID.Hex(), "error", err)
		return nil
	}
	if !c.usable(lesson) {
		return nil
	}
	c.log.Debug("lesson cache similarity hit", "topic", t, "matched", lesson.DisplayTopic)
	return lesson
}

func (c *lessonCache) usable(l *domain.MasterLesson) bool {
	return !domain.IsPlaceholderContent(l.Content) && len(l.Questions) >= c.opts.MinQuestions
}

func (c *lessonCache) Resolve(ctx context.Context, t string, emphasize bool) (*LessonContent, bool, error) {
	if hit := c.Find(ctx, t); hit != nil {
		return &LessonContent{
			Body:      hit.Content,
			Questions: hit.Questions,
			MediaURL:  hit.MediaURL,
			Model:     hit.Model,
		}, true, nil
	}
	content, err := c.generator.Generate(ctx, t, emphasize)
	if err != nil {
		return nil, false, err
	}
	c.Store(ctx, t, content)
	return content, false, nil
}

func (c *lessonCache) Store(ctx context.Context, t string, content *LessonContent) *domain.MasterLesson {
	lesson, err := c.upsert(ctx, t, content)
	if err != nil {
		c.log.Warn("lesson cache write failed", "topic", t, "error", err)
		return nil
	}
	return lesson
}

func (c *lessonCache) upsert(ctx context.Context, t string, content *LessonContent) (*domain.MasterLesson, error) {
	key := topic.Normalize(t)
	if key == "" {
		return nil, ErrTopicRequired
	}
	s, err := slug.Unique(ctx, slug.Make(t), "lesson", c.repo.SlugExists)
	if err != nil {
		return nil, fmt.Errorf("lesson slug: %w", err)
	}
	now := c.now()
	return c.repo.Upsert(ctx, &domain.MasterLesson{
		TopicKey:     key,
		Slug:         s,
		DisplayTopic: strings.TrimSpace(t),
		Content:      content.Body,
		Questions:    content.Questions,
		MediaURL:     content.MediaURL,
		Language:     lessonLanguage,
		Model:        content.Model,
		CreatedAt:    now,
		LastUpdated:  now,
	})
}

func (c *lessonCache) Regenerate(ctx context.Context, t string) (*domain.MasterLesson, error) {
	t = strings.TrimSpace(t)
	if topic.Normalize(t) == "" {
		return nil, ErrTopicRequired
	}
	content, err := c.generator.Generate(ctx, t, topic.IsEmphasized(t))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	lesson, err := c.upsert(ctx, t, content)
	if err != nil {
		return nil, fmt.Errorf("storing regenerated lesson: %w", err)
	}
	c.log.Info("lesson regenerated", "topicKey", lesson.TopicKey, "slug", lesson.Slug)
	return lesson, nil
}

func (c *lessonCache) List(ctx context.Context, limit, offset int64) ([]domain.MasterLesson, int64, error) {
	return c.repo.List(ctx, limit, offset)
}

func (c *lessonCache) Get(ctx context.Context, ref string) (*domain.MasterLesson, error) {
	var (
		lesson *domain.MasterLesson
		err    error
	)
	if id, perr := primitive.ObjectIDFromHex(ref); perr == nil {
		lesson, err = c.repo.GetByID(ctx, id)
	} else {
		lesson, err = c.repo.GetBySlug(ctx, ref)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrLessonNotFound
	}
	return lesson, err
}
