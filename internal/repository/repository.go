package repository

import (
	"context"
	"time"

	"alcyxob/intern-platform/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate key")
	ErrConflict     = RepositoryError("precondition failed")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// DayCompletion carries the values written when a day is completed.
type DayCompletion struct {
	DayNumber   int
	Score       int
	XP          int
	CompletedAt time.Time
	// NextUnlockAt is stored on day DayNumber+1, if it exists and is still locked.
	NextUnlockAt time.Time
}

// DayContent is the resolved lesson material persisted onto a day unit.
type DayContent struct {
	Content   string
	Questions []domain.Question
	MediaURL  string
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role, limit int64) ([]domain.User, error)
	// AddXP atomically increments XP and recomputes level as floor(xp/threshold)+1.
	AddXP(ctx context.Context, id primitive.ObjectID, amount, threshold int) (*domain.User, error)
}

// InternshipRepository is read-only from the study plan engine's point of view.
type InternshipRepository interface {
	Create(ctx context.Context, internship *domain.Internship) (primitive.ObjectID, error)
	ListByCompany(ctx context.Context, companyID primitive.ObjectID) ([]domain.Internship, error)
	ListActive(ctx context.Context, limit int64) ([]domain.Internship, error)
}

// StudyPlanRepository defines the interface for interacting with study plan data.
type StudyPlanRepository interface {
	Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Plan, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	ListByStudent(ctx context.Context, studentID primitive.ObjectID, active bool) ([]domain.Plan, error)
	FindActiveForTarget(ctx context.Context, studentID, companyID primitive.ObjectID) (*domain.Plan, error)
	CountActive(ctx context.Context, studentID primitive.ObjectID) (int64, error)
	ListAll(ctx context.Context, limit, offset int64) ([]domain.Plan, int64, error)
	// Archive flips an active plan to inactive. ErrConflict if it was already archived.
	Archive(ctx context.Context, id primitive.ObjectID, at time.Time) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// CompleteDay performs the unlocked -> completed transition as one
	// conditional write. ErrConflict when the day was not completable at c.CompletedAt.
	CompleteDay(ctx context.Context, planID primitive.ObjectID, c DayCompletion) error
	SetDayContent(ctx context.Context, planID primitive.ObjectID, dayNumber int, content DayContent) error
	// Slug maintenance
	ListMissingSlugs(ctx context.Context) ([]domain.Plan, error)
	UpdateSlugs(ctx context.Context, plan *domain.Plan) error
}

// LessonRepository stores the shared master lesson cache.
type LessonRepository interface {
	FindByKey(ctx context.Context, topicKey string) (*domain.MasterLesson, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MasterLesson, error)
	GetBySlug(ctx context.Context, slug string) (*domain.MasterLesson, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	// Scan visits at most limit lessons, most recently updated first, until fn returns false.
	Scan(ctx context.Context, limit int64, fn func(*domain.MasterLesson) bool) error
	// Upsert inserts or replaces by TopicKey, keeping the first ID and slug.
	Upsert(ctx context.Context, lesson *domain.MasterLesson) (*domain.MasterLesson, error)
	List(ctx context.Context, limit, offset int64) ([]domain.MasterLesson, int64, error)
	ListMissingSlugs(ctx context.Context) ([]domain.MasterLesson, error)
	SetSlug(ctx context.Context, id primitive.ObjectID, slug string) error
}
