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

type UserRepository struct {
	t     map[primitive.ObjectID]*domain.User
	mutex sync.RWMutex
}

var _ repository.UserRepository = (*UserRepository)(nil)

func NewUserRepository() *UserRepository {
	return &UserRepository{t: make(map[primitive.ObjectID]*domain.User)}
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if _, exists := r.t[user.ID]; exists {
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if user.Level == 0 {
		user.Level = 1
	}
	r.t[user.ID] = cloneUser(user)
	return user.ID, nil
}

func (r *UserRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	u, ok := r.t[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepository) ListByRole(_ context.Context, role domain.Role, limit int64) ([]domain.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	users := make([]domain.User, 0)
	for _, u := range r.t {
		if u.Role == role {
			users = append(users, *cloneUser(u))
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return page(users, limit, 0), nil
}

func (r *UserRepository) AddXP(_ context.Context, id primitive.ObjectID, amount, threshold int) (*domain.User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	u, ok := r.t[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u.XP += amount
	u.Level = u.XP/threshold + 1
	u.UpdatedAt = time.Now().UTC()
	return cloneUser(u), nil
}
