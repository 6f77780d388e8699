package memory

import (
	"context"
	"sync"
	"time"

	"alcyxob/intern-platform/internal/domain"
	"alcyxob/intern-platform/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type InternshipRepository struct {
	t     []domain.Internship
	mutex sync.RWMutex
}

var _ repository.InternshipRepository = (*InternshipRepository)(nil)

func NewInternshipRepository() *InternshipRepository {
	return &InternshipRepository{}
}

func (r *InternshipRepository) Create(_ context.Context, internship *domain.Internship) (primitive.ObjectID, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if internship.ID.IsZero() {
		internship.ID = primitive.NewObjectID()
	}
	if internship.CreatedAt.IsZero() {
		internship.CreatedAt = time.Now().UTC()
	}
	c := *internship
	c.Applicants = append([]domain.Applicant(nil), internship.Applicants...)
	r.t = append(r.t, c)
	return internship.ID, nil
}

func (r *InternshipRepository) ListByCompany(_ context.Context, companyID primitive.ObjectID) ([]domain.Internship, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]domain.Internship, 0)
	for _, in := range r.t {
		if in.CompanyID == companyID {
			in.Applicants = append([]domain.Applicant(nil), in.Applicants...)
			out = append(out, in)
		}
	}
	return out, nil
}

func (r *InternshipRepository) ListActive(_ context.Context, limit int64) ([]domain.Internship, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]domain.Internship, 0)
	for _, in := range r.t {
		if in.IsActive {
			in.Applicants = append([]domain.Applicant(nil), in.Applicants...)
			out = append(out, in)
		}
	}
	return page(out, limit, 0), nil
}
