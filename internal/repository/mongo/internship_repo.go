package mongo

import (
	"context"
	"errors"
	"time"

	"alcyxob/intern-platform/internal/domain"
	"alcyxob/intern-platform/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const internshipCollectionName = "internships"

type mongoInternshipRepository struct {
	collection *mongo.Collection
}

// NewMongoInternshipRepository creates a new Internship repository backed by MongoDB.
func NewMongoInternshipRepository(db *mongo.Database) repository.InternshipRepository {
	return &mongoInternshipRepository{
		collection: db.Collection(internshipCollectionName),
	}
}

// Create inserts a new internship posting.
func (r *mongoInternshipRepository) Create(ctx context.Context, internship *domain.Internship) (primitive.ObjectID, error) {
	if internship.CompanyID.IsZero() {
		return primitive.NilObjectID, errors.New("internship requires a company")
	}
	if internship.ID.IsZero() {
		internship.ID = primitive.NewObjectID()
	}
	internship.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, internship)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// ListByCompany retrieves every posting of a company, including inactive ones.
func (r *mongoInternshipRepository) ListByCompany(ctx context.Context, companyID primitive.ObjectID) ([]domain.Internship, error) {
	return r.find(ctx, bson.M{"company": companyID}, options.Find())
}

// ListActive retrieves open postings, newest first.
func (r *mongoInternshipRepository) ListActive(ctx context.Context, limit int64) ([]domain.Internship, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetProjection(bson.M{"applicants": 0})
	if limit > 0 {
		findOptions.SetLimit(limit)
	}
	return r.find(ctx, bson.M{"isActive": true}, findOptions)
}

func (r *mongoInternshipRepository) find(ctx context.Context, filter bson.M, findOptions *options.FindOptions) ([]domain.Internship, error) {
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	internships := []domain.Internship{}
	if err = cursor.All(ctx, &internships); err != nil {
		return nil, err
	}
	return internships, nil
}

// EnsureInternshipIndexes creates necessary indexes for the internships collection.
func EnsureInternshipIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "company", Value: 1}}},
		{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
