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

const lessonCollectionName = "master_lessons"

// mongoLessonRepository implements repository.LessonRepository
type mongoLessonRepository struct {
	collection *mongo.Collection
}

// NewMongoLessonRepository creates a new master lesson repository backed by MongoDB.
func NewMongoLessonRepository(db *mongo.Database) repository.LessonRepository {
	return &mongoLessonRepository{
		collection: db.Collection(lessonCollectionName),
	}
}

func (r *mongoLessonRepository) findOne(ctx context.Context, filter bson.M) (*domain.MasterLesson, error) {
	var lesson domain.MasterLesson
	err := r.collection.FindOne(ctx, filter).Decode(&lesson)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &lesson, nil
}

// FindByKey looks a lesson up by its normalized topic key.
func (r *mongoLessonRepository) FindByKey(ctx context.Context, topicKey string) (*domain.MasterLesson, error) {
	return r.findOne(ctx, bson.M{"topicKey": topicKey})
}

func (r *mongoLessonRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MasterLesson, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoLessonRepository) GetBySlug(ctx context.Context, slug string) (*domain.MasterLesson, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *mongoLessonRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Scan streams lessons, most recently updated first, projecting only what
// similarity matching needs until fn accepts one.
func (r *mongoLessonRepository) Scan(ctx context.Context, limit int64, fn func(*domain.MasterLesson) bool) error {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "lastUpdated", Value: -1}}).
		SetProjection(bson.M{"_id": 1, "topicKey": 1, "displayTopic": 1})
	if limit > 0 {
		findOptions.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var stub domain.MasterLesson
		if err := cursor.Decode(&stub); err != nil {
			return err
		}
		if !fn(&stub) {
			return nil
		}
	}
	return cursor.Err()
}

// Upsert replaces the content for a topic key. Identity fields (slug,
// createdAt) are only written on insert.
func (r *mongoLessonRepository) Upsert(ctx context.Context, lesson *domain.MasterLesson) (*domain.MasterLesson, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"displayTopic": lesson.DisplayTopic,
			"content":      lesson.Content,
			"questions":    lesson.Questions,
			"mediaUrl":     lesson.MediaURL,
			"language":     lesson.Language,
			"model":        lesson.Model,
			"lastUpdated":  now,
		},
		"$setOnInsert": bson.M{
			"slug":      lesson.Slug,
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored domain.MasterLesson
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"topicKey": lesson.TopicKey}, update, opts).Decode(&stored)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, err
	}
	return &stored, nil
}

// List pages over cached lessons without their bodies.
func (r *mongoLessonRepository) List(ctx context.Context, limit, offset int64) ([]domain.MasterLesson, int64, error) {
	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "lastUpdated", Value: -1}}).
		SetSkip(offset).
		SetProjection(bson.M{"content": 0, "questions": 0})
	if limit > 0 {
		findOptions.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	lessons := []domain.MasterLesson{}
	if err = cursor.All(ctx, &lessons); err != nil {
		return nil, 0, err
	}
	return lessons, total, nil
}

func (r *mongoLessonRepository) ListMissingSlugs(ctx context.Context) ([]domain.MasterLesson, error) {
	filter := bson.M{"slug": bson.M{"$in": bson.A{nil, ""}}}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetProjection(bson.M{"content": 0, "questions": 0}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	lessons := []domain.MasterLesson{}
	if err = cursor.All(ctx, &lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *mongoLessonRepository) SetSlug(ctx context.Context, id primitive.ObjectID, slug string) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"slug": slug}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureLessonIndexes creates the unique topic key and slug indexes.
func EnsureLessonIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "topicKey", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"slug": bson.M{"$type": "string", "$gt": ""}}),
		},
		{
			Keys: bson.D{{Key: "lastUpdated", Value: -1}},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
