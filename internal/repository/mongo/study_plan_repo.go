package mongo

import (
	"context"
	"errors"
	"strconv"
	"time"

	"alcyxob/intern-platform/internal/domain"
	"alcyxob/intern-platform/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const studyPlanCollectionName = "study_plans"

// mongoStudyPlanRepository implements repository.StudyPlanRepository
type mongoStudyPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoStudyPlanRepository creates a new StudyPlan repository.
func NewMongoStudyPlanRepository(db *mongo.Database) repository.StudyPlanRepository {
	return &mongoStudyPlanRepository{
		collection: db.Collection(studyPlanCollectionName),
	}
}

// Create inserts a new study plan with its embedded day units.
func (r *mongoStudyPlanRepository) Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error) {
	if plan.StudentID.IsZero() || plan.TargetCompanyID.IsZero() || len(plan.Days) == 0 {
		return primitive.NilObjectID, errors.New("plan requires studentId, targetCompanyId and days")
	}
	if plan.ID.IsZero() {
		plan.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted plan ID")
	}
	return insertedID, nil
}

func (r *mongoStudyPlanRepository) findOne(ctx context.Context, filter bson.M) (*domain.Plan, error) {
	var plan domain.Plan
	err := r.collection.FindOne(ctx, filter).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *mongoStudyPlanRepository) find(ctx context.Context, filter bson.M, findOptions *options.FindOptions) ([]domain.Plan, error) {
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	plans := []domain.Plan{}
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// GetByID retrieves a single study plan by its ID.
func (r *mongoStudyPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetBySlug retrieves a single study plan by its slug.
func (r *mongoStudyPlanRepository) GetBySlug(ctx context.Context, slug string) (*domain.Plan, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *mongoStudyPlanRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByStudent retrieves a student's active or archived plans, newest first.
func (r *mongoStudyPlanRepository) ListByStudent(ctx context.Context, studentID primitive.ObjectID, active bool) ([]domain.Plan, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, bson.M{"studentId": studentID, "isActive": active}, findOptions)
}

func (r *mongoStudyPlanRepository) FindActiveForTarget(ctx context.Context, studentID, companyID primitive.ObjectID) (*domain.Plan, error) {
	return r.findOne(ctx, bson.M{"studentId": studentID, "targetCompanyId": companyID, "isActive": true})
}

func (r *mongoStudyPlanRepository) CountActive(ctx context.Context, studentID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"studentId": studentID, "isActive": true})
}

// ListAll pages over every plan for the admin view. Day bodies are not loaded.
func (r *mongoStudyPlanRepository) ListAll(ctx context.Context, limit, offset int64) ([]domain.Plan, int64, error) {
	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(offset).
		SetProjection(bson.M{"modules.lectureContent": 0, "modules.questions": 0})
	if limit > 0 {
		findOptions.SetLimit(limit)
	}
	plans, err := r.find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, 0, err
	}
	return plans, total, nil
}

// Archive flips isActive off. Matching on isActive keeps it a single conditional write.
func (r *mongoStudyPlanRepository) Archive(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	filter := bson.M{"_id": id, "isActive": true}
	update := bson.M{"$set": bson.M{"isActive": false, "archivedAt": at, "updatedAt": at}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return r.missingOrConflict(ctx, id)
	}
	return nil
}

// Delete permanently removes a plan.
func (r *mongoStudyPlanRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CompleteDay matches the plan only while the target day is unlocked (either
// explicitly or by an elapsed unlockAt), then marks it completed and stamps
// the next day's unlockAt in the same update.
func (r *mongoStudyPlanRepository) CompleteDay(ctx context.Context, planID primitive.ObjectID, c repository.DayCompletion) error {
	filter := bson.M{
		"_id":      planID,
		"isActive": true,
		"modules": bson.M{"$elemMatch": bson.M{
			"dayNumber": c.DayNumber,
			"$or": bson.A{
				bson.M{"state": domain.DayUnlocked},
				bson.M{"state": domain.DayLocked, "unlockAt": bson.M{"$lte": c.CompletedAt}},
			},
		}},
	}
	update := bson.M{"$set": bson.M{
		"modules.$[cur].state":       domain.DayCompleted,
		"modules.$[cur].score":       c.Score,
		"modules.$[cur].xpAwarded":   c.XP,
		"modules.$[cur].completedAt": c.CompletedAt,
		"modules.$[next].unlockAt":   c.NextUnlockAt,
		"updatedAt":                  c.CompletedAt,
	}}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{Filters: []interface{}{
		bson.M{"cur.dayNumber": c.DayNumber},
		bson.M{"next.dayNumber": c.DayNumber + 1, "next.state": domain.DayLocked},
	}})

	result, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return r.missingOrConflict(ctx, planID)
	}
	return nil
}

// SetDayContent stores resolved lesson material on one day unit.
func (r *mongoStudyPlanRepository) SetDayContent(ctx context.Context, planID primitive.ObjectID, dayNumber int, content repository.DayContent) error {
	set := bson.M{
		"modules.$.lectureContent": content.Content,
		"modules.$.questions":      content.Questions,
		"updatedAt":                time.Now().UTC(),
	}
	if content.MediaURL != "" {
		set["modules.$.mediaUrl"] = content.MediaURL
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": planID, "modules.dayNumber": dayNumber}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListMissingSlugs finds plans whose own slug or any day slug is empty.
func (r *mongoStudyPlanRepository) ListMissingSlugs(ctx context.Context) ([]domain.Plan, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"slug": bson.M{"$in": bson.A{nil, ""}}},
		bson.M{"modules": bson.M{"$elemMatch": bson.M{"slug": bson.M{"$in": bson.A{nil, ""}}}}},
	}}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

// UpdateSlugs writes the plan slug and every day slug.
func (r *mongoStudyPlanRepository) UpdateSlugs(ctx context.Context, plan *domain.Plan) error {
	set := bson.M{"slug": plan.Slug}
	for i, d := range plan.Days {
		set["modules."+strconv.Itoa(i)+".slug"] = d.Slug
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": plan.ID}, bson.M{"$set": set})
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

func (r *mongoStudyPlanRepository) missingOrConflict(ctx context.Context, id primitive.ObjectID) error {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

// EnsureStudyPlanIndexes creates the slug and per-student lookup indexes.
func EnsureStudyPlanIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"slug": bson.M{"$type": "string", "$gt": ""}}),
		},
		{
			Keys: bson.D{{Key: "studentId", Value: 1}, {Key: "isActive", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "studentId", Value: 1}, {Key: "targetCompanyId", Value: 1}, {Key: "isActive", Value: 1}},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
