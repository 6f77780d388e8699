package mongo

import (
	"context"
	"testing"
	"time"

	"alcyxob/intern-platform/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestStudyPlanRepository_CompleteDay(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	completion := repository.DayCompletion{
		DayNumber:    1,
		Score:        12,
		XP:           84,
		CompletedAt:  time.Now().UTC(),
		NextUnlockAt: time.Now().UTC().Add(20 * time.Hour),
	}

	mt.Run("matched", func(mt *mtest.T) {
		repo := NewMongoStudyPlanRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1},
		))
		require.NoError(mt, repo.CompleteDay(context.Background(), primitive.NewObjectID(), completion))
	})

	mt.Run("not completable", func(mt *mtest.T) {
		repo := NewMongoStudyPlanRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, "test.study_plans", mtest.FirstBatch, bson.D{{Key: "n", Value: 1}}),
		)
		err := repo.CompleteDay(context.Background(), primitive.NewObjectID(), completion)
		assert.ErrorIs(mt, err, repository.ErrConflict)
	})

	mt.Run("missing plan", func(mt *mtest.T) {
		repo := NewMongoStudyPlanRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, "test.study_plans", mtest.FirstBatch),
		)
		err := repo.CompleteDay(context.Background(), primitive.NewObjectID(), completion)
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})
}

func TestUserRepository_AddXP(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns updated user", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: id},
			{Key: "role", Value: "student"},
			{Key: "xp", Value: 1070},
			{Key: "level", Value: 2},
		}}))

		u, err := repo.AddXP(context.Background(), id, 70, 1000)
		require.NoError(mt, err)
		assert.Equal(mt, 1070, u.XP)
		assert.Equal(mt, 2, u.Level)
	})

	mt.Run("unknown user", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := repo.AddXP(context.Background(), primitive.NewObjectID(), 70, 1000)
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})
}

func TestLessonRepository_FindByKey(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("hit", func(mt *mtest.T) {
		repo := NewMongoLessonRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.master_lessons", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "topicKey", Value: "deniz hukuku"},
			{Key: "displayTopic", Value: "Deniz Hukuku"},
			{Key: "content", Value: "# Deniz Hukuku"},
		}))

		l, err := repo.FindByKey(context.Background(), "deniz hukuku")
		require.NoError(mt, err)
		assert.Equal(mt, "Deniz Hukuku", l.DisplayTopic)
	})

	mt.Run("miss", func(mt *mtest.T) {
		repo := NewMongoLessonRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.master_lessons", mtest.FirstBatch))

		_, err := repo.FindByKey(context.Background(), "nothing")
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})
}
