package service

import (
	"context"
	"errors"
	"fmt"

	"alcyxob/intern-platform/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeriveLevel is floor(xp/threshold)+1. Non-positive thresholds pin the level at 1.
func DeriveLevel(xp, threshold int) int {
	if threshold <= 0 || xp < 0 {
		return 1
	}
	return xp/threshold + 1
}

// Award is the outcome of one experience grant.
type Award struct {
	Points        int
	TotalXP       int
	Level         int
	PreviousLevel int
}

// LeveledUp reports whether this grant crossed a level boundary.
func (a Award) LeveledUp() bool {
	return a.Level > a.PreviousLevel
}

// GamificationLedger credits experience points to students.
type GamificationLedger interface {
	Award(ctx context.Context, studentID primitive.ObjectID, points int) (*Award, error)
}

type gamificationLedger struct {
	userRepo  repository.UserRepository
	threshold int
}

// NewGamificationLedger creates a ledger levelling up every threshold points.
func NewGamificationLedger(userRepo repository.UserRepository, threshold int) GamificationLedger {
	return &gamificationLedger{userRepo: userRepo, threshold: threshold}
}

// Award increments XP atomically in the store; the level is recomputed in
// the same write, so concurrent grants never lose points.
func (g *gamificationLedger) Award(ctx context.Context, studentID primitive.ObjectID, points int) (*Award, error) {
	if points < 0 {
		return nil, fmt.Errorf("negative award %d", points)
	}
	user, err := g.userRepo.AddXP(ctx, studentID, points, g.threshold)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("awarding xp: %w", err)
	}
	return &Award{
		Points:        points,
		TotalXP:       user.XP,
		Level:         user.Level,
		PreviousLevel: DeriveLevel(user.XP-points, g.threshold),
	}, nil
}
