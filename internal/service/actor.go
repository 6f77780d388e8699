package service

import (
	"time"

	"alcyxob/intern-platform/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor is the already-authenticated caller of a service operation.
type Actor struct {
	ID   primitive.ObjectID
	Role domain.Role
}

// canRead reports whether the actor may read a plan owned by studentID.
func (a Actor) canRead(studentID primitive.ObjectID) bool {
	return a.ID == studentID || a.Role.IsElevated()
}

// Clock returns the current time. Services take one so tests can move time.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }
