package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ApplicationStatus tracks an applicant through a company's review.
type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationReviewing ApplicationStatus = "reviewing"
	ApplicationAccepted  ApplicationStatus = "accepted"
	ApplicationRejected  ApplicationStatus = "rejected"
)

type Applicant struct {
	UserID primitive.ObjectID `bson:"user" json:"userId"`
	Status ApplicationStatus  `bson:"status" json:"status"`
}

// Internship is a posting by a company. The study plan engine only reads it,
// to learn what accepted applicants to a company looked like.
type Internship struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CompanyID  primitive.ObjectID `bson:"company" json:"companyId"`
	Title      string             `bson:"title" json:"title"`
	ShipType   string             `bson:"shipType,omitempty" json:"shipType,omitempty"`
	Location   string             `bson:"location,omitempty" json:"location,omitempty"`
	Duration   string             `bson:"duration,omitempty" json:"duration,omitempty"`
	Department string             `bson:"department,omitempty" json:"department,omitempty"`
	IsActive   bool               `bson:"isActive" json:"isActive"`
	Applicants []Applicant        `bson:"applicants,omitempty" json:"applicants,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
