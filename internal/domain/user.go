package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

const (
	RoleStudent  Role = "student"
	RoleCompany  Role = "company"
	RoleLecturer Role = "lecturer"
	RoleAdmin    Role = "admin"
)

// TranscriptEntry is one course/grade pair from a student's transcript.
type TranscriptEntry struct {
	CourseName string `bson:"courseName" json:"courseName"`
	Grade      string `bson:"grade" json:"grade"`
}

// CompanyInfo is only set on company accounts.
type CompanyInfo struct {
	About   string `bson:"about,omitempty" json:"about,omitempty"`
	Address string `bson:"address,omitempty" json:"address,omitempty"`
	Website string `bson:"website,omitempty" json:"website,omitempty"`
	Sector  string `bson:"sector,omitempty" json:"sector,omitempty"`
}

// User represents any account on the platform.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Surname   string             `bson:"surname,omitempty" json:"surname,omitempty"`
	Email     string             `bson:"email" json:"email"`
	Role      Role               `bson:"role" json:"role"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Student-specific ---
	Department   string            `bson:"department,omitempty" json:"department,omitempty"`
	GPA          float64           `bson:"gpa" json:"gpa"`
	EnglishLevel string            `bson:"englishLevel,omitempty" json:"englishLevel,omitempty"`
	Transcript   []TranscriptEntry `bson:"transcript,omitempty" json:"transcript,omitempty"`
	XP           int               `bson:"xp" json:"xp"`
	Level        int               `bson:"level" json:"level"`

	// --- Company-specific ---
	CompanyInfo *CompanyInfo `bson:"companyInfo,omitempty" json:"companyInfo,omitempty"`
}

func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}

func (u *User) IsCompany() bool {
	return u.Role == RoleCompany
}

// FullName joins name and surname.
func (u *User) FullName() string {
	if u.Surname == "" {
		return u.Name
	}
	return u.Name + " " + u.Surname
}

// IsElevated reports whether the role may read other users' study plans.
func (r Role) IsElevated() bool {
	return r == RoleAdmin || r == RoleLecturer
}

var englishLevels = map[string]int{"A1": 1, "A2": 2, "B1": 3, "B2": 4, "C1": 5, "C2": 6}
var englishLabels = []string{"A1", "A2", "B1", "B2", "C1", "C2"}

// EnglishScore maps a CEFR level to 1..6. Unknown levels count as A1.
func EnglishScore(level string) int {
	if s, ok := englishLevels[level]; ok {
		return s
	}
	return 1
}

// EnglishLabel maps a (possibly fractional) score back to the nearest CEFR label.
func EnglishLabel(score float64) string {
	i := int(score+0.5) - 1
	if i < 0 {
		i = 0
	}
	if i >= len(englishLabels) {
		i = len(englishLabels) - 1
	}
	return englishLabels[i]
}
