package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Difficulty tier of a quiz question. Parsed leniently from provider output.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty accepts English and Turkish tier names; anything else is medium.
func ParseDifficulty(s string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy", "kolay":
		return DifficultyEasy
	case "hard", "zor":
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

// Points is the experience awarded for answering a question of this tier correctly.
func (d Difficulty) Points() int {
	switch d {
	case DifficultyHard:
		return 10
	case DifficultyEasy:
		return 5
	default:
		return 7
	}
}

// Question is a four-option multiple-choice quiz item.
type Question struct {
	ID            string     `bson:"id" json:"id"`
	Text          string     `bson:"questionText" json:"questionText"`
	Options       []string   `bson:"options" json:"options"`
	CorrectAnswer string     `bson:"correctAnswer" json:"correctAnswer"`
	Difficulty    Difficulty `bson:"difficulty" json:"difficulty"`
}

// MasterLesson is the shared, deduplicated lesson content for one normalized topic.
type MasterLesson struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TopicKey     string             `bson:"topicKey" json:"topicKey"`
	Slug         string             `bson:"slug" json:"slug"`
	DisplayTopic string             `bson:"displayTopic" json:"displayTopic"`
	Content      string             `bson:"content" json:"content"`
	Questions    []Question         `bson:"questions" json:"questions"`
	MediaURL     string             `bson:"mediaUrl,omitempty" json:"mediaUrl,omitempty"`
	Language     string             `bson:"language" json:"language"`
	Model        string             `bson:"model,omitempty" json:"model,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	LastUpdated  time.Time          `bson:"lastUpdated" json:"lastUpdated"`
}
