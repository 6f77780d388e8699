package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DayState is the lifecycle of a single day unit: locked -> unlocked -> completed.
type DayState string

const (
	DayLocked    DayState = "locked"
	DayUnlocked  DayState = "unlocked"
	DayCompleted DayState = "completed"
)

// Transition errors returned by Plan.CompleteDay.
var (
	ErrDayNotFound         = errors.New("day not found in plan")
	ErrDayLocked           = errors.New("day is locked")
	ErrDayAlreadyCompleted = errors.New("day already completed")
)

// PlaceholderMarker is embedded in day bodies that still await generated content.
const PlaceholderMarker = "[[pending-content]]"

// DayUnit is one day of a study plan.
type DayUnit struct {
	DayNumber   int        `bson:"dayNumber" json:"dayNumber"`
	Slug        string     `bson:"slug" json:"slug"`
	Topic       string     `bson:"topic" json:"topic"`
	Content     string     `bson:"lectureContent" json:"lectureContent"`
	MediaURL    string     `bson:"mediaUrl,omitempty" json:"mediaUrl,omitempty"`
	Questions   []Question `bson:"questions" json:"questions"`
	State       DayState   `bson:"state" json:"state"`
	UnlockAt    *time.Time `bson:"unlockAt,omitempty" json:"unlockAt,omitempty"`
	Score       int        `bson:"score" json:"score"`
	XPAwarded   int        `bson:"xpAwarded" json:"xpAwarded"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// StateAt resolves the effective state at now. A locked day whose unlock
// time has passed is unlocked without any write.
func (d *DayUnit) StateAt(now time.Time) DayState {
	switch d.State {
	case DayCompleted, DayUnlocked:
		return d.State
	}
	if d.UnlockAt != nil && !now.Before(*d.UnlockAt) {
		return DayUnlocked
	}
	return DayLocked
}

// NeedsContent reports whether the body is still a placeholder or the quiz is short.
func (d *DayUnit) NeedsContent(minQuestions int) bool {
	return IsPlaceholderContent(d.Content) || len(d.Questions) < minQuestions
}

// IsPlaceholderContent recognises bodies written at plan creation time.
func IsPlaceholderContent(body string) bool {
	b := strings.TrimSpace(body)
	if b == "" || strings.Contains(b, PlaceholderMarker) {
		return true
	}
	if len(b) > 400 {
		return false
	}
	l := strings.ToLower(b)
	return strings.Contains(l, "content will be prepared") ||
		strings.Contains(l, "içerik hazırlanıyor") ||
		strings.Contains(l, "will be generated")
}

// Plan is a student's 60-day preparation for one target company.
type Plan struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Slug              string             `bson:"slug" json:"slug"`
	StudentID         primitive.ObjectID `bson:"studentId" json:"studentId"`
	TargetCompanyID   primitive.ObjectID `bson:"targetCompanyId" json:"targetCompanyId"`
	TargetCompanyName string             `bson:"targetCompanyName,omitempty" json:"targetCompanyName,omitempty"`
	WeakSubjects      []string           `bson:"weakSubjects,omitempty" json:"weakSubjects,omitempty"`
	CurriculumSource  string             `bson:"curriculumSource,omitempty" json:"curriculumSource,omitempty"`
	Days              []DayUnit          `bson:"modules" json:"modules"`
	IsActive          bool               `bson:"isActive" json:"isActive"`
	StartDate         time.Time          `bson:"startDate" json:"startDate"`
	ArchivedAt        *time.Time         `bson:"archivedAt,omitempty" json:"archivedAt,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Day returns the unit for dayNumber, or nil.
func (p *Plan) Day(dayNumber int) *DayUnit {
	for i := range p.Days {
		if p.Days[i].DayNumber == dayNumber {
			return &p.Days[i]
		}
	}
	return nil
}

// CompletedDays counts completed units.
func (p *Plan) CompletedDays() int {
	n := 0
	for i := range p.Days {
		if p.Days[i].State == DayCompleted {
			n++
		}
	}
	return n
}

// TotalXP sums experience awarded across completed units.
func (p *Plan) TotalXP() int {
	total := 0
	for i := range p.Days {
		total += p.Days[i].XPAwarded
	}
	return total
}

// ResolveStates replaces every stored state with its effective state at now,
// so a day whose unlock time has passed reads as unlocked.
func (p *Plan) ResolveStates(now time.Time) {
	for i := range p.Days {
		p.Days[i].State = p.Days[i].StateAt(now)
	}
}

// CompleteDay applies the unlocked -> completed transition to dayNumber and
// schedules the following day to unlock after delay.
func (p *Plan) CompleteDay(dayNumber, score, xp int, now time.Time, delay time.Duration) error {
	day := p.Day(dayNumber)
	if day == nil {
		return ErrDayNotFound
	}
	switch day.StateAt(now) {
	case DayCompleted:
		return ErrDayAlreadyCompleted
	case DayLocked:
		return ErrDayLocked
	}
	completedAt := now
	day.State = DayCompleted
	day.Score = score
	day.XPAwarded = xp
	day.CompletedAt = &completedAt
	if next := p.Day(dayNumber + 1); next != nil && next.State == DayLocked {
		unlockAt := now.Add(delay)
		next.UnlockAt = &unlockAt
	}
	p.UpdatedAt = now
	return nil
}

// CheckProgression verifies the state machine invariants: day 1 is open from
// the start, and a day can only be open or done once its predecessor is done.
func (p *Plan) CheckProgression(now time.Time) error {
	for i := range p.Days {
		d := &p.Days[i]
		if d.DayNumber != i+1 {
			return fmt.Errorf("day at index %d has number %d", i, d.DayNumber)
		}
		if i == 0 {
			if d.StateAt(now) == DayLocked {
				return errors.New("day 1 is locked")
			}
			continue
		}
		prev := &p.Days[i-1]
		if d.StateAt(now) != DayLocked && prev.State != DayCompleted {
			return fmt.Errorf("day %d is %s while day %d is %s", d.DayNumber, d.StateAt(now), prev.DayNumber, prev.State)
		}
		if d.State == DayCompleted && (d.CompletedAt == nil || prev.CompletedAt == nil || d.CompletedAt.Before(*prev.CompletedAt)) {
			return fmt.Errorf("day %d completed before day %d", d.DayNumber, prev.DayNumber)
		}
	}
	return nil
}
