package service

import (
	"context"
	"testing"

	"alcyxob/intern-platform/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugMigrator(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	student := f.student("Ali", "Yılmaz", 2.1, "B1")
	company := f.company("Arkas")

	taken := &domain.Plan{StudentID: student.ID, TargetCompanyID: company.ID, Slug: "ali-yilmaz-arkas-hazirlik", IsActive: false}
	_, err := f.db.Plans.Create(ctx, taken)
	require.NoError(t, err)

	legacy := &domain.Plan{
		StudentID:       student.ID,
		TargetCompanyID: company.ID,
		IsActive:        true,
		Days: []domain.DayUnit{
			{DayNumber: 1, Topic: "Deniz Hukuku", State: domain.DayUnlocked},
			{DayNumber: 2, Topic: "Deniz Hukuku", State: domain.DayLocked},
			{DayNumber: 3, Topic: "Meteoroloji", Slug: "meteoroloji", State: domain.DayLocked},
			{DayNumber: 4, Topic: "Meteoroloji", State: domain.DayLocked},
			{DayNumber: 5, Topic: "!!!", State: domain.DayLocked},
		},
	}
	_, err = f.db.Plans.Create(ctx, legacy)
	require.NoError(t, err)

	lesson, err := f.db.Lessons.Upsert(ctx, &domain.MasterLesson{TopicKey: "gemi insa", DisplayTopic: "Gemi İnşa", Content: "x"})
	require.NoError(t, err)

	m := NewSlugMigrator(f.db.Users, f.db.Plans, f.db.Lessons, f.log)
	report, err := m.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, MigrationReport{Plans: 1, Days: 4, Lessons: 1}, report)

	stored, err := f.db.Plans.GetByID(ctx, legacy.ID)
	require.NoError(t, err)
	assert.Equal(t, "ali-yilmaz-arkas-hazirlik-1", stored.Slug)
	var slugs []string
	for _, d := range stored.Days {
		slugs = append(slugs, d.Slug)
	}
	assert.Equal(t, []string{"deniz-hukuku", "deniz-hukuku-1", "meteoroloji", "meteoroloji-1", "day-5"}, slugs)

	l, err := f.db.Lessons.GetByID(ctx, lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, "gemi-insa", l.Slug)

	again, err := m.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, MigrationReport{}, again)
}
