package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlan(n int) *Plan {
	p := &Plan{IsActive: true}
	for i := 1; i <= n; i++ {
		state := DayLocked
		if i == 1 {
			state = DayUnlocked
		}
		p.Days = append(p.Days, DayUnit{DayNumber: i, State: state})
	}
	return p
}

func TestDayUnit_StateAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name string
		day  DayUnit
		want DayState
	}{
		{"locked without schedule", DayUnit{State: DayLocked}, DayLocked},
		{"locked until later", DayUnit{State: DayLocked, UnlockAt: &future}, DayLocked},
		{"locked but due", DayUnit{State: DayLocked, UnlockAt: &past}, DayUnlocked},
		{"exactly due", DayUnit{State: DayLocked, UnlockAt: &now}, DayUnlocked},
		{"unlocked", DayUnit{State: DayUnlocked}, DayUnlocked},
		{"completed", DayUnit{State: DayCompleted, UnlockAt: &future}, DayCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.day.StateAt(now))
		})
	}
}

func TestPlan_CompleteDay(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p := newTestPlan(3)

	require.NoError(t, p.CompleteDay(1, 140, 140, now, 20*time.Hour))

	d1 := p.Day(1)
	assert.Equal(t, DayCompleted, d1.State)
	assert.Equal(t, 140, d1.Score)
	require.NotNil(t, p.Day(2).UnlockAt)
	assert.Equal(t, now.Add(20*time.Hour), *p.Day(2).UnlockAt)
	assert.Equal(t, DayLocked, p.Day(2).StateAt(now.Add(19*time.Hour)))
	assert.Equal(t, DayUnlocked, p.Day(2).StateAt(now.Add(20*time.Hour)))
	assert.Nil(t, p.Day(3).UnlockAt)

	assert.ErrorIs(t, p.CompleteDay(1, 10, 10, now, time.Hour), ErrDayAlreadyCompleted)
	assert.Equal(t, 140, p.Day(1).XPAwarded, "second completion must not overwrite the award")
	assert.ErrorIs(t, p.CompleteDay(2, 10, 10, now, time.Hour), ErrDayLocked)
	assert.ErrorIs(t, p.CompleteDay(3, 10, 10, now, time.Hour), ErrDayLocked)
	assert.ErrorIs(t, p.CompleteDay(9, 10, 10, now, time.Hour), ErrDayNotFound)

	later := now.Add(21 * time.Hour)
	require.NoError(t, p.CompleteDay(2, 70, 70, later, 20*time.Hour))
	assert.Equal(t, 2, p.CompletedDays())
	assert.Equal(t, 210, p.TotalXP())
	assert.NoError(t, p.CheckProgression(later))
}

func TestPlan_ResolveStates(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p := newTestPlan(3)
	require.NoError(t, p.CompleteDay(1, 12, 88, now, 20*time.Hour))

	early := *p
	early.Days = append([]DayUnit(nil), p.Days...)
	early.ResolveStates(now.Add(19 * time.Hour))
	assert.Equal(t, []DayState{DayCompleted, DayLocked, DayLocked}, states(&early))

	p.ResolveStates(now.Add(20 * time.Hour))
	assert.Equal(t, []DayState{DayCompleted, DayUnlocked, DayLocked}, states(p))
}

func states(p *Plan) []DayState {
	out := make([]DayState, len(p.Days))
	for i := range p.Days {
		out[i] = p.Days[i].State
	}
	return out
}

func TestPlan_CompleteLastDay(t *testing.T) {
	now := time.Now()
	p := newTestPlan(1)
	require.NoError(t, p.CompleteDay(1, 50, 50, now, time.Hour))
	assert.Equal(t, 1, p.CompletedDays())
}

func TestPlan_CheckProgression(t *testing.T) {
	now := time.Now()

	p := newTestPlan(3)
	assert.NoError(t, p.CheckProgression(now))

	p.Days[2].State = DayUnlocked
	assert.Error(t, p.CheckProgression(now), "day 3 cannot be open before day 2 is done")

	p = newTestPlan(2)
	p.Days[0].State = DayLocked
	assert.Error(t, p.CheckProgression(now))
}

func TestIsPlaceholderContent(t *testing.T) {
	assert.True(t, IsPlaceholderContent(""))
	assert.True(t, IsPlaceholderContent("# Deniz Hukuku\n\n"+PlaceholderMarker))
	assert.True(t, IsPlaceholderContent("Content will be prepared when you open this day."))
	assert.False(t, IsPlaceholderContent("# Deniz Hukuku\n\nThe law of the sea governs ..."))

	d := DayUnit{Content: "Real lecture body", Questions: make([]Question, 5)}
	assert.True(t, d.NeedsContent(20))
	assert.False(t, d.NeedsContent(5))
}

func TestDifficulty(t *testing.T) {
	assert.Equal(t, DifficultyEasy, ParseDifficulty("Kolay"))
	assert.Equal(t, DifficultyMedium, ParseDifficulty("Orta"))
	assert.Equal(t, DifficultyHard, ParseDifficulty(" ZOR "))
	assert.Equal(t, DifficultyMedium, ParseDifficulty("unknown"))
	assert.Equal(t, 10, DifficultyHard.Points())
	assert.Equal(t, 7, DifficultyMedium.Points())
	assert.Equal(t, 5, DifficultyEasy.Points())
}

func TestEnglishScore(t *testing.T) {
	assert.Equal(t, 3, EnglishScore("B1"))
	assert.Equal(t, 6, EnglishScore("C2"))
	assert.Equal(t, 1, EnglishScore(""))
	assert.Equal(t, "B2", EnglishLabel(3.6))
	assert.Equal(t, "A1", EnglishLabel(0))
	assert.Equal(t, "C2", EnglishLabel(9))
}
