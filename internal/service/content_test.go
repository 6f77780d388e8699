package service

import (
	"context"
	"encoding/json"
	"testing"

	"alcyxob/intern-platform/internal/domain"
	"alcyxob/intern-platform/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAnswer(t *testing.T) {
	opts := []string{"IMO", "FIFA", "UNESCO", "NATO"}
	tests := []struct {
		answer string
		want   string
		ok     bool
	}{
		{"IMO", "IMO", true},
		{" unesco ", "UNESCO", true},
		{"B", "FIFA", true},
		{"d)", "NATO", true},
		{"E", "", false},
		{"Interpol", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := resolveAnswer(tt.answer, opts)
		assert.Equal(t, tt.ok, ok, tt.answer)
		assert.Equal(t, tt.want, got, tt.answer)
	}

	_, ok := resolveAnswer("A", []string{"only", "three", "options"})
	assert.False(t, ok)
}

func TestContentGenerator_RepairsQuiz(t *testing.T) {
	raw := lessonJSON("Seyir", 20)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	qs := payload["questions"].([]any)
	qs[0].(map[string]any)["correctAnswer"] = "Anchor" // not an option, dropped
	qs[1].(map[string]any)["correctAnswer"] = "c"      // letter answer, mapped
	qs[2].(map[string]any)["questionText"] = "   "     // blank, dropped
	raw, _ = json.Marshal(payload)

	g := NewContentGenerator(llm.NewMockProvider(llm.MockResponse{Content: raw}), 20)
	content, err := g.Generate(context.Background(), "Seyir", false)
	require.NoError(t, err)
	require.Len(t, content.Questions, 20)

	assert.Equal(t, "Bow", content.Questions[0].CorrectAnswer)
	for i, q := range content.Questions {
		assert.Equal(t, questionIDs(1, 20)[i], q.ID)
		assert.Contains(t, q.Options, q.CorrectAnswer)
	}
	// the last two are padded with fallback items
	assert.Contains(t, content.Questions[19].Text, "Seyir")
	assert.Equal(t, "mock", content.Model)
}

func TestContentGenerator_ShortQuizIsInvalid(t *testing.T) {
	g := NewContentGenerator(llm.NewMockProvider(llm.MockResponse{Content: lessonJSON("Seyir", 5)}), 20)
	_, err := g.Generate(context.Background(), "Seyir", false)
	var invalid *llm.ErrInvalidResponse
	assert.ErrorAs(t, err, &invalid)
}

func TestContentGenerator_PromptMode(t *testing.T) {
	p := llm.NewMockProvider(llm.MockResponse{Content: lessonJSON("x", 20)})
	g := NewContentGenerator(p, 20)
	_, err := g.Generate(context.Background(), "Deniz Hukuku - Special Study", true)
	require.NoError(t, err)
	require.Equal(t, 1, p.CallCount())
	assert.Contains(t, p.Calls[0].Messages[0].Content, "weak")
	assert.Equal(t, "lesson-content-20", p.Calls[0].Schema.Name)
}

func TestFallbackQuestions(t *testing.T) {
	qs := FallbackQuestions("Meteoroloji", 20)
	require.Len(t, qs, 20)

	positions := map[int]bool{}
	tiers := map[domain.Difficulty]int{}
	for i, q := range qs {
		require.Len(t, q.Options, 4)
		idx := -1
		for j, o := range q.Options {
			if o == q.CorrectAnswer {
				idx = j
			}
		}
		require.NotEqual(t, -1, idx, "question %d has no correct option", i+1)
		positions[idx] = true
		tiers[q.Difficulty]++
	}
	assert.Len(t, positions, 4, "correct answers rotate through every position")
	assert.Equal(t, 7, tiers[domain.DifficultyEasy])
	assert.Equal(t, 7, tiers[domain.DifficultyMedium])
	assert.Equal(t, 6, tiers[domain.DifficultyHard])
	assert.Equal(t, qs, FallbackQuestions("Meteoroloji", 20), "deterministic")

	lesson := FallbackLesson("Meteoroloji", 20)
	assert.False(t, domain.IsPlaceholderContent(lesson.Body))
	assert.Equal(t, qs, lesson.Questions)
}
