package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"alcyxob/intern-platform/internal/llm"
	"alcyxob/intern-platform/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurriculum(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		topics []string
	}{
		{"root object", `{"curriculum":[{"day":1,"topic":"A"},{"day":2,"topic":"B"}]}`, []string{"A", "B"}},
		{"bare array", `[{"day":1,"topic":"A"}]`, []string{"A"}},
		{"code fence", "```json\n{\"days\":[{\"day\":1,\"topic\":\"A\"}]}\n```", []string{"A"}},
		{"leading prose", `Here is the plan: {"schedule":[{"day":"1","topic":"A"}]} Good luck!`, []string{"A"}},
		{"unknown key holding the list", `{"plan":[{"day":1,"topic":"A"}]}`, []string{"A"}},
		{"missing day uses position", `[{"topic":"A"},{"topic":"B"}]`, []string{"A", "B"}},
		{"unordered input", `[{"day":2,"topic":"B"},{"day":1,"topic":"A"}]`, []string{"A", "B"}},
		{"gap truncates", `[{"day":1,"topic":"A"},{"day":2,"topic":"B"},{"day":4,"topic":"D"}]`, []string{"A", "B"}},
		{"duplicate day keeps first", `[{"day":1,"topic":"A"},{"day":1,"topic":"A2"},{"day":2,"topic":"B"}]`, []string{"A", "B"}},
		{"blank topics skipped", `[{"day":1,"topic":"A"},{"day":2,"topic":"  "}]`, []string{"A"}},
		{"not starting at one", `[{"day":2,"topic":"B"}]`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCurriculum(tt.raw)
			require.NoError(t, err)
			var topics []string
			for i, e := range got {
				assert.Equal(t, i+1, e.Day)
				topics = append(topics, e.Topic)
			}
			assert.Equal(t, tt.topics, topics)
		})
	}

	_, err := ParseCurriculum("no json here")
	assert.Error(t, err)
	_, err = ParseCurriculum(`{"message":"sorry"}`)
	assert.Error(t, err)
}

func TestCurriculumGenerator_PadsShortOutput(t *testing.T) {
	raw, _ := json.Marshal(map[string]any{"curriculum": []map[string]any{
		{"day": 1, "topic": "Tanker Safety - Special Study"},
		{"day": 2, "topic": "Cargo Pumps"},
		{"day": 3, "topic": "Inert Gas"},
	}})
	g := NewCurriculumGenerator(llm.NewMockProvider(llm.MockResponse{Content: raw}), 60, logger.Nop())

	cur := g.Generate(context.Background(), StudentProfile{GPA: 2.5, EnglishLevel: "B1"}, CompanyProfile{Name: "Turcas"})
	assert.Equal(t, SourceProviderFallback, cur.Source)
	require.Len(t, cur.Days, 60)
	assert.True(t, cur.Days[0].Emphasized)
	assert.Equal(t, "Cargo Pumps", cur.Days[1].Topic)
	assert.Equal(t, Catalogue[3]+" - Part 1", cur.Days[3].Topic)
	assert.Equal(t, Catalogue[0]+" - Part 2", cur.Days[10].Topic)
	for i, d := range cur.Days {
		assert.Equal(t, i+1, d.Day)
	}
}

func TestCurriculumGenerator_TruncatesLongOutput(t *testing.T) {
	items := make([]map[string]any, 75)
	for i := range items {
		items[i] = map[string]any{"day": i + 1, "topic": fmt.Sprintf("Topic %d", i+1)}
	}
	raw, _ := json.Marshal(items)
	g := NewCurriculumGenerator(llm.NewMockProvider(llm.MockResponse{Content: raw}), 60, logger.Nop())

	cur := g.Generate(context.Background(), StudentProfile{}, CompanyProfile{})
	assert.Equal(t, SourceProvider, cur.Source)
	require.Len(t, cur.Days, 60)
	assert.Equal(t, "Topic 60", cur.Days[59].Topic)
}

func TestCurriculumGenerator_PromptCarriesProfile(t *testing.T) {
	p := llm.NewMockProvider()
	g := NewCurriculumGenerator(p, 60, logger.Nop())

	cur := g.Generate(context.Background(),
		StudentProfile{GPA: 2.1, EnglishLevel: "A2", WeakSubjects: []string{"Deniz Hukuku"}},
		CompanyProfile{Name: "Arkas", Sector: "Container shipping", About: "Liner operator"})
	assert.Equal(t, SourceFallback, cur.Source)

	require.Equal(t, 1, p.CallCount())
	prompt := p.Calls[0].Messages[0].Content
	for _, want := range []string{"2.10", "A2", "Deniz Hukuku", "Container shipping", "Liner operator", "60-day"} {
		assert.Contains(t, prompt, want)
	}
}

func TestFallbackCurriculum(t *testing.T) {
	days := FallbackCurriculum([]string{"Deniz Hukuku", "Meteoroloji", "Deniz Hukuku"}, 60)
	require.Len(t, days, 60)

	assert.Equal(t, CurriculumEntry{Day: 1, Topic: "Deniz Hukuku - Special Study", Emphasized: true}, days[0])
	assert.Equal(t, CurriculumEntry{Day: 2, Topic: "Meteoroloji - Special Study", Emphasized: true}, days[1])
	assert.Equal(t, "Denizcilik İngilizcesi - Temel - Part 1", days[2].Topic)

	// weak subjects replace their catalogue entries: 2 weak + 8 catalogue topics rotate
	for _, d := range days {
		assert.NotEqual(t, "Deniz Hukuku - Part 1", d.Topic)
		assert.NotEqual(t, "Meteoroloji - Part 1", d.Topic)
	}
	assert.Equal(t, "Deniz Hukuku - Special Study", days[10].Topic)
	assert.Equal(t, "Denizcilik İngilizcesi - Temel - Part 2", days[12].Topic)

	plain := FallbackCurriculum(nil, 60)
	assert.Equal(t, Catalogue[9]+" - Part 6", plain[59].Topic)
}
