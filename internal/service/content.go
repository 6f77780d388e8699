package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"alcyxob/intern-platform/internal/domain"
	"alcyxob/intern-platform/internal/llm"
)

// LessonContent is generated material for one topic.
type LessonContent struct {
	Body      string
	Questions []domain.Question
	MediaURL  string
	Model     string
}

// ContentGenerator produces a lesson body and quiz for a topic.
type ContentGenerator interface {
	Generate(ctx context.Context, topic string, emphasize bool) (*LessonContent, error)
}

type contentGenerator struct {
	provider  llm.Provider
	questions int
	schema    *llm.Schema
}

// NewContentGenerator asks the provider for exactly questions quiz items per lesson.
func NewContentGenerator(provider llm.Provider, questions int) ContentGenerator {
	return &contentGenerator{
		provider:  provider,
		questions: questions,
		schema:    lessonSchema(questions),
	}
}

func lessonSchema(n int) *llm.Schema {
	return &llm.Schema{
		Name:        fmt.Sprintf("lesson-content-%d", n),
		Description: "A lesson body in Markdown and its multiple-choice quiz",
		Definition: map[string]any{
			"type":     "object",
			"required": []any{"content", "questions"},
			"properties": map[string]any{
				"content":  map[string]any{"type": "string", "minLength": 1},
				"mediaUrl": map[string]any{"type": "string"},
				"questions": map[string]any{
					"type":     "array",
					"minItems": n,
					"items": map[string]any{
						"type":     "object",
						"required": []any{"questionText", "options", "correctAnswer"},
						"properties": map[string]any{
							"questionText": map[string]any{"type": "string"},
							"options": map[string]any{
								"type":     "array",
								"minItems": 4,
								"maxItems": 4,
								"items":    map[string]any{"type": "string"},
							},
							"correctAnswer": map[string]any{"type": "string"},
							"difficulty":    map[string]any{"type": "string", "enum": []any{"easy", "medium", "hard"}},
						},
					},
				},
			},
		},
	}
}

type lessonPayload struct {
	Content   string `json:"content"`
	MediaURL  string `json:"mediaUrl"`
	Questions []struct {
		QuestionText  string   `json:"questionText"`
		Options       []string `json:"options"`
		CorrectAnswer string   `json:"correctAnswer"`
		Difficulty    string   `json:"difficulty"`
	} `json:"questions"`
}

func (g *contentGenerator) Generate(ctx context.Context, topic string, emphasize bool) (*LessonContent, error) {
	resp, err := g.provider.Generate(llm.WithPurpose(ctx, "lesson"), llm.Request{
		System: "You are a maritime academy instructor. Answer with JSON only.",
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: lessonPrompt(topic, emphasize, g.questions)},
		},
		Schema:      g.schema,
		MaxTokens:   8192,
		Temperature: 0.5,
	})
	if err != nil {
		return nil, err
	}

	var payload lessonPayload
	if err := json.Unmarshal(resp.Content, &payload); err != nil {
		return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: err}
	}
	body := strings.TrimSpace(payload.Content)
	if body == "" || domain.IsPlaceholderContent(body) {
		return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: errors.New("empty lesson body")}
	}

	questions := make([]domain.Question, 0, g.questions)
	for _, q := range payload.Questions {
		if len(questions) == g.questions {
			break
		}
		answer, ok := resolveAnswer(q.CorrectAnswer, q.Options)
		if !ok || strings.TrimSpace(q.QuestionText) == "" {
			continue
		}
		questions = append(questions, domain.Question{
			Text:          strings.TrimSpace(q.QuestionText),
			Options:       q.Options,
			CorrectAnswer: answer,
			Difficulty:    domain.ParseDifficulty(q.Difficulty),
		})
	}
	if missing := g.questions - len(questions); missing > 0 {
		questions = append(questions, FallbackQuestions(topic, missing)...)
	}
	numberQuestions(questions)

	return &LessonContent{
		Body:      body,
		Questions: questions,
		MediaURL:  strings.TrimSpace(payload.MediaURL),
		Model:     resp.Model,
	}, nil
}

func lessonPrompt(topic string, emphasize bool, n int) string {
	mode := "Standard summary."
	if emphasize {
		mode = "Detailed and explanatory, the student is weak in this subject."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %q\nMode: %s\n\n", topic, mode)
	b.WriteString("1. Write an academic, engaging lesson in Markdown (at least 800 words) with real maritime case studies. Bold the key terms.\n")
	fmt.Fprintf(&b, "2. Write %d scenario-based multiple-choice questions with exactly 4 options each.\n", n)
	b.WriteString("   correctAnswer must repeat the full text of the correct option, never a letter. Spread the correct option across positions.\n")
	b.WriteString("   difficulty is one of easy, medium, hard.\n")
	b.WriteString("3. Optionally set mediaUrl to a relevant public video link.\n")
	return b.String()
}

// resolveAnswer maps the provider's answer onto one of the options. Exact
// text wins, then a case-insensitive match, then a bare option letter.
func resolveAnswer(answer string, options []string) (string, bool) {
	if len(options) != 4 {
		return "", false
	}
	a := strings.TrimSpace(answer)
	if a == "" {
		return "", false
	}
	for _, o := range options {
		if o == a {
			return o, true
		}
	}
	for _, o := range options {
		if strings.EqualFold(strings.TrimSpace(o), a) {
			return o, true
		}
	}
	letter := strings.ToUpper(strings.TrimRight(a, ").: "))
	if len(letter) == 1 && letter[0] >= 'A' && letter[0] <= 'D' {
		return options[letter[0]-'A'], true
	}
	return "", false
}

func numberQuestions(qs []domain.Question) {
	for i := range qs {
		qs[i].ID = fmt.Sprintf("q%d", i+1)
	}
}

var fallbackStems = []struct {
	text    string
	correct string
	wrong   [3]string
}{
	{"What is the first priority when dealing with %s?", "Safety of life at sea", [3]string{"Speed of the voyage", "Operating cost", "Crew comfort"}},
	{"Which organisation sets the international rules relevant to %s?", "IMO", [3]string{"FIFA", "UNESCO", "NATO"}},
	{"In an emergency involving %s, what comes first?", "Stay calm and apply the procedure", [3]string{"Abandon ship at once", "Phone the company office", "Wait for the next watch"}},
	{"Which convention is most closely tied to %s?", "SOLAS", [3]string{"A charter party", "Local labour law", "The civil code"}},
	{"Who carries final responsibility on board for %s?", "The master", [3]string{"The cook", "The ship chandler", "The port agent"}},
}

var difficultyCycle = []domain.Difficulty{domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard}

// FallbackQuestions returns n deterministic questions about topic. The
// correct option rotates through all four positions.
func FallbackQuestions(topic string, n int) []domain.Question {
	qs := make([]domain.Question, n)
	for i := range qs {
		stem := fallbackStems[i%len(fallbackStems)]
		pos := i % 4
		options := make([]string, 0, 4)
		w := 0
		for j := 0; j < 4; j++ {
			if j == pos {
				options = append(options, stem.correct)
				continue
			}
			options = append(options, stem.wrong[w])
			w++
		}
		qs[i] = domain.Question{
			ID:            fmt.Sprintf("q%d", i+1),
			Text:          fmt.Sprintf(stem.text, topic),
			Options:       options,
			CorrectAnswer: stem.correct,
			Difficulty:    difficultyCycle[i%len(difficultyCycle)],
		}
	}
	return qs
}

// FallbackLesson is served when the provider cannot produce a lesson. It is
// never written to the shared cache.
func FallbackLesson(topic string, n int) *LessonContent {
	body := fmt.Sprintf("## %s\n\n"+
		"The full lesson for this topic could not be generated right now and will be retried on your next visit.\n\n"+
		"### Key points\n"+
		"- %s is a core competency for every officer of the watch.\n"+
		"- Review the relevant IMO conventions (SOLAS, MARPOL, STCW) and your ship's SMS procedures.\n"+
		"- Work through the quiz below to check your understanding.\n", topic, topic)
	return &LessonContent{
		Body:      body,
		Questions: FallbackQuestions(topic, n),
		Model:     "fallback",
	}
}
