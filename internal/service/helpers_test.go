package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"alcyxob/intern-platform/internal/config"
	"alcyxob/intern-platform/internal/domain"
	"alcyxob/intern-platform/internal/llm"
	"alcyxob/intern-platform/internal/logger"
	"alcyxob/intern-platform/internal/repository/memory"
	"alcyxob/intern-platform/internal/storage"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// lessonProvider answers lesson requests with valid content and fails
// curriculum requests, so plans use the deterministic curriculum.
type lessonProvider struct {
	*llm.MockProvider
	lessonCalls atomic.Int32
	fail        atomic.Bool
}

func newLessonProvider() *lessonProvider {
	p := &lessonProvider{}
	p.MockProvider = llm.NewMockProviderFunc(func(req llm.Request) llm.MockResponse {
		if req.Schema == nil || !strings.HasPrefix(req.Schema.Name, "lesson-content") {
			return llm.MockResponse{Err: &llm.ErrProviderUnavailable{}}
		}
		if p.fail.Load() {
			return llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: fmt.Errorf("quota exhausted")}}
		}
		n := p.lessonCalls.Add(1)
		return llm.MockResponse{Content: lessonJSON(fmt.Sprintf("generated lesson #%d", n), 20)}
	})
	return p
}

func lessonJSON(title string, n int) json.RawMessage {
	tiers := []string{"easy", "medium", "hard"}
	qs := make([]map[string]any, n)
	for i := range qs {
		opts := []string{"Port", "Starboard", "Bow", "Stern"}
		qs[i] = map[string]any{
			"questionText":  fmt.Sprintf("Question %d about %s?", i+1, title),
			"options":       opts,
			"correctAnswer": opts[i%4],
			"difficulty":    tiers[i%3],
		}
	}
	raw, _ := json.Marshal(map[string]any{
		"content":   "## " + title + "\n\nA full lesson body with case studies.",
		"questions": qs,
	})
	return raw
}

type fixture struct {
	t        *testing.T
	db       *memory.DB
	provider llm.Provider
	clock    *fakeClock
	cfg      config.StudyPlanConfig
	log      *logger.Logger

	lessons  LessonCache
	ledger   GamificationLedger
	weakness WeaknessAnalyzer
	plans    PlanService
	days     DayService
}

func newFixture(t *testing.T, provider llm.Provider) *fixture {
	t.Helper()
	if provider == nil {
		provider = llm.NewMockProvider()
	}
	f := &fixture{
		t:        t,
		db:       memory.Open(),
		provider: provider,
		clock:    newFakeClock(),
		cfg:      config.DefaultStudyPlanConfig(),
		log:      logger.Nop(),
	}
	f.build()
	return f
}

// build wires the services; call again after changing cfg.
func (f *fixture) build() {
	generator := NewContentGenerator(f.provider, f.cfg.QuestionsPerDay)
	f.lessons = NewLessonCache(f.db.Lessons, generator, LessonCacheOptions{
		MinQuestions:        f.cfg.QuestionsPerDay,
		SimilarityThreshold: f.cfg.SimilarityThreshold,
		ScanLimit:           int64(f.cfg.SimilarityScanLimit),
	}, f.clock.Now, f.log)
	f.ledger = NewGamificationLedger(f.db.Users, f.cfg.LevelThreshold)
	f.weakness = NewWeaknessAnalyzer(f.db.Users, f.db.Plans, f.cfg.WeakGrades, f.cfg.WeakScoreRatio, f.cfg.QuestionsPerDay, f.log)
	curriculum := NewCurriculumGenerator(f.provider, f.cfg.PlanLength, f.log)
	f.plans = NewPlanService(f.db.Users, f.db.Internships, f.db.Plans, f.weakness, curriculum, f.cfg, f.clock.Now, f.log)
	media := storage.NewMediaResolver(nil, 0, f.log)
	f.days = NewDayService(f.db.Plans, f.lessons, f.ledger, media, f.cfg, f.clock.Now, f.log)
}

func (f *fixture) user(u domain.User) *domain.User {
	f.t.Helper()
	_, err := f.db.Users.Create(context.Background(), &u)
	require.NoError(f.t, err)
	return &u
}

func (f *fixture) student(name, surname string, gpa float64, english string, transcript ...domain.TranscriptEntry) *domain.User {
	return f.user(domain.User{
		Name: name, Surname: surname, Role: domain.RoleStudent,
		Email: strings.ToLower(name) + "@example.edu", Department: "Deck",
		GPA: gpa, EnglishLevel: english, Transcript: transcript,
	})
}

func (f *fixture) company(name string) *domain.User {
	return f.user(domain.User{
		Name: name, Role: domain.RoleCompany, Email: strings.ToLower(name) + "@example.com",
		CompanyInfo: &domain.CompanyInfo{Sector: "Container shipping", About: "Liner operator"},
	})
}

func actorOf(u *domain.User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

// createPlan creates a plan and fails the test unless one was created.
func (f *fixture) createPlan(student, company *domain.User) *domain.Plan {
	f.t.Helper()
	res, err := f.plans.Create(context.Background(), actorOf(student), company.ID)
	require.NoError(f.t, err)
	require.True(f.t, res.Created)
	return res.Plan
}

func questionIDs(from, to int) []string {
	ids := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		ids = append(ids, fmt.Sprintf("q%d", i))
	}
	return ids
}
