package service

import (
	"context"
	"strings"

	"alcyxob/intern-platform/internal/domain"
	"alcyxob/intern-platform/internal/logger"
	"alcyxob/intern-platform/internal/repository"
	"alcyxob/intern-platform/internal/topic"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// WeaknessAnalyzer derives the subjects a student should revisit.
type WeaknessAnalyzer interface {
	Analyze(ctx context.Context, studentID primitive.ObjectID) []string
}

type weaknessAnalyzer struct {
	userRepo       repository.UserRepository
	planRepo       repository.StudyPlanRepository
	weakGrades     map[string]struct{}
	scoreRatio     float64
	totalQuestions int
	log            *logger.Logger
}

// NewWeaknessAnalyzer builds an analyzer. A day counts as weak when its score
// is below scoreRatio of its question count (totalQuestions when the day has none).
func NewWeaknessAnalyzer(
	userRepo repository.UserRepository,
	planRepo repository.StudyPlanRepository,
	weakGrades []string,
	scoreRatio float64,
	totalQuestions int,
	log *logger.Logger,
) WeaknessAnalyzer {
	grades := make(map[string]struct{}, len(weakGrades))
	for _, g := range weakGrades {
		grades[normalizeGrade(g)] = struct{}{}
	}
	return &weaknessAnalyzer{
		userRepo:       userRepo,
		planRepo:       planRepo,
		weakGrades:     grades,
		scoreRatio:     scoreRatio,
		totalQuestions: totalQuestions,
		log:            log,
	}
}

// Analyze unions weak transcript courses with low-scoring days of archived
// plans. Lookup failures are logged and yield whatever the other source found.
func (w *weaknessAnalyzer) Analyze(ctx context.Context, studentID primitive.ObjectID) []string {
	var fromTranscript, fromHistory []string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		student, err := w.userRepo.GetByID(gctx, studentID)
		if err != nil {
			w.log.Warn("weakness: loading transcript failed", "studentID", studentID.Hex(), "error", err)
			return nil
		}
		fromTranscript = w.weakCourses(student.Transcript)
		return nil
	})
	g.Go(func() error {
		archived, err := w.planRepo.ListByStudent(gctx, studentID, false)
		if err != nil {
			w.log.Warn("weakness: loading archived plans failed", "studentID", studentID.Hex(), "error", err)
			return nil
		}
		fromHistory = w.lowScoringTopics(archived)
		return nil
	})
	_ = g.Wait()

	return dedupe(append(fromTranscript, fromHistory...))
}

func (w *weaknessAnalyzer) weakCourses(transcript []domain.TranscriptEntry) []string {
	var out []string
	for _, entry := range transcript {
		if _, weak := w.weakGrades[normalizeGrade(entry.Grade)]; weak {
			out = append(out, strings.TrimSpace(entry.CourseName))
		}
	}
	return out
}

func (w *weaknessAnalyzer) lowScoringTopics(plans []domain.Plan) []string {
	var out []string
	for i := range plans {
		for _, day := range plans[i].Days {
			if day.State != domain.DayCompleted {
				continue
			}
			total := len(day.Questions)
			if total == 0 {
				total = w.totalQuestions
			}
			if float64(day.Score) < w.scoreRatio*float64(total) {
				out = append(out, topic.Base(day.Topic))
			}
		}
	}
	return out
}

func normalizeGrade(g string) string {
	return strings.ToUpper(strings.TrimSpace(g))
}

// dedupe keeps the first occurrence of every non-empty string.
func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
