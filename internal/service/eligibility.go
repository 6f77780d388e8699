package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"alcyxob/intern-platform/internal/domain"
	"alcyxob/intern-platform/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// Benchmark is the profile of students a company has accepted before.
type Benchmark struct {
	AvgGPA     float64 `json:"avgGpa"`
	AvgEnglish string  `json:"avgEnglish"`
	Samples    int     `json:"samples"`

	englishScore float64
}

// NeedsPlan reports whether the student falls short of the benchmark on
// either GPA or English level.
func (b Benchmark) NeedsPlan(student *domain.User) bool {
	return student.GPA < b.AvgGPA || float64(domain.EnglishScore(student.EnglishLevel)) < b.englishScore
}

const applicantFetchLimit = 8

// companyBenchmark averages the accepted applicants of every internship the
// company posted. Without history the configured defaults apply.
func companyBenchmark(
	ctx context.Context,
	internships repository.InternshipRepository,
	users repository.UserRepository,
	companyID primitive.ObjectID,
	defaultGPA float64,
	defaultEnglish string,
) (Benchmark, error) {
	posted, err := internships.ListByCompany(ctx, companyID)
	if err != nil {
		return Benchmark{}, fmt.Errorf("listing company internships: %w", err)
	}

	seen := make(map[primitive.ObjectID]struct{})
	var accepted []primitive.ObjectID
	for _, in := range posted {
		for _, app := range in.Applicants {
			if app.Status != domain.ApplicationAccepted {
				continue
			}
			if _, dup := seen[app.UserID]; dup {
				continue
			}
			seen[app.UserID] = struct{}{}
			accepted = append(accepted, app.UserID)
		}
	}

	var (
		mu           sync.Mutex
		totalGPA     float64
		totalEnglish int
		count        int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(applicantFetchLimit)
	for _, id := range accepted {
		g.Go(func() error {
			u, err := users.GetByID(gctx, id)
			if errors.Is(err, repository.ErrNotFound) {
				// deleted accounts simply drop out of the average
				return nil
			}
			if err != nil {
				return fmt.Errorf("loading applicant %s: %w", id.Hex(), err)
			}
			mu.Lock()
			totalGPA += u.GPA
			totalEnglish += domain.EnglishScore(u.EnglishLevel)
			count++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Benchmark{}, err
	}

	if count == 0 {
		return Benchmark{
			AvgGPA:       defaultGPA,
			AvgEnglish:   defaultEnglish,
			englishScore: float64(domain.EnglishScore(defaultEnglish)),
		}, nil
	}
	avgEnglish := float64(totalEnglish) / float64(count)
	return Benchmark{
		AvgGPA:       totalGPA / float64(count),
		AvgEnglish:   domain.EnglishLabel(avgEnglish),
		Samples:      count,
		englishScore: avgEnglish,
	}, nil
}
