package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"alcyxob/intern-platform/internal/llm"
	"alcyxob/intern-platform/internal/logger"
	"alcyxob/intern-platform/internal/topic"
)

// Curriculum sources recorded on the plan.
const (
	SourceProvider         = "provider"
	SourceProviderFallback = "provider+fallback"
	SourceFallback         = "fallback"
)

const (
	emphasisSuffix = " - Special Study"
	partSuffix     = " - Part %d"
)

// Catalogue is the rotation used when the provider is unavailable or short.
var Catalogue = []string{
	"Denizcilik İngilizcesi - Temel",
	"Seyir Güvenliği",
	"Meteoroloji",
	"Gemi İnşa",
	"Deniz Hukuku",
	"ISM Kod",
	"SOLAS & MARPOL",
	"Yük Elleçleme",
	"Gemi Manevrası",
	"Acil Durum Prosedürleri",
}

// StudentProfile is what the curriculum is personalized on.
type StudentProfile struct {
	GPA          float64
	EnglishLevel string
	Department   string
	WeakSubjects []string
}

// CompanyProfile describes the target employer.
type CompanyProfile struct {
	Name   string
	Sector string
	About  string
}

// CurriculumEntry is one (day, topic) pair.
type CurriculumEntry struct {
	Day        int
	Topic      string
	Emphasized bool
}

type Curriculum struct {
	Days   []CurriculumEntry
	Source string
}

// CurriculumGenerator produces the ordered topic list of a new plan.
type CurriculumGenerator interface {
	// Generate always returns exactly the configured number of days.
	Generate(ctx context.Context, student StudentProfile, company CompanyProfile) Curriculum
}

type curriculumGenerator struct {
	provider llm.Provider
	length   int
	log      *logger.Logger
}

func NewCurriculumGenerator(provider llm.Provider, length int, log *logger.Logger) CurriculumGenerator {
	return &curriculumGenerator{provider: provider, length: length, log: log}
}

func (g *curriculumGenerator) Generate(ctx context.Context, student StudentProfile, company CompanyProfile) Curriculum {
	entries, err := g.fromProvider(ctx, student, company)
	if err != nil {
		g.log.Warn("curriculum generation failed, using fallback", "error", err)
		return Curriculum{Days: FallbackCurriculum(student.WeakSubjects, g.length), Source: SourceFallback}
	}
	if len(entries) >= g.length {
		return Curriculum{Days: entries[:g.length], Source: SourceProvider}
	}
	g.log.Warn("curriculum too short, padding", "got", len(entries), "want", g.length)
	return Curriculum{Days: padCurriculum(entries, g.length), Source: SourceProviderFallback}
}

func (g *curriculumGenerator) fromProvider(ctx context.Context, student StudentProfile, company CompanyProfile) ([]CurriculumEntry, error) {
	resp, err := g.provider.Generate(llm.WithPurpose(ctx, "curriculum"), llm.Request{
		System: "You are a maritime career advisor. Answer with JSON only.",
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: curriculumPrompt(student, company, g.length)},
		},
		MaxTokens:   4096,
		Temperature: 0.4,
	})
	if err != nil {
		return nil, err
	}
	entries, err := ParseCurriculum(string(resp.Content))
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errors.New("curriculum has no usable day 1")
	}
	for i := range entries {
		entries[i].Emphasized = topic.IsEmphasized(entries[i].Topic)
	}
	return entries, nil
}

func curriculumPrompt(s StudentProfile, c CompanyProfile, days int) string {
	weak := strings.Join(s.WeakSubjects, ", ")
	if weak == "" {
		weak = "none identified"
	}
	sector := c.Sector
	if sector == "" {
		sector = "general maritime"
	}
	about := c.About
	if about == "" {
		about = "standard international shipping company"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Prepare a %d-day study curriculum so this student can be selected by the company.\n\n", days)
	fmt.Fprintf(&b, "Student:\n- GPA: %.2f\n- English level: %s\n- Department: %s\n- Weak subjects: %s\n\n",
		s.GPA, s.EnglishLevel, s.Department, weak)
	fmt.Fprintf(&b, "Company:\n- Name: %s\n- Sector: %s\n- About: %s\n\n", c.Name, sector, about)
	b.WriteString("Rules:\n")
	b.WriteString("1. Cover the weak subjects in the first weeks and mark them with \" - Special Study\".\n")
	b.WriteString("2. Add technical topics that fit the company's sector.\n")
	b.WriteString("3. If the English level is below B2, add Maritime English every week.\n")
	b.WriteString("4. Include career and interview preparation.\n")
	fmt.Fprintf(&b, "5. Days must run from 1 to %d in order.\n\n", days)
	b.WriteString(`Output: {"curriculum":[{"day":1,"topic":"..."},{"day":2,"topic":"..."}]}`)
	return b.String()
}

// ParseCurriculum reads provider output leniently: code fences and leading
// prose are skipped, a bare array or an object holding one is accepted, and a
// missing day number falls back to the item's position. The result is the
// contiguous run starting at day 1.
func ParseCurriculum(raw string) ([]CurriculumEntry, error) {
	s := llm.StripCodeFences(raw)
	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return nil, errors.New("no JSON in curriculum output")
	}
	var root any
	if err := json.NewDecoder(strings.NewReader(s[start:])).Decode(&root); err != nil {
		return nil, fmt.Errorf("decoding curriculum: %w", err)
	}

	items := curriculumItems(root)
	if items == nil {
		return nil, errors.New("curriculum output has no day list")
	}

	var parsed []CurriculumEntry
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		t, _ := obj["topic"].(string)
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		day, ok := dayNumber(obj["day"])
		if !ok {
			day = i + 1
		}
		parsed = append(parsed, CurriculumEntry{Day: day, Topic: t})
	}
	sort.SliceStable(parsed, func(i, j int) bool { return parsed[i].Day < parsed[j].Day })

	run := make([]CurriculumEntry, 0, len(parsed))
	next := 1
	for _, e := range parsed {
		if e.Day < next {
			continue // duplicate day, first wins
		}
		if e.Day > next {
			break
		}
		run = append(run, e)
		next++
	}
	return run, nil
}

func curriculumItems(root any) []any {
	switch v := root.(type) {
	case []any:
		return v
	case map[string]any:
		for _, key := range []string{"curriculum", "days", "schedule"} {
			if arr, ok := v[key].([]any); ok {
				return arr
			}
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if arr, ok := v[k].([]any); ok {
				return arr
			}
		}
		if _, ok := v["topic"]; ok {
			return []any{v}
		}
	}
	return nil
}

func dayNumber(v any) (int, bool) {
	switch d := v.(type) {
	case float64:
		if d >= 1 && d == float64(int(d)) {
			return int(d), true
		}
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(d))
		if err == nil && n >= 1 {
			return n, true
		}
	}
	return 0, false
}

// padCurriculum fills the days after the provider's run with catalogue topics.
func padCurriculum(entries []CurriculumEntry, length int) []CurriculumEntry {
	out := make([]CurriculumEntry, len(entries), length)
	copy(out, entries)
	for i := len(entries); i < length; i++ {
		name := Catalogue[i%len(Catalogue)]
		out = append(out, CurriculumEntry{
			Day:   i + 1,
			Topic: name + fmt.Sprintf(partSuffix, i/len(Catalogue)+1),
		})
	}
	return out
}

// FallbackCurriculum is the deterministic curriculum: weak subjects lead,
// catalogue topics that overlap a weak subject are dropped, and the combined
// list repeats until length days are filled.
func FallbackCurriculum(weakSubjects []string, length int) []CurriculumEntry {
	weak := dedupe(weakSubjects)
	rotation := make([]string, 0, len(weak)+len(Catalogue))
	isWeak := make(map[string]bool, len(weak))
	for _, w := range weak {
		rotation = append(rotation, w)
		isWeak[w] = true
	}
	for _, c := range Catalogue {
		if !overlapsAny(c, weak) {
			rotation = append(rotation, c)
		}
	}

	out := make([]CurriculumEntry, 0, length)
	for i := 0; i < length; i++ {
		name := rotation[i%len(rotation)]
		if isWeak[name] {
			out = append(out, CurriculumEntry{Day: i + 1, Topic: name + emphasisSuffix, Emphasized: true})
			continue
		}
		out = append(out, CurriculumEntry{
			Day:   i + 1,
			Topic: name + fmt.Sprintf(partSuffix, i/len(rotation)+1),
		})
	}
	return out
}

func overlapsAny(candidate string, weak []string) bool {
	c := strings.ToLower(candidate)
	for _, w := range weak {
		lw := strings.ToLower(w)
		if strings.Contains(c, lw) || strings.Contains(lw, c) || topic.Similar(candidate, w, topic.DefaultThreshold) {
			return true
		}
	}
	return false
}
