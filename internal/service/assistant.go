package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"alcyxob/intern-platform/internal/domain"
	"alcyxob/intern-platform/internal/llm"
	"alcyxob/intern-platform/internal/logger"
	"alcyxob/intern-platform/internal/repository"

	"golang.org/x/sync/errgroup"
)

const (
	ToolGetStudyPlan    = "get_study_plan"
	ToolListActivePlans = "list_active_plans"

	maxToolCalls     = 3
	contextListLimit = 100

	// AssistantFallbackMessage is returned when the provider cannot answer.
	AssistantFallbackMessage = "The assistant is not available right now. Please try again in a few minutes."
)

var chatSchema = &llm.Schema{
	Name:        "assistant-reply",
	Description: "Assistant answer with optional tool requests",
	Definition: map[string]any{
		"type":     "object",
		"required": []any{"text"},
		"properties": map[string]any{
			"text": map[string]any{"type": "string"},
			"tool_calls": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []any{"name"},
					"properties": map[string]any{
						"name":     map[string]any{"type": "string", "enum": []any{ToolGetStudyPlan, ToolListActivePlans}},
						"plan_ref": map[string]any{"type": "string"},
					},
				},
			},
		},
	},
}

type chatPayload struct {
	Text      string `json:"text"`
	ToolCalls []struct {
		Name    string `json:"name"`
		PlanRef string `json:"plan_ref"`
	} `json:"tool_calls"`
}

type ChatReply struct {
	Reply     string   `json:"reply"`
	ToolsUsed []string `json:"toolsUsed,omitempty"`
	Fallback  bool     `json:"fallback,omitempty"`
}

// AssistantService answers platform questions using site data and the
// study plan read path.
type AssistantService interface {
	Chat(ctx context.Context, actor Actor, message string) (*ChatReply, error)
}

type assistantService struct {
	provider       llm.Provider
	plans          PlanService
	userRepo       repository.UserRepository
	internshipRepo repository.InternshipRepository
	log            *logger.Logger
}

func NewAssistantService(
	provider llm.Provider,
	plans PlanService,
	userRepo repository.UserRepository,
	internshipRepo repository.InternshipRepository,
	log *logger.Logger,
) AssistantService {
	return &assistantService{
		provider:       provider,
		plans:          plans,
		userRepo:       userRepo,
		internshipRepo: internshipRepo,
		log:            log,
	}
}

func (a *assistantService) Chat(ctx context.Context, actor Actor, message string) (*ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	ctx = llm.WithPurpose(ctx, "chat")

	system := assistantSystemPrompt + "\n\n" + a.siteContext(ctx, actor)
	msgs := []llm.Message{{Role: llm.RoleUser, Content: message}}

	first, raw, err := a.ask(ctx, system, msgs)
	if err != nil {
		a.log.Warn("assistant provider failed", "error", err)
		return &ChatReply{Reply: AssistantFallbackMessage, Fallback: true}, nil
	}
	if len(first.ToolCalls) == 0 {
		return &ChatReply{Reply: first.Text}, nil
	}

	var (
		results strings.Builder
		used    []string
	)
	for i, call := range first.ToolCalls {
		if i == maxToolCalls {
			break
		}
		used = append(used, call.Name)
		fmt.Fprintf(&results, "[%s]\n%s\n\n", call.Name, a.runTool(ctx, actor, call.Name, call.PlanRef))
	}

	msgs = append(msgs,
		llm.Message{Role: llm.RoleAssistant, Content: raw},
		llm.Message{Role: llm.RoleUser, Content: "TOOL RESULTS:\n" + results.String() + "Answer the original question using these results. Do not request tools again."},
	)
	second, _, err := a.ask(ctx, system, msgs)
	if err != nil {
		a.log.Warn("assistant follow-up failed", "error", err)
		if strings.TrimSpace(first.Text) != "" {
			return &ChatReply{Reply: first.Text, ToolsUsed: used}, nil
		}
		return &ChatReply{Reply: AssistantFallbackMessage, ToolsUsed: used, Fallback: true}, nil
	}
	return &ChatReply{Reply: second.Text, ToolsUsed: used}, nil
}

func (a *assistantService) ask(ctx context.Context, system string, msgs []llm.Message) (*chatPayload, string, error) {
	resp, err := a.provider.Generate(ctx, llm.Request{
		System:      system,
		Messages:    msgs,
		Schema:      chatSchema,
		MaxTokens:   2048,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, "", err
	}
	var p chatPayload
	if err := json.Unmarshal(resp.Content, &p); err != nil {
		return nil, "", &llm.ErrInvalidResponse{Content: resp.Content, Err: err}
	}
	return &p, string(resp.Content), nil
}

func (a *assistantService) runTool(ctx context.Context, actor Actor, name, planRef string) string {
	switch name {
	case ToolGetStudyPlan:
		if strings.TrimSpace(planRef) == "" {
			return "error: plan_ref is required"
		}
		plan, err := a.plans.Get(ctx, actor, planRef)
		if err != nil {
			return "error: " + err.Error()
		}
		return summarizePlan(plan)
	case ToolListActivePlans:
		plans, err := a.plans.ListActive(ctx, actor)
		if err != nil {
			return "error: " + err.Error()
		}
		if len(plans) == 0 {
			return "no active study plans"
		}
		var b strings.Builder
		for i := range plans {
			b.WriteString(summarizePlan(&plans[i]))
			b.WriteByte('\n')
		}
		return b.String()
	}
	return "error: unknown tool " + name
}

func summarizePlan(p *domain.Plan) string {
	next := "none"
	for i := range p.Days {
		if p.Days[i].State != domain.DayCompleted {
			next = fmt.Sprintf("day %d (%s, %s)", p.Days[i].DayNumber, p.Days[i].Topic, p.Days[i].State)
			break
		}
	}
	return fmt.Sprintf("plan %s | company: %s | active: %t | completed %d/%d days | xp earned: %d | next: %s",
		p.Slug, p.TargetCompanyName, p.IsActive, p.CompletedDays(), len(p.Days), p.TotalXP(), next)
}

const assistantSystemPrompt = `You are "Captain AI", a helpful and professional maritime platform assistant.
Answer only from the SITE DATA below; decline questions about anything outside the platform.
If a company asks, pick suitable students from the student pool and link them as "Name [View profile](/profile/ID)".
If a student asks, advise based on their grades and target companies, linking postings as "Title [Open posting](/internships/ID)".
To look up the user's study plans, request the get_study_plan or list_active_plans tool.
Reply as JSON: {"text": "...", "tool_calls": [{"name": "...", "plan_ref": "..."}]}.`

// siteContext describes the data the assistant may draw on for this role.
// Lookup failures leave the corresponding section empty.
func (a *assistantService) siteContext(ctx context.Context, actor Actor) string {
	var (
		user        *domain.User
		students    []domain.User
		companies   []domain.User
		internships []domain.Internship
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := a.userRepo.GetByID(gctx, actor.ID)
		if err == nil {
			user = u
		}
		return nil
	})
	if actor.Role == domain.RoleCompany {
		g.Go(func() error {
			students, _ = a.userRepo.ListByRole(gctx, domain.RoleStudent, contextListLimit)
			return nil
		})
	} else {
		g.Go(func() error {
			companies, _ = a.userRepo.ListByRole(gctx, domain.RoleCompany, contextListLimit)
			return nil
		})
		g.Go(func() error {
			internships, _ = a.internshipRepo.ListActive(gctx, contextListLimit)
			return nil
		})
	}
	_ = g.Wait()

	var b strings.Builder
	b.WriteString("SITE DATA:\n")
	if actor.Role == domain.RoleCompany {
		b.WriteString("--- STUDENT POOL ---\n")
		if len(students) == 0 {
			b.WriteString("(no registered students)\n")
		}
		for _, s := range students {
			fmt.Fprintf(&b, "- Student: %s | ID: %s | Department: %s | GPA: %.2f | English: %s | XP: %d\n",
				s.FullName(), s.ID.Hex(), s.Department, s.GPA, s.EnglishLevel, s.XP)
		}
	} else {
		names := make(map[string]string, len(companies))
		for _, c := range companies {
			names[c.ID.Hex()] = c.Name
		}
		b.WriteString("--- ACTIVE INTERNSHIPS ---\n")
		if len(internships) == 0 {
			b.WriteString("(no active postings)\n")
		}
		for _, in := range internships {
			company := names[in.CompanyID.Hex()]
			if company == "" {
				company = "unknown company"
			}
			fmt.Fprintf(&b, "- Posting: %q | ID: %s | Company: %s | Ship: %s | Location: %s | Duration: %s\n",
				in.Title, in.ID.Hex(), company, in.ShipType, in.Location, in.Duration)
		}
		b.WriteString("\n--- COMPANIES ---\n")
		if len(companies) == 0 {
			b.WriteString("(no registered companies)\n")
		}
		for _, c := range companies {
			sector := "unspecified"
			if c.CompanyInfo != nil && c.CompanyInfo.Sector != "" {
				sector = c.CompanyInfo.Sector
			}
			fmt.Fprintf(&b, "- Company: %s | ID: %s | Sector: %s\n", c.Name, c.ID.Hex(), sector)
		}
	}

	if user != nil {
		b.WriteString("\n--- CURRENT USER ---\n")
		fmt.Fprintf(&b, "Role: %s\nName: %s\n", user.Role, user.FullName())
		switch user.Role {
		case domain.RoleStudent:
			fmt.Fprintf(&b, "Department: %s\nGPA: %.2f\nEnglish: %s\nXP: %d (level %d)\n",
				user.Department, user.GPA, user.EnglishLevel, user.XP, user.Level)
		case domain.RoleCompany:
			if user.CompanyInfo != nil {
				fmt.Fprintf(&b, "Sector: %s\n", user.CompanyInfo.Sector)
			}
		}
	}
	return b.String()
}
