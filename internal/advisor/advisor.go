// Package advisor relays financial aggregates to Gemini and turns every
// failure into a structured result instead of an error.
package advisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"tietkiem/internal/core"
	"tietkiem/internal/log"
)

const (
	DefaultModel   = "gemini-2.5-flash"
	DefaultTimeout = 30 * time.Second
)

type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Failure is the error half of every result.
type Failure struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

type HealthResult struct {
	Success  bool                `json:"success"`
	Analysis string              `json:"analysis,omitempty"`
	RawData  *core.FinancialData `json:"raw_data,omitempty"`
	Failure
}

type PlanResult struct {
	Success bool            `json:"success"`
	Plan    string          `json:"plan,omitempty"`
	Goal    *core.GoalBrief `json:"goal,omitempty"`
	Failure
}

type AdviceResult struct {
	Success bool   `json:"success"`
	Answer  string `json:"answer,omitempty"`
	Failure
}

// generator produces text for a prompt.
type generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type genaiGenerator struct {
	client *genai.Client
	model  string
}

func (g *genaiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// Gateway is the advisory boundary. A disabled gateway answers every call
// with a KindDisabled failure.
type Gateway struct {
	gen     generator
	timeout time.Duration
	logger  *log.Logger
	now     func() time.Time
}

// New builds a Gemini-backed gateway, or a disabled one when no key is set.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Gateway, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentAdvisor)

	if strings.TrimSpace(cfg.APIKey) == "" {
		logger.Warn("GEMINI_API_KEY not set, advisor disabled")
		return Disabled(logger), nil
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	logger.Info("Advisor ready", "model", cfg.Model, "key", maskKey(cfg.APIKey))
	return newGateway(&genaiGenerator{client: client, model: cfg.Model}, cfg.Timeout, logger), nil
}

// Disabled returns a gateway without a model behind it.
func Disabled(logger *log.Logger) *Gateway {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentAdvisor)
	}
	return &Gateway{logger: logger, now: time.Now}
}

func newGateway(gen generator, timeout time.Duration, logger *log.Logger) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gateway{gen: gen, timeout: timeout, logger: logger, now: time.Now}
}

func (g *Gateway) Enabled() bool {
	return g.gen != nil
}

// ask runs one bounded model call; text is non-empty when err is nil.
func (g *Gateway) ask(ctx context.Context, op, prompt string) (string, *Failure) {
	if !g.Enabled() {
		return "", &Failure{Error: KindDisabled.String(), Message: Message(KindDisabled, nil)}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	text, err := g.gen.Generate(ctx, prompt)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errEmptyResponse
	}
	if err != nil {
		kind := Classify(err)
		g.logger.ErrorContext(ctx, "Advisor call failed",
			log.FieldOperation, op,
			log.FieldErrorKind, kind.String(),
			log.FieldError, serviceError(kind, err))
		return "", &Failure{Error: kind.String(), Message: Message(kind, err)}
	}

	g.logger.InfoContext(ctx, "Advisor call succeeded",
		log.FieldOperation, op,
		"prompt_chars", len(prompt),
		"response_chars", len(text),
		log.FieldDuration, time.Since(start).Milliseconds())
	return text, nil
}

// AnalyzeHealth asks for an assessment of the aggregated finances.
func (g *Gateway) AnalyzeHealth(ctx context.Context, data core.FinancialData) HealthResult {
	text, fail := g.ask(ctx, "analyze_health", buildAnalysisPrompt(data))
	if fail != nil {
		return HealthResult{Failure: *fail}
	}
	return HealthResult{Success: true, Analysis: text, RawData: &data}
}

// SuggestSavingsPlan asks for a plan reaching one goal.
func (g *Gateway) SuggestSavingsPlan(ctx context.Context, goal core.GoalBrief, in core.PlanInput) PlanResult {
	text, fail := g.ask(ctx, "savings_plan", buildPlanPrompt(goal, in, g.now()))
	if fail != nil {
		return PlanResult{Failure: *fail}
	}
	return PlanResult{Success: true, Plan: text, Goal: &goal}
}

// QuickAdvice answers a free-form question with optional context.
func (g *Gateway) QuickAdvice(ctx context.Context, question string, extra map[string]any) AdviceResult {
	question = strings.TrimSpace(question)
	if question == "" {
		return AdviceResult{Failure: Failure{Error: "validation", Message: "Câu hỏi không được để trống"}}
	}
	text, fail := g.ask(ctx, "quick_advice", buildAdvicePrompt(question, extra))
	if fail != nil {
		return AdviceResult{Failure: *fail}
	}
	return AdviceResult{Success: true, Answer: text}
}

func maskKey(key string) string {
	if len(key) <= 12 {
		return "***"
	}
	return key[:8] + "..." + key[len(key)-4:]
}
