package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/dimasfahmi/studyplan-api/internal/models"
	"github.com/dimasfahmi/studyplan-api/internal/schedule"
	"github.com/dimasfahmi/studyplan-api/pkg/config"
	appErrors "github.com/dimasfahmi/studyplan-api/pkg/errors"
)

// PlanGenerator produces a study plan document for a request. The schedule
// context is a human-readable block enumerating occupied day/time/subject
// triples (or a free-slot instruction block); the provider is asked, but not
// guaranteed, to respect it. The conflict detector remains the authoritative
// backstop.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, req schedule.Request, scheduleContext string) (*models.StudyPlan, error)
}

// RemoteGenerator calls an OpenAI-compatible chat-completions API.
type RemoteGenerator struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewRemoteGenerator builds the remote generator. A missing API key yields a
// generator that always reports the service unavailable, which pushes callers
// onto the deterministic fallback.
func NewRemoteGenerator(cfg config.AIConfig, logger *zap.Logger) *RemoteGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &RemoteGenerator{
		model:   cfg.Model,
		timeout: cfg.RequestTimeout,
		logger:  logger,
	}
	if cfg.APIKey == "" {
		return g
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	g.client = openai.NewClientWithConfig(clientCfg)
	return g
}

func (g *RemoteGenerator) GeneratePlan(ctx context.Context, req schedule.Request, scheduleContext string) (*models.StudyPlan, error) {
	if g.client == nil {
		return nil, appErrors.Clone(appErrors.ErrAIUnavailable, "ai generation is not configured")
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: planSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPlanPrompt(req, scheduleContext)},
		},
		Temperature: 0.4,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
			return nil, appErrors.Wrap(err, appErrors.ErrRateLimited.Code, appErrors.ErrRateLimited.Status, appErrors.ErrRateLimited.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrAIUnavailable.Code, appErrors.ErrAIUnavailable.Status, "ai generation request failed")
	}
	if len(resp.Choices) == 0 {
		return nil, appErrors.Clone(appErrors.ErrAIUnavailable, "ai generation returned no choices")
	}

	plan, err := decodePlanDocument(resp.Choices[0].Message.Content)
	if err != nil {
		g.logger.Warn("ai response did not decode into a plan", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrAIUnavailable.Code, appErrors.ErrAIUnavailable.Status, "ai generation returned an unusable document")
	}
	plan.Source = "ai"
	return plan, nil
}

const planSystemPrompt = `You are a study planning assistant. Respond with a single JSON object and nothing else. The object has a "weeklySchedule" keyed by full English day names (Monday..Sunday); each day holds {"subjects":[{"subject","duration","timeSlot","focus","priority"}],"totalHours"}. "timeSlot" is text like "9:00 AM - 11:00 AM", "duration" is hours, "priority" is high, medium or low. Also include "flashcards" ([{"question","answer","topic"}]), "learningTips" and "examStrategies" (arrays of strings).`

func buildPlanPrompt(req schedule.Request, scheduleContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a weekly study schedule for these subjects: %s.\n", strings.Join(req.Subjects, ", "))
	fmt.Fprintf(&b, "The student can study %.2g hours per day and the target date is %s.\n", req.DailyHours, req.TargetDate)
	if len(req.SpecificTopics) > 0 {
		fmt.Fprintf(&b, "Focus on these topics: %s.\n", strings.Join(req.SpecificTopics, ", "))
	}
	switch req.IncludeWeekends {
	case schedule.WeekendsAll:
		b.WriteString("Schedule sessions on all seven days.\n")
	default:
		b.WriteString("Schedule sessions on weekdays only; leave Saturday and Sunday empty.\n")
	}
	if req.PreferredTimes != "" {
		fmt.Fprintf(&b, "The student prefers studying in the %s.\n", req.PreferredTimes)
	}
	if scheduleContext != "" {
		b.WriteString("\n")
		b.WriteString(scheduleContext)
	}
	return b.String()
}

var (
	codeFencePattern     = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// decodePlanDocument recovers a plan document from model output that is not
// always clean JSON: fenced blocks, leading prose and trailing commas all
// occur in practice. Each stage is attempted in order; only when every stage
// fails is the document declared unusable.
func decodePlanDocument(raw string) (*models.StudyPlan, error) {
	candidates := []string{raw}

	if m := codeFencePattern.FindStringSubmatch(raw); m != nil {
		candidates = append(candidates, m[1])
	}
	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
		sliced := raw[start : end+1]
		candidates = append(candidates, sliced, trailingCommaPattern.ReplaceAllString(sliced, "$1"))
	}

	var lastErr error
	for _, candidate := range candidates {
		var plan models.StudyPlan
		if err := json.Unmarshal([]byte(candidate), &plan); err != nil {
			lastErr = err
			continue
		}
		if len(plan.WeeklySchedule) == 0 && len(plan.Sessions) == 0 {
			lastErr = fmt.Errorf("document has no weekly schedule or sessions")
			continue
		}
		return &plan, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("empty response")
	}
	return nil, lastErr
}

// RetryPolicy decorates a PlanGenerator with bounded exponential backoff.
// Exhaustion surfaces as ErrAIUnavailable so the caller falls through to the
// local synthesizer.
type RetryPolicy struct {
	next        PlanGenerator
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	logger      *zap.Logger
	onRetry     func(attempt int, err error)
}

// NewRetryPolicy wraps a generator with the configured retry behaviour.
func NewRetryPolicy(next PlanGenerator, cfg config.AIConfig, logger *zap.Logger) *RetryPolicy {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxAttempts := cfg.MaxRetries
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	baseDelay := cfg.RetryBaseDelay
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	maxDelay := cfg.RetryMaxDelay
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}
	return &RetryPolicy{
		next:        next,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		maxDelay:    maxDelay,
		logger:      logger,
	}
}

// OnRetry registers a callback invoked before each retry sleep. Used for
// process-wide concerns such as retry counters.
func (p *RetryPolicy) OnRetry(fn func(attempt int, err error)) {
	p.onRetry = fn
}

type retryNotifyKey struct{}

// WithRetryNotify returns a context whose retries additionally invoke fn.
// Request-scoped, unlike OnRetry; stream handlers use it to emit "retrying"
// progress frames.
func WithRetryNotify(ctx context.Context, fn func(attempt int, err error)) context.Context {
	return context.WithValue(ctx, retryNotifyKey{}, fn)
}

func retryNotifyFrom(ctx context.Context) func(attempt int, err error) {
	fn, _ := ctx.Value(retryNotifyKey{}).(func(attempt int, err error))
	return fn
}

func (p *RetryPolicy) GeneratePlan(ctx context.Context, req schedule.Request, scheduleContext string) (*models.StudyPlan, error) {
	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		plan, err := p.next.GeneratePlan(ctx, req, scheduleContext)
		if err == nil {
			return plan, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt == p.maxAttempts {
			break
		}
		p.logger.Warn("ai generation attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if p.onRetry != nil {
			p.onRetry(attempt, err)
		}
		if fn := retryNotifyFrom(ctx); fn != nil {
			fn(attempt, err)
		}
		if err := sleepContext(ctx, p.delay(attempt)); err != nil {
			lastErr = err
			break
		}
	}
	return nil, appErrors.Wrap(lastErr, appErrors.ErrAIUnavailable.Code, appErrors.ErrAIUnavailable.Status, "ai generation failed after retries")
}

func (p *RetryPolicy) delay(attempt int) time.Duration {
	delay := p.baseDelay << uint(attempt-1)
	if delay > p.maxDelay {
		delay = p.maxDelay
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
