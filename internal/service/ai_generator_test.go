package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dimasfahmi/studyplan-api/internal/models"
	"github.com/dimasfahmi/studyplan-api/internal/schedule"
	"github.com/dimasfahmi/studyplan-api/pkg/config"
	appErrors "github.com/dimasfahmi/studyplan-api/pkg/errors"
)

func TestRemoteGeneratorWithoutKeyReportsUnavailable(t *testing.T) {
	gen := NewRemoteGenerator(config.AIConfig{}, zap.NewNop())

	_, err := gen.GeneratePlan(context.Background(), schedule.Request{Subjects: []string{"Math"}}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAIUnavailable.Code, appErrors.FromError(err).Code)
}

func TestDecodePlanDocumentPlainJSON(t *testing.T) {
	raw := `{"weeklySchedule":{"Monday":{"subjects":[{"subject":"Math","duration":2,"timeSlot":"9:00 AM - 11:00 AM"}],"totalHours":2}}}`

	plan, err := decodePlanDocument(raw)
	require.NoError(t, err)
	assert.Equal(t, "Math", plan.WeeklySchedule["Monday"].Subjects[0].Subject)
}

func TestDecodePlanDocumentCodeFence(t *testing.T) {
	raw := "Here is your plan:\n```json\n{\"weeklySchedule\":{\"Monday\":{\"subjects\":[{\"subject\":\"Math\",\"duration\":2,\"timeSlot\":\"9:00 AM - 11:00 AM\"}],\"totalHours\":2}}}\n```\nGood luck!"

	plan, err := decodePlanDocument(raw)
	require.NoError(t, err)
	assert.Equal(t, 2.0, plan.WeeklySchedule["Monday"].TotalHours)
}

func TestDecodePlanDocumentSurroundingProse(t *testing.T) {
	raw := `Sure! {"weeklySchedule":{"Monday":{"subjects":[{"subject":"Math","duration":2,"timeSlot":"9:00 AM - 11:00 AM"}],"totalHours":2}}} Anything else?`

	plan, err := decodePlanDocument(raw)
	require.NoError(t, err)
	assert.Len(t, plan.WeeklySchedule, 1)
}

func TestDecodePlanDocumentTrailingCommas(t *testing.T) {
	raw := `{"weeklySchedule":{"Monday":{"subjects":[{"subject":"Math","duration":2,"timeSlot":"9:00 AM - 11:00 AM"},],"totalHours":2,},},}`

	plan, err := decodePlanDocument(raw)
	require.NoError(t, err)
	assert.Equal(t, "Math", plan.WeeklySchedule["Monday"].Subjects[0].Subject)
}

func TestDecodePlanDocumentRejectsEmptySchedule(t *testing.T) {
	_, err := decodePlanDocument(`{"weeklySchedule":{}}`)
	require.Error(t, err)
}

func TestDecodePlanDocumentRejectsGarbage(t *testing.T) {
	_, err := decodePlanDocument("I could not produce a schedule, sorry.")
	require.Error(t, err)
}

func TestRetryPolicyReturnsFirstSuccess(t *testing.T) {
	gen := &flakyGenerator{failures: 0}
	policy := NewRetryPolicy(gen, config.AIConfig{MaxRetries: 3, RetryBaseDelay: time.Millisecond}, zap.NewNop())

	plan, err := policy.GeneratePlan(context.Background(), schedule.Request{}, "")
	require.NoError(t, err)
	assert.NotNil(t, plan)
	assert.Equal(t, 1, gen.calls)
}

func TestRetryPolicyRetriesThenSucceeds(t *testing.T) {
	gen := &flakyGenerator{failures: 2}
	policy := NewRetryPolicy(gen, config.AIConfig{MaxRetries: 3, RetryBaseDelay: time.Millisecond}, zap.NewNop())

	var retries []int
	policy.OnRetry(func(attempt int, err error) {
		retries = append(retries, attempt)
	})

	_, err := policy.GeneratePlan(context.Background(), schedule.Request{}, "")
	require.NoError(t, err)
	assert.Equal(t, 3, gen.calls)
	assert.Equal(t, []int{1, 2}, retries)
}

func TestRetryPolicyContextNotify(t *testing.T) {
	gen := &flakyGenerator{failures: 1}
	policy := NewRetryPolicy(gen, config.AIConfig{MaxRetries: 3, RetryBaseDelay: time.Millisecond}, zap.NewNop())

	var notified int
	ctx := WithRetryNotify(context.Background(), func(attempt int, err error) {
		notified++
	})

	_, err := policy.GeneratePlan(ctx, schedule.Request{}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, notified)
}

func TestRetryPolicyExhaustionIsUnavailable(t *testing.T) {
	gen := &flakyGenerator{failures: 10}
	policy := NewRetryPolicy(gen, config.AIConfig{MaxRetries: 3, RetryBaseDelay: time.Millisecond}, zap.NewNop())

	_, err := policy.GeneratePlan(context.Background(), schedule.Request{}, "")
	require.Error(t, err)
	assert.Equal(t, 3, gen.calls)
	assert.Equal(t, appErrors.ErrAIUnavailable.Code, appErrors.FromError(err).Code)
}

func TestRetryPolicyStopsOnContextCancel(t *testing.T) {
	gen := &flakyGenerator{failures: 10}
	policy := NewRetryPolicy(gen, config.AIConfig{MaxRetries: 5, RetryBaseDelay: time.Minute}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := policy.GeneratePlan(ctx, schedule.Request{}, "")
	require.Error(t, err)
	assert.Equal(t, 1, gen.calls, "cancelled context must not trigger further attempts")
}

func TestRetryPolicyDelayCapped(t *testing.T) {
	policy := NewRetryPolicy(nil, config.AIConfig{
		MaxRetries:     5,
		RetryBaseDelay: time.Second,
		RetryMaxDelay:  3 * time.Second,
	}, zap.NewNop())

	assert.Equal(t, time.Second, policy.delay(1))
	assert.Equal(t, 2*time.Second, policy.delay(2))
	assert.Equal(t, 3*time.Second, policy.delay(3))
	assert.Equal(t, 3*time.Second, policy.delay(5))
}

type flakyGenerator struct {
	failures int
	calls    int
}

func (g *flakyGenerator) GeneratePlan(ctx context.Context, req schedule.Request, scheduleContext string) (*models.StudyPlan, error) {
	g.calls++
	if g.calls <= g.failures {
		return nil, errors.New("upstream hiccup")
	}
	return &models.StudyPlan{
		WeeklySchedule: map[string]models.DaySchedule{"Monday": {TotalHours: 0}},
	}, nil
}
