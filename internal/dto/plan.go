package dto

import (
	"github.com/dimasfahmi/studyplan-api/internal/models"
	"github.com/dimasfahmi/studyplan-api/internal/schedule"
)

// GeneratePlanRequest describes what the student wants a plan for.
type GeneratePlanRequest struct {
	Subjects        []string `json:"subjects" validate:"required,min=1,dive,required"`
	DailyHours      float64  `json:"dailyHours" validate:"required,gt=0,lte=16"`
	TargetDate      string   `json:"targetDate" validate:"required"`
	SpecificTopics  []string `json:"specificTopics"`
	IncludeWeekends string   `json:"includeWeekends" validate:"omitempty,oneof=weekdays all flexible"`
	PreferredTimes  string   `json:"preferredTimes" validate:"omitempty,oneof=morning afternoon evening night"`
	PlanName        string   `json:"planName"`
}

// ScheduleRequest maps the transport payload onto the synthesizer's input.
func (r GeneratePlanRequest) ScheduleRequest() schedule.Request {
	return schedule.Request{
		Subjects:        r.Subjects,
		DailyHours:      r.DailyHours,
		TargetDate:      r.TargetDate,
		SpecificTopics:  r.SpecificTopics,
		IncludeWeekends: r.IncludeWeekends,
		PreferredTimes:  r.PreferredTimes,
	}
}

// GeneratePlanResponse carries either a saved plan or a pending decision.
// When conflicts are present the plan is staged under PendingID and the
// caller must resolve it.
type GeneratePlanResponse struct {
	Plan             *models.StoredPlan  `json:"plan,omitempty"`
	Source           string              `json:"source"`
	Conflicts        []schedule.Conflict `json:"conflicts,omitempty"`
	PendingID        string              `json:"pendingId,omitempty"`
	RequiresDecision bool                `json:"requiresDecision"`
}

// Resolution actions for a staged plan.
const (
	ResolveOverwrite  = "overwrite"
	ResolveRegenerate = "regenerate"
	ResolveCancel     = "cancel"
)

// ResolvePlanRequest settles a staged plan that had conflicts.
type ResolvePlanRequest struct {
	PendingID string `json:"pendingId" validate:"required"`
	Action    string `json:"action" validate:"required,oneof=overwrite regenerate cancel"`
}

// ResolvePlanResponse reports the outcome of a resolution.
type ResolvePlanResponse struct {
	Status string             `json:"status"`
	Plan   *models.StoredPlan `json:"plan,omitempty"`
}

// CheckConflictsRequest asks the detector to vet an arbitrary plan document.
type CheckConflictsRequest struct {
	Plan          models.StudyPlan `json:"plan" validate:"required"`
	ExcludePlanID string           `json:"excludePlanId"`
}

// UpdatePlanStatusRequest changes a stored plan's lifecycle state.
type UpdatePlanStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active completed inactive"`
}

// Stream frame types emitted on the SSE generation endpoint.
const (
	StreamProgress = "progress"
	StreamSuccess  = "success"
	StreamError    = "error"
)

// StreamFrame is one server-sent event on the streaming generation endpoint.
type StreamFrame struct {
	Type    string      `json:"type"`
	Stage   string      `json:"stage,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}
