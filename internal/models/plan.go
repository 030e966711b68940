package models

import "time"

// Plan lifecycle states. Completed and inactive plans no longer participate
// in conflict detection.
const (
	PlanStatusActive    = "active"
	PlanStatusCompleted = "completed"
	PlanStatusInactive  = "inactive"
)

// Session priorities assigned by the synthesizer.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// SubjectSession is a single study block on a given day. TimeSlot carries the
// raw "H:MM AM - H:MM AM" text, which is the source of truth for scheduling;
// Duration is hours and is not validated against the parsed span.
type SubjectSession struct {
	Subject  string  `json:"subject"`
	Duration float64 `json:"duration"`
	TimeSlot string  `json:"timeSlot"`
	Focus    string  `json:"focus,omitempty"`
	Priority string  `json:"priority,omitempty"`
}

// DaySchedule groups the sessions of one weekday. TotalHours always equals the
// sum of session durations for the day.
type DaySchedule struct {
	Subjects   []SubjectSession `json:"subjects"`
	TotalHours float64          `json:"totalHours"`
}

// Session is the flat alternate representation of a study block.
type Session struct {
	Day      string  `json:"day"`
	Subject  string  `json:"subject"`
	Duration float64 `json:"duration"`
	TimeSlot string  `json:"timeSlot"`
	Focus    string  `json:"focus,omitempty"`
	Type     string  `json:"type,omitempty"`
	Priority string  `json:"priority,omitempty"`
}

// Flashcard is a generated self-test card.
type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Topic    string `json:"topic"`
}

// StudyPlan is the persisted plan document. WeeklySchedule is keyed by exact
// English day names; Sessions mirrors it in flat form for consumers that
// prefer one list.
type StudyPlan struct {
	WeeklySchedule map[string]DaySchedule `json:"weeklySchedule"`
	Sessions       []Session              `json:"sessions,omitempty"`
	Flashcards     []Flashcard            `json:"flashcards,omitempty"`
	LearningTips   []string               `json:"learningTips,omitempty"`
	ExamStrategies []string               `json:"examStrategies,omitempty"`
	Source         string                 `json:"source,omitempty"`
}

// StoredPlan is a saved plan with its storage metadata.
type StoredPlan struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Plan      StudyPlan `json:"fullPlan"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Pagination describes list response paging metadata.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
