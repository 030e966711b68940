package schedule

import (
	"strings"
	"time"

	"github.com/dimasfahmi/studyplan-api/internal/models"
)

// DefaultStaleWindow is the recency cutoff beyond which a stored plan is
// presumed stale and excluded from conflict consideration.
const DefaultStaleWindow = 30 * 24 * time.Hour

// Conflict is a cross-subject collision between a candidate slot and an
// existing commitment. Transient: produced per detection pass, never persisted.
type Conflict struct {
	Day             string `json:"day"`
	TimeSlot        string `json:"timeSlot"`
	ExistingSubject string `json:"existingSubject"`
	NewSubject      string `json:"newSubject"`
	ExistingPlan    string `json:"existingPlan"`
	ExistingPlanID  string `json:"existingPlanId"`
}

// Detector checks candidate plans against stored commitments.
type Detector struct {
	StaleWindow time.Duration
	Now         func() time.Time
}

// NewDetector builds a detector with the given staleness window; zero means
// the 30-day default.
func NewDetector(staleWindow time.Duration) *Detector {
	if staleWindow <= 0 {
		staleWindow = DefaultStaleWindow
	}
	return &Detector{StaleWindow: staleWindow, Now: time.Now}
}

// Detect returns the deduplicated cross-subject collisions between the
// candidate plan and every active, recent stored plan. Malformed time text is
// swallowed at the extraction layer, so the worst failure mode is
// under-reporting; Detect never errors.
func (d *Detector) Detect(candidate *models.StudyPlan, stored []models.StoredPlan, excludePlanID string) []Conflict {
	existing := d.ExistingSlots(stored, excludePlanID)
	candidateSlots := ExtractSlots(candidate, "", "")

	conflicts := make([]Conflict, 0)
	for _, cand := range candidateSlots {
		for _, ex := range existing {
			if cand.Day != ex.Day {
				continue
			}
			if !cand.Interval.Overlaps(ex.Interval) {
				continue
			}
			// A plan may extend or repeat its own subject; only
			// cross-subject collisions are reportable.
			if strings.EqualFold(cand.Subject, ex.Subject) {
				continue
			}
			conflicts = append(conflicts, Conflict{
				Day:             cand.Day,
				TimeSlot:        cand.RawRange,
				ExistingSubject: ex.Subject,
				NewSubject:      cand.Subject,
				ExistingPlan:    ex.PlanName,
				ExistingPlanID:  ex.PlanID,
			})
		}
	}
	return DedupeConflicts(conflicts)
}

// ExistingSlots extracts the commitment universe from stored plans, skipping
// completed and inactive plans, plans older than the staleness window, and the
// excluded plan itself.
func (d *Detector) ExistingSlots(stored []models.StoredPlan, excludePlanID string) []TimeSlot {
	window := d.StaleWindow
	if window <= 0 {
		window = DefaultStaleWindow
	}
	now := time.Now()
	if d.Now != nil {
		now = d.Now()
	}

	var slots []TimeSlot
	for i := range stored {
		plan := &stored[i]
		if excludePlanID != "" && plan.ID == excludePlanID {
			continue
		}
		switch strings.ToLower(plan.Status) {
		case models.PlanStatusCompleted, models.PlanStatusInactive:
			continue
		}
		if !plan.CreatedAt.IsZero() && now.Sub(plan.CreatedAt) > window {
			continue
		}
		slots = append(slots, ExtractSlots(&plan.Plan, plan.ID, plan.Name)...)
	}
	return slots
}

// DedupeConflicts collapses the list to one conflict per (day, candidate time
// text) key, keeping the first occurrence. Multiple existing plans colliding
// with the same new slot produce a single entry. Idempotent.
func DedupeConflicts(conflicts []Conflict) []Conflict {
	seen := make(map[string]struct{}, len(conflicts))
	result := make([]Conflict, 0, len(conflicts))
	for _, conflict := range conflicts {
		key := conflict.Day + "|" + conflict.TimeSlot
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, conflict)
	}
	return result
}
