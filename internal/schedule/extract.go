package schedule

import (
	"sort"

	"github.com/dimasfahmi/studyplan-api/internal/models"
)

// DefaultSubject labels sessions whose subject is missing.
const DefaultSubject = "General Study"

// TimeSlot is one extracted commitment: a subject occupying an interval on a
// day, tagged with the plan it came from. Lifetime is one detection pass.
type TimeSlot struct {
	Day      string
	Interval TimeInterval
	RawRange string
	Subject  string
	PlanID   string
	PlanName string
}

// ExtractSlots flattens a plan into its time slots. The weekly schedule is the
// preferred representation; the flat session list is only consulted when the
// weekly schedule is absent or empty, never both, so the same commitment is
// not counted twice. Entries whose time text does not parse are skipped
// without aborting the rest of the plan.
func ExtractSlots(plan *models.StudyPlan, planID, planName string) []TimeSlot {
	if plan == nil {
		return nil
	}

	if hasWeeklyEntries(plan.WeeklySchedule) {
		return extractWeekly(plan.WeeklySchedule, planID, planName)
	}

	var slots []TimeSlot
	for _, session := range plan.Sessions {
		interval, ok := ParseTimeRange(session.TimeSlot)
		if !ok {
			continue
		}
		slots = append(slots, TimeSlot{
			Day:      NormalizeDay(session.Day),
			Interval: interval,
			RawRange: session.TimeSlot,
			Subject:  subjectOrDefault(session.Subject),
			PlanID:   planID,
			PlanName: planName,
		})
	}
	return slots
}

func hasWeeklyEntries(weekly map[string]models.DaySchedule) bool {
	for _, day := range weekly {
		if len(day.Subjects) > 0 {
			return true
		}
	}
	return false
}

func extractWeekly(weekly map[string]models.DaySchedule, planID, planName string) []TimeSlot {
	days := make([]string, 0, len(weekly))
	for day := range weekly {
		days = append(days, day)
	}
	sort.Strings(days)

	var slots []TimeSlot
	for _, day := range days {
		normalized := NormalizeDay(day)
		for _, session := range weekly[day].Subjects {
			interval, ok := ParseTimeRange(session.TimeSlot)
			if !ok {
				continue
			}
			slots = append(slots, TimeSlot{
				Day:      normalized,
				Interval: interval,
				RawRange: session.TimeSlot,
				Subject:  subjectOrDefault(session.Subject),
				PlanID:   planID,
				PlanName: planName,
			})
		}
	}
	return slots
}

func subjectOrDefault(subject string) string {
	if subject == "" {
		return DefaultSubject
	}
	return subject
}
