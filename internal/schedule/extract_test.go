package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimasfahmi/studyplan-api/internal/models"
)

func TestExtractSlotsPrefersWeeklySchedule(t *testing.T) {
	plan := &models.StudyPlan{
		WeeklySchedule: map[string]models.DaySchedule{
			"Monday": {
				Subjects:   []models.SubjectSession{{Subject: "Biology", Duration: 2, TimeSlot: "9:00 AM - 11:00 AM"}},
				TotalHours: 2,
			},
		},
		// The same commitment in flat form must not be double counted.
		Sessions: []models.Session{{Day: "Monday", Subject: "Biology", TimeSlot: "9:00 AM - 11:00 AM"}},
	}

	slots := ExtractSlots(plan, "plan-1", "Bio plan")
	require.Len(t, slots, 1)
	assert.Equal(t, "Monday", slots[0].Day)
	assert.Equal(t, "Biology", slots[0].Subject)
	assert.Equal(t, TimeInterval{Start: 540, End: 660}, slots[0].Interval)
	assert.Equal(t, "plan-1", slots[0].PlanID)
	assert.Equal(t, "Bio plan", slots[0].PlanName)
}

func TestExtractSlotsFallsBackToSessions(t *testing.T) {
	plan := &models.StudyPlan{
		WeeklySchedule: map[string]models.DaySchedule{},
		Sessions: []models.Session{
			{Day: "tue", Subject: "Math", TimeSlot: "2:00 PM - 4:00 PM"},
			{Day: "Wednesday", Subject: "Math", TimeSlot: "not a time"},
		},
	}

	slots := ExtractSlots(plan, "p", "n")
	require.Len(t, slots, 1, "malformed entry is skipped, not fatal")
	assert.Equal(t, "Tuesday", slots[0].Day)
}

func TestExtractSlotsSkipsMalformedWeeklyEntry(t *testing.T) {
	plan := &models.StudyPlan{
		WeeklySchedule: map[string]models.DaySchedule{
			"Friday": {Subjects: []models.SubjectSession{
				{Subject: "Physics", TimeSlot: "flexible"},
				{Subject: "Physics", TimeSlot: "4:00 PM - 6:00 PM"},
			}},
		},
	}

	slots := ExtractSlots(plan, "p", "n")
	require.Len(t, slots, 1)
	assert.Equal(t, "4:00 PM - 6:00 PM", slots[0].RawRange)
}

func TestExtractSlotsDefaultsSubject(t *testing.T) {
	plan := &models.StudyPlan{
		WeeklySchedule: map[string]models.DaySchedule{
			"Monday": {Subjects: []models.SubjectSession{{TimeSlot: "6:00 AM - 8:00 AM"}}},
		},
	}

	slots := ExtractSlots(plan, "p", "n")
	require.Len(t, slots, 1)
	assert.Equal(t, DefaultSubject, slots[0].Subject)
}

func TestExtractSlotsNilPlan(t *testing.T) {
	assert.Nil(t, ExtractSlots(nil, "p", "n"))
}
