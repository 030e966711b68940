package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimasfahmi/studyplan-api/internal/models"
)

func TestSynthesizeEveryAnchorYieldsParsableSlots(t *testing.T) {
	for _, preferred := range []string{"", "morning", "afternoon", "evening", "night"} {
		plan := Synthesize(Request{
			Subjects:        []string{"Math", "Physics"},
			DailyHours:      4,
			IncludeWeekends: WeekendsWeekdaysOnly,
			PreferredTimes:  preferred,
		}, nil)

		for _, day := range Weekdays[:5] {
			sessions := plan.WeeklySchedule[day].Subjects
			intervals := make([]TimeInterval, 0, len(sessions))
			for _, session := range sessions {
				interval, ok := ParseTimeRange(session.TimeSlot)
				require.True(t, ok, "anchor %q produced unparsable time text %q", preferred, session.TimeSlot)
				assert.Less(t, interval.End, 1440, "anchor %q ran %q past midnight", preferred, session.TimeSlot)
				for _, prior := range intervals {
					assert.False(t, interval.Overlaps(prior),
						"anchor %q produced self-overlapping sessions on %s", preferred, day)
				}
				intervals = append(intervals, interval)
			}
			extracted := ExtractSlots(plan, "", "")
			count := 0
			for _, slot := range extracted {
				if slot.Day == day {
					count++
				}
			}
			assert.Equal(t, len(sessions), count,
				"anchor %q lost sessions on %s during extraction", preferred, day)
		}
	}
}

func TestSynthesizeLateAnchorShiftsEarlier(t *testing.T) {
	// Four hours from a 7 PM anchor cannot fit before midnight; the whole
	// day shifts earlier rather than truncating or wrapping.
	plan := Synthesize(Request{
		Subjects:       []string{"Math"},
		DailyHours:     4,
		PreferredTimes: "night",
	}, nil)

	sessions := plan.WeeklySchedule["Monday"].Subjects
	require.Len(t, sessions, 3)

	first, ok := ParseTimeRange(sessions[0].TimeSlot)
	require.True(t, ok)
	assert.Less(t, first.Start, 19*60, "anchor should move earlier than 7 PM")

	last, ok := ParseTimeRange(sessions[len(sessions)-1].TimeSlot)
	require.True(t, ok)
	assert.LessOrEqual(t, last.End, 1439)

	var sum float64
	for _, session := range sessions {
		sum += session.Duration
	}
	assert.InDelta(t, 4.0, sum, 0.01)
}

func TestSynthesizeWeekdaysExactDailySum(t *testing.T) {
	plan := Synthesize(Request{
		Subjects:        []string{"Math"},
		DailyHours:      4,
		IncludeWeekends: WeekendsWeekdaysOnly,
	}, nil)

	for _, day := range Weekdays[:5] {
		schedule := plan.WeeklySchedule[day]
		require.NotEmpty(t, schedule.Subjects, day)
		var sum float64
		for _, session := range schedule.Subjects {
			assert.Greater(t, session.Duration, 0.0)
			sum += session.Duration
		}
		assert.InDelta(t, 4.0, sum, 0.01, day)
		assert.InDelta(t, 4.0, schedule.TotalHours, 0.01, day)
	}
	for _, day := range Weekdays[5:] {
		schedule := plan.WeeklySchedule[day]
		assert.Empty(t, schedule.Subjects, day)
		assert.Zero(t, schedule.TotalHours, day)
	}
}

func TestSynthesizeSessionCountAndTimeSlots(t *testing.T) {
	plan := Synthesize(Request{
		Subjects:        []string{"Math"},
		DailyHours:      4,
		IncludeWeekends: WeekendsWeekdaysOnly,
	}, nil)

	monday := plan.WeeklySchedule["Monday"]
	// ceil(4 / 1.5) = 3 sessions.
	require.Len(t, monday.Subjects, 3)
	for _, session := range monday.Subjects {
		iv, ok := ParseTimeRange(session.TimeSlot)
		require.True(t, ok, "synthesized time text must parse: %q", session.TimeSlot)
		assert.Greater(t, iv.End, iv.Start)
	}
}

func TestSynthesizeGlobalSubjectRotation(t *testing.T) {
	plan := Synthesize(Request{
		Subjects:        []string{"Math", "Physics", "Chemistry"},
		DailyHours:      2,
		IncludeWeekends: WeekendsWeekdaysOnly,
	}, nil)

	// 2 sessions per day over 5 days; the counter spans days, so all three
	// subjects appear even though each day holds only two sessions.
	seen := map[string]bool{}
	for _, session := range plan.Sessions {
		seen[session.Subject] = true
	}
	assert.True(t, seen["Math"] && seen["Physics"] && seen["Chemistry"], "global rotation covers every subject: %v", seen)
}

func TestSynthesizeTopicRotation(t *testing.T) {
	plan := Synthesize(Request{
		Subjects:        []string{"Biology"},
		DailyHours:      3,
		SpecificTopics:  []string{"Genetics", "Ecology", "Cell biology"},
		IncludeWeekends: WeekendsAll,
	}, nil)

	seen := map[string]bool{}
	for _, session := range plan.Sessions {
		seen[session.Focus] = true
	}
	for _, topic := range []string{"Genetics", "Ecology", "Cell biology"} {
		assert.True(t, seen[topic], topic)
	}
}

func TestSynthesizePrioritiesAndTypes(t *testing.T) {
	plan := Synthesize(Request{
		Subjects:        []string{"Math"},
		DailyHours:      6,
		IncludeWeekends: WeekendsWeekdaysOnly,
	}, nil)

	monday := plan.WeeklySchedule["Monday"]
	require.GreaterOrEqual(t, len(monday.Subjects), 3)
	assert.Equal(t, models.PriorityHigh, monday.Subjects[0].Priority)
	assert.Equal(t, models.PriorityMedium, monday.Subjects[1].Priority)
	assert.Equal(t, models.PriorityLow, monday.Subjects[2].Priority)

	var mondayTypes []string
	for _, session := range plan.Sessions {
		if session.Day == "Monday" {
			mondayTypes = append(mondayTypes, session.Type)
		}
	}
	require.GreaterOrEqual(t, len(mondayTypes), 4)
	assert.Equal(t, []string{"lecture", "practice", "review", "assessment"}, mondayTypes[:4])
}

func TestSynthesizeFlexibleSameAsWeekdays(t *testing.T) {
	flexible := Synthesize(Request{Subjects: []string{"Math"}, DailyHours: 2, IncludeWeekends: WeekendsFlexible}, nil)
	assert.Empty(t, flexible.WeeklySchedule["Saturday"].Subjects)
	assert.Empty(t, flexible.WeeklySchedule["Sunday"].Subjects)
}

func TestSynthesizeFlatSessionsMirrorWeekly(t *testing.T) {
	plan := Synthesize(Request{Subjects: []string{"Math", "Physics"}, DailyHours: 3, IncludeWeekends: WeekendsAll}, nil)

	var weeklyCount int
	for _, day := range plan.WeeklySchedule {
		weeklyCount += len(day.Subjects)
	}
	assert.Equal(t, weeklyCount, len(plan.Sessions))
}

func TestSynthesizeFlashcards(t *testing.T) {
	plan := Synthesize(Request{
		Subjects:       []string{"Math", "Physics"},
		DailyHours:     2,
		SpecificTopics: []string{"Algebra"},
	}, nil)

	require.Len(t, plan.Flashcards, 10)
	questions := map[string]bool{}
	for _, card := range plan.Flashcards {
		assert.False(t, questions[card.Question], "duplicate question: %q", card.Question)
		questions[card.Question] = true
		assert.Equal(t, "Algebra", card.Topic, "topics win over subjects when present")
	}

	assert.NotEmpty(t, plan.LearningTips)
	assert.NotEmpty(t, plan.ExamStrategies)
}

func TestSynthesizeConstrainedStaysInsideFreeSlots(t *testing.T) {
	free := []AvailableSlot{
		{Day: "Monday", TimeRange: "6:00 AM - 8:00 AM"},
		{Day: "Monday", TimeRange: "2:00 PM - 4:00 PM"},
		{Day: "Tuesday", TimeRange: "6:00 AM - 8:00 AM"},
	}
	plan := Synthesize(Request{
		Subjects:        []string{"Math"},
		DailyHours:      2,
		IncludeWeekends: WeekendsWeekdaysOnly,
	}, free)

	for _, session := range plan.Sessions {
		iv, ok := ParseTimeRange(session.TimeSlot)
		require.True(t, ok)
		matched := false
		for _, slot := range free {
			if slot.Day != session.Day {
				continue
			}
			sv := mustParse(t, slot.TimeRange)
			if iv.Start >= sv.Start && iv.End <= sv.End {
				matched = true
				break
			}
		}
		assert.True(t, matched, "session %v escapes the free slots", session)
	}
}

func TestSynthesizeConstrainedStopsAtWeeklyTarget(t *testing.T) {
	plan := Synthesize(Request{
		Subjects:        []string{"Math"},
		DailyHours:      1,
		IncludeWeekends: WeekendsWeekdaysOnly,
	}, CanonicalSlots())

	var total float64
	for _, session := range plan.Sessions {
		total += session.Duration
	}
	assert.InDelta(t, 5.0, total, 0.01, "weekly target is dailyHours x active days")

	for _, day := range Weekdays[:5] {
		var daySum float64
		for _, session := range plan.WeeklySchedule[day].Subjects {
			daySum += session.Duration
		}
		assert.LessOrEqual(t, daySum, 1.0+0.01, day)
		assert.InDelta(t, daySum, plan.WeeklySchedule[day].TotalHours, 0.01, day)
	}
}

func TestConstrainedRegenerationIsConflictFree(t *testing.T) {
	detector := NewDetector(0)
	stored := []models.StoredPlan{
		storedWith("plan-1", "Bio plan", "Monday", "Biology", "9:00 AM - 11:00 AM", time.Hour),
		storedWith("plan-2", "Hist plan", "Wednesday", "History", "2:00 PM - 4:00 PM", time.Hour),
	}

	free := AvailableSlots(detector.ExistingSlots(stored, ""))
	regenerated := Synthesize(Request{
		Subjects:        []string{"Chemistry", "Math"},
		DailyHours:      3,
		IncludeWeekends: WeekendsAll,
	}, free)

	assert.Empty(t, detector.Detect(regenerated, stored, ""), "constrained synthesis must not collide with the commitments its slots were computed against")
}

func TestApportionDayExactSums(t *testing.T) {
	for _, hours := range []float64{0.5, 1, 1.5, 2, 2.5, 3, 4, 5.5, 6, 8} {
		durations := apportionDay(hours)
		var sum float64
		for _, d := range durations {
			sum += d
		}
		assert.InDelta(t, hours, sum, 0.01, "hours=%v durations=%v", hours, durations)
	}
}
