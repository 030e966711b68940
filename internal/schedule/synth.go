package schedule

import (
	"fmt"
	"math"

	"github.com/dimasfahmi/studyplan-api/internal/models"
)

// Session types cycled by position within a day.
var sessionTypes = [4]string{"lecture", "practice", "review", "assessment"}

// Weekend policies accepted by Request.IncludeWeekends.
const (
	WeekendsWeekdaysOnly = "weekdays"
	WeekendsAll          = "all"
	WeekendsFlexible     = "flexible"
)

// Request carries the parameters the synthesizer needs. It is deliberately
// decoupled from the transport DTO.
type Request struct {
	Subjects        []string
	DailyHours      float64
	TargetDate      string
	SpecificTopics  []string
	IncludeWeekends string
	PreferredTimes  string
}

// ActiveDays resolves the weekend policy into the day set the plan covers.
// "flexible" is treated the same as weekdays on this deterministic path.
func (r Request) ActiveDays() []string {
	if r.IncludeWeekends == WeekendsAll {
		return Weekdays[:]
	}
	return Weekdays[:5]
}

// rotation threads the global round-robin counters through the synthesis so
// that with enough sessions every subject and every topic eventually appears.
// The counters span all days; they are never reset per day.
type rotation struct {
	subjects []string
	topics   []string
	subject  int
	topic    int
}

func (r *rotation) nextSubject() string {
	if len(r.subjects) == 0 {
		return DefaultSubject
	}
	subject := r.subjects[r.subject%len(r.subjects)]
	r.subject++
	return subject
}

func (r *rotation) nextFocus(subject string) string {
	if len(r.topics) == 0 {
		return "Core concepts of " + subject
	}
	topic := r.topics[r.topic%len(r.topics)]
	r.topic++
	return topic
}

// Synthesize deterministically constructs a full weekly study plan. With a nil
// free-slot list it runs unconstrained; with a non-nil list it only places
// sessions inside those slots, which guarantees zero overlap with the
// commitments the slots were computed against.
func Synthesize(req Request, freeSlots []AvailableSlot) *models.StudyPlan {
	plan := &models.StudyPlan{
		WeeklySchedule: emptyWeek(),
		Source:         "fallback",
	}

	rot := &rotation{subjects: req.Subjects, topics: req.SpecificTopics}
	if freeSlots == nil {
		synthesizeUnconstrained(plan, req, rot)
	} else {
		synthesizeConstrained(plan, req, rot, freeSlots)
	}

	plan.Sessions = flattenWeek(plan.WeeklySchedule)
	plan.Flashcards = buildFlashcards(req.Subjects, req.SpecificTopics)
	plan.LearningTips = learningTips()
	plan.ExamStrategies = examStrategies()
	return plan
}

func emptyWeek() map[string]models.DaySchedule {
	week := make(map[string]models.DaySchedule, len(Weekdays))
	for _, day := range Weekdays {
		week[day] = models.DaySchedule{Subjects: []models.SubjectSession{}}
	}
	return week
}

func synthesizeUnconstrained(plan *models.StudyPlan, req Request, rot *rotation) {
	if req.DailyHours <= 0 {
		return
	}
	durations := apportionDay(req.DailyHours)
	anchor := fitAnchor(anchorMinute(req.PreferredTimes), durations)

	for _, day := range req.ActiveDays() {
		sessions := make([]models.SubjectSession, 0, len(durations))
		cursor := anchor
		for position, duration := range durations {
			subject := rot.nextSubject()
			length := int(math.Round(duration * 60))
			interval := TimeInterval{Start: cursor, End: cursor + length}
			sessions = append(sessions, models.SubjectSession{
				Subject:  subject,
				Duration: duration,
				TimeSlot: FormatInterval(interval),
				Focus:    rot.nextFocus(subject),
				Priority: priorityFor(position),
			})
			cursor = interval.End + 30
		}
		plan.WeeklySchedule[day] = models.DaySchedule{
			Subjects:   sessions,
			TotalHours: roundHours(req.DailyHours),
		}
	}
}

// apportionDay splits dailyHours into ceil(dailyHours/1.5) sessions whose
// durations sum to dailyHours exactly. Every session is rounded to the
// nearest quarter hour except the last, which absorbs the remainder.
func apportionDay(dailyHours float64) []float64 {
	count := int(math.Ceil(dailyHours / 1.5))
	if count < 1 {
		count = 1
	}
	durations := make([]float64, count)
	base := dailyHours / float64(count)
	var used float64
	for i := 0; i < count-1; i++ {
		durations[i] = quarterHours(base)
		used += durations[i]
	}
	durations[count-1] = roundHours(dailyHours - used)
	return durations
}

func synthesizeConstrained(plan *models.StudyPlan, req Request, rot *rotation, freeSlots []AvailableSlot) {
	activeDays := req.ActiveDays()
	weeklyTarget := req.DailyHours * float64(len(activeDays))
	if weeklyTarget <= 0 {
		return
	}

	active := make(map[string]bool, len(activeDays))
	for _, day := range activeDays {
		active[day] = true
	}

	dayHours := make(map[string]float64, len(activeDays))
	dayPositions := make(map[string]int, len(activeDays))
	remaining := weeklyTarget

	for _, slot := range freeSlots {
		if remaining <= 0 {
			break
		}
		day := NormalizeDay(slot.Day)
		if !active[day] {
			continue
		}
		dayRemaining := req.DailyHours - dayHours[day]
		if dayRemaining <= 0 {
			continue
		}
		duration := math.Min(2, math.Min(dayRemaining, remaining))
		duration = roundHours(duration)
		if duration <= 0 {
			continue
		}

		interval, ok := ParseTimeRange(slot.TimeRange)
		if !ok {
			continue
		}
		timeSlot := slot.TimeRange
		if length := int(math.Round(duration * 60)); length < interval.Minutes() {
			timeSlot = FormatInterval(TimeInterval{Start: interval.Start, End: interval.Start + length})
		}

		position := dayPositions[day]
		subject := rot.nextSubject()
		session := models.SubjectSession{
			Subject:  subject,
			Duration: duration,
			TimeSlot: timeSlot,
			Focus:    rot.nextFocus(subject),
			Priority: priorityFor(position),
		}

		daySchedule := plan.WeeklySchedule[day]
		daySchedule.Subjects = append(daySchedule.Subjects, session)
		daySchedule.TotalHours = roundHours(daySchedule.TotalHours + duration)
		plan.WeeklySchedule[day] = daySchedule

		dayHours[day] = roundHours(dayHours[day] + duration)
		dayPositions[day] = position + 1
		remaining = roundHours(remaining - duration)
	}
}

func flattenWeek(week map[string]models.DaySchedule) []models.Session {
	sessions := make([]models.Session, 0)
	for _, day := range Weekdays {
		for position, subject := range week[day].Subjects {
			sessions = append(sessions, models.Session{
				Day:      day,
				Subject:  subject.Subject,
				Duration: subject.Duration,
				TimeSlot: subject.TimeSlot,
				Focus:    subject.Focus,
				Type:     sessionTypes[position%len(sessionTypes)],
				Priority: subject.Priority,
			})
		}
	}
	return sessions
}

func priorityFor(position int) string {
	switch position {
	case 0:
		return models.PriorityHigh
	case 1:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

// fitAnchor shifts the anchor earlier when the day's sessions plus their
// breaks would run past midnight. The last session must end by 11:59 PM so
// its time text stays within one day and round-trips through the parser.
func fitAnchor(anchor int, durations []float64) int {
	span := 30 * (len(durations) - 1)
	for _, duration := range durations {
		span += int(math.Round(duration * 60))
	}
	if anchor+span > 1439 {
		anchor = 1439 - span
	}
	if anchor < 0 {
		anchor = 0
	}
	return anchor
}

func anchorMinute(preferred string) int {
	switch preferred {
	case "morning":
		return 8 * 60
	case "afternoon":
		return 13 * 60
	case "evening":
		return 17 * 60
	case "night":
		return 19 * 60
	default:
		return 9 * 60
	}
}

func quarterHours(hours float64) float64 {
	return math.Round(hours*4) / 4
}

func roundHours(hours float64) float64 {
	return math.Round(hours*100) / 100
}

// flashcardCount is fixed: every synthesized plan ships exactly ten cards.
const flashcardCount = 10

var questionTemplates = []string{
	"What are the core principles of %s?",
	"Explain the key concepts behind %s in your own words.",
	"How would you apply %s to a practical problem?",
	"What are the most common mistakes when working with %s?",
	"How does %s relate to the other topics in this plan?",
	"What would a typical exam question on %s look like?",
	"List three facts you should remember about %s.",
	"Why is %s important for your target exam?",
	"Describe the main steps involved in %s.",
	"What prerequisite knowledge does %s build on?",
}

// buildFlashcards distributes exactly ten cards evenly across the topics if
// present, otherwise the subjects. Each label consumes its own position in the
// template pool so no two cards in the same plan ask the literal same
// question.
func buildFlashcards(subjects, topics []string) []models.Flashcard {
	labels := topics
	if len(labels) == 0 {
		labels = subjects
	}
	if len(labels) == 0 {
		labels = []string{DefaultSubject}
	}

	cards := make([]models.Flashcard, 0, flashcardCount)
	templateUse := make(map[string]int, len(labels))
	for i := 0; i < flashcardCount; i++ {
		label := labels[i%len(labels)]
		template := questionTemplates[templateUse[label]%len(questionTemplates)]
		templateUse[label]++
		cards = append(cards, models.Flashcard{
			Question: fmt.Sprintf(template, label),
			Answer:   fmt.Sprintf("Review your notes on %s, then answer without looking and check yourself.", label),
			Topic:    label,
		})
	}
	return cards
}

func learningTips() []string {
	return []string{
		"Study in focused blocks and take a short break between sessions.",
		"Start each day with the highest-priority subject while energy is fresh.",
		"Test yourself with the flashcards before rereading your notes.",
		"Review the previous day's material for ten minutes before new topics.",
		"Keep a running list of questions to resolve in your next session.",
	}
}

func examStrategies() []string {
	return []string{
		"Skim the whole paper first and budget time per section.",
		"Answer the questions you are confident about before the hard ones.",
		"Show intermediate work; partial credit adds up.",
		"Leave the final minutes for rechecking flagged answers.",
	}
}
