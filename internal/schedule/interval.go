package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TimeInterval is a half-open [Start, End) range in minutes of day (0-1440).
// End is always strictly greater than Start; overnight ranges are rejected at
// parse time.
type TimeInterval struct {
	Start int
	End   int
}

// Overlaps reports whether two intervals share any minute. Touching endpoints
// do not count.
func (iv TimeInterval) Overlaps(other TimeInterval) bool {
	return iv.Start < other.End && iv.End > other.Start
}

// Minutes returns the interval length.
func (iv TimeInterval) Minutes() int {
	return iv.End - iv.Start
}

var timeRangePattern = regexp.MustCompile(
	`(?i)^\s*(\d{1,2})(?::(\d{2}))?\s*(AM|PM)?\s*[-\x{2013}\x{2014}]\s*(\d{1,2})(?::(\d{2}))?\s*(AM|PM)?\s*$`)

// ParseTimeRange converts text like "9:00 AM - 11:00 AM" into a TimeInterval.
// A missing period marker on one side inherits the other side's, so
// "2:00 - 4:00 PM" reads as both PM. Returns false when the text does not
// match or the computed end is not after the start; callers skip such entries
// silently because upstream AI-generated text is not fully trusted.
func ParseTimeRange(text string) (TimeInterval, bool) {
	m := timeRangePattern.FindStringSubmatch(text)
	if m == nil {
		return TimeInterval{}, false
	}

	startPeriod := strings.ToUpper(m[3])
	endPeriod := strings.ToUpper(m[6])
	if endPeriod == "" {
		endPeriod = startPeriod
	}
	if startPeriod == "" {
		startPeriod = endPeriod
	}

	start, ok := clockToMinutes(m[1], m[2], startPeriod)
	if !ok {
		return TimeInterval{}, false
	}
	end, ok := clockToMinutes(m[4], m[5], endPeriod)
	if !ok {
		return TimeInterval{}, false
	}
	if end <= start {
		return TimeInterval{}, false
	}
	return TimeInterval{Start: start, End: end}, true
}

func clockToMinutes(hourRaw, minuteRaw, period string) (int, bool) {
	hour, err := strconv.Atoi(hourRaw)
	if err != nil {
		return 0, false
	}
	minute := 0
	if minuteRaw != "" {
		minute, err = strconv.Atoi(minuteRaw)
		if err != nil {
			return 0, false
		}
	}
	if minute > 59 {
		return 0, false
	}

	switch period {
	case "AM":
		hour = hour % 12
	case "PM":
		hour = hour%12 + 12
	default:
		// No marker on either side: treat as a 24-hour clock reading.
	}
	if hour > 23 {
		return 0, false
	}
	return hour*60 + minute, true
}

// FormatMinute renders a minute-of-day as "H:MM AM" text.
func FormatMinute(minute int) string {
	hour := minute / 60
	mm := minute % 60
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, mm, period)
}

// FormatInterval renders an interval as "H:MM AM - H:MM AM" text, the inverse
// of ParseTimeRange.
func FormatInterval(iv TimeInterval) string {
	return FormatMinute(iv.Start) + " - " + FormatMinute(iv.End)
}

// Weekdays in canonical order, Monday first. Used everywhere a deterministic
// day iteration is needed.
var Weekdays = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

var dayAliases = map[string]string{
	"mon": "Monday", "monday": "Monday",
	"tue": "Tuesday", "tues": "Tuesday", "tuesday": "Tuesday",
	"wed": "Wednesday", "weds": "Wednesday", "wednesday": "Wednesday",
	"thu": "Thursday", "thur": "Thursday", "thurs": "Thursday", "thursday": "Thursday",
	"fri": "Friday", "friday": "Friday",
	"sat": "Saturday", "saturday": "Saturday",
	"sun": "Sunday", "sunday": "Sunday",
}

// NormalizeDay maps abbreviated or differently-cased day names onto the
// canonical English form. Unrecognized input passes through unchanged and will
// simply never match a canonical day.
func NormalizeDay(name string) string {
	if canonical, ok := dayAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return canonical
	}
	return name
}
