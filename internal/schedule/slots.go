package schedule

import "strings"

// AvailableSlot is a free (day, canonical time range) opportunity.
type AvailableSlot struct {
	Day       string `json:"day"`
	TimeRange string `json:"timeRange"`
}

// The fixed catalogue: eight two-hour ranges from 6 AM to 10 PM, on each of
// the seven days.
var canonicalRanges = [8]string{
	"6:00 AM - 8:00 AM",
	"8:00 AM - 10:00 AM",
	"10:00 AM - 12:00 PM",
	"12:00 PM - 2:00 PM",
	"2:00 PM - 4:00 PM",
	"4:00 PM - 6:00 PM",
	"6:00 PM - 8:00 PM",
	"8:00 PM - 10:00 PM",
}

var canonicalIntervals = buildCanonicalIntervals()

func buildCanonicalIntervals() [8]TimeInterval {
	var intervals [8]TimeInterval
	for i, text := range canonicalRanges {
		iv, ok := ParseTimeRange(text)
		if !ok {
			panic("canonical slot range must parse: " + text)
		}
		intervals[i] = iv
	}
	return intervals
}

// CanonicalSlots returns the full 56-entry catalogue in day-then-time order.
func CanonicalSlots() []AvailableSlot {
	slots := make([]AvailableSlot, 0, len(Weekdays)*len(canonicalRanges))
	for _, day := range Weekdays {
		for _, timeRange := range canonicalRanges {
			slots = append(slots, AvailableSlot{Day: day, TimeRange: timeRange})
		}
	}
	return slots
}

// AvailableSlots returns the catalogue minus anything the existing
// commitments occupy, in day-then-time order. A catalogue slot is occupied
// when a commitment's raw text matches it exactly, or when a commitment's
// parsed interval overlaps the slot's interval on the same day.
func AvailableSlots(existing []TimeSlot) []AvailableSlot {
	occupiedExact := make(map[string]struct{}, len(existing))
	byDay := make(map[string][]TimeInterval)
	for _, slot := range existing {
		day := NormalizeDay(slot.Day)
		occupiedExact[day+"|"+strings.TrimSpace(slot.RawRange)] = struct{}{}
		byDay[day] = append(byDay[day], slot.Interval)
	}

	available := make([]AvailableSlot, 0, len(Weekdays)*len(canonicalRanges))
	for _, day := range Weekdays {
		for i, timeRange := range canonicalRanges {
			if _, taken := occupiedExact[day+"|"+timeRange]; taken {
				continue
			}
			if overlapsAny(canonicalIntervals[i], byDay[day]) {
				continue
			}
			available = append(available, AvailableSlot{Day: day, TimeRange: timeRange})
		}
	}
	return available
}

func overlapsAny(iv TimeInterval, others []TimeInterval) bool {
	for _, other := range others {
		if iv.Overlaps(other) {
			return true
		}
	}
	return false
}
