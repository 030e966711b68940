package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalSlotsCatalogue(t *testing.T) {
	slots := CanonicalSlots()
	require.Len(t, slots, 56)
	assert.Equal(t, AvailableSlot{Day: "Monday", TimeRange: "6:00 AM - 8:00 AM"}, slots[0])
	assert.Equal(t, AvailableSlot{Day: "Monday", TimeRange: "8:00 PM - 10:00 PM"}, slots[7])
	assert.Equal(t, AvailableSlot{Day: "Sunday", TimeRange: "8:00 PM - 10:00 PM"}, slots[55])
}

func TestAvailableSlotsExcludesExactMatch(t *testing.T) {
	existing := []TimeSlot{{
		Day:      "Monday",
		Interval: mustParse(t, "6:00 AM - 8:00 AM"),
		RawRange: "6:00 AM - 8:00 AM",
		Subject:  "Biology",
	}}

	available := AvailableSlots(existing)
	require.Len(t, available, 55)
	for _, slot := range available {
		assert.False(t, slot.Day == "Monday" && slot.TimeRange == "6:00 AM - 8:00 AM")
	}
}

func TestAvailableSlotsExcludesOverlappingIntervals(t *testing.T) {
	// A commitment whose text matches no catalogue entry still blocks the
	// catalogue slots its interval overlaps.
	existing := []TimeSlot{{
		Day:      "Monday",
		Interval: mustParse(t, "7:00 AM - 9:00 AM"),
		RawRange: "7:00 AM - 9:00 AM",
		Subject:  "Biology",
	}}

	available := AvailableSlots(existing)
	require.Len(t, available, 54)
	for _, slot := range available {
		if slot.Day != "Monday" {
			continue
		}
		assert.NotEqual(t, "6:00 AM - 8:00 AM", slot.TimeRange)
		assert.NotEqual(t, "8:00 AM - 10:00 AM", slot.TimeRange)
	}
}

func TestAvailableSlotsEmptyUniverse(t *testing.T) {
	assert.Len(t, AvailableSlots(nil), 56)
}

func TestAvailableSlotsDayThenTimeOrder(t *testing.T) {
	available := AvailableSlots(nil)
	dayIndex := map[string]int{}
	for i, day := range Weekdays {
		dayIndex[day] = i
	}
	for i := 1; i < len(available); i++ {
		prev, cur := available[i-1], available[i]
		if prev.Day == cur.Day {
			p := mustParse(t, prev.TimeRange)
			c := mustParse(t, cur.TimeRange)
			assert.Less(t, p.Start, c.Start)
		} else {
			assert.Less(t, dayIndex[prev.Day], dayIndex[cur.Day])
		}
	}
}

func mustParse(t *testing.T, text string) TimeInterval {
	t.Helper()
	iv, ok := ParseTimeRange(text)
	require.True(t, ok, text)
	return iv
}
