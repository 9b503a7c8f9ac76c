package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFallback = FallbackSchedule{
	Hours: [7]string{
		time.Sunday:    "",
		time.Monday:    "08:00-18:00",
		time.Tuesday:   "08:00-18:00",
		time.Wednesday: "08:00-18:00",
		time.Thursday:  "08:00-18:00",
		time.Friday:    "08:00-18:00",
		time.Saturday:  "09:00-14:00",
	},
	SlotMinutes: 60,
	MaxBookings: 1,
}

// 2026-09-07 is a Monday.
var monday = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

func TestGenerateSlotsFallbackWeekday(t *testing.T) {
	slots := GenerateSlots(monday, nil, nil, testFallback)

	require.Len(t, slots, 10) // 08:00 .. 17:00
	assert.Equal(t, "08:00", slots[0].StartTime)
	assert.Equal(t, "09:00", slots[0].EndTime)
	assert.Equal(t, "17:00", slots[9].StartTime)
	assert.Equal(t, "18:00", slots[9].EndTime)
	for _, s := range slots {
		assert.Equal(t, 1, s.MaxBookings)
	}
}

func TestGenerateSlotsFallbackClosedDay(t *testing.T) {
	sunday := monday.AddDate(0, 0, -1)
	assert.Empty(t, GenerateSlots(sunday, nil, nil, testFallback))
}

func TestGenerateSlotsRulesOverrideFallback(t *testing.T) {
	rules := []AvailabilityRule{{
		DayOfWeek:   1,
		StartTime:   "10:00",
		EndTime:     "12:00",
		SlotMinutes: 30,
		MaxBookings: 2,
		IsActive:    true,
	}}

	slots := GenerateSlots(monday, rules, nil, testFallback)

	require.Len(t, slots, 4)
	assert.Equal(t, "10:00", slots[0].StartTime)
	assert.Equal(t, "10:30", slots[0].EndTime)
	assert.Equal(t, 2, slots[0].MaxBookings)
}

func TestGenerateSlotsInactiveRulesFallBack(t *testing.T) {
	rules := []AvailabilityRule{{
		DayOfWeek: 1, StartTime: "10:00", EndTime: "12:00", SlotMinutes: 30, IsActive: false,
	}}

	slots := GenerateSlots(monday, rules, nil, testFallback)
	require.Len(t, slots, 10)
	assert.Equal(t, "08:00", slots[0].StartTime)
}

func TestGenerateSlotsDropsTrailingRemainder(t *testing.T) {
	rules := []AvailabilityRule{{
		DayOfWeek: 1, StartTime: "09:00", EndTime: "10:30", SlotMinutes: 60, MaxBookings: 1, IsActive: true,
	}}

	slots := GenerateSlots(monday, rules, nil, testFallback)

	// 09:30-10:30 would fit but 10:00 start would overflow, so only 09:00.
	require.Len(t, slots, 1)
	assert.Equal(t, "09:00", slots[0].StartTime)
	assert.Equal(t, "10:00", slots[0].EndTime)
}

func TestGenerateSlotsFullDayBlock(t *testing.T) {
	blocked := &BlockedDate{Date: monday, IsFullDay: true}
	assert.Empty(t, GenerateSlots(monday, nil, blocked, testFallback))
}

func TestGenerateSlotsPartialBlock(t *testing.T) {
	blocked := &BlockedDate{
		Date:      monday,
		IsFullDay: false,
		StartTime: strPtr("10:00"),
		EndTime:   strPtr("12:00"),
	}

	slots := GenerateSlots(monday, nil, blocked, testFallback)

	require.Len(t, slots, 8)
	for _, s := range slots {
		assert.NotEqual(t, "10:00", s.StartTime)
		assert.NotEqual(t, "11:00", s.StartTime)
	}
}

func TestGenerateSlotsOverlappingRulesMerge(t *testing.T) {
	rules := []AvailabilityRule{
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00", SlotMinutes: 60, MaxBookings: 1, IsActive: true},
		{DayOfWeek: 1, StartTime: "10:00", EndTime: "13:00", SlotMinutes: 60, MaxBookings: 3, IsActive: true},
	}

	slots := GenerateSlots(monday, rules, nil, testFallback)

	require.Len(t, slots, 4) // 09,10,11,12
	byStart := make(map[string]Slot)
	for _, s := range slots {
		byStart[s.StartTime] = s
	}
	assert.Equal(t, 1, byStart["09:00"].MaxBookings)
	// Overlap keeps the larger capacity.
	assert.Equal(t, 3, byStart["10:00"].MaxBookings)
	assert.Equal(t, 3, byStart["11:00"].MaxBookings)
	assert.Equal(t, 3, byStart["12:00"].MaxBookings)
}

func TestGenerateSlotsSorted(t *testing.T) {
	rules := []AvailabilityRule{
		{DayOfWeek: 1, StartTime: "14:00", EndTime: "16:00", SlotMinutes: 60, MaxBookings: 1, IsActive: true},
		{DayOfWeek: 1, StartTime: "08:00", EndTime: "10:00", SlotMinutes: 60, MaxBookings: 1, IsActive: true},
	}

	slots := GenerateSlots(monday, rules, nil, testFallback)

	require.Len(t, slots, 4)
	for i := 1; i < len(slots); i++ {
		assert.Less(t, slots[i-1].StartTime, slots[i].StartTime)
	}
}

func TestAddMinutes(t *testing.T) {
	end, err := AddMinutes("09:30", 45)
	require.NoError(t, err)
	assert.Equal(t, "10:15", end)

	_, err = AddMinutes("not-a-time", 30)
	assert.Error(t, err)
}
