package booking

import (
	"sort"
	"time"
)

// FallbackSchedule is the default weekly opening used when no availability
// rule matches a weekday. It is configuration supplied at startup, not
// policy baked into the generator.
type FallbackSchedule struct {
	// Hours holds one "HH:MM-HH:MM" window per weekday, indexed by
	// time.Weekday (0=Sunday). Empty string means closed.
	Hours       [7]string
	SlotMinutes int
	MaxBookings int
}

// rulesFor expands the fallback window of a weekday into a synthetic rule.
func (f FallbackSchedule) rulesFor(dayOfWeek int) []AvailabilityRule {
	window := f.Hours[dayOfWeek]
	if window == "" || len(window) != 11 {
		return nil
	}
	return []AvailabilityRule{{
		DayOfWeek:   dayOfWeek,
		StartTime:   window[:5],
		EndTime:     window[6:],
		SlotMinutes: f.SlotMinutes,
		MaxBookings: f.MaxBookings,
		IsActive:    true,
	}}
}

// GenerateSlots derives the bookable slots for a date from the weekly rules
// that matched it, honouring full and partial day blocks. Pure function:
// callers supply the rule and block snapshots.
//
// Each rule's [start, end) interval is walked in SlotMinutes steps; a
// trailing remainder shorter than a full slot is dropped. Slots produced by
// overlapping rules are merged on start time, keeping the larger capacity.
func GenerateSlots(date time.Time, rules []AvailabilityRule, blocked *BlockedDate, fallback FallbackSchedule) []Slot {
	if blocked != nil && blocked.IsFullDay {
		return nil
	}

	active := make([]AvailabilityRule, 0, len(rules))
	for _, r := range rules {
		if r.IsActive {
			active = append(active, r)
		}
	}
	if len(active) == 0 {
		active = fallback.rulesFor(int(date.Weekday()))
	}

	byStart := make(map[string]Slot)
	for _, rule := range active {
		start, err := minuteOfDay(rule.StartTime)
		if err != nil {
			continue
		}
		end, err := minuteOfDay(rule.EndTime)
		if err != nil || end <= start {
			continue
		}
		step := rule.SlotMinutes
		if step <= 0 {
			step = 60
		}

		for cur := start; cur+step <= end; cur += step {
			slot := Slot{
				StartTime:   formatMinute(cur),
				EndTime:     formatMinute(cur + step),
				MaxBookings: max(rule.MaxBookings, 1),
			}
			if slotBlocked(blocked, slot) {
				continue
			}
			if existing, ok := byStart[slot.StartTime]; !ok || slot.MaxBookings > existing.MaxBookings {
				byStart[slot.StartTime] = slot
			}
		}
	}

	slots := make([]Slot, 0, len(byStart))
	for _, s := range byStart {
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].StartTime < slots[j].StartTime })
	return slots
}

// slotBlocked reports whether a partial-day block fully covers the slot.
func slotBlocked(blocked *BlockedDate, slot Slot) bool {
	if blocked == nil || blocked.IsFullDay || blocked.StartTime == nil || blocked.EndTime == nil {
		return false
	}
	return *blocked.StartTime <= slot.StartTime && *blocked.EndTime >= slot.EndTime
}
