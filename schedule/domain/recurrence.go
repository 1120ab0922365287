package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoRecurrence is returned when a next occurrence is requested for a
// one-shot schedule.
var ErrNoRecurrence = errors.New("one-shot schedules have no next occurrence")

// maxCatchUpMonths bounds the monthly catch-up loop. A century of missed
// occurrences means the anchor data is broken, not that we should spin.
const maxCatchUpMonths = 1200

// NextOccurrence computes the next run time for a recurring schedule:
// the executions-th occurrence after the anchor, advanced past now when
// the schedule has fallen behind. The anchor stays the fixed reference
// for all occurrences, so the series never drifts.
//
// Pure function; safe to call concurrently.
func NextOccurrence(anchor time.Time, frequency Frequency, executions int, now time.Time) (time.Time, error) {
	switch frequency {
	case FrequencyDaily:
		candidate := anchor.AddDate(0, 0, executions)
		if !candidate.After(now) {
			daysPassed := int(now.Sub(anchor)/(24*time.Hour)) + 1
			candidate = anchor.AddDate(0, 0, daysPassed)
		}
		return candidate, nil

	case FrequencyWeekly:
		candidate := anchor.AddDate(0, 0, 7*executions)
		if !candidate.After(now) {
			weeksPassed := int(now.Sub(anchor)/(7*24*time.Hour)) + 1
			candidate = anchor.AddDate(0, 0, 7*weeksPassed)
		}
		return candidate, nil

	case FrequencyMonthly:
		months := executions
		candidate := monthlyOccurrence(anchor, months)
		for !candidate.After(now) {
			months++
			if months-executions > maxCatchUpMonths {
				return time.Time{}, fmt.Errorf("no monthly occurrence after %s within %d months of anchor %s",
					now.Format(time.RFC3339), maxCatchUpMonths, anchor.Format(time.RFC3339))
			}
			candidate = monthlyOccurrence(anchor, months)
		}
		return candidate, nil

	case FrequencyOnce:
		return time.Time{}, ErrNoRecurrence

	default:
		return time.Time{}, fmt.Errorf("unsupported frequency: %s", frequency)
	}
}

// monthlyOccurrence applies the anchor's day-of-month to the month n
// months after the anchor, carrying year rollover. When the anchor day
// does not exist in the target month it clamps to that month's last
// valid day. The clamp is recomputed per month, so an anchor on the
// 31st lands on the 30th in April and back on the 31st in May.
func monthlyOccurrence(anchor time.Time, n int) time.Time {
	total := int(anchor.Month()) - 1 + n
	year := anchor.Year() + total/12
	month := time.Month(total%12 + 1)

	day := anchor.Day()
	if last := daysInMonth(year, month); day > last {
		day = last
	}

	return time.Date(year, month, day,
		anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(), anchor.Location())
}

// daysInMonth spells out the Gregorian rule instead of leaning on
// time.Date normalization, which would silently roll an invalid day
// into the next month.
func daysInMonth(year int, month time.Month) int {
	switch month {
	case time.February:
		if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}
