package schedule

import (
	"sort"
	"time"

	"github.com/chorenest/chorenest/internal/model"
)

// Safety limit on day/month walks so corrupt schedule shapes (for example a
// weekday set that never matches) cannot loop forever.
const maxIterations = 10000

// poolFactor sizes the conditional generator's candidate pool relative to
// the requested count. The pool is deliberately fixed at poolFactor×count
// consecutive days: highly restrictive rule chains can therefore yield fewer
// than count occurrences even when more exist further out.
const poolFactor = 3

// startFor resolves a chore's effective start date, defaulting to today for
// chores created without one.
func startFor(c *model.Chore, today time.Time) time.Time {
	if c.StartDate != nil {
		return dateOnly(*c.StartDate)
	}
	return today
}

// pastEnd reports whether d falls strictly after the chore's end date. The
// end date itself is still in range.
func pastEnd(c *model.Chore, d time.Time) bool {
	return c.EndDate != nil && d.After(dateOnly(*c.EndDate))
}

func intervalFor(c *model.Chore) int {
	if c.IntervalValue < 1 {
		return 1
	}
	return c.IntervalValue
}

// expandSimple emits up to count dates by stepping a fixed interval from the
// start date. A chore with no recurrence pattern is one-time: it yields a
// single date regardless of count.
func expandSimple(c *model.Chore, count int, today time.Time) []time.Time {
	start := startFor(c, today)
	if c.RecurrencePattern == "" {
		return []time.Time{start}
	}

	interval := intervalFor(c)
	var dates []time.Time
	cur := start
	for len(dates) < count {
		if pastEnd(c, cur) {
			break
		}
		dates = append(dates, cur)

		switch c.RecurrencePattern {
		case model.PatternDaily:
			cur = cur.AddDate(0, 0, interval)
		case model.PatternWeekly:
			cur = cur.AddDate(0, 0, 7*interval)
		case model.PatternBiweekly:
			cur = cur.AddDate(0, 0, 14*interval)
		case model.PatternMonthly:
			cur = cur.AddDate(0, interval, 0)
		case model.PatternYearly:
			cur = cur.AddDate(interval, 0, 0)
		default:
			// Unrecognized pattern degrades to a daily step.
			cur = cur.AddDate(0, 0, interval)
		}
	}
	return dates
}

// expandRecurring handles weekly-by-weekday-set and monthly-by-day-set
// shapes. Any other shape falls back entirely to the simple generator.
func expandRecurring(c *model.Chore, count int, today time.Time) []time.Time {
	switch {
	case c.RecurrencePattern == model.PatternWeekly && len(validWeekdays(c.Weekdays)) > 0:
		return expandWeekdaySet(c, count, today)
	case c.RecurrencePattern == model.PatternMonthly && len(validMonthDays(c.MonthDays)) > 0:
		return expandMonthDaySet(c, count, today)
	default:
		return expandSimple(c, count, today)
	}
}

// expandWeekdaySet walks forward day by day from the start date, emitting
// every date whose weekday (0=Sunday) is in the configured set.
func expandWeekdaySet(c *model.Chore, count int, today time.Time) []time.Time {
	inSet := make(map[time.Weekday]bool, 7)
	for _, wd := range validWeekdays(c.Weekdays) {
		inSet[time.Weekday(wd)] = true
	}

	var dates []time.Time
	cur := startFor(c, today)
	for i := 0; len(dates) < count && i < maxIterations; i++ {
		if pastEnd(c, cur) {
			break
		}
		if inSet[cur.Weekday()] {
			dates = append(dates, cur)
		}
		cur = cur.AddDate(0, 0, 1)
	}
	return dates
}

// expandMonthDaySet walks month by month from the start date's month,
// emitting each configured day-of-month (ascending) that exists in the month
// and is not before the start date.
func expandMonthDaySet(c *model.Chore, count int, today time.Time) []time.Time {
	days := validMonthDays(c.MonthDays)
	sort.Ints(days)

	start := startFor(c, today)
	var dates []time.Time
	year, month := start.Year(), start.Month()
	for m := 0; len(dates) < count && m < maxIterations; m++ {
		for _, day := range days {
			if day > daysInMonth(year, month) {
				continue
			}
			d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
			if d.Before(start) {
				continue
			}
			if pastEnd(c, d) {
				return dates
			}
			dates = append(dates, d)
			if len(dates) == count {
				return dates
			}
		}
		year, month, _ = time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).Date()
	}
	return dates
}

// expandConditional builds an oversized candidate pool of consecutive days
// and narrows it through every rule in ascending priority order. CUSTOM
// schedules use identical logic; rules alone express the difference.
func expandConditional(c *model.Chore, rules []model.ScheduleRule, count int, today time.Time, schoolDays map[string]struct{}) []time.Time {
	pool := make([]time.Time, 0, poolFactor*count)
	cur := startFor(c, today)
	for len(pool) < poolFactor*count {
		if pastEnd(c, cur) {
			break
		}
		pool = append(pool, cur)
		cur = cur.AddDate(0, 0, 1)
	}

	ordered := make([]model.ScheduleRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority < ordered[j].Priority })

	for _, rule := range ordered {
		pool = applyRule(rule, pool, c, schoolDays)
	}

	if len(pool) > count {
		pool = pool[:count]
	}
	return pool
}

func validWeekdays(days []int) []int {
	var out []int
	for _, d := range days {
		if d >= 0 && d <= 6 {
			out = append(out, d)
		}
	}
	return out
}

func validMonthDays(days []int) []int {
	var out []int
	for _, d := range days {
		if d >= 1 && d <= 31 {
			out = append(out, d)
		}
	}
	return out
}
