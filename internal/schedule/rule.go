package schedule

import (
	"time"

	"github.com/chorenest/chorenest/internal/model"
)

// applyRule narrows candidates to the dates the rule keeps. Order is
// preserved and the result is always a subset of the input. Unknown rule
// types pass candidates through untouched so legacy rows cannot wipe a
// schedule.
func applyRule(rule model.ScheduleRule, candidates []time.Time, c *model.Chore, schoolDays map[string]struct{}) []time.Time {
	switch rule.RuleType {
	case model.RuleDayOfWeek:
		set := intSet(rule.RuleValue.Days)
		return keep(candidates, func(t time.Time) bool {
			_, ok := set[int(t.Weekday())]
			return ok
		})

	case model.RuleDayOfMonth:
		set := intSet(rule.RuleValue.Days)
		return keep(candidates, func(t time.Time) bool {
			_, ok := set[t.Day()]
			return ok
		})

	case model.RuleLastOfMonth:
		if rule.RuleValue.Type == model.LastWorkday {
			return keep(candidates, func(t time.Time) bool {
				return sameDay(t, lastWorkdayOfMonth(t.Year(), t.Month()))
			})
		}
		return keep(candidates, func(t time.Time) bool {
			return t.Day() == daysInMonth(t.Year(), t.Month())
		})

	case model.RuleWorkday:
		return keep(candidates, isWorkday)

	case model.RuleExcludeDays:
		set := intSet(rule.RuleValue.Days)
		return keep(candidates, func(t time.Time) bool {
			_, ok := set[int(t.Weekday())]
			return !ok
		})

	case model.RuleInterval:
		return applyIntervalRule(rule, candidates, c)

	case model.RuleSchoolDay:
		return keep(candidates, func(t time.Time) bool {
			_, ok := schoolDays[t.Format(dayLayout)]
			return ok
		})
	}
	return candidates
}

// applyIntervalRule keeps dates a whole multiple of the rule's interval (in
// days) away from the reference date. The reference defaults to the chore's
// start date, then to the first candidate.
func applyIntervalRule(rule model.ScheduleRule, candidates []time.Time, c *model.Chore) []time.Time {
	interval := rule.RuleValue.Interval
	if interval < 1 {
		return candidates
	}

	var ref time.Time
	if parsed, err := time.ParseInLocation(dayLayout, rule.RuleValue.ReferenceDate, time.UTC); err == nil {
		ref = parsed
	} else if c.StartDate != nil {
		ref = dateOnly(*c.StartDate)
	} else if len(candidates) > 0 {
		ref = candidates[0]
	} else {
		return candidates
	}

	return keep(candidates, func(t time.Time) bool {
		days := int(t.Sub(ref).Hours() / 24)
		return ((days%interval)+interval)%interval == 0
	})
}

func keep(candidates []time.Time, pred func(time.Time) bool) []time.Time {
	out := candidates[:0:0]
	for _, t := range candidates {
		if pred(t) {
			out = append(out, t)
		}
	}
	return out
}

func intSet(vals []int) map[int]struct{} {
	set := make(map[int]struct{}, len(vals))
	for _, v := range vals {
		set[v] = struct{}{}
	}
	return set
}
