package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chorenest/chorenest/internal/model"
)

// days builds consecutive dates starting at start.
func days(start time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

func rule(t model.RuleType, v model.RuleValue) model.ScheduleRule {
	return model.ScheduleRule{RuleType: t, RuleValue: v}
}

func TestRuleDayOfWeek(t *testing.T) {
	pool := days(day(2024, time.January, 1), 14) // Mon Jan 1 onward

	got := applyRule(rule(model.RuleDayOfWeek, model.RuleValue{Days: []int{0, 6}}), pool, &model.Chore{}, nil)

	require.Equal(t, []time.Time{
		day(2024, time.January, 6), // Sat
		day(2024, time.January, 7), // Sun
		day(2024, time.January, 13),
		day(2024, time.January, 14),
	}, got)
}

func TestRuleDayOfMonth(t *testing.T) {
	pool := days(day(2024, time.January, 1), 40)

	got := applyRule(rule(model.RuleDayOfMonth, model.RuleValue{Days: []int{1, 15}}), pool, &model.Chore{}, nil)

	require.Equal(t, []time.Time{
		day(2024, time.January, 1),
		day(2024, time.January, 15),
		day(2024, time.February, 1),
	}, got)
}

func TestRuleLastOfMonthLastDay(t *testing.T) {
	pool := days(day(2024, time.January, 25), 40)

	got := applyRule(rule(model.RuleLastOfMonth, model.RuleValue{Type: model.LastDay}), pool, &model.Chore{}, nil)

	require.Equal(t, []time.Time{
		day(2024, time.January, 31),
		day(2024, time.February, 29), // leap year
	}, got)
}

func TestRuleLastOfMonthLastWorkday(t *testing.T) {
	// March 2024 ends on a Sunday; the last workday is Friday the 29th.
	pool := days(day(2024, time.March, 25), 10)

	got := applyRule(rule(model.RuleLastOfMonth, model.RuleValue{Type: model.LastWorkday}), pool, &model.Chore{}, nil)

	require.Equal(t, []time.Time{day(2024, time.March, 29)}, got)
}

func TestRuleWorkday(t *testing.T) {
	pool := days(day(2024, time.January, 1), 7)

	got := applyRule(rule(model.RuleWorkday, model.RuleValue{}), pool, &model.Chore{}, nil)

	require.Len(t, got, 5)
	for _, d := range got {
		assert.True(t, d.Weekday() >= time.Monday && d.Weekday() <= time.Friday, "%v", d)
	}
}

func TestRuleExcludeDays(t *testing.T) {
	pool := days(day(2024, time.January, 1), 7)

	got := applyRule(rule(model.RuleExcludeDays, model.RuleValue{Days: []int{0, 6}}), pool, &model.Chore{}, nil)

	require.Len(t, got, 5)
	for _, d := range got {
		assert.NotEqual(t, time.Saturday, d.Weekday())
		assert.NotEqual(t, time.Sunday, d.Weekday())
	}
}

func TestRuleIntervalExplicitReference(t *testing.T) {
	pool := days(day(2024, time.January, 1), 10)

	got := applyRule(rule(model.RuleInterval, model.RuleValue{ReferenceDate: "2024-01-01", Interval: 3}), pool, &model.Chore{}, nil)

	require.Equal(t, []time.Time{
		day(2024, time.January, 1),
		day(2024, time.January, 4),
		day(2024, time.January, 7),
		day(2024, time.January, 10),
	}, got)
}

func TestRuleIntervalDefaultsToChoreStart(t *testing.T) {
	pool := days(day(2024, time.January, 3), 6)
	c := &model.Chore{StartDate: ptr(day(2024, time.January, 1))}

	got := applyRule(rule(model.RuleInterval, model.RuleValue{Interval: 2}), pool, c, nil)

	// Offsets from Jan 1: Jan 3 (2), Jan 5 (4), Jan 7 (6)...
	require.Equal(t, []time.Time{
		day(2024, time.January, 3),
		day(2024, time.January, 5),
		day(2024, time.January, 7),
	}, got)
}

func TestRuleIntervalZeroIsNoop(t *testing.T) {
	pool := days(day(2024, time.January, 1), 4)

	got := applyRule(rule(model.RuleInterval, model.RuleValue{Interval: 0}), pool, &model.Chore{}, nil)

	require.Equal(t, pool, got)
}

func TestRuleSchoolDay(t *testing.T) {
	pool := days(day(2024, time.January, 1), 5)
	school := map[string]struct{}{
		"2024-01-02": {},
		"2024-01-04": {},
	}

	got := applyRule(rule(model.RuleSchoolDay, model.RuleValue{}), pool, &model.Chore{}, school)

	require.Equal(t, []time.Time{
		day(2024, time.January, 2),
		day(2024, time.January, 4),
	}, got)
}

func TestRuleSchoolDayEmptyProviderFiltersAll(t *testing.T) {
	pool := days(day(2024, time.January, 1), 5)

	got := applyRule(rule(model.RuleSchoolDay, model.RuleValue{}), pool, &model.Chore{}, nil)

	assert.Empty(t, got)
}

func TestRuleUnknownTypeIsNoop(t *testing.T) {
	pool := days(day(2024, time.January, 1), 4)

	got := applyRule(rule("MOON_PHASE", model.RuleValue{}), pool, &model.Chore{}, nil)

	require.Equal(t, pool, got)
}

func TestRuleChainingIsOrderSensitive(t *testing.T) {
	// With no chore start date, INTERVAL anchors on the first candidate it
	// sees, so narrowing to Mondays first changes the anchor.
	pool := days(day(2024, time.January, 1), 30) // Mon Jan 1
	c := &model.Chore{}

	dow := rule(model.RuleDayOfWeek, model.RuleValue{Days: []int{1}})
	interval := rule(model.RuleInterval, model.RuleValue{Interval: 2})

	mondaysFirst := applyRule(interval, applyRule(dow, pool, c, nil), c, nil)
	intervalFirst := applyRule(dow, applyRule(interval, pool, c, nil), c, nil)

	// Mondays first: anchor Jan 1 (Mon); Mondays are 7 days apart so only
	// every other Monday keeps an even offset.
	require.Equal(t, []time.Time{
		day(2024, time.January, 1),
		day(2024, time.January, 15),
		day(2024, time.January, 29),
	}, mondaysFirst)

	// Interval first keeps every even day from Jan 1, then Mondays.
	require.Equal(t, []time.Time{
		day(2024, time.January, 1),
		day(2024, time.January, 15),
		day(2024, time.January, 29),
	}, intervalFirst)

	// The orderings genuinely diverge once the anchor differs: start the
	// pool on a Sunday so the first Monday is offset 1.
	pool2 := days(day(2024, time.January, 7), 30) // Sun Jan 7
	mondaysFirst2 := applyRule(interval, applyRule(dow, pool2, c, nil), c, nil)
	intervalFirst2 := applyRule(dow, applyRule(interval, pool2, c, nil), c, nil)

	require.Equal(t, []time.Time{
		day(2024, time.January, 8),
		day(2024, time.January, 22),
		day(2024, time.February, 5),
	}, mondaysFirst2, "anchor is the first Monday")

	require.Equal(t, []time.Time{
		day(2024, time.January, 15),
		day(2024, time.January, 29),
	}, intervalFirst2, "anchor is Sunday; odd-offset Mondays survive every other week")

	assert.NotEqual(t, mondaysFirst2, intervalFirst2)
}
