package model

import "time"

// RuleType identifies a schedule rule's filtering behavior. Rules narrow a
// candidate date pool; they never add dates.
type RuleType string

const (
	RuleDayOfWeek   RuleType = "DAY_OF_WEEK"
	RuleDayOfMonth  RuleType = "DAY_OF_MONTH"
	RuleLastOfMonth RuleType = "LAST_OF_MONTH"
	RuleSchoolDay   RuleType = "SCHOOL_DAY"
	RuleWorkday     RuleType = "WORKDAY"
	RuleExcludeDays RuleType = "EXCLUDE_DAYS"
	RuleInterval    RuleType = "INTERVAL"
)

// ValidRule reports whether t is a known rule type.
func ValidRule(t RuleType) bool {
	switch t {
	case RuleDayOfWeek, RuleDayOfMonth, RuleLastOfMonth, RuleSchoolDay,
		RuleWorkday, RuleExcludeDays, RuleInterval:
		return true
	}
	return false
}

// LAST_OF_MONTH payload variants.
const (
	LastDay     = "LAST_DAY"
	LastWorkday = "LAST_WORKDAY"
)

// RuleValue is the typed payload of a schedule rule. Which fields are
// meaningful depends on the rule type: Days for DAY_OF_WEEK / DAY_OF_MONTH /
// EXCLUDE_DAYS, Type for LAST_OF_MONTH, ReferenceDate ("YYYY-MM-DD",
// defaulting to the chore's start date) and Interval for INTERVAL.
type RuleValue struct {
	Days          []int  `json:"days,omitempty"`
	Type          string `json:"type,omitempty"`
	ReferenceDate string `json:"reference_date,omitempty"`
	Interval      int    `json:"interval,omitempty"`
}

// ScheduleRule belongs to exactly one chore. Rules are evaluated in
// ascending priority order, each consuming the previous rule's output.
type ScheduleRule struct {
	ID        int64     `json:"id"`
	ChoreID   int64     `json:"chore_id"`
	RuleType  RuleType  `json:"rule_type"`
	RuleValue RuleValue `json:"rule_value"`
	Priority  int       `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScheduleException overrides one generated occurrence, keyed by calendar
// day. A nil RescheduledDate cancels the occurrence; a non-nil one moves it.
type ScheduleException struct {
	ID              int64      `json:"id"`
	ChoreID         int64      `json:"chore_id"`
	ExceptionDate   time.Time  `json:"exception_date"`
	RescheduledDate *time.Time `json:"rescheduled_date"`
	Reason          string     `json:"reason"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TemplateRule is one rule inside a schedule template. Applying the template
// materializes these as ScheduleRule rows on the target chore.
type TemplateRule struct {
	RuleType  RuleType  `json:"rule_type"`
	RuleValue RuleValue `json:"rule_value"`
	Priority  int       `json:"priority"`
}

// ScheduleTemplate is a named, reusable schedule shape plus rule set.
type ScheduleTemplate struct {
	ID                int64             `json:"id"`
	Name              string            `json:"name"`
	ScheduleType      ScheduleType      `json:"schedule_type"`
	RecurrencePattern RecurrencePattern `json:"recurrence_pattern"`
	IntervalValue     int               `json:"interval_value"`
	Weekdays          []int             `json:"weekdays"`
	MonthDays         []int             `json:"month_days"`
	IsTimeSensitive   bool              `json:"is_time_sensitive"`
	TimeOfDayID       *int64            `json:"time_of_day_id"`
	Rules             []TemplateRule    `json:"rules"`
	CreatedAt         time.Time         `json:"created_at"`
}
