package model

import "time"

// ChoreStatus is the lifecycle state of a chore. Deleted chores are kept as
// rows (soft delete) but excluded from listings and scheduling.
type ChoreStatus string

const (
	ChoreActive  ChoreStatus = "ACTIVE"
	ChorePaused  ChoreStatus = "PAUSED"
	ChoreDeleted ChoreStatus = "DELETED"
)

// ScheduleType selects which occurrence generator runs for a chore.
type ScheduleType string

const (
	ScheduleSimple      ScheduleType = "SIMPLE"
	ScheduleRecurring   ScheduleType = "RECURRING"
	ScheduleConditional ScheduleType = "CONDITIONAL"
	ScheduleCustom      ScheduleType = "CUSTOM"
)

// RecurrencePattern is the fixed-step pattern used by SIMPLE schedules and as
// the fallback for RECURRING schedules. Empty means a one-time chore.
type RecurrencePattern string

const (
	PatternDaily    RecurrencePattern = "DAILY"
	PatternWeekly   RecurrencePattern = "WEEKLY"
	PatternBiweekly RecurrencePattern = "BIWEEKLY"
	PatternMonthly  RecurrencePattern = "MONTHLY"
	PatternYearly   RecurrencePattern = "YEARLY"
)

// ValidSchedule reports whether t is a known schedule type.
func ValidSchedule(t ScheduleType) bool {
	switch t {
	case ScheduleSimple, ScheduleRecurring, ScheduleConditional, ScheduleCustom:
		return true
	}
	return false
}

// ValidPattern reports whether p is a known recurrence pattern. The empty
// pattern (one-time chore) is valid.
func ValidPattern(p RecurrencePattern) bool {
	switch p {
	case "", PatternDaily, PatternWeekly, PatternBiweekly, PatternMonthly, PatternYearly:
		return true
	}
	return false
}

type ChoreArea struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Chore struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	AreaID      *int64      `json:"area_id"`
	Points      int         `json:"points"`
	AssignedTo  *int64      `json:"assigned_to"`
	Status      ChoreStatus `json:"status"`
	SortOrder   int         `json:"sort_order"`

	// Schedule shape. Weekdays are 0–6 with 0=Sunday (WEEKLY under
	// RECURRING); MonthDays are 1–31 (MONTHLY under RECURRING).
	ScheduleType      ScheduleType      `json:"schedule_type"`
	RecurrencePattern RecurrencePattern `json:"recurrence_pattern"`
	IntervalValue     int               `json:"interval_value"`
	Weekdays          []int             `json:"weekdays"`
	MonthDays         []int             `json:"month_days"`
	StartDate         *time.Time        `json:"start_date"`
	EndDate           *time.Time        `json:"end_date"`
	IsTimeSensitive   bool              `json:"is_time_sensitive"`
	TimeOfDayID       *int64            `json:"time_of_day_id"`

	// NextOccurrence is a cache, rewritten after every occurrence
	// generation; never a source of truth.
	NextOccurrence *time.Time `json:"next_occurrence"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ChoreCompletion struct {
	ID          int64     `json:"id"`
	ChoreID     int64     `json:"chore_id"`
	CompletedBy *int64    `json:"completed_by"`
	CompletedAt time.Time `json:"completed_at"`
}
