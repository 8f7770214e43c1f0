package model

import "time"

type FamilyMember struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Color       string    `json:"color"`
	AvatarEmoji string    `json:"avatar_emoji"`
	HasPIN      bool      `json:"has_pin"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TimeOfDayPeriod is a named segment of the day (Morning, Afternoon, …) that
// time-sensitive chores can be pinned to. Times are "HH:MM" local.
type TimeOfDayPeriod struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AvailabilitySlot is one cell of a member's weekday × period availability
// grid. Weekday is 0–6 with 0=Sunday.
type AvailabilitySlot struct {
	ID        int64     `json:"id"`
	MemberID  int64     `json:"member_id"`
	Weekday   int       `json:"weekday"`
	PeriodID  int64     `json:"period_id"`
	Available bool      `json:"available"`
	UpdatedAt time.Time `json:"updated_at"`
}
