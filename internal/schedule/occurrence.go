package schedule

import "time"

// Occurrence is one concrete calendar-date instance of a chore. Occurrences
// are produced fresh on every generation call and never persisted; only the
// first occurrence's date is cached back onto the chore.
type Occurrence struct {
	Date            time.Time `json:"date"`
	ChoreID         int64     `json:"chore_id"`
	IsTimeSensitive bool      `json:"is_time_sensitive"`
	TimeOfDayID     *int64    `json:"time_of_day_id,omitempty"`

	// Set by the exception overlay.
	OriginalDate  *time.Time `json:"original_date,omitempty"`
	IsRescheduled bool       `json:"is_rescheduled,omitempty"`
	IsCancelled   bool       `json:"is_cancelled,omitempty"`
	Reason        string     `json:"reason,omitempty"`
}

const dayLayout = "2006-01-02"

// dateOnly truncates t to calendar-day granularity in UTC. All schedule
// arithmetic happens on these normalized dates.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// sameDay compares two times by calendar day, ignoring time-of-day.
func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// lastWorkdayOfMonth walks backward from the month's last calendar day until
// it lands on a Monday–Friday.
func lastWorkdayOfMonth(year int, month time.Month) time.Time {
	d := time.Date(year, month, daysInMonth(year, month), 0, 0, 0, 0, time.UTC)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

func isWorkday(t time.Time) bool {
	wd := t.Weekday()
	return wd >= time.Monday && wd <= time.Friday
}
