package chore

import (
	"time"

	"github.com/chorenest/chorenest/internal/model"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusOverdue   Status = "overdue"
	StatusNotDue    Status = "not_due"
)

type ChoreWithStatus struct {
	model.Chore
	Status         Status     `json:"due_status"`
	DueDate        *time.Time `json:"due_date"`
	LastCompletion *time.Time `json:"last_completion"`
	AreaName       string     `json:"area_name,omitempty"`
	MemberName     string     `json:"member_name,omitempty"`
}

// ComputeStatus determines the status and due date for a chore given its
// cached next occurrence and the last completion. The occurrence cache is
// maintained by the schedule service; a chore that has never been expanded
// reports not_due.
func ComputeStatus(c model.Chore, lastCompletion *time.Time, today time.Time) (Status, *time.Time) {
	today = startOfDay(today)

	if isOneTime(c) {
		due := c.StartDate
		if lastCompletion != nil {
			return StatusCompleted, due
		}
		if due != nil && startOfDay(*due).Before(today) {
			return StatusOverdue, due
		}
		return StatusPending, due
	}

	if c.NextOccurrence == nil {
		return StatusNotDue, nil
	}
	due := startOfDay(*c.NextOccurrence)

	if lastCompletion != nil && !startOfDay(*lastCompletion).Before(due) {
		return StatusCompleted, &due
	}
	if due.Before(today) {
		return StatusOverdue, &due
	}
	if due.After(today) {
		// Completed earlier today with the next occurrence already ahead.
		if lastCompletion != nil && startOfDay(*lastCompletion).Equal(today) {
			return StatusCompleted, &due
		}
		return StatusNotDue, &due
	}
	return StatusPending, &due
}

// isOneTime reports whether the chore has no recurrence at all: a SIMPLE
// schedule with no pattern fires exactly once.
func isOneTime(c model.Chore) bool {
	switch c.ScheduleType {
	case "", model.ScheduleSimple:
		return c.RecurrencePattern == ""
	}
	return false
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
