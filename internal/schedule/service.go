package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/chorenest/chorenest/internal/model"
)

// ErrNotFound is returned when a chore or template id does not resolve (or
// the chore is soft-deleted). Handlers map it to HTTP 404.
var ErrNotFound = errors.New("not found")

const (
	// DefaultCount is the number of occurrences generated when the caller
	// does not ask for a specific count.
	DefaultCount = 10

	// rangeCount bounds per-chore expansion for due-range queries.
	rangeCount = 100
)

// ChoreSource is the chore side of the storage port.
type ChoreSource interface {
	GetByID(id int64) (*model.Chore, error)
	ListActive() ([]model.Chore, error)
	SetNextOccurrence(id int64, next time.Time) error
}

// RuleSource loads a chore's rules (priority ascending) and exceptions.
type RuleSource interface {
	ListRules(choreID int64) ([]model.ScheduleRule, error)
	ListExceptions(choreID int64) ([]model.ScheduleException, error)
}

// TemplateSource loads templates and applies one to a chore atomically
// (schedule shape overwritten, rule set replaced wholesale).
type TemplateSource interface {
	GetByID(id int64) (*model.ScheduleTemplate, error)
	ApplyToChore(choreID int64, tpl *model.ScheduleTemplate) (*model.Chore, error)
}

// SchoolCalendar supplies school days for SCHOOL_DAY rules.
type SchoolCalendar interface {
	SchoolDays(ctx context.Context, from, to time.Time) ([]time.Time, error)
}

type noopSchoolCalendar struct{}

func (noopSchoolCalendar) SchoolDays(context.Context, time.Time, time.Time) ([]time.Time, error) {
	return nil, nil
}

// NoopSchoolCalendar returns a SchoolCalendar with no school days; with it,
// SCHOOL_DAY rules filter every candidate out.
func NoopSchoolCalendar() SchoolCalendar {
	return noopSchoolCalendar{}
}

// Service orchestrates occurrence generation: it dispatches to a generator
// by schedule type, applies the exception overlay, and caches the first
// non-cancelled occurrence date back onto the chore.
type Service struct {
	chores    ChoreSource
	rules     RuleSource
	templates TemplateSource
	school    SchoolCalendar
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(chores ChoreSource, rules RuleSource, templates TemplateSource, school SchoolCalendar, logger *slog.Logger) *Service {
	if school == nil {
		school = NoopSchoolCalendar()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		chores:    chores,
		rules:     rules,
		templates: templates,
		school:    school,
		logger:    logger,
		now:       time.Now,
	}
}

// GenerateOccurrences produces up to count occurrences for the chore, in
// chronological order, with exceptions applied. When the first entry is not
// cancelled its date is persisted as the chore's next occurrence; a
// cancelled first entry leaves the cached value untouched.
func (s *Service) GenerateOccurrences(ctx context.Context, choreID int64, count int) ([]Occurrence, error) {
	if count <= 0 {
		count = DefaultCount
	}

	chore, err := s.chores.GetByID(choreID)
	if err != nil {
		return nil, fmt.Errorf("load chore %d: %w", choreID, err)
	}
	if chore == nil || chore.Status == model.ChoreDeleted {
		return nil, fmt.Errorf("chore %d: %w", choreID, ErrNotFound)
	}

	rules, err := s.rules.ListRules(choreID)
	if err != nil {
		return nil, fmt.Errorf("load rules for chore %d: %w", choreID, err)
	}
	excs, err := s.rules.ListExceptions(choreID)
	if err != nil {
		return nil, fmt.Errorf("load exceptions for chore %d: %w", choreID, err)
	}

	occs, err := s.generate(ctx, chore, rules, count)
	if err != nil {
		return nil, err
	}
	occs = overlayExceptions(occs, excs)

	if len(occs) > 0 && !occs[0].IsCancelled {
		if err := s.chores.SetNextOccurrence(chore.ID, occs[0].Date); err != nil {
			return nil, fmt.Errorf("cache next occurrence for chore %d: %w", chore.ID, err)
		}
	}

	s.logger.Debug("generated occurrences",
		"chore_id", chore.ID,
		"schedule_type", chore.ScheduleType,
		"count", len(occs),
	)
	return occs, nil
}

func (s *Service) generate(ctx context.Context, chore *model.Chore, rules []model.ScheduleRule, count int) ([]Occurrence, error) {
	today := dateOnly(s.now())

	var dates []time.Time
	switch chore.ScheduleType {
	case model.ScheduleSimple:
		dates = expandSimple(chore, count, today)
	case model.ScheduleRecurring:
		dates = expandRecurring(chore, count, today)
	case model.ScheduleConditional, model.ScheduleCustom:
		schoolDays, err := s.schoolDaySet(ctx, chore, rules, count, today)
		if err != nil {
			return nil, err
		}
		dates = expandConditional(chore, rules, count, today, schoolDays)
	default:
		// Missing or unknown schedule type behaves like SIMPLE.
		dates = expandSimple(chore, count, today)
	}

	occs := make([]Occurrence, len(dates))
	for i, d := range dates {
		occs[i] = Occurrence{
			Date:            d,
			ChoreID:         chore.ID,
			IsTimeSensitive: chore.IsTimeSensitive,
			TimeOfDayID:     chore.TimeOfDayID,
		}
	}
	return occs, nil
}

// schoolDaySet fetches school days covering the candidate pool, but only
// when a SCHOOL_DAY rule is present.
func (s *Service) schoolDaySet(ctx context.Context, chore *model.Chore, rules []model.ScheduleRule, count int, today time.Time) (map[string]struct{}, error) {
	needed := false
	for _, r := range rules {
		if r.RuleType == model.RuleSchoolDay {
			needed = true
			break
		}
	}
	if !needed {
		return nil, nil
	}

	from := startFor(chore, today)
	to := from.AddDate(0, 0, poolFactor*count)
	days, err := s.school.SchoolDays(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch school days: %w", err)
	}

	set := make(map[string]struct{}, len(days))
	for _, d := range days {
		set[dateOnly(d).Format(dayLayout)] = struct{}{}
	}
	return set, nil
}

// ApplyTemplate overwrites the chore's schedule shape with the template's
// and replaces its rule set in one transaction. It does not regenerate
// occurrences; callers do that separately.
func (s *Service) ApplyTemplate(ctx context.Context, choreID, templateID int64) (*model.Chore, error) {
	chore, err := s.chores.GetByID(choreID)
	if err != nil {
		return nil, fmt.Errorf("load chore %d: %w", choreID, err)
	}
	if chore == nil || chore.Status == model.ChoreDeleted {
		return nil, fmt.Errorf("chore %d: %w", choreID, ErrNotFound)
	}

	tpl, err := s.templates.GetByID(templateID)
	if err != nil {
		return nil, fmt.Errorf("load template %d: %w", templateID, err)
	}
	if tpl == nil {
		return nil, fmt.Errorf("template %d: %w", templateID, ErrNotFound)
	}

	updated, err := s.templates.ApplyToChore(choreID, tpl)
	if err != nil {
		return nil, fmt.Errorf("apply template %d to chore %d: %w", templateID, choreID, err)
	}

	s.logger.Info("applied schedule template", "chore_id", choreID, "template_id", templateID)
	return updated, nil
}

// DueInRange generates up to 100 occurrences per active chore and returns
// those inside [start, end], merged and sorted by date. Cancelled
// occurrences are included with their annotation.
func (s *Service) DueInRange(ctx context.Context, start, end time.Time) ([]Occurrence, error) {
	chores, err := s.chores.ListActive()
	if err != nil {
		return nil, fmt.Errorf("list active chores: %w", err)
	}

	start = dateOnly(start)
	end = dateOnly(end)

	var out []Occurrence
	for _, c := range chores {
		occs, err := s.GenerateOccurrences(ctx, c.ID, rangeCount)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		for _, o := range occs {
			if !o.Date.Before(start) && !o.Date.After(end) {
				out = append(out, o)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
