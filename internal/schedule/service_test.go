package schedule

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chorenest/chorenest/internal/model"
)

// fakeStore is an in-memory implementation of the service's storage ports.
type fakeStore struct {
	chores    map[int64]*model.Chore
	rules     map[int64][]model.ScheduleRule
	excs      map[int64][]model.ScheduleException
	templates map[int64]*model.ScheduleTemplate
	nextSet   map[int64]time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		chores:    make(map[int64]*model.Chore),
		rules:     make(map[int64][]model.ScheduleRule),
		excs:      make(map[int64][]model.ScheduleException),
		templates: make(map[int64]*model.ScheduleTemplate),
		nextSet:   make(map[int64]time.Time),
	}
}

func (f *fakeStore) GetByID(id int64) (*model.Chore, error) {
	c, ok := f.chores[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) ListActive() ([]model.Chore, error) {
	var out []model.Chore
	for _, c := range f.chores {
		if c.Status == model.ChoreActive {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeStore) SetNextOccurrence(id int64, next time.Time) error {
	f.nextSet[id] = next
	f.chores[id].NextOccurrence = &next
	return nil
}

func (f *fakeStore) ListRules(choreID int64) ([]model.ScheduleRule, error) {
	return f.rules[choreID], nil
}

func (f *fakeStore) ListExceptions(choreID int64) ([]model.ScheduleException, error) {
	return f.excs[choreID], nil
}

type fakeTemplates struct {
	store     *fakeStore
	templates map[int64]*model.ScheduleTemplate
}

func (f *fakeTemplates) GetByID(id int64) (*model.ScheduleTemplate, error) {
	t, ok := f.templates[id]
	if !ok {
		return nil, nil
	}
	return t, nil
}

func (f *fakeTemplates) ApplyToChore(choreID int64, tpl *model.ScheduleTemplate) (*model.Chore, error) {
	c := f.store.chores[choreID]
	c.ScheduleType = tpl.ScheduleType
	c.RecurrencePattern = tpl.RecurrencePattern
	c.IntervalValue = tpl.IntervalValue
	c.Weekdays = tpl.Weekdays
	c.MonthDays = tpl.MonthDays
	c.IsTimeSensitive = tpl.IsTimeSensitive
	c.TimeOfDayID = tpl.TimeOfDayID

	rules := make([]model.ScheduleRule, len(tpl.Rules))
	for i, r := range tpl.Rules {
		rules[i] = model.ScheduleRule{ID: int64(i + 1), ChoreID: choreID, RuleType: r.RuleType, RuleValue: r.RuleValue, Priority: r.Priority}
	}
	f.store.rules[choreID] = rules

	cp := *c
	return &cp, nil
}

func newTestService(store *fakeStore, today time.Time) (*Service, *fakeTemplates) {
	tpls := &fakeTemplates{store: store, templates: store.templates}
	svc := NewService(store, store, tpls, nil, slog.Default())
	svc.now = func() time.Time { return today }
	return svc, tpls
}

func TestGenerateOccurrencesSimple(t *testing.T) {
	store := newFakeStore()
	store.chores[1] = simpleChore(model.PatternDaily, 2, day(2024, time.January, 1))
	svc, _ := newTestService(store, day(2024, time.January, 1))

	occs, err := svc.GenerateOccurrences(context.Background(), 1, 3)
	require.NoError(t, err)

	require.Len(t, occs, 3)
	assert.Equal(t, day(2024, time.January, 1), occs[0].Date)
	assert.Equal(t, day(2024, time.January, 3), occs[1].Date)
	assert.Equal(t, day(2024, time.January, 5), occs[2].Date)
	assert.Equal(t, int64(1), occs[0].ChoreID)
}

func TestGenerateOccurrencesDefaultCount(t *testing.T) {
	store := newFakeStore()
	store.chores[1] = simpleChore(model.PatternDaily, 1, day(2024, time.January, 1))
	svc, _ := newTestService(store, day(2024, time.January, 1))

	occs, err := svc.GenerateOccurrences(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Len(t, occs, DefaultCount)
}

func TestGenerateOccurrencesNotFound(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store, day(2024, time.January, 1))

	_, err := svc.GenerateOccurrences(context.Background(), 99, 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGenerateOccurrencesSoftDeletedChore(t *testing.T) {
	store := newFakeStore()
	c := simpleChore(model.PatternDaily, 1, day(2024, time.January, 1))
	c.Status = model.ChoreDeleted
	store.chores[1] = c
	svc, _ := newTestService(store, day(2024, time.January, 1))

	_, err := svc.GenerateOccurrences(context.Background(), 1, 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGenerateOccurrencesUnknownTypeFallsBackToSimple(t *testing.T) {
	store := newFakeStore()
	c := simpleChore(model.PatternWeekly, 1, day(2024, time.January, 1))
	c.ScheduleType = "LUNAR"
	store.chores[1] = c
	svc, _ := newTestService(store, day(2024, time.January, 1))

	occs, err := svc.GenerateOccurrences(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, occs, 2)
	assert.Equal(t, day(2024, time.January, 8), occs[1].Date)
}

func TestGenerateOccurrencesCachesNextOccurrence(t *testing.T) {
	store := newFakeStore()
	store.chores[1] = simpleChore(model.PatternDaily, 1, day(2024, time.March, 5))
	svc, _ := newTestService(store, day(2024, time.March, 1))

	_, err := svc.GenerateOccurrences(context.Background(), 1, 5)
	require.NoError(t, err)

	assert.Equal(t, day(2024, time.March, 5), store.nextSet[1])
}

func TestGenerateOccurrencesRescheduledFirstIsCached(t *testing.T) {
	store := newFakeStore()
	store.chores[1] = simpleChore(model.PatternDaily, 1, day(2024, time.January, 1))
	store.excs[1] = []model.ScheduleException{
		{ExceptionDate: day(2024, time.January, 1), RescheduledDate: ptr(day(2024, time.January, 20))},
	}
	svc, _ := newTestService(store, day(2024, time.January, 1))

	occs, err := svc.GenerateOccurrences(context.Background(), 1, 3)
	require.NoError(t, err)

	assert.True(t, occs[0].IsRescheduled)
	assert.Equal(t, day(2024, time.January, 20), store.nextSet[1])
}

func TestGenerateOccurrencesCancelledFirstLeavesCacheAlone(t *testing.T) {
	store := newFakeStore()
	c := simpleChore(model.PatternDaily, 1, day(2024, time.January, 1))
	stale := day(2023, time.December, 25)
	c.NextOccurrence = &stale
	store.chores[1] = c
	store.excs[1] = []model.ScheduleException{
		{ExceptionDate: day(2024, time.January, 1), Reason: "holiday"},
	}
	svc, _ := newTestService(store, day(2024, time.January, 1))

	occs, err := svc.GenerateOccurrences(context.Background(), 1, 3)
	require.NoError(t, err)

	assert.True(t, occs[0].IsCancelled)
	_, wrote := store.nextSet[1]
	assert.False(t, wrote, "cancelled first occurrence must not advance the cache")
	assert.Equal(t, stale, *store.chores[1].NextOccurrence)
}

func TestGenerateOccurrencesConditionalUsesSchoolCalendar(t *testing.T) {
	store := newFakeStore()
	c := simpleChore("", 0, day(2024, time.January, 1))
	c.ScheduleType = model.ScheduleConditional
	store.chores[1] = c
	store.rules[1] = []model.ScheduleRule{
		{RuleType: model.RuleSchoolDay},
	}

	svc, _ := newTestService(store, day(2024, time.January, 1))
	svc.school = schoolCalendarFunc(func(ctx context.Context, from, to time.Time) ([]time.Time, error) {
		return []time.Time{day(2024, time.January, 2), day(2024, time.January, 4)}, nil
	})

	occs, err := svc.GenerateOccurrences(context.Background(), 1, 5)
	require.NoError(t, err)

	require.Len(t, occs, 2)
	assert.Equal(t, day(2024, time.January, 2), occs[0].Date)
	assert.Equal(t, day(2024, time.January, 4), occs[1].Date)
}

func TestGenerateOccurrencesNoopSchoolCalendar(t *testing.T) {
	store := newFakeStore()
	c := simpleChore("", 0, day(2024, time.January, 1))
	c.ScheduleType = model.ScheduleCustom
	store.chores[1] = c
	store.rules[1] = []model.ScheduleRule{{RuleType: model.RuleSchoolDay}}
	svc, _ := newTestService(store, day(2024, time.January, 1))

	occs, err := svc.GenerateOccurrences(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Empty(t, occs, "the default school calendar has no school days")
}

type schoolCalendarFunc func(ctx context.Context, from, to time.Time) ([]time.Time, error)

func (f schoolCalendarFunc) SchoolDays(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	return f(ctx, from, to)
}

func TestApplyTemplateReplacesRules(t *testing.T) {
	store := newFakeStore()
	store.chores[1] = simpleChore(model.PatternDaily, 1, day(2024, time.January, 1))
	store.rules[1] = []model.ScheduleRule{
		{ID: 50, ChoreID: 1, RuleType: model.RuleWorkday, Priority: 0},
	}
	store.templates[7] = &model.ScheduleTemplate{
		ID:                7,
		Name:              "Weekend chores",
		ScheduleType:      model.ScheduleRecurring,
		RecurrencePattern: model.PatternWeekly,
		IntervalValue:     1,
		Weekdays:          []int{0, 6},
		Rules: []model.TemplateRule{
			{RuleType: model.RuleExcludeDays, RuleValue: model.RuleValue{Days: []int{5}}, Priority: 1},
		},
	}
	svc, _ := newTestService(store, day(2024, time.January, 1))

	updated, err := svc.ApplyTemplate(context.Background(), 1, 7)
	require.NoError(t, err)

	assert.Equal(t, model.ScheduleRecurring, updated.ScheduleType)
	assert.Equal(t, []int{0, 6}, updated.Weekdays)

	rules, err := store.ListRules(1)
	require.NoError(t, err)
	require.Len(t, rules, 1, "prior rules replaced wholesale")
	assert.Equal(t, model.RuleExcludeDays, rules[0].RuleType)
}

func TestApplyTemplateNotFound(t *testing.T) {
	store := newFakeStore()
	store.chores[1] = simpleChore(model.PatternDaily, 1, day(2024, time.January, 1))
	svc, _ := newTestService(store, day(2024, time.January, 1))

	_, err := svc.ApplyTemplate(context.Background(), 1, 404)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ApplyTemplate(context.Background(), 404, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDueInRange(t *testing.T) {
	store := newFakeStore()
	store.chores[1] = simpleChore(model.PatternWeekly, 1, day(2024, time.January, 1))
	c2 := simpleChore(model.PatternWeekly, 1, day(2024, time.January, 3))
	c2.ID = 2
	store.chores[2] = c2
	deleted := simpleChore(model.PatternDaily, 1, day(2024, time.January, 1))
	deleted.ID = 3
	deleted.Status = model.ChoreDeleted
	store.chores[3] = deleted

	svc, _ := newTestService(store, day(2024, time.January, 1))

	occs, err := svc.DueInRange(context.Background(), day(2024, time.January, 1), day(2024, time.January, 10))
	require.NoError(t, err)

	require.Equal(t, []time.Time{
		day(2024, time.January, 1),
		day(2024, time.January, 3),
		day(2024, time.January, 8),
		day(2024, time.January, 10),
	}, datesOf(occs))
}

func datesOf(occs []Occurrence) []time.Time {
	out := make([]time.Time, len(occs))
	for i, o := range occs {
		out[i] = o.Date
	}
	return out
}
