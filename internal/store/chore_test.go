package store

import (
	"testing"
	"time"

	"github.com/chorenest/chorenest/internal/database"
	"github.com/chorenest/chorenest/internal/model"
)

func setupChoreTestDB(t *testing.T) (*ChoreStore, *FamilyMemberStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewChoreStore(db), NewFamilyMemberStore(db)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestAreaSeedData(t *testing.T) {
	cs, _ := setupChoreTestDB(t)

	areas, err := cs.ListAreas()
	if err != nil {
		t.Fatalf("list areas: %v", err)
	}
	if len(areas) != 5 {
		t.Fatalf("expected 5 seed areas, got %d", len(areas))
	}

	expected := []string{"Kitchen", "Bathroom", "Bedroom", "Yard", "General"}
	for i, name := range expected {
		if areas[i].Name != name {
			t.Errorf("area[%d].Name = %q, want %q", i, areas[i].Name, name)
		}
	}
}

func TestAreaCRUD(t *testing.T) {
	cs, _ := setupChoreTestDB(t)

	area, err := cs.CreateArea("Garage", 6)
	if err != nil {
		t.Fatalf("create area: %v", err)
	}
	if area.Name != "Garage" {
		t.Errorf("name = %q, want %q", area.Name, "Garage")
	}
	if area.SortOrder != 6 {
		t.Errorf("sort_order = %d, want 6", area.SortOrder)
	}

	updated, err := cs.UpdateArea(area.ID, "Garage/Workshop", 7)
	if err != nil {
		t.Fatalf("update area: %v", err)
	}
	if updated.Name != "Garage/Workshop" {
		t.Errorf("updated name = %q, want %q", updated.Name, "Garage/Workshop")
	}

	if err := cs.DeleteArea(area.ID); err != nil {
		t.Fatalf("delete area: %v", err)
	}
	got, err := cs.GetAreaByID(area.ID)
	if err != nil {
		t.Fatalf("get deleted area: %v", err)
	}
	if got != nil {
		t.Error("expected nil for deleted area")
	}
}

func TestChoreCRUD(t *testing.T) {
	cs, _ := setupChoreTestDB(t)

	areas, _ := cs.ListAreas()
	kitchenID := areas[0].ID

	chore, err := cs.Create(&model.Chore{
		Title:             "Wash dishes",
		Description:       "Clean all dishes",
		AreaID:            &kitchenID,
		Points:            5,
		ScheduleType:      model.ScheduleSimple,
		RecurrencePattern: model.PatternDaily,
		IntervalValue:     1,
		StartDate:         datePtr(2026, time.January, 1),
	})
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}
	if chore.Title != "Wash dishes" {
		t.Errorf("title = %q, want %q", chore.Title, "Wash dishes")
	}
	if chore.Status != model.ChoreActive {
		t.Errorf("status = %q, want ACTIVE", chore.Status)
	}
	if chore.ScheduleType != model.ScheduleSimple {
		t.Errorf("schedule_type = %q, want SIMPLE", chore.ScheduleType)
	}
	if chore.RecurrencePattern != model.PatternDaily {
		t.Errorf("pattern = %q, want DAILY", chore.RecurrencePattern)
	}
	if chore.StartDate == nil || !chore.StartDate.Equal(*datePtr(2026, time.January, 1)) {
		t.Errorf("start_date = %v, want 2026-01-01", chore.StartDate)
	}
	if chore.AreaID == nil || *chore.AreaID != kitchenID {
		t.Errorf("area_id = %v, want %d", chore.AreaID, kitchenID)
	}

	chore.Title = "Wash all dishes"
	chore.Points = 10
	updated, err := cs.Update(chore.ID, chore)
	if err != nil {
		t.Fatalf("update chore: %v", err)
	}
	if updated.Title != "Wash all dishes" {
		t.Errorf("updated title = %q, want %q", updated.Title, "Wash all dishes")
	}
	if updated.Points != 10 {
		t.Errorf("updated points = %d, want 10", updated.Points)
	}

	chores, err := cs.List()
	if err != nil {
		t.Fatalf("list chores: %v", err)
	}
	if len(chores) != 1 {
		t.Fatalf("expected 1 chore, got %d", len(chores))
	}
}

func TestChoreScheduleRoundTrip(t *testing.T) {
	cs, _ := setupChoreTestDB(t)

	chore, err := cs.Create(&model.Chore{
		Title:             "School mornings",
		ScheduleType:      model.ScheduleRecurring,
		RecurrencePattern: model.PatternWeekly,
		IntervalValue:     1,
		Weekdays:          []int{1, 3, 5},
		MonthDays:         []int{1, 15},
		StartDate:         datePtr(2026, time.January, 5),
		EndDate:           datePtr(2026, time.June, 12),
		IsTimeSensitive:   true,
	})
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}

	got, err := cs.GetByID(chore.ID)
	if err != nil {
		t.Fatalf("get chore: %v", err)
	}
	if len(got.Weekdays) != 3 || got.Weekdays[0] != 1 || got.Weekdays[2] != 5 {
		t.Errorf("weekdays = %v, want [1 3 5]", got.Weekdays)
	}
	if len(got.MonthDays) != 2 {
		t.Errorf("month_days = %v, want [1 15]", got.MonthDays)
	}
	if got.EndDate == nil || !got.EndDate.Equal(*datePtr(2026, time.June, 12)) {
		t.Errorf("end_date = %v, want 2026-06-12", got.EndDate)
	}
	if !got.IsTimeSensitive {
		t.Error("is_time_sensitive lost in round trip")
	}
}

func TestChoreGetByIDNotFound(t *testing.T) {
	cs, _ := setupChoreTestDB(t)

	got, err := cs.GetByID(9999)
	if err != nil {
		t.Fatalf("get chore: %v", err)
	}
	if got != nil {
		t.Error("expected nil for nonexistent chore")
	}
}

func TestChoreSoftDelete(t *testing.T) {
	cs, _ := setupChoreTestDB(t)

	chore, _ := cs.Create(&model.Chore{Title: "Sweep floor"})
	_, err := cs.CreateCompletion(chore.ID, nil)
	if err != nil {
		t.Fatalf("create completion: %v", err)
	}

	if err := cs.Delete(chore.ID); err != nil {
		t.Fatalf("delete chore: %v", err)
	}

	// The row survives with DELETED status.
	got, err := cs.GetByID(chore.ID)
	if err != nil {
		t.Fatalf("get deleted chore: %v", err)
	}
	if got == nil || got.Status != model.ChoreDeleted {
		t.Fatalf("got %+v, want DELETED row", got)
	}

	// Listings skip it.
	chores, _ := cs.List()
	if len(chores) != 0 {
		t.Errorf("expected 0 listed chores, got %d", len(chores))
	}
	active, _ := cs.ListActive()
	if len(active) != 0 {
		t.Errorf("expected 0 active chores, got %d", len(active))
	}

	// Completion history survives.
	completions, _ := cs.ListCompletionsByChore(chore.ID)
	if len(completions) != 1 {
		t.Errorf("expected completion history to survive, got %d rows", len(completions))
	}
}

func TestChoreListActiveExcludesPaused(t *testing.T) {
	cs, _ := setupChoreTestDB(t)

	a, _ := cs.Create(&model.Chore{Title: "Active chore"})
	cs.Create(&model.Chore{Title: "Paused chore", Status: model.ChorePaused})

	active, err := cs.ListActive()
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].ID != a.ID {
		t.Fatalf("active = %v, want only %q", active, "Active chore")
	}

	// Paused chores still show in the general listing.
	all, _ := cs.List()
	if len(all) != 2 {
		t.Errorf("expected 2 listed chores, got %d", len(all))
	}
}

func TestChoreSetStatus(t *testing.T) {
	cs, _ := setupChoreTestDB(t)

	chore, _ := cs.Create(&model.Chore{Title: "Mow lawn"})

	paused, err := cs.SetStatus(chore.ID, model.ChorePaused)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if paused.Status != model.ChorePaused {
		t.Errorf("status = %q, want PAUSED", paused.Status)
	}
}

func TestChoreNextOccurrence(t *testing.T) {
	cs, _ := setupChoreTestDB(t)

	chore, _ := cs.Create(&model.Chore{Title: "Water plants"})
	if chore.NextOccurrence != nil {
		t.Fatalf("fresh chore next_occurrence = %v, want nil", chore.NextOccurrence)
	}

	next := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)
	if err := cs.SetNextOccurrence(chore.ID, next); err != nil {
		t.Fatalf("set next occurrence: %v", err)
	}

	got, _ := cs.GetByID(chore.ID)
	if got.NextOccurrence == nil || !got.NextOccurrence.Equal(next) {
		t.Errorf("next_occurrence = %v, want %v", got.NextOccurrence, next)
	}
}

func TestChoreListDueOn(t *testing.T) {
	cs, _ := setupChoreTestDB(t)

	due := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)

	a, _ := cs.Create(&model.Chore{Title: "Due chore"})
	cs.SetNextOccurrence(a.ID, due)

	b, _ := cs.Create(&model.Chore{Title: "Later chore"})
	cs.SetNextOccurrence(b.ID, due.AddDate(0, 0, 1))

	p, _ := cs.Create(&model.Chore{Title: "Paused chore", Status: model.ChorePaused})
	cs.SetNextOccurrence(p.ID, due)

	got, err := cs.ListDueOn(due)
	if err != nil {
		t.Fatalf("list due on: %v", err)
	}
	if len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("due = %v, want only %q", got, "Due chore")
	}
}

func TestChoreListByAssignee(t *testing.T) {
	cs, ms := setupChoreTestDB(t)

	member, err := ms.Create("Alice", "#FF0000", "A")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}

	cs.Create(&model.Chore{Title: "Chore A", AssignedTo: &member.ID})
	cs.Create(&model.Chore{Title: "Chore B"})

	chores, err := cs.ListByAssignee(member.ID)
	if err != nil {
		t.Fatalf("list by assignee: %v", err)
	}
	if len(chores) != 1 {
		t.Fatalf("expected 1 chore, got %d", len(chores))
	}
	if chores[0].Title != "Chore A" {
		t.Errorf("title = %q, want %q", chores[0].Title, "Chore A")
	}
}

func TestDeleteMemberSetsNullOnChore(t *testing.T) {
	cs, ms := setupChoreTestDB(t)

	member, _ := ms.Create("Charlie", "#00FF00", "C")
	chore, _ := cs.Create(&model.Chore{Title: "Mow lawn", Points: 10, AssignedTo: &member.ID})

	if chore.AssignedTo == nil || *chore.AssignedTo != member.ID {
		t.Fatalf("assigned_to = %v, want %d", chore.AssignedTo, member.ID)
	}

	if err := ms.Delete(member.ID); err != nil {
		t.Fatalf("delete member: %v", err)
	}

	got, err := cs.GetByID(chore.ID)
	if err != nil {
		t.Fatalf("get chore: %v", err)
	}
	if got.AssignedTo != nil {
		t.Errorf("assigned_to should be nil after member delete, got %v", *got.AssignedTo)
	}
}

func TestDeleteAreaSetsNullOnChore(t *testing.T) {
	cs, _ := setupChoreTestDB(t)

	area, _ := cs.CreateArea("Test Area", 10)
	chore, _ := cs.Create(&model.Chore{Title: "Test chore", AreaID: &area.ID})

	if err := cs.DeleteArea(area.ID); err != nil {
		t.Fatalf("delete area: %v", err)
	}

	got, err := cs.GetByID(chore.ID)
	if err != nil {
		t.Fatalf("get chore: %v", err)
	}
	if got.AreaID != nil {
		t.Errorf("area_id should be nil after area delete, got %v", *got.AreaID)
	}
}

func TestCompletionCRUD(t *testing.T) {
	cs, ms := setupChoreTestDB(t)

	member, _ := ms.Create("Eve", "#FF00FF", "E")
	chore, _ := cs.Create(&model.Chore{Title: "Take out trash", Points: 3})

	comp, err := cs.CreateCompletion(chore.ID, &member.ID)
	if err != nil {
		t.Fatalf("create completion: %v", err)
	}
	if comp.ChoreID != chore.ID {
		t.Errorf("chore_id = %d, want %d", comp.ChoreID, chore.ID)
	}
	if comp.CompletedBy == nil || *comp.CompletedBy != member.ID {
		t.Errorf("completed_by = %v, want %d", comp.CompletedBy, member.ID)
	}

	last, err := cs.LastCompletionForChore(chore.ID)
	if err != nil {
		t.Fatalf("last completion: %v", err)
	}
	if last.ID != comp.ID {
		t.Errorf("last completion id = %d, want %d", last.ID, comp.ID)
	}

	if err := cs.DeleteCompletion(comp.ID); err != nil {
		t.Fatalf("delete completion: %v", err)
	}
	completions, _ := cs.ListCompletionsByChore(chore.ID)
	if len(completions) != 0 {
		t.Errorf("expected 0 completions after delete, got %d", len(completions))
	}
}

func TestLastCompletionNotFound(t *testing.T) {
	cs, _ := setupChoreTestDB(t)

	chore, _ := cs.Create(&model.Chore{Title: "No completions"})

	last, err := cs.LastCompletionForChore(chore.ID)
	if err != nil {
		t.Fatalf("last completion: %v", err)
	}
	if last != nil {
		t.Error("expected nil for chore with no completions")
	}
}

func TestListCompletionsByDateRange(t *testing.T) {
	cs, _ := setupChoreTestDB(t)

	chore, _ := cs.Create(&model.Chore{Title: "Date range chore"})

	_, err := cs.CreateCompletion(chore.ID, nil)
	if err != nil {
		t.Fatalf("create completion: %v", err)
	}

	now := time.Now().UTC()
	completions, err := cs.ListCompletionsByDateRange(now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("list by range: %v", err)
	}
	if len(completions) != 1 {
		t.Fatalf("expected 1 completion in range, got %d", len(completions))
	}

	farFuture := now.Add(24 * time.Hour)
	completions, err = cs.ListCompletionsByDateRange(farFuture, farFuture.Add(time.Hour))
	if err != nil {
		t.Fatalf("list by range: %v", err)
	}
	if len(completions) != 0 {
		t.Errorf("expected 0 completions in future range, got %d", len(completions))
	}
}

func TestAreaSortOrder(t *testing.T) {
	cs, _ := setupChoreTestDB(t)

	areas, _ := cs.ListAreas()
	ids := make([]int64, len(areas))
	for i, a := range areas {
		ids[len(areas)-1-i] = a.ID
	}

	if err := cs.UpdateAreaSortOrder(ids); err != nil {
		t.Fatalf("update sort order: %v", err)
	}

	areas, _ = cs.ListAreas()
	if areas[0].Name != "General" {
		t.Errorf("first area after reorder = %q, want %q", areas[0].Name, "General")
	}
}
