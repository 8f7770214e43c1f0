package push

import (
	"testing"

	"github.com/chorenest/chorenest/internal/model"
)

func choreAssignedTo(id *int64, title string) model.Chore {
	return model.Chore{Title: title, AssignedTo: id}
}

func TestFilterForMember(t *testing.T) {
	alice := int64(1)
	bob := int64(2)
	due := []model.Chore{
		choreAssignedTo(&alice, "Dishes"),
		choreAssignedTo(&bob, "Vacuum"),
		choreAssignedTo(nil, "Take out trash"),
	}

	// Anonymous devices hear about everything.
	if got := filterForMember(due, nil); len(got) != 3 {
		t.Errorf("anonymous device: got %d chores, want 3", len(got))
	}

	// Member devices hear about their chores plus unassigned ones.
	got := filterForMember(due, &alice)
	if len(got) != 2 {
		t.Fatalf("alice: got %d chores, want 2", len(got))
	}
	if got[0].Title != "Dishes" || got[1].Title != "Take out trash" {
		t.Errorf("alice: got %q and %q", got[0].Title, got[1].Title)
	}

	// Member with nothing due gets nothing.
	carol := int64(3)
	assigned := []model.Chore{choreAssignedTo(&alice, "Dishes")}
	if got := filterForMember(assigned, &carol); len(got) != 0 {
		t.Errorf("carol: got %d chores, want 0", len(got))
	}
}

func TestDigestBody(t *testing.T) {
	one := []model.Chore{{Title: "Dishes"}}
	if got := digestBody(one); got != "Chore due today: Dishes" {
		t.Errorf("single chore body = %q", got)
	}

	three := []model.Chore{{Title: "A"}, {Title: "B"}, {Title: "C"}}
	if got := digestBody(three); got != "You have 3 chores to do today" {
		t.Errorf("multi chore body = %q", got)
	}
}
