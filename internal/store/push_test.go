package store

import (
	"testing"
	"time"

	"github.com/chorenest/chorenest/internal/database"
	"github.com/chorenest/chorenest/internal/model"
)

func setupPushTestDB(t *testing.T) (*PushStore, *FamilyMemberStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPushStore(db), NewFamilyMemberStore(db)
}

func TestSubscriptionCreateAndList(t *testing.T) {
	ps, ms := setupPushTestDB(t)
	member, _ := ms.Create("Alice", "#FF0000", "A")

	sub, err := ps.CreateSubscription(&member.ID, "https://push.example/ep1", "p256dh-key", "auth-key", "Alice's phone")
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	if sub.Endpoint != "https://push.example/ep1" {
		t.Errorf("endpoint = %q", sub.Endpoint)
	}
	if sub.MemberID == nil || *sub.MemberID != member.ID {
		t.Errorf("member_id = %v, want %d", sub.MemberID, member.ID)
	}

	subs, err := ps.List()
	if err != nil {
		t.Fatalf("list subscriptions: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected 1 subscription, got %d", len(subs))
	}

	byMember, err := ps.ListByMember(member.ID)
	if err != nil {
		t.Fatalf("list by member: %v", err)
	}
	if len(byMember) != 1 {
		t.Fatalf("expected 1 subscription for member, got %d", len(byMember))
	}
}

func TestSubscriptionUpsertByEndpoint(t *testing.T) {
	ps, _ := setupPushTestDB(t)

	first, err := ps.CreateSubscription(nil, "https://push.example/ep1", "key-v1", "auth-v1", "tablet")
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}

	second, err := ps.CreateSubscription(nil, "https://push.example/ep1", "key-v2", "auth-v2", "tablet")
	if err != nil {
		t.Fatalf("re-subscribe: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("re-subscribe created a new row: %d != %d", second.ID, first.ID)
	}
	if second.P256dhKey != "key-v2" {
		t.Errorf("p256dh_key = %q, want refreshed key-v2", second.P256dhKey)
	}

	subs, _ := ps.List()
	if len(subs) != 1 {
		t.Errorf("expected 1 subscription after upsert, got %d", len(subs))
	}
}

func TestSubscriptionDeleteByEndpoint(t *testing.T) {
	ps, _ := setupPushTestDB(t)

	ps.CreateSubscription(nil, "https://push.example/gone", "k", "a", "")
	if err := ps.DeleteByEndpoint("https://push.example/gone"); err != nil {
		t.Fatalf("delete by endpoint: %v", err)
	}

	subs, _ := ps.List()
	if len(subs) != 0 {
		t.Errorf("expected 0 subscriptions, got %d", len(subs))
	}
}

func TestDeleteMemberCascadesSubscriptions(t *testing.T) {
	ps, ms := setupPushTestDB(t)
	member, _ := ms.Create("Bob", "#0000FF", "B")

	ps.CreateSubscription(&member.ID, "https://push.example/bob", "k", "a", "phone")

	if err := ms.Delete(member.ID); err != nil {
		t.Fatalf("delete member: %v", err)
	}

	subs, _ := ps.List()
	if len(subs) != 0 {
		t.Errorf("expected subscriptions to cascade, got %d", len(subs))
	}
}

func TestNotificationDedup(t *testing.T) {
	ps, _ := setupPushTestDB(t)

	day := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)

	sent, err := ps.WasSent(model.NotifTypeChoreDue, "chore:7", day)
	if err != nil {
		t.Fatalf("was sent: %v", err)
	}
	if sent {
		t.Error("expected not sent before recording")
	}

	if err := ps.RecordSent(model.NotifTypeChoreDue, "chore:7", day); err != nil {
		t.Fatalf("record sent: %v", err)
	}
	// Recording twice must not error (INSERT OR IGNORE).
	if err := ps.RecordSent(model.NotifTypeChoreDue, "chore:7", day); err != nil {
		t.Fatalf("record sent again: %v", err)
	}

	sent, err = ps.WasSent(model.NotifTypeChoreDue, "chore:7", day)
	if err != nil {
		t.Fatalf("was sent: %v", err)
	}
	if !sent {
		t.Error("expected sent after recording")
	}

	// A different day is a fresh notification.
	sent, _ = ps.WasSent(model.NotifTypeChoreDue, "chore:7", day.AddDate(0, 0, 1))
	if sent {
		t.Error("expected next day to be unsent")
	}
}

func TestCleanupSent(t *testing.T) {
	ps, _ := setupPushTestDB(t)

	old := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	ps.RecordSent(model.NotifTypeChoreDue, "chore:1", old)
	ps.RecordSent(model.NotifTypeChoreDue, "chore:2", recent)

	if err := ps.CleanupSent(time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	sent, _ := ps.WasSent(model.NotifTypeChoreDue, "chore:1", old)
	if sent {
		t.Error("expected old log row to be cleaned up")
	}
	sent, _ = ps.WasSent(model.NotifTypeChoreDue, "chore:2", recent)
	if !sent {
		t.Error("expected recent log row to survive cleanup")
	}
}
