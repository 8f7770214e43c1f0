package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chorenest/chorenest/internal/model"
	"github.com/chorenest/chorenest/internal/store"
)

const dueReminderRef = "chore-due-digest"

// Scheduler periodically checks for chore reminders to send.
type Scheduler struct {
	mu           sync.RWMutex
	service      *Service
	push         *store.PushStore
	chores       *store.ChoreStore
	logger       *slog.Logger
	interval     time.Duration
	reminderHour int
	cancel       context.CancelFunc
	done         chan struct{}
}

// NewScheduler creates a reminder scheduler. The daily due-chore digest goes
// out during the given UTC hour.
func NewScheduler(svc *Service, pushStore *store.PushStore, choreStore *store.ChoreStore, reminderHour int, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		service:      svc,
		push:         pushStore,
		chores:       choreStore,
		logger:       logger,
		interval:     60 * time.Second,
		reminderHour: reminderHour,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(time.Now().UTC())
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(now time.Time) {
	if !s.service.Configured() {
		return
	}
	if now.Hour() != s.reminderHour {
		return
	}

	sent, err := s.push.WasSent(model.NotifTypeChoreDue, dueReminderRef, now)
	if err != nil {
		s.logger.Error("check sent notifications", "error", err)
		return
	}
	if sent {
		return
	}

	s.sendDueDigest(now)

	// One cleanup sweep per day, piggybacked on the digest.
	if err := s.push.CleanupSent(now.AddDate(0, 0, -30)); err != nil {
		s.logger.Error("cleanup notification log", "error", err)
	}
}

// sendDueDigest notifies each subscribed device about today's due chores.
// Devices tied to a member only hear about that member's chores plus
// unassigned ones; anonymous devices hear about everything.
func (s *Scheduler) sendDueDigest(now time.Time) {
	due, err := s.chores.ListDueOn(now)
	if err != nil {
		s.logger.Error("list due chores", "error", err)
		return
	}

	// Record even when nothing is due so the hour's remaining ticks skip the
	// query.
	defer func() {
		if err := s.push.RecordSent(model.NotifTypeChoreDue, dueReminderRef, now); err != nil {
			s.logger.Error("record sent notification", "error", err)
		}
	}()

	if len(due) == 0 {
		return
	}

	subs, err := s.push.List()
	if err != nil {
		s.logger.Error("list push subscriptions", "error", err)
		return
	}

	for _, sub := range subs {
		relevant := filterForMember(due, sub.MemberID)
		if len(relevant) == 0 {
			continue
		}

		payload := Payload{
			Title: "Chores Due Today",
			Body:  digestBody(relevant),
			URL:   "/chores",
			Tag:   dueReminderRef,
		}

		if err := s.service.Send(&sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				if err := s.push.DeleteByEndpoint(sub.Endpoint); err != nil {
					s.logger.Error("delete expired subscription", "error", err)
				}
				continue
			}
			s.logger.Error("send due-chore reminder", "endpoint", sub.Endpoint, "error", err)
		}
	}
}

func filterForMember(due []model.Chore, memberID *int64) []model.Chore {
	if memberID == nil {
		return due
	}
	var out []model.Chore
	for _, c := range due {
		if c.AssignedTo == nil || *c.AssignedTo == *memberID {
			out = append(out, c)
		}
	}
	return out
}

func digestBody(due []model.Chore) string {
	if len(due) == 1 {
		return fmt.Sprintf("Chore due today: %s", due[0].Title)
	}
	return fmt.Sprintf("You have %d chores to do today", len(due))
}
