package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/chorenest/chorenest/internal/handler"
	"github.com/chorenest/chorenest/internal/middleware"
	"github.com/chorenest/chorenest/internal/push"
	"github.com/chorenest/chorenest/internal/schedule"
	"github.com/chorenest/chorenest/internal/schoolcal"
	"github.com/chorenest/chorenest/internal/store"
	ws "github.com/chorenest/chorenest/internal/websocket"
)

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	choreH        *handler.ChoreHandler
	scheduleH     *handler.ScheduleHandler
	templateH     *handler.TemplateHandler
	familyMemberH *handler.FamilyMemberHandler
	periodH       *handler.PeriodHandler
	availabilityH *handler.AvailabilityHandler
	pushH         *handler.PushHandler
	pushStore     *store.PushStore
	rateLimiter   *middleware.RateLimiter
	pushService   *push.Service
	pushScheduler *push.Scheduler
	logger        *slog.Logger
}

// Config carries the non-store wiring for the server.
type Config struct {
	SchoolCal    *schoolcal.Service
	Push         push.Config
	ReminderHour int
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	choreStore := store.NewChoreStore(db)
	scheduleStore := store.NewScheduleStore(db)
	templateStore := store.NewTemplateStore(db)
	familyMemberStore := store.NewFamilyMemberStore(db)
	periodStore := store.NewPeriodStore(db)
	availabilityStore := store.NewAvailabilityStore(db)
	pushStore := store.NewPushStore(db)

	var school schedule.SchoolCalendar
	if cfg.SchoolCal != nil && cfg.SchoolCal.Configured() {
		school = cfg.SchoolCal
	}
	scheduler := schedule.NewService(
		choreStore, scheduleStore, templateStore, school,
		logger.With("component", "schedule"),
	)

	pushLogger := logger.With("component", "push")
	pushSvc := push.NewService(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey)
	var pushSched *push.Scheduler
	if pushSvc.Configured() {
		pushSched = push.NewScheduler(pushSvc, pushStore, choreStore, cfg.ReminderHour, pushLogger)
	}

	return &Server{
		db:            db,
		hub:           hub,
		choreH:        handler.NewChoreHandler(choreStore, familyMemberStore, scheduler, hub, logger.With("component", "chore")),
		scheduleH:     handler.NewScheduleHandler(scheduler, scheduleStore, choreStore, hub, logger.With("component", "schedule_api")),
		templateH:     handler.NewTemplateHandler(templateStore, logger.With("component", "template")),
		familyMemberH: handler.NewFamilyMemberHandler(familyMemberStore, hub, logger.With("component", "family_member")),
		periodH:       handler.NewPeriodHandler(periodStore, logger.With("component", "period")),
		availabilityH: handler.NewAvailabilityHandler(availabilityStore, familyMemberStore, periodStore, logger.With("component", "availability")),
		pushH:         handler.NewPushHandler(pushStore, familyMemberStore, pushSvc, pushLogger),
		pushStore:     pushStore,
		rateLimiter:   middleware.NewRateLimiter(),
		pushService:   pushSvc,
		pushScheduler: pushSched,
		logger:        logger,
	}
}

// PushScheduler returns the reminder scheduler, or nil when push is not
// configured.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Chores
	mux.HandleFunc("POST /api/chores", s.choreH.Create)
	mux.HandleFunc("GET /api/chores", s.choreH.List)
	mux.HandleFunc("GET /api/chores/{id}", s.choreH.Get)
	mux.HandleFunc("PUT /api/chores/{id}", s.choreH.Update)
	mux.HandleFunc("DELETE /api/chores/{id}", s.choreH.Delete)
	mux.HandleFunc("GET /api/chores/{id}/status", s.choreH.GetStatus)
	mux.HandleFunc("PUT /api/chores/{id}/set-status", s.choreH.SetStatus)
	mux.HandleFunc("POST /api/chores/{id}/complete", s.choreH.Complete)
	mux.HandleFunc("GET /api/chores/{id}/completions", s.choreH.ListCompletions)
	mux.HandleFunc("DELETE /api/chores/{id}/completions/{completion_id}", s.choreH.UndoComplete)

	// Occurrence generation is the expensive path; keep it rate limited.
	mux.HandleFunc("GET /api/chores/{id}/schedule", s.rateLimited(s.scheduleH.Occurrences))
	mux.HandleFunc("PUT /api/chores/{id}/schedule", s.scheduleH.UpdateSchedule)
	mux.HandleFunc("GET /api/chores/{id}/schedule/occurrences", s.rateLimited(s.scheduleH.Occurrences))
	mux.HandleFunc("GET /api/chores/due/today", s.scheduleH.DueToday)
	mux.HandleFunc("GET /api/chores/due/range", s.rateLimited(s.scheduleH.DueRange))

	// Schedule rules and exceptions
	mux.HandleFunc("GET /api/chores/{id}/schedule/rules", s.scheduleH.ListRules)
	mux.HandleFunc("POST /api/chores/{id}/schedule/rules", s.scheduleH.CreateRule)
	mux.HandleFunc("PUT /api/chores/{id}/schedule/rules/{rule_id}", s.scheduleH.UpdateRule)
	mux.HandleFunc("DELETE /api/chores/{id}/schedule/rules/{rule_id}", s.scheduleH.DeleteRule)
	mux.HandleFunc("GET /api/chores/{id}/schedule/exceptions", s.scheduleH.ListExceptions)
	mux.HandleFunc("POST /api/chores/{id}/schedule/exceptions", s.scheduleH.CreateException)
	mux.HandleFunc("PUT /api/chores/{id}/schedule/exceptions/{exception_id}", s.scheduleH.UpdateException)
	mux.HandleFunc("DELETE /api/chores/{id}/schedule/exceptions/{exception_id}", s.scheduleH.DeleteException)
	mux.HandleFunc("POST /api/chores/{id}/schedule/apply-template/{template_id}", s.scheduleH.ApplyTemplate)

	// Schedule templates
	mux.HandleFunc("GET /api/schedule/templates", s.templateH.List)
	mux.HandleFunc("POST /api/schedule/templates", s.templateH.Create)
	mux.HandleFunc("GET /api/schedule/templates/{id}", s.templateH.Get)
	mux.HandleFunc("DELETE /api/schedule/templates/{id}", s.templateH.Delete)

	// Completion history across all chores
	mux.HandleFunc("GET /api/completions", s.choreH.CompletionHistory)

	// Chore areas
	mux.HandleFunc("GET /api/areas", s.choreH.ListAreas)
	mux.HandleFunc("POST /api/areas", s.choreH.CreateArea)
	mux.HandleFunc("PUT /api/areas/{id}", s.choreH.UpdateArea)
	mux.HandleFunc("DELETE /api/areas/{id}", s.choreH.DeleteArea)
	mux.HandleFunc("PUT /api/areas/sort", s.choreH.UpdateAreaSortOrder)

	// Family members
	mux.HandleFunc("GET /api/family-members", s.familyMemberH.List)
	mux.HandleFunc("POST /api/family-members", s.familyMemberH.Create)
	mux.HandleFunc("GET /api/family-members/{id}", s.familyMemberH.Get)
	mux.HandleFunc("PUT /api/family-members/{id}", s.familyMemberH.Update)
	mux.HandleFunc("DELETE /api/family-members/{id}", s.familyMemberH.Delete)
	mux.HandleFunc("PUT /api/family-members/sort", s.familyMemberH.UpdateSortOrder)
	mux.HandleFunc("POST /api/family-members/{id}/pin", s.familyMemberH.SetPIN)
	mux.HandleFunc("DELETE /api/family-members/{id}/pin", s.familyMemberH.ClearPIN)
	mux.HandleFunc("POST /api/family-members/{id}/pin/verify", s.rateLimited(s.familyMemberH.VerifyPIN))

	// Availability grid
	mux.HandleFunc("GET /api/time-of-day-periods", s.periodH.List)
	mux.HandleFunc("POST /api/time-of-day-periods", s.periodH.Create)
	mux.HandleFunc("PUT /api/time-of-day-periods/{id}", s.periodH.Update)
	mux.HandleFunc("DELETE /api/time-of-day-periods/{id}", s.periodH.Delete)
	mux.HandleFunc("GET /api/family-members/{id}/availability", s.availabilityH.ListByMember)
	mux.HandleFunc("PUT /api/family-members/{id}/availability", s.availabilityH.Set)
	mux.HandleFunc("DELETE /api/family-members/{id}/availability", s.availabilityH.Clear)

	// Push notifications
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("POST /api/push/unsubscribe", s.pushH.UnsubscribeByEndpoint)
	mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
	mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
	mux.HandleFunc("POST /api/push/test", s.pushH.TestNotification)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 60, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
