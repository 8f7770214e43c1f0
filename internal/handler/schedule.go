package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/chorenest/chorenest/internal/model"
	"github.com/chorenest/chorenest/internal/schedule"
	"github.com/chorenest/chorenest/internal/store"
	"github.com/chorenest/chorenest/internal/websocket"
)

// maxOccurrenceCount caps a single generation request.
const maxOccurrenceCount = 100

type ScheduleHandler struct {
	scheduler     *schedule.Service
	scheduleStore *store.ScheduleStore
	choreStore    *store.ChoreStore
	hub           *websocket.Hub
	logger        *slog.Logger
}

func NewScheduleHandler(svc *schedule.Service, ss *store.ScheduleStore, cs *store.ChoreStore, hub *websocket.Hub, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{scheduler: svc, scheduleStore: ss, choreStore: cs, hub: hub, logger: logger}
}

func (h *ScheduleHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// requireChore loads the chore and writes the error response itself when it
// cannot. Soft-deleted chores read as missing.
func (h *ScheduleHandler) requireChore(w http.ResponseWriter, id int64) *model.Chore {
	c, err := h.choreStore.GetByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get chore")
		return nil
	}
	if c == nil || c.Status == model.ChoreDeleted {
		respondError(w, http.StatusNotFound, "chore not found")
		return nil
	}
	return c
}

// UpdateSchedule handles PUT /api/chores/{id}/schedule: it replaces the
// chore's schedule-shape fields and regenerates occurrences.
func (h *ScheduleHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	existing := h.requireChore(w, id)
	if existing == nil {
		return
	}

	var req struct {
		ScheduleType      model.ScheduleType      `json:"schedule_type"`
		RecurrencePattern model.RecurrencePattern `json:"recurrence_pattern"`
		IntervalValue     int                     `json:"interval_value"`
		Weekdays          []int                   `json:"weekdays"`
		MonthDays         []int                   `json:"month_days"`
		StartDate         *string                 `json:"start_date"`
		EndDate           *string                 `json:"end_date"`
		IsTimeSensitive   bool                    `json:"is_time_sensitive"`
		TimeOfDayID       *int64                  `json:"time_of_day_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.ScheduleType == "" {
		req.ScheduleType = model.ScheduleSimple
	}
	if !model.ValidSchedule(req.ScheduleType) {
		respondError(w, http.StatusBadRequest, "unknown schedule_type")
		return
	}
	if !model.ValidPattern(req.RecurrencePattern) {
		respondError(w, http.StatusBadRequest, "unknown recurrence_pattern")
		return
	}
	for _, d := range req.Weekdays {
		if d < 0 || d > 6 {
			respondError(w, http.StatusBadRequest, "weekdays must be 0-6")
			return
		}
	}
	for _, d := range req.MonthDays {
		if d < 1 || d > 31 {
			respondError(w, http.StatusBadRequest, "month_days must be 1-31")
			return
		}
	}
	if req.IntervalValue < 1 {
		req.IntervalValue = 1
	}
	start, err := parseOptionalDate(req.StartDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}
	end, err := parseOptionalDate(req.EndDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		return
	}
	if start != nil && end != nil && end.Before(*start) {
		respondError(w, http.StatusBadRequest, "end_date must not be before start_date")
		return
	}

	updated := *existing
	updated.ScheduleType = req.ScheduleType
	updated.RecurrencePattern = req.RecurrencePattern
	updated.IntervalValue = req.IntervalValue
	updated.Weekdays = req.Weekdays
	updated.MonthDays = req.MonthDays
	updated.StartDate = start
	updated.EndDate = end
	updated.IsTimeSensitive = req.IsTimeSensitive
	updated.TimeOfDayID = req.TimeOfDayID

	if _, err := h.choreStore.Update(id, &updated); err != nil {
		h.logger.Error("update schedule", "chore_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to update schedule")
		return
	}

	// Regenerate so the next-occurrence cache reflects the new shape.
	if _, err := h.scheduler.GenerateOccurrences(r.Context(), id, 0); err != nil {
		h.logger.Warn("refresh occurrence cache", "chore_id", id, "error", err)
	}

	reloaded, err := h.choreStore.GetByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to reload chore")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntitySchedule, websocket.ActionUpdated, id, nil))
	respondData(w, http.StatusOK, reloaded)
}

// Occurrences handles GET /api/chores/{id}/schedule and
// GET /api/chores/{id}/schedule/occurrences?count=N.
func (h *ScheduleHandler) Occurrences(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	count := 0
	if raw := r.URL.Query().Get("count"); raw != "" {
		count, err = strconv.Atoi(raw)
		if err != nil || count < 1 {
			respondError(w, http.StatusBadRequest, "count must be a positive integer")
			return
		}
		if count > maxOccurrenceCount {
			count = maxOccurrenceCount
		}
	}

	occs, err := h.scheduler.GenerateOccurrences(r.Context(), id, count)
	if err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			respondError(w, http.StatusNotFound, "chore not found")
			return
		}
		h.logger.Error("generate occurrences", "chore_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to generate occurrences")
		return
	}
	if occs == nil {
		occs = []schedule.Occurrence{}
	}
	respondData(w, http.StatusOK, occs)
}

// DueToday handles GET /api/chores/due/today. It reads the stored
// next_occurrence cache rather than regenerating, so it stays cheap enough
// for dashboards polling it.
func (h *ScheduleHandler) DueToday(w http.ResponseWriter, r *http.Request) {
	chores, err := h.choreStore.ListDueOn(time.Now().UTC())
	if err != nil {
		h.logger.Error("due today", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list due chores")
		return
	}
	if chores == nil {
		chores = []model.Chore{}
	}
	respondData(w, http.StatusOK, chores)
}

// DueRange handles GET /api/chores/due/range?start_date=…&end_date=….
func (h *ScheduleHandler) DueRange(w http.ResponseWriter, r *http.Request) {
	start, err := time.Parse("2006-01-02", r.URL.Query().Get("start_date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", r.URL.Query().Get("end_date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		respondError(w, http.StatusBadRequest, "end_date must not be before start_date")
		return
	}
	h.dueRange(w, r, start, end)
}

func (h *ScheduleHandler) dueRange(w http.ResponseWriter, r *http.Request, start, end time.Time) {
	occs, err := h.scheduler.DueInRange(r.Context(), start, end)
	if err != nil {
		h.logger.Error("due range", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to compute due chores")
		return
	}
	if occs == nil {
		occs = []schedule.Occurrence{}
	}
	respondData(w, http.StatusOK, occs)
}

// --- Rule endpoints ---

type ruleRequest struct {
	RuleType  model.RuleType  `json:"rule_type"`
	RuleValue model.RuleValue `json:"rule_value"`
	Priority  int             `json:"priority"`
}

func (req *ruleRequest) validate() string {
	if !model.ValidRule(req.RuleType) {
		return "unknown rule_type"
	}
	switch req.RuleType {
	case model.RuleDayOfWeek, model.RuleExcludeDays:
		for _, d := range req.RuleValue.Days {
			if d < 0 || d > 6 {
				return "days must be 0-6"
			}
		}
	case model.RuleDayOfMonth:
		for _, d := range req.RuleValue.Days {
			if d < 1 || d > 31 {
				return "days must be 1-31"
			}
		}
	case model.RuleLastOfMonth:
		if req.RuleValue.Type != model.LastDay && req.RuleValue.Type != model.LastWorkday {
			return "type must be LAST_DAY or LAST_WORKDAY"
		}
	case model.RuleInterval:
		if req.RuleValue.Interval < 1 {
			return "interval must be at least 1"
		}
		if req.RuleValue.ReferenceDate != "" {
			if _, err := time.Parse("2006-01-02", req.RuleValue.ReferenceDate); err != nil {
				return "reference_date must be YYYY-MM-DD"
			}
		}
	}
	return ""
}

// ListRules handles GET /api/chores/{id}/schedule/rules.
func (h *ScheduleHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if h.requireChore(w, id) == nil {
		return
	}

	rules, err := h.scheduleStore.ListRules(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list rules")
		return
	}
	if rules == nil {
		rules = []model.ScheduleRule{}
	}
	respondData(w, http.StatusOK, rules)
}

// CreateRule handles POST /api/chores/{id}/schedule/rules.
func (h *ScheduleHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if h.requireChore(w, id) == nil {
		return
	}

	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if problem := req.validate(); problem != "" {
		respondError(w, http.StatusBadRequest, problem)
		return
	}

	rule, err := h.scheduleStore.CreateRule(id, req.RuleType, req.RuleValue, req.Priority)
	if err != nil {
		h.logger.Error("create rule", "chore_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create rule")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntitySchedule, websocket.ActionRulesChanged, id, nil))
	respondData(w, http.StatusCreated, rule)
}

// UpdateRule handles PUT /api/chores/{id}/schedule/rules/{rule_id}.
func (h *ScheduleHandler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(r, "rule_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid rule_id")
		return
	}

	existing, err := h.scheduleStore.GetRuleByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get rule")
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "rule not found")
		return
	}

	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if problem := req.validate(); problem != "" {
		respondError(w, http.StatusBadRequest, problem)
		return
	}

	rule, err := h.scheduleStore.UpdateRule(id, req.RuleType, req.RuleValue, req.Priority)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update rule")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntitySchedule, websocket.ActionRulesChanged, existing.ChoreID, nil))
	respondData(w, http.StatusOK, rule)
}

// DeleteRule handles DELETE /api/chores/{id}/schedule/rules/{rule_id}.
func (h *ScheduleHandler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(r, "rule_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid rule_id")
		return
	}

	existing, err := h.scheduleStore.GetRuleByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get rule")
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "rule not found")
		return
	}

	if err := h.scheduleStore.DeleteRule(id); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete rule")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntitySchedule, websocket.ActionRulesChanged, existing.ChoreID, nil))
	respondMessage(w, http.StatusOK, "rule deleted")
}

// --- Exception endpoints ---

type exceptionRequest struct {
	ExceptionDate   string  `json:"exception_date"`
	RescheduledDate *string `json:"rescheduled_date"`
	Reason          string  `json:"reason"`
}

// ListExceptions handles GET /api/chores/{id}/schedule/exceptions.
func (h *ScheduleHandler) ListExceptions(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if h.requireChore(w, id) == nil {
		return
	}

	excs, err := h.scheduleStore.ListExceptions(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list exceptions")
		return
	}
	if excs == nil {
		excs = []model.ScheduleException{}
	}
	respondData(w, http.StatusOK, excs)
}

// CreateException handles POST /api/chores/{id}/schedule/exceptions. Omitting
// rescheduled_date cancels the occurrence; providing it moves the occurrence.
func (h *ScheduleHandler) CreateException(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if h.requireChore(w, id) == nil {
		return
	}

	var req exceptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	excDate, err := time.Parse("2006-01-02", req.ExceptionDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "exception_date must be YYYY-MM-DD")
		return
	}
	reDate, err := parseOptionalDate(req.RescheduledDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "rescheduled_date must be YYYY-MM-DD")
		return
	}

	exc, err := h.scheduleStore.CreateException(id, excDate, reDate, req.Reason)
	if err != nil {
		h.logger.Error("create exception", "chore_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create exception")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntitySchedule, websocket.ActionExceptionsChanged, id, nil))
	respondData(w, http.StatusCreated, exc)
}

// UpdateException handles PUT /api/chores/{id}/schedule/exceptions/{exception_id}.
func (h *ScheduleHandler) UpdateException(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(r, "exception_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid exception_id")
		return
	}

	existing, err := h.scheduleStore.GetExceptionByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get exception")
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "exception not found")
		return
	}

	var req exceptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	excDate, err := time.Parse("2006-01-02", req.ExceptionDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "exception_date must be YYYY-MM-DD")
		return
	}
	reDate, err := parseOptionalDate(req.RescheduledDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "rescheduled_date must be YYYY-MM-DD")
		return
	}

	exc, err := h.scheduleStore.UpdateException(id, excDate, reDate, req.Reason)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update exception")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntitySchedule, websocket.ActionExceptionsChanged, existing.ChoreID, nil))
	respondData(w, http.StatusOK, exc)
}

// DeleteException handles DELETE /api/chores/{id}/schedule/exceptions/{exception_id}.
func (h *ScheduleHandler) DeleteException(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(r, "exception_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid exception_id")
		return
	}

	existing, err := h.scheduleStore.GetExceptionByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get exception")
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "exception not found")
		return
	}

	if err := h.scheduleStore.DeleteException(id); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete exception")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntitySchedule, websocket.ActionExceptionsChanged, existing.ChoreID, nil))
	respondMessage(w, http.StatusOK, "exception deleted")
}

// ApplyTemplate handles POST /api/chores/{id}/schedule/apply-template/{template_id}.
func (h *ScheduleHandler) ApplyTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	templateID, err := parsePathID(r, "template_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid template_id")
		return
	}

	updated, err := h.scheduler.ApplyTemplate(r.Context(), id, templateID)
	if err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			respondError(w, http.StatusNotFound, "chore or template not found")
			return
		}
		h.logger.Error("apply template", "chore_id", id, "template_id", templateID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to apply template")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntitySchedule, websocket.ActionTemplateApplied, id, map[string]any{"template_id": templateID}))
	respondData(w, http.StatusOK, updated)
}
