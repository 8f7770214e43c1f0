package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chorenest/chorenest/internal/chore"
	"github.com/chorenest/chorenest/internal/model"
	"github.com/chorenest/chorenest/internal/schedule"
	"github.com/chorenest/chorenest/internal/store"
	"github.com/chorenest/chorenest/internal/websocket"
)

type ChoreHandler struct {
	choreStore  *store.ChoreStore
	memberStore *store.FamilyMemberStore
	scheduler   *schedule.Service
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewChoreHandler(cs *store.ChoreStore, ms *store.FamilyMemberStore, svc *schedule.Service, hub *websocket.Hub, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{choreStore: cs, memberStore: ms, scheduler: svc, hub: hub, logger: logger}
}

func (h *ChoreHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// warmCache regenerates occurrences so the next-occurrence cache reflects the
// chore's current schedule. Failures are logged, not surfaced: the cache is
// rebuilt on the next generation anyway.
func (h *ChoreHandler) warmCache(r *http.Request, choreID int64) {
	if h.scheduler == nil {
		return
	}
	if _, err := h.scheduler.GenerateOccurrences(r.Context(), choreID, schedule.DefaultCount); err != nil {
		h.logger.Warn("refresh occurrence cache", "chore_id", choreID, "error", err)
	}
}

type choreRequest struct {
	Title             string                  `json:"title"`
	Description       string                  `json:"description"`
	AreaID            *int64                  `json:"area_id"`
	Points            int                     `json:"points"`
	AssignedTo        *int64                  `json:"assigned_to"`
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

// toChore validates the request and builds a model.Chore, returning a
// human-readable problem when the payload is invalid.
func (req *choreRequest) toChore() (*model.Chore, string) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, "title is required"
	}

	if req.ScheduleType == "" {
		req.ScheduleType = model.ScheduleSimple
	}
	if !model.ValidSchedule(req.ScheduleType) {
		return nil, "unknown schedule_type"
	}
	if !model.ValidPattern(req.RecurrencePattern) {
		return nil, "unknown recurrence_pattern"
	}
	for _, d := range req.Weekdays {
		if d < 0 || d > 6 {
			return nil, "weekdays must be 0-6"
		}
	}
	for _, d := range req.MonthDays {
		if d < 1 || d > 31 {
			return nil, "month_days must be 1-31"
		}
	}
	if req.IntervalValue < 1 {
		req.IntervalValue = 1
	}

	start, err := parseOptionalDate(req.StartDate)
	if err != nil {
		return nil, "start_date must be YYYY-MM-DD"
	}
	end, err := parseOptionalDate(req.EndDate)
	if err != nil {
		return nil, "end_date must be YYYY-MM-DD"
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, "end_date must not be before start_date"
	}

	return &model.Chore{
		Title:             req.Title,
		Description:       req.Description,
		AreaID:            req.AreaID,
		Points:            req.Points,
		AssignedTo:        req.AssignedTo,
		ScheduleType:      req.ScheduleType,
		RecurrencePattern: req.RecurrencePattern,
		IntervalValue:     req.IntervalValue,
		Weekdays:          req.Weekdays,
		MonthDays:         req.MonthDays,
		StartDate:         start,
		EndDate:           end,
		IsTimeSensitive:   req.IsTimeSensitive,
		TimeOfDayID:       req.TimeOfDayID,
	}, ""
}

func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	c, problem := req.toChore()
	if problem != "" {
		respondError(w, http.StatusBadRequest, problem)
		return
	}

	if req.AssignedTo != nil {
		member, err := h.memberStore.GetByID(*req.AssignedTo)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to check family member")
			return
		}
		if member == nil {
			respondError(w, http.StatusBadRequest, "family member not found")
			return
		}
	}

	created, err := h.choreStore.Create(c)
	if err != nil {
		h.logger.Error("create chore", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create chore")
		return
	}

	h.warmCache(r, created.ID)
	created, err = h.choreStore.GetByID(created.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to reload chore")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityChore, websocket.ActionCreated, created.ID, nil))
	respondData(w, http.StatusCreated, created)
}

// List returns non-deleted chores, optionally filtered by ?assigned_to=N or
// ?area_id=N.
func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	var chores []model.Chore
	var err error

	switch {
	case r.URL.Query().Get("assigned_to") != "":
		var memberID int64
		memberID, err = strconv.ParseInt(r.URL.Query().Get("assigned_to"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "assigned_to must be an integer")
			return
		}
		chores, err = h.choreStore.ListByAssignee(memberID)
	case r.URL.Query().Get("area_id") != "":
		var areaID int64
		areaID, err = strconv.ParseInt(r.URL.Query().Get("area_id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "area_id must be an integer")
			return
		}
		chores, err = h.choreStore.ListByArea(areaID)
	default:
		chores, err = h.choreStore.List()
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list chores")
		return
	}
	if chores == nil {
		chores = []model.Chore{}
	}
	respondData(w, http.StatusOK, chores)
}

func (h *ChoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	c, err := h.choreStore.GetByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get chore")
		return
	}
	if c == nil || c.Status == model.ChoreDeleted {
		respondError(w, http.StatusNotFound, "chore not found")
		return
	}
	respondData(w, http.StatusOK, c)
}

// GetStatus returns the chore together with its computed due status.
func (h *ChoreHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	c, err := h.choreStore.GetByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get chore")
		return
	}
	if c == nil || c.Status == model.ChoreDeleted {
		respondError(w, http.StatusNotFound, "chore not found")
		return
	}

	var lastCompletion *time.Time
	if last, err := h.choreStore.LastCompletionForChore(id); err == nil && last != nil {
		lastCompletion = &last.CompletedAt
	}

	status, due := chore.ComputeStatus(*c, lastCompletion, time.Now().UTC())
	result := chore.ChoreWithStatus{
		Chore:          *c,
		Status:         status,
		DueDate:        due,
		LastCompletion: lastCompletion,
	}
	if c.AreaID != nil {
		if area, err := h.choreStore.GetAreaByID(*c.AreaID); err == nil && area != nil {
			result.AreaName = area.Name
		}
	}
	if c.AssignedTo != nil {
		if member, err := h.memberStore.GetByID(*c.AssignedTo); err == nil && member != nil {
			result.MemberName = member.Name
		}
	}
	respondData(w, http.StatusOK, result)
}

func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.choreStore.GetByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get chore")
		return
	}
	if existing == nil || existing.Status == model.ChoreDeleted {
		respondError(w, http.StatusNotFound, "chore not found")
		return
	}

	var req choreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	c, problem := req.toChore()
	if problem != "" {
		respondError(w, http.StatusBadRequest, problem)
		return
	}
	c.SortOrder = existing.SortOrder

	updated, err := h.choreStore.Update(id, c)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update chore")
		return
	}

	h.warmCache(r, id)
	updated, err = h.choreStore.GetByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to reload chore")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityChore, websocket.ActionUpdated, id, nil))
	respondData(w, http.StatusOK, updated)
}

type statusRequest struct {
	Status model.ChoreStatus `json:"status"`
}

// SetStatus pauses or resumes a chore. Deleting goes through Delete.
func (h *ChoreHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.choreStore.GetByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get chore")
		return
	}
	if existing == nil || existing.Status == model.ChoreDeleted {
		respondError(w, http.StatusNotFound, "chore not found")
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Status != model.ChoreActive && req.Status != model.ChorePaused {
		respondError(w, http.StatusBadRequest, "status must be ACTIVE or PAUSED")
		return
	}

	updated, err := h.choreStore.SetStatus(id, req.Status)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update status")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityChore, websocket.ActionUpdated, id, nil))
	respondData(w, http.StatusOK, updated)
}

func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.choreStore.GetByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get chore")
		return
	}
	if existing == nil || existing.Status == model.ChoreDeleted {
		respondError(w, http.StatusNotFound, "chore not found")
		return
	}

	if err := h.choreStore.Delete(id); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete chore")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityChore, websocket.ActionDeleted, id, nil))
	respondMessage(w, http.StatusOK, "chore deleted")
}

func (h *ChoreHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.choreStore.GetByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get chore")
		return
	}
	if existing == nil || existing.Status == model.ChoreDeleted {
		respondError(w, http.StatusNotFound, "chore not found")
		return
	}

	var req struct {
		CompletedBy *int64 `json:"completed_by"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	completion, err := h.choreStore.CreateCompletion(id, req.CompletedBy)
	if err != nil {
		h.logger.Error("complete chore", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to complete chore")
		return
	}

	// Completing advances the next occurrence.
	h.warmCache(r, id)

	h.broadcast(websocket.NewMessage(websocket.EntityChore, websocket.ActionCompleted, id, nil))
	respondData(w, http.StatusCreated, completion)
}

func (h *ChoreHandler) UndoComplete(w http.ResponseWriter, r *http.Request) {
	completionID, err := parsePathID(r, "completion_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid completion_id")
		return
	}

	if err := h.choreStore.DeleteCompletion(completionID); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to undo completion")
		return
	}

	choreID, _ := parseIDParam(r)
	h.broadcast(websocket.NewMessage(websocket.EntityChore, websocket.ActionCompletionUndone, choreID, nil))
	respondMessage(w, http.StatusOK, "completion undone")
}

// CompletionHistory handles GET /api/completions?start_date=…&end_date=…,
// the raw completion log across all chores.
func (h *ChoreHandler) CompletionHistory(w http.ResponseWriter, r *http.Request) {
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

	completions, err := h.choreStore.ListCompletionsByDateRange(start, end)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list completions")
		return
	}
	if completions == nil {
		completions = []model.ChoreCompletion{}
	}
	respondData(w, http.StatusOK, completions)
}

func (h *ChoreHandler) ListCompletions(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	completions, err := h.choreStore.ListCompletionsByChore(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list completions")
		return
	}
	if completions == nil {
		completions = []model.ChoreCompletion{}
	}
	respondData(w, http.StatusOK, completions)
}

// --- Area endpoints ---

func (h *ChoreHandler) ListAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := h.choreStore.ListAreas()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list areas")
		return
	}
	if areas == nil {
		areas = []model.ChoreArea{}
	}
	respondData(w, http.StatusOK, areas)
}

type areaRequest struct {
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

func (h *ChoreHandler) CreateArea(w http.ResponseWriter, r *http.Request) {
	var req areaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	area, err := h.choreStore.CreateArea(req.Name, req.SortOrder)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create area")
		return
	}
	respondData(w, http.StatusCreated, area)
}

func (h *ChoreHandler) UpdateArea(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.choreStore.GetAreaByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get area")
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "area not found")
		return
	}

	var req areaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	area, err := h.choreStore.UpdateArea(id, req.Name, req.SortOrder)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update area")
		return
	}
	respondData(w, http.StatusOK, area)
}

// UpdateAreaSortOrder reorders areas to match the given id list.
func (h *ChoreHandler) UpdateAreaSortOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []int64 `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.IDs) == 0 {
		respondError(w, http.StatusBadRequest, "ids are required")
		return
	}

	if err := h.choreStore.UpdateAreaSortOrder(req.IDs); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update sort order")
		return
	}
	respondMessage(w, http.StatusOK, "sort order updated")
}

func (h *ChoreHandler) DeleteArea(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.choreStore.GetAreaByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get area")
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "area not found")
		return
	}

	if err := h.choreStore.DeleteArea(id); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete area")
		return
	}
	respondMessage(w, http.StatusOK, "area deleted")
}
