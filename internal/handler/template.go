package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/chorenest/chorenest/internal/model"
	"github.com/chorenest/chorenest/internal/store"
)

type TemplateHandler struct {
	store  *store.TemplateStore
	logger *slog.Logger
}

func NewTemplateHandler(s *store.TemplateStore, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{store: s, logger: logger}
}

type templateRequest struct {
	Name              string                  `json:"name"`
	ScheduleType      model.ScheduleType      `json:"schedule_type"`
	RecurrencePattern model.RecurrencePattern `json:"recurrence_pattern"`
	IntervalValue     int                     `json:"interval_value"`
	Weekdays          []int                   `json:"weekdays"`
	MonthDays         []int                   `json:"month_days"`
	IsTimeSensitive   bool                    `json:"is_time_sensitive"`
	TimeOfDayID       *int64                  `json:"time_of_day_id"`
	Rules             []ruleRequest           `json:"rules"`
}

func (req *templateRequest) toTemplate() (*model.ScheduleTemplate, string) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, "name is required"
	}
	if req.ScheduleType == "" {
		req.ScheduleType = model.ScheduleRecurring
	}
	if !model.ValidSchedule(req.ScheduleType) {
		return nil, "unknown schedule_type"
	}
	if req.RecurrencePattern != "" && !model.ValidPattern(req.RecurrencePattern) {
		return nil, "unknown recurrence_pattern"
	}
	if req.IntervalValue < 1 {
		req.IntervalValue = 1
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

	tpl := &model.ScheduleTemplate{
		Name:              req.Name,
		ScheduleType:      req.ScheduleType,
		RecurrencePattern: req.RecurrencePattern,
		IntervalValue:     req.IntervalValue,
		Weekdays:          req.Weekdays,
		MonthDays:         req.MonthDays,
		IsTimeSensitive:   req.IsTimeSensitive,
		TimeOfDayID:       req.TimeOfDayID,
	}
	for _, r := range req.Rules {
		if problem := r.validate(); problem != "" {
			return nil, problem
		}
		tpl.Rules = append(tpl.Rules, model.TemplateRule{
			RuleType:  r.RuleType,
			RuleValue: r.RuleValue,
			Priority:  r.Priority,
		})
	}
	return tpl, ""
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.store.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list templates")
		return
	}
	if templates == nil {
		templates = []model.ScheduleTemplate{}
	}
	respondData(w, http.StatusOK, templates)
}

func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	tpl, err := h.store.GetByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get template")
		return
	}
	if tpl == nil {
		respondError(w, http.StatusNotFound, "template not found")
		return
	}
	respondData(w, http.StatusOK, tpl)
}

func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	tpl, problem := req.toTemplate()
	if problem != "" {
		respondError(w, http.StatusBadRequest, problem)
		return
	}

	created, err := h.store.Create(tpl)
	if err != nil {
		h.logger.Error("create template", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create template")
		return
	}
	respondData(w, http.StatusCreated, created)
}

func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get template")
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "template not found")
		return
	}

	if err := h.store.Delete(id); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete template")
		return
	}
	respondMessage(w, http.StatusOK, "template deleted")
}
