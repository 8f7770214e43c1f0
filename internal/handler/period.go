package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/chorenest/chorenest/internal/model"
	"github.com/chorenest/chorenest/internal/store"
)

var clockRegexp = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

type PeriodHandler struct {
	store  *store.PeriodStore
	logger *slog.Logger
}

func NewPeriodHandler(s *store.PeriodStore, logger *slog.Logger) *PeriodHandler {
	return &PeriodHandler{store: s, logger: logger}
}

type periodRequest struct {
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	SortOrder int    `json:"sort_order"`
}

func (req *periodRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}
	if !clockRegexp.MatchString(req.StartTime) {
		return "start_time must be HH:MM"
	}
	if !clockRegexp.MatchString(req.EndTime) {
		return "end_time must be HH:MM"
	}
	if req.EndTime <= req.StartTime {
		return "end_time must be after start_time"
	}
	return ""
}

func (h *PeriodHandler) List(w http.ResponseWriter, r *http.Request) {
	periods, err := h.store.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list periods")
		return
	}
	if periods == nil {
		periods = []model.TimeOfDayPeriod{}
	}
	respondData(w, http.StatusOK, periods)
}

func (h *PeriodHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req periodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if problem := req.validate(); problem != "" {
		respondError(w, http.StatusBadRequest, problem)
		return
	}

	period, err := h.store.Create(req.Name, req.StartTime, req.EndTime, req.SortOrder)
	if err != nil {
		h.logger.Error("create period", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create period")
		return
	}
	respondData(w, http.StatusCreated, period)
}

func (h *PeriodHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get period")
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "period not found")
		return
	}

	var req periodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if problem := req.validate(); problem != "" {
		respondError(w, http.StatusBadRequest, problem)
		return
	}

	period, err := h.store.Update(id, req.Name, req.StartTime, req.EndTime, req.SortOrder)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update period")
		return
	}
	respondData(w, http.StatusOK, period)
}

func (h *PeriodHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get period")
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "period not found")
		return
	}

	if err := h.store.Delete(id); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete period")
		return
	}
	respondMessage(w, http.StatusOK, "period deleted")
}
