package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/chorenest/chorenest/internal/model"
	"github.com/chorenest/chorenest/internal/store"
)

type AvailabilityHandler struct {
	store       *store.AvailabilityStore
	memberStore *store.FamilyMemberStore
	periodStore *store.PeriodStore
	logger      *slog.Logger
}

func NewAvailabilityHandler(s *store.AvailabilityStore, ms *store.FamilyMemberStore, ps *store.PeriodStore, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{store: s, memberStore: ms, periodStore: ps, logger: logger}
}

func (h *AvailabilityHandler) requireMember(w http.ResponseWriter, id int64) bool {
	member, err := h.memberStore.GetByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get family member")
		return false
	}
	if member == nil {
		respondError(w, http.StatusNotFound, "family member not found")
		return false
	}
	return true
}

// ListByMember handles GET /api/members/{id}/availability.
func (h *AvailabilityHandler) ListByMember(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if !h.requireMember(w, id) {
		return
	}

	slots, err := h.store.ListByMember(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list availability")
		return
	}
	if slots == nil {
		slots = []model.AvailabilitySlot{}
	}
	respondData(w, http.StatusOK, slots)
}

// Set handles PUT /api/members/{id}/availability — one grid cell per request.
func (h *AvailabilityHandler) Set(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if !h.requireMember(w, id) {
		return
	}

	var req struct {
		Weekday   int   `json:"weekday"`
		PeriodID  int64 `json:"period_id"`
		Available bool  `json:"available"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.Weekday < 0 || req.Weekday > 6 {
		respondError(w, http.StatusBadRequest, "weekday must be 0-6")
		return
	}
	period, err := h.periodStore.GetByID(req.PeriodID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get period")
		return
	}
	if period == nil {
		respondError(w, http.StatusNotFound, "period not found")
		return
	}

	slot, err := h.store.Set(id, req.Weekday, req.PeriodID, req.Available)
	if err != nil {
		h.logger.Error("set availability", "member_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to set availability")
		return
	}
	respondData(w, http.StatusOK, slot)
}

// Clear handles DELETE /api/members/{id}/availability — the whole grid reads
// as available again.
func (h *AvailabilityHandler) Clear(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if !h.requireMember(w, id) {
		return
	}

	if err := h.store.ClearMember(id); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to clear availability")
		return
	}
	respondMessage(w, http.StatusOK, "availability cleared")
}
