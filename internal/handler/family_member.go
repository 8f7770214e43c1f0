package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/chorenest/chorenest/internal/model"
	"github.com/chorenest/chorenest/internal/store"
	"github.com/chorenest/chorenest/internal/websocket"
	"golang.org/x/crypto/bcrypt"
)

var hexColorRegexp = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

const (
	defaultMemberColor = "#3B82F6"
	defaultMemberEmoji = "😀"
)

type FamilyMemberHandler struct {
	store  *store.FamilyMemberStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewFamilyMemberHandler(s *store.FamilyMemberStore, hub *websocket.Hub, logger *slog.Logger) *FamilyMemberHandler {
	return &FamilyMemberHandler{store: s, hub: hub, logger: logger}
}

func (h *FamilyMemberHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

func (h *FamilyMemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.store.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list family members")
		return
	}
	if members == nil {
		members = []model.FamilyMember{}
	}
	respondData(w, http.StatusOK, members)
}

func (h *FamilyMemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	member, err := h.store.GetByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get family member")
		return
	}
	if member == nil {
		respondError(w, http.StatusNotFound, "family member not found")
		return
	}
	respondData(w, http.StatusOK, member)
}

func (h *FamilyMemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Color       string `json:"color"`
		AvatarEmoji string `json:"avatar_emoji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	if req.Color == "" {
		req.Color = defaultMemberColor
	}
	if !hexColorRegexp.MatchString(req.Color) {
		respondError(w, http.StatusBadRequest, "color must be a hex color (e.g. #FF0000)")
		return
	}

	if req.AvatarEmoji == "" {
		req.AvatarEmoji = defaultMemberEmoji
	}

	exists, err := h.store.NameExists(req.Name, 0)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to check name")
		return
	}
	if exists {
		respondError(w, http.StatusConflict, "a family member with that name already exists")
		return
	}

	member, err := h.store.Create(req.Name, req.Color, req.AvatarEmoji)
	if err != nil {
		h.logger.Error("create family member", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create family member")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityMember, websocket.ActionCreated, member.ID, nil))
	respondData(w, http.StatusCreated, member)
}

func (h *FamilyMemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get family member")
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "family member not found")
		return
	}

	var req struct {
		Name        string `json:"name"`
		Color       string `json:"color"`
		AvatarEmoji string `json:"avatar_emoji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	if req.Color == "" {
		req.Color = existing.Color
	}
	if !hexColorRegexp.MatchString(req.Color) {
		respondError(w, http.StatusBadRequest, "color must be a hex color (e.g. #FF0000)")
		return
	}

	if req.AvatarEmoji == "" {
		req.AvatarEmoji = existing.AvatarEmoji
	}

	exists, err := h.store.NameExists(req.Name, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to check name")
		return
	}
	if exists {
		respondError(w, http.StatusConflict, "a family member with that name already exists")
		return
	}

	member, err := h.store.Update(id, req.Name, req.Color, req.AvatarEmoji)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update family member")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityMember, websocket.ActionUpdated, id, nil))
	respondData(w, http.StatusOK, member)
}

func (h *FamilyMemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get family member")
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "family member not found")
		return
	}

	if err := h.store.Delete(id); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete family member")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityMember, websocket.ActionDeleted, id, nil))
	respondMessage(w, http.StatusOK, "family member deleted")
}

func (h *FamilyMemberHandler) UpdateSortOrder(w http.ResponseWriter, r *http.Request) {
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

	if err := h.store.UpdateSortOrder(req.IDs); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update sort order")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityMember, websocket.ActionReordered, 0, nil))
	respondMessage(w, http.StatusOK, "sort order updated")
}

func (h *FamilyMemberHandler) SetPIN(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get family member")
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "family member not found")
		return
	}

	var req struct {
		PIN string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if len(req.PIN) != 4 || !isDigits(req.PIN) {
		respondError(w, http.StatusBadRequest, "PIN must be exactly 4 digits")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to hash PIN")
		return
	}

	if err := h.store.SetPIN(id, string(hash)); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to set PIN")
		return
	}

	respondMessage(w, http.StatusOK, "pin set")
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (h *FamilyMemberHandler) ClearPIN(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.store.ClearPIN(id); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to clear PIN")
		return
	}

	respondMessage(w, http.StatusOK, "pin cleared")
}

func (h *FamilyMemberHandler) VerifyPIN(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		PIN string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	hash, err := h.store.GetPINHash(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get PIN")
		return
	}
	if hash == "" {
		respondError(w, http.StatusBadRequest, "no PIN set for this member")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.PIN)); err != nil {
		respondError(w, http.StatusUnauthorized, "incorrect PIN")
		return
	}

	respondMessage(w, http.StatusOK, "verified")
}
