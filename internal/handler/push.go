package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/chorenest/chorenest/internal/model"
	"github.com/chorenest/chorenest/internal/push"
	"github.com/chorenest/chorenest/internal/store"
)

type PushHandler struct {
	pushStore   *store.PushStore
	memberStore *store.FamilyMemberStore
	service     *push.Service
	logger      *slog.Logger
}

func NewPushHandler(ps *store.PushStore, ms *store.FamilyMemberStore, svc *push.Service, logger *slog.Logger) *PushHandler {
	return &PushHandler{pushStore: ps, memberStore: ms, service: svc, logger: logger}
}

type subscribeRequest struct {
	MemberID   *int64 `json:"member_id"`
	Endpoint   string `json:"endpoint"`
	P256dh     string `json:"p256dh"`
	Auth       string `json:"auth"`
	DeviceName string `json:"device_name"`
}

// Subscribe handles POST /api/push/subscribe. A subscription may be tied to a
// family member for targeted reminders, or anonymous for the shared display.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		respondError(w, http.StatusBadRequest, "endpoint, p256dh, and auth are required")
		return
	}

	if req.MemberID != nil {
		member, err := h.memberStore.GetByID(*req.MemberID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to get family member")
			return
		}
		if member == nil {
			respondError(w, http.StatusNotFound, "family member not found")
			return
		}
	}

	sub, err := h.pushStore.CreateSubscription(req.MemberID, req.Endpoint, req.P256dh, req.Auth, req.DeviceName)
	if err != nil {
		h.logger.Error("create push subscription", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to save subscription")
		return
	}

	respondData(w, http.StatusCreated, sub)
}

// Unsubscribe handles DELETE /api/push/subscriptions/{id}.
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.pushStore.GetByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get subscription")
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "subscription not found")
		return
	}

	if err := h.pushStore.DeleteSubscription(id); err != nil {
		h.logger.Error("delete push subscription", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to delete subscription")
		return
	}

	respondMessage(w, http.StatusOK, "subscription deleted")
}

// UnsubscribeByEndpoint handles POST /api/push/unsubscribe, for browsers that
// only know their endpoint URL.
func (h *PushHandler) UnsubscribeByEndpoint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Endpoint == "" {
		respondError(w, http.StatusBadRequest, "endpoint is required")
		return
	}

	if err := h.pushStore.DeleteByEndpoint(req.Endpoint); err != nil {
		h.logger.Error("delete push subscription by endpoint", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to delete subscription")
		return
	}

	respondMessage(w, http.StatusOK, "subscription deleted")
}

// ListSubscriptions handles GET /api/push/subscriptions, optionally filtered
// by ?member_id=N.
func (h *PushHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	var subs []model.PushSubscription
	var err error

	if raw := r.URL.Query().Get("member_id"); raw != "" {
		memberID, convErr := strconv.ParseInt(raw, 10, 64)
		if convErr != nil {
			respondError(w, http.StatusBadRequest, "member_id must be an integer")
			return
		}
		subs, err = h.pushStore.ListByMember(memberID)
	} else {
		subs, err = h.pushStore.List()
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}
	if subs == nil {
		subs = []model.PushSubscription{}
	}
	respondData(w, http.StatusOK, subs)
}

// GetVAPIDKey handles GET /api/push/vapid-key.
func (h *PushHandler) GetVAPIDKey(w http.ResponseWriter, r *http.Request) {
	if !h.service.Configured() {
		respondError(w, http.StatusServiceUnavailable, "push notifications are not configured")
		return
	}
	respondData(w, http.StatusOK, map[string]string{"public_key": h.service.VAPIDPublicKey()})
}

// TestNotification handles POST /api/push/test. Sends to every subscription,
// pruning any the push service reports as gone.
func (h *PushHandler) TestNotification(w http.ResponseWriter, r *http.Request) {
	if !h.service.Configured() {
		respondError(w, http.StatusServiceUnavailable, "push notifications are not configured")
		return
	}

	subs, err := h.pushStore.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}

	payload := push.Payload{
		Title: "Test Notification",
		Body:  "Push notifications are working!",
		URL:   "/settings",
		Tag:   "test",
	}

	sent := 0
	for _, sub := range subs {
		if err := h.service.Send(&sub, payload); err != nil {
			if errors.Is(err, push.ErrExpired) {
				h.pushStore.DeleteByEndpoint(sub.Endpoint)
				continue
			}
			h.logger.Error("test push send", "error", err)
			continue
		}
		sent++
	}

	respondData(w, http.StatusOK, map[string]int{"sent": sent})
}
