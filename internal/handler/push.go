package handler

import (
	"net/http"

	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/middleware"
	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/model"
	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/push"
)

// PushHandler manages Web Push subscriptions for technician browsers.
type PushHandler struct {
	notifier  *push.Notifier
	publicKey string
}

func NewPushHandler(notifier *push.Notifier, publicKey string) *PushHandler {
	return &PushHandler{notifier: notifier, publicKey: publicKey}
}

// PublicKey exposes the VAPID public key the browser needs to subscribe.
func (h *PushHandler) PublicKey(w http.ResponseWriter, r *http.Request) {
	if h.publicKey == "" {
		writeError(w, http.StatusNotFound, "push disabled")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.publicKey})
}

func (h *PushHandler) technicianID(w http.ResponseWriter, r *http.Request) (string, bool) {
	if middleware.GetActorRole(r.Context()) != model.RoleTechnician {
		writeError(w, http.StatusForbidden, "technician role required")
		return "", false
	}
	return middleware.GetActorID(r.Context()), true
}

func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	techID, ok := h.technicianID(w, r)
	if !ok {
		return
	}
	var sub push.Subscription
	if err := decodeValid(r, &sub); err != nil || sub.Endpoint == "" {
		writeError(w, http.StatusBadRequest, "invalid subscription")
		return
	}
	if err := h.notifier.Subscribe(r.Context(), techID, sub); err != nil {
		writeServiceError(w, "push.Subscribe", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "subscribed"})
}

type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required"`
}

func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	techID, ok := h.technicianID(w, r)
	if !ok {
		return
	}
	var req UnsubscribeRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "endpoint is required")
		return
	}
	if err := h.notifier.Unsubscribe(r.Context(), techID, req.Endpoint); err != nil {
		writeServiceError(w, "push.Unsubscribe", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
