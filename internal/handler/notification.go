package handler

import (
	"net/http"

	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/middleware"
	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/model"
)

type NotificationHandler struct {
	svc ChatService
}

func NewNotificationHandler(svc ChatService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) technicianID(w http.ResponseWriter, r *http.Request) (string, bool) {
	if middleware.GetActorRole(r.Context()) != model.RoleTechnician {
		writeError(w, http.StatusForbidden, "technician role required")
		return "", false
	}
	return middleware.GetActorID(r.Context()), true
}

// Summary returns the technician's notification feed: per-room unread
// entries (newest activity first) plus the badge total.
func (h *NotificationHandler) Summary(w http.ResponseWriter, r *http.Request) {
	techID, ok := h.technicianID(w, r)
	if !ok {
		return
	}
	summary, err := h.svc.UnreadSummary(r.Context(), techID)
	if err != nil {
		writeServiceError(w, "notification.Summary", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type markAllReadResponse struct {
	Cleared int `json:"cleared"`
}

// MarkAllRead zeroes every counter of the calling technician. It does not
// change per-message read flags; rooms keep their own read state.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	techID, ok := h.technicianID(w, r)
	if !ok {
		return
	}
	count, err := h.svc.MarkAllRead(r.Context(), techID)
	if err != nil {
		writeServiceError(w, "notification.MarkAllRead", err)
		return
	}
	writeJSON(w, http.StatusOK, markAllReadResponse{Cleared: count})
}

type RecomputeRequest struct {
	TechnicianID string `json:"technician_id" validate:"required"`
	ChatRoomID   string `json:"chat_room_id" validate:"required"`
}

type recomputeResponse struct {
	UnreadCount int `json:"unread_count"`
}

// Recompute resyncs one (technician, room) counter from the message log.
// Admin-only maintenance endpoint; reconciles drift after deletions.
func (h *NotificationHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	var req RecomputeRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "technician_id and chat_room_id are required")
		return
	}
	count, err := h.svc.RecomputeUnread(r.Context(), req.TechnicianID, req.ChatRoomID)
	if err != nil {
		writeServiceError(w, "notification.Recompute", err)
		return
	}
	writeJSON(w, http.StatusOK, recomputeResponse{UnreadCount: count})
}
