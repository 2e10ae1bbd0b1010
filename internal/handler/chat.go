package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/middleware"
	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/model"
)

type ChatHandler struct {
	svc ChatService
}

func NewChatHandler(svc ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type OpenRoomRequest struct {
	CustomerID  string `json:"customer_id"`
	DisplayName string `json:"display_name"`
}

// OpenRoom resolves (or lazily creates) the customer's room. Customers
// always open their own room; a technician may pass customer_id to look
// one up.
func (h *ChatHandler) OpenRoom(w http.ResponseWriter, r *http.Request) {
	var req OpenRoomRequest
	// The body is optional for customers; their identity is the room key.
	_ = decodeValid(r, &req)

	customerID := req.CustomerID
	if middleware.GetActorRole(r.Context()) == model.RoleCustomer {
		customerID = middleware.GetActorID(r.Context())
	}
	if customerID == "" {
		writeError(w, http.StatusBadRequest, "customer_id is required")
		return
	}

	room, err := h.svc.OpenRoom(r.Context(), customerID, req.DisplayName)
	if err != nil {
		writeServiceError(w, "chat.OpenRoom", err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

type roomListResponse struct {
	Rooms []model.RoomWithLastMessage `json:"rooms"`
	Total int                         `json:"total"`
	Page  int                         `json:"page"`
	Limit int                         `json:"limit"`
}

// ListRooms is the technician dashboard view, newest activity first.
// Supports ?page, ?limit and ?status=active|closed.
func (h *ChatHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)
	if limit > 100 {
		limit = 100
	}
	status := r.URL.Query().Get("status")

	rooms, total, err := h.svc.ListRoomsForDashboard(r.Context(), page, limit, status)
	if err != nil {
		writeServiceError(w, "chat.ListRooms", err)
		return
	}
	writeJSON(w, http.StatusOK, roomListResponse{Rooms: rooms, Total: total, Page: page, Limit: limit})
}

type SendMessageRequest struct {
	Body string `json:"body" validate:"required,max=4000"`
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "body is required")
		return
	}

	roomID := chi.URLParam(r, "roomID")
	role := middleware.GetActorRole(r.Context())
	actorID := middleware.GetActorID(r.Context())

	msg, err := h.svc.Send(r.Context(), roomID, role, actorID, req.Body)
	if err != nil {
		writeServiceError(w, "chat.SendMessage", err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

type messageListResponse struct {
	Messages []model.Message `json:"messages"`
}

// ListMessages returns the room log in insertion order (?limit, ?offset).
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	limit := queryInt(r, "limit", 50)
	if limit > 200 {
		limit = 200
	}
	offset := queryInt(r, "offset", 0)

	msgs, err := h.svc.Messages(r.Context(), roomID, limit, offset)
	if err != nil {
		writeServiceError(w, "chat.ListMessages", err)
		return
	}
	writeJSON(w, http.StatusOK, messageListResponse{Messages: msgs})
}

type markReadResponse struct {
	Marked int `json:"marked"`
}

// MarkRead flips the room's unread messages for the acting role. For
// technicians this also zeroes their notification counter for the room.
func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	role := middleware.GetActorRole(r.Context())
	actorID := middleware.GetActorID(r.Context())

	count, err := h.svc.MarkRead(r.Context(), roomID, role, actorID)
	if err != nil {
		writeServiceError(w, "chat.MarkRead", err)
		return
	}
	writeJSON(w, http.StatusOK, markReadResponse{Marked: count})
}

func (h *ChatHandler) CloseRoom(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.CloseRoom(r.Context(), chi.URLParam(r, "roomID")); err != nil {
		writeServiceError(w, "chat.CloseRoom", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

func (h *ChatHandler) ReopenRoom(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ReopenRoom(r.Context(), chi.URLParam(r, "roomID")); err != nil {
		writeServiceError(w, "chat.ReopenRoom", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "active"})
}

// DeleteMessage hard-removes a message. Deleting a message that is already
// gone is a 404, not an error state.
func (h *ChatHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.svc.DeleteMessage(r.Context(), chi.URLParam(r, "messageID"))
	if err != nil {
		writeServiceError(w, "chat.DeleteMessage", err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "message not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
