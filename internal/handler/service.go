package handler

import (
	"context"

	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/model"
)

// ChatService is the orchestrator surface the route layer depends on.
type ChatService interface {
	OpenRoom(ctx context.Context, customerID, displayName string) (*model.ChatRoom, error)
	Send(ctx context.Context, roomID string, role model.SenderRole, senderID, body string) (*model.Message, error)
	Messages(ctx context.Context, roomID string, limit, offset int) ([]model.Message, error)
	MarkRead(ctx context.Context, roomID string, role model.SenderRole, actorID string) (int, error)
	DeleteMessage(ctx context.Context, messageID string) (bool, error)
	ListRoomsForDashboard(ctx context.Context, page, limit int, statusFilter string) ([]model.RoomWithLastMessage, int, error)
	CloseRoom(ctx context.Context, roomID string) error
	ReopenRoom(ctx context.Context, roomID string) error
	UnreadSummary(ctx context.Context, technicianID string) (*model.UnreadSummary, error)
	MarkAllRead(ctx context.Context, technicianID string) (int, error)
	RecomputeUnread(ctx context.Context, technicianID, roomID string) (int, error)
}
