// Package service holds the chat orchestrator: the only component the
// route layer talks to. It composes the room store, the message store and
// the notification ledger and sequences the cross-store invariants
// (append+increment fan-out, mark-read+ledger-reset).
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/config"
	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/logger"
	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/model"
	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/repository"
	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/storage"
	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/ws"
)

// ErrInvalidArgument marks validation failures (empty body, unknown role or
// status, malformed pagination). It is the repository sentinel re-exported so
// callers match one error regardless of which layer rejected the input.
// Wrapped with context; match via errors.Is.
var ErrInvalidArgument = repository.ErrInvalidArgument

// RoomStore owns ChatRoom records.
type RoomStore interface {
	GetOrCreate(ctx context.Context, customerID, displayName string) (room *model.ChatRoom, created bool, err error)
	GetByID(ctx context.Context, id string) (*model.ChatRoom, error)
	List(ctx context.Context, page, pageSize int) ([]model.ChatRoom, int, error)
	ListByStatus(ctx context.Context, status model.RoomStatus) ([]model.ChatRoom, error)
	SetStatus(ctx context.Context, roomID string, status model.RoomStatus) error
	AssignTechnician(ctx context.Context, roomID, technicianID string) error
}

// MessageStore owns the append-only per-room message log.
type MessageStore interface {
	Append(ctx context.Context, m *model.Message) error
	GetByID(ctx context.Context, id string) (*model.Message, error)
	ListByRoom(ctx context.Context, roomID string, limit, offset int) ([]model.Message, error)
	GetLastMessage(ctx context.Context, roomID string) (*model.Message, error)
	Delete(ctx context.Context, id string) (bool, error)
	MarkReadByCustomer(ctx context.Context, roomID string) (int, error)
	MarkReadByTechnician(ctx context.Context, roomID, technicianID string) (int, error)
	CountUnreadForRoom(ctx context.Context, roomID string) (int, error)
}

// NotificationLedger owns the per-(technician, room) unread counters.
type NotificationLedger interface {
	IncrementForMessage(ctx context.Context, technicianID, roomID, messageID string) (bool, error)
	Reset(ctx context.Context, technicianID, roomID string) error
	ListForTechnician(ctx context.Context, technicianID string) ([]model.NotificationEntry, error)
	TotalUnread(ctx context.Context, technicianID string) (int, error)
	ResetAll(ctx context.Context, technicianID string) (int, error)
	SetCount(ctx context.Context, technicianID, roomID string, count int) error
}

// TechnicianDirectory resolves the notification fan-out targets.
type TechnicianDirectory interface {
	ActiveIDs(ctx context.Context) ([]string, error)
}

// Notifier delivers out-of-band (Web Push) notifications. Best-effort.
type Notifier interface {
	Notify(ctx context.Context, technicianID, title, body string, data map[string]string)
}

// EventSink pushes live events to connected dashboards.
type EventSink interface {
	SendToActor(role model.SenderRole, id string, msg ws.OutgoingMessage)
	BroadcastToTechnicians(ids []string, msg ws.OutgoingMessage)
}

// ChatService orchestrates rooms, messages and the notification ledger.
// The hub, notifier and cache are optional (nil disables them); stores are
// required.
type ChatService struct {
	rooms    RoomStore
	messages MessageStore
	ledger   NotificationLedger
	techs    TechnicianDirectory
	cache    storage.Store
	hub      EventSink
	notifier Notifier
	policy   config.PoolPolicy
}

func NewChatService(
	rooms RoomStore,
	messages MessageStore,
	ledger NotificationLedger,
	techs TechnicianDirectory,
	cache storage.Store,
	hub EventSink,
	notifier Notifier,
	policy config.PoolPolicy,
) *ChatService {
	if policy == "" {
		policy = config.PoolBroadcast
	}
	return &ChatService{
		rooms:    rooms,
		messages: messages,
		ledger:   ledger,
		techs:    techs,
		cache:    cache,
		hub:      hub,
		notifier: notifier,
		policy:   policy,
	}
}

// OpenRoom resolves or lazily creates the customer's single room.
func (s *ChatService) OpenRoom(ctx context.Context, customerID, displayName string) (*model.ChatRoom, error) {
	defer logger.DeferLogDuration("chat.OpenRoom", time.Now())()
	if customerID == "" {
		return nil, fmt.Errorf("%w: customer id is empty", ErrInvalidArgument)
	}
	room, created, err := s.rooms.GetOrCreate(ctx, customerID, displayName)
	if err != nil {
		return nil, err
	}
	if created && s.hub != nil {
		if ids, err := s.techs.ActiveIDs(ctx); err == nil {
			s.hub.BroadcastToTechnicians(ids, ws.OutgoingMessage{Type: ws.EventRoomOpened, Payload: room})
		}
	}
	return room, nil
}

// Send appends a message to the room log. Customer messages fan out ledger
// increments to the technician pool; the append is the primary guarantee
// and never fails because of the fan-out.
func (s *ChatService) Send(ctx context.Context, roomID string, role model.SenderRole, senderID, body string) (*model.Message, error) {
	defer logger.DeferLogDuration("chat.Send", time.Now())()
	if !model.ValidSenderRole(role) {
		return nil, fmt.Errorf("%w: unknown sender role %q", ErrInvalidArgument, role)
	}
	if senderID == "" {
		return nil, fmt.Errorf("%w: sender id is empty", ErrInvalidArgument)
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: message body is empty", ErrInvalidArgument)
	}

	m := &model.Message{
		ID:         uuid.New().String(),
		ChatRoomID: roomID,
		SenderRole: role,
		SenderID:   senderID,
		Body:       body,
		// The author's own side is implicitly read.
		ReadByCustomer: role == model.RoleCustomer,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.messages.Append(ctx, m); err != nil {
		return nil, err
	}

	if role == model.RoleCustomer {
		s.fanOutNotifications(ctx, m)
	} else if s.hub != nil {
		if room, err := s.rooms.GetByID(ctx, roomID); err == nil {
			s.hub.SendToActor(model.RoleCustomer, room.CustomerID, ws.OutgoingMessage{Type: ws.EventNewMessage, Payload: m})
		}
	}
	return m, nil
}

// fanOutNotifications increments the ledger for every pool target of a new
// customer message. Each increment is idempotent per message, retried once,
// and a persistent failure is logged as a missed notification; the send
// itself is already committed and is never rolled back here.
func (s *ChatService) fanOutNotifications(ctx context.Context, m *model.Message) {
	room, err := s.rooms.GetByID(ctx, m.ChatRoomID)
	if err != nil {
		logger.Errorf("chat.Send fan-out: room %s: %v", m.ChatRoomID, err)
		return
	}

	targets, err := s.poolTargets(ctx, room)
	if err != nil {
		logger.Errorf("chat.Send fan-out: resolve pool room=%s: %v", room.ID, err)
		return
	}

	for _, techID := range targets {
		if _, err := s.ledger.IncrementForMessage(ctx, techID, room.ID, m.ID); err != nil {
			logger.Errorf("chat.Send fan-out: increment technician=%s room=%s: %v (retrying)", techID, room.ID, err)
			if _, err = s.ledger.IncrementForMessage(ctx, techID, room.ID, m.ID); err != nil {
				logger.Errorf("chat.Send fan-out: missed notification technician=%s room=%s message=%s: %v", techID, room.ID, m.ID, err)
				continue
			}
		}
		if s.cache != nil {
			if err := s.cache.InvalidateUnreadTotal(ctx, techID); err != nil {
				logger.Errorf("chat.Send fan-out: invalidate cache technician=%s: %v", techID, err)
			}
		}
		if s.notifier != nil {
			title := "New message from " + room.CustomerName
			if room.CustomerName == "" {
				title = "New customer message"
			}
			s.notifier.Notify(ctx, techID, title, m.Body, map[string]string{"chat_room_id": room.ID})
		}
	}

	if s.hub != nil {
		s.hub.BroadcastToTechnicians(targets, ws.OutgoingMessage{Type: ws.EventNewMessage, Payload: m})
		s.hub.BroadcastToTechnicians(targets, ws.OutgoingMessage{
			Type:    ws.EventNotificationUpdate,
			Payload: ws.NotificationUpdatePayload{ChatRoomID: room.ID},
		})
	}
}

// poolTargets applies the pool policy: with claim, an assigned room
// notifies only its assignee; everything else broadcasts to every active
// technician.
func (s *ChatService) poolTargets(ctx context.Context, room *model.ChatRoom) ([]string, error) {
	if s.policy == config.PoolClaim && room.AssignedTechnicianID != nil && *room.AssignedTechnicianID != "" {
		return []string{*room.AssignedTechnicianID}, nil
	}
	return s.techs.ActiveIDs(ctx)
}

// MarkRead transitions the room's read state for the acting role and
// returns the number of messages flipped. For technicians the ledger reset
// is coupled here; it is never exposed as a separate step.
func (s *ChatService) MarkRead(ctx context.Context, roomID string, role model.SenderRole, actorID string) (int, error) {
	defer logger.DeferLogDuration("chat.MarkRead", time.Now())()
	if actorID == "" {
		return 0, fmt.Errorf("%w: actor id is empty", ErrInvalidArgument)
	}
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return 0, err
	}

	var count int
	switch role {
	case model.RoleCustomer:
		count, err = s.messages.MarkReadByCustomer(ctx, roomID)
		if err != nil {
			return 0, err
		}
	case model.RoleTechnician:
		count, err = s.messages.MarkReadByTechnician(ctx, roomID, actorID)
		if err != nil {
			return 0, err
		}
		// The reset is authoritative even when count is zero.
		if err := s.ledger.Reset(ctx, actorID, roomID); err != nil {
			return 0, err
		}
		if s.cache != nil {
			if err := s.cache.InvalidateUnreadTotal(ctx, actorID); err != nil {
				logger.Errorf("chat.MarkRead invalidate cache technician=%s: %v", actorID, err)
			}
		}
		if s.policy == config.PoolClaim {
			if err := s.rooms.AssignTechnician(ctx, roomID, actorID); err != nil {
				logger.Errorf("chat.MarkRead claim room=%s technician=%s: %v", roomID, actorID, err)
			}
		}
		if s.hub != nil {
			s.hub.SendToActor(model.RoleTechnician, actorID, ws.OutgoingMessage{
				Type:    ws.EventNotificationUpdate,
				Payload: ws.NotificationUpdatePayload{ChatRoomID: roomID},
			})
		}
	default:
		return 0, fmt.Errorf("%w: unknown role %q", ErrInvalidArgument, role)
	}

	if s.hub != nil && count > 0 {
		read := ws.OutgoingMessage{
			Type:    ws.EventMessagesRead,
			Payload: ws.MessagesReadPayload{ChatRoomID: roomID, Role: string(role), ActorID: actorID, Count: count},
		}
		s.hub.SendToActor(model.RoleCustomer, room.CustomerID, read)
	}
	return count, nil
}

// DeleteMessage hard-removes a message; false means it did not exist.
// Ledger counters already incremented for the message are left as-is
// (documented drift; RecomputeUnread reconciles out-of-band).
func (s *ChatService) DeleteMessage(ctx context.Context, messageID string) (bool, error) {
	defer logger.DeferLogDuration("chat.DeleteMessage", time.Now())()
	m, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	deleted, err := s.messages.Delete(ctx, messageID)
	if err != nil || !deleted {
		return deleted, err
	}
	if s.hub != nil {
		payload := ws.MessageDeletedPayload{MessageID: messageID, ChatRoomID: m.ChatRoomID}
		if room, err := s.rooms.GetByID(ctx, m.ChatRoomID); err == nil {
			s.hub.SendToActor(model.RoleCustomer, room.CustomerID, ws.OutgoingMessage{Type: ws.EventMessageDeleted, Payload: payload})
		}
		if ids, err := s.techs.ActiveIDs(ctx); err == nil {
			s.hub.BroadcastToTechnicians(ids, ws.OutgoingMessage{Type: ws.EventMessageDeleted, Payload: payload})
		}
	}
	return true, nil
}

// ListRoomsForDashboard returns the paged dashboard view ordered by last
// activity, optionally filtered by status (the filtered view is unpaged,
// bounded by operational room counts).
func (s *ChatService) ListRoomsForDashboard(ctx context.Context, page, limit int, statusFilter string) ([]model.RoomWithLastMessage, int, error) {
	defer logger.DeferLogDuration("chat.ListRoomsForDashboard", time.Now())()

	var (
		rooms []model.ChatRoom
		total int
		err   error
	)
	if statusFilter != "" {
		status := model.RoomStatus(statusFilter)
		if !model.ValidRoomStatus(status) {
			return nil, 0, fmt.Errorf("%w: unknown room status %q", ErrInvalidArgument, statusFilter)
		}
		rooms, err = s.rooms.ListByStatus(ctx, status)
		total = len(rooms)
	} else {
		rooms, total, err = s.rooms.List(ctx, page, limit)
	}
	if err != nil {
		return nil, 0, err
	}

	result := make([]model.RoomWithLastMessage, 0, len(rooms))
	for i := range rooms {
		last, err := s.messages.GetLastMessage(ctx, rooms[i].ID)
		if err != nil {
			logger.Errorf("chat.ListRoomsForDashboard last message room=%s: %v", rooms[i].ID, err)
		}
		result = append(result, model.RoomWithLastMessage{Room: rooms[i], LastMessage: last})
	}
	return result, total, nil
}

// Messages returns the room log in insertion order.
func (s *ChatService) Messages(ctx context.Context, roomID string, limit, offset int) ([]model.Message, error) {
	defer logger.DeferLogDuration("chat.Messages", time.Now())()
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return nil, err
	}
	return s.messages.ListByRoom(ctx, roomID, limit, offset)
}

// UnreadSummary returns the technician's dashboard feed and badge total.
// The total is served through the short-TTL cache; a slightly stale badge
// is acceptable, the entries always come from the ledger.
func (s *ChatService) UnreadSummary(ctx context.Context, technicianID string) (*model.UnreadSummary, error) {
	defer logger.DeferLogDuration("chat.UnreadSummary", time.Now())()
	if technicianID == "" {
		return nil, fmt.Errorf("%w: technician id is empty", ErrInvalidArgument)
	}
	entries, err := s.ledger.ListForTechnician(ctx, technicianID)
	if err != nil {
		return nil, err
	}

	total := 0
	cached := false
	if s.cache != nil {
		if t, ok, err := s.cache.GetUnreadTotal(ctx, technicianID); err == nil && ok {
			total, cached = t, true
		}
	}
	if !cached {
		total, err = s.ledger.TotalUnread(ctx, technicianID)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.SetUnreadTotal(ctx, technicianID, total); err != nil {
				logger.Errorf("chat.UnreadSummary cache total technician=%s: %v", technicianID, err)
			}
		}
	}
	return &model.UnreadSummary{Entries: entries, Total: total}, nil
}

// MarkAllRead zeroes every ledger entry of one technician and returns how
// many had unread messages (for the UI confirmation).
func (s *ChatService) MarkAllRead(ctx context.Context, technicianID string) (int, error) {
	defer logger.DeferLogDuration("chat.MarkAllRead", time.Now())()
	if technicianID == "" {
		return 0, fmt.Errorf("%w: technician id is empty", ErrInvalidArgument)
	}
	count, err := s.ledger.ResetAll(ctx, technicianID)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		if err := s.cache.InvalidateUnreadTotal(ctx, technicianID); err != nil {
			logger.Errorf("chat.MarkAllRead invalidate cache technician=%s: %v", technicianID, err)
		}
	}
	return count, nil
}

// RecomputeUnread resyncs one (technician, room) counter from the message
// log. Maintenance operation, never called on the hot path; reconciles the
// drift left by message deletion.
func (s *ChatService) RecomputeUnread(ctx context.Context, technicianID, roomID string) (int, error) {
	defer logger.DeferLogDuration("chat.RecomputeUnread", time.Now())()
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return 0, err
	}
	count, err := s.messages.CountUnreadForRoom(ctx, roomID)
	if err != nil {
		return 0, err
	}
	if err := s.ledger.SetCount(ctx, technicianID, roomID, count); err != nil {
		return 0, err
	}
	if s.cache != nil {
		if err := s.cache.InvalidateUnreadTotal(ctx, technicianID); err != nil {
			logger.Errorf("chat.RecomputeUnread invalidate cache technician=%s: %v", technicianID, err)
		}
	}
	return count, nil
}

// CloseRoom marks a room closed; it stays queryable.
func (s *ChatService) CloseRoom(ctx context.Context, roomID string) error {
	defer logger.DeferLogDuration("chat.CloseRoom", time.Now())()
	return s.rooms.SetStatus(ctx, roomID, model.RoomStatusClosed)
}

// ReopenRoom reactivates a closed room.
func (s *ChatService) ReopenRoom(ctx context.Context, roomID string) error {
	defer logger.DeferLogDuration("chat.ReopenRoom", time.Now())()
	return s.rooms.SetStatus(ctx, roomID, model.RoomStatusActive)
}
