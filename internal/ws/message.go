package ws

type EventType string

const (
	EventRoomOpened         EventType = "room_opened"
	EventNewMessage         EventType = "new_message"
	EventMessageDeleted     EventType = "message_deleted"
	EventMessagesRead       EventType = "messages_read"
	EventNotificationUpdate EventType = "notification_update"
)

// OutgoingMessage is what the server pushes to a connected dashboard.
// Payload uses typed structs to avoid heap-heavy map[string]any.
type OutgoingMessage struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

// MessageDeletedPayload is pushed when a message is hard-deleted.
type MessageDeletedPayload struct {
	MessageID  string `json:"message_id"`
	ChatRoomID string `json:"chat_room_id"`
}

// MessagesReadPayload is pushed when a room's read state transitions.
type MessagesReadPayload struct {
	ChatRoomID string `json:"chat_room_id"`
	Role       string `json:"role"`
	ActorID    string `json:"actor_id"`
	Count      int    `json:"count"`
}

// NotificationUpdatePayload tells a technician's dashboard to refresh its
// badge for one room (counts are fetched from the notifications endpoint).
type NotificationUpdatePayload struct {
	ChatRoomID string `json:"chat_room_id"`
}
