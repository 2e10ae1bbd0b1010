package model

import "time"

type RoomStatus string

const (
	RoomStatusActive RoomStatus = "active"
	RoomStatusClosed RoomStatus = "closed"
)

// ValidRoomStatus reports whether s is a known lifecycle state.
func ValidRoomStatus(s RoomStatus) bool {
	return s == RoomStatusActive || s == RoomStatusClosed
}

// ChatRoom is the single conversation context tying one customer to the
// technician pool. At most one room exists per customer; closed rooms are
// never deleted and stay queryable.
type ChatRoom struct {
	ID                   string     `json:"id"`
	CustomerID           string     `json:"customer_id"`
	CustomerName         string     `json:"customer_name"`
	Status               RoomStatus `json:"status"`
	AssignedTechnicianID *string    `json:"assigned_technician_id,omitempty"`
	LastMessageAt        time.Time  `json:"last_message_at"`
	CreatedAt            time.Time  `json:"created_at"`
}

// RoomWithLastMessage is the dashboard view of a room.
type RoomWithLastMessage struct {
	Room        ChatRoom `json:"room"`
	LastMessage *Message `json:"last_message,omitempty"`
}
