package model

import "time"

// NotificationEntry is the derived per-(technician, room) unread counter.
// Owned exclusively by the notification ledger; callers mutate it only
// through the read-state transition API. UnreadCount never goes below zero.
type NotificationEntry struct {
	TechnicianID string    `json:"technician_id"`
	ChatRoomID   string    `json:"chat_room_id"`
	CustomerName string    `json:"customer_name,omitempty"`
	UnreadCount  int       `json:"unread_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UnreadSummary is the dashboard feed plus the badge total.
type UnreadSummary struct {
	Entries []NotificationEntry `json:"entries"`
	Total   int                 `json:"total"`
}
