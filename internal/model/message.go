package model

import "time"

type SenderRole string

const (
	RoleCustomer   SenderRole = "customer"
	RoleTechnician SenderRole = "technician"
)

// ValidSenderRole reports whether r is a known actor role.
func ValidSenderRole(r SenderRole) bool {
	return r == RoleCustomer || r == RoleTechnician
}

// Message is one entry in a room's append-only log. Immutable after creation
// except for the read fields of the counterpart role: a customer message
// carries ReadByTechnicianID (who of the pool acknowledged it), a technician
// message carries ReadByCustomer. The author's own side is implicitly read.
type Message struct {
	ID                 string     `json:"id"`
	ChatRoomID         string     `json:"chat_room_id"`
	SenderRole         SenderRole `json:"sender_role"`
	SenderID           string     `json:"sender_id"`
	Body               string     `json:"body"`
	ReadByCustomer     bool       `json:"read_by_customer"`
	ReadByTechnicianID *string    `json:"read_by_technician_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}
