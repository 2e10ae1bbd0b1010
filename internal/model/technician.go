package model

import "time"

// Technician is a member of the support pool. Inactive technicians keep
// their ledger entries but receive no new notifications.
type Technician struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
