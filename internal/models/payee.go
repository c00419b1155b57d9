package models

import "time"

// Payee is reference data for external payments. No engine invariants
// beyond ownership-scoped CRUD.
type Payee struct {
	ID            int       `json:"id"`
	UserID        int       `json:"user_id"`
	Name          string    `json:"name"`
	BankName      string    `json:"bank_name,omitempty"`
	AccountNumber string    `json:"account_number,omitempty"`
	RoutingNumber string    `json:"routing_number,omitempty"`
	PayeeType     string    `json:"payee_type,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
