package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction type constants
const (
	TransactionTypeTransfer   = "transfer"
	TransactionTypeBuy        = "buy"
	TransactionTypeSell       = "sell"
	TransactionTypePayment    = "payment"
	TransactionTypeWithdrawal = "withdrawal"
)

// Transaction status constants
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Transaction is an immutable audit-log entry for a ledger mutation.
// At least one of FromAccountID/ToAccountID is set: buys set only from,
// sells set only to, transfers set both, external deposits set only to.
// The only permitted update after insert is the pending -> completed
// status transition performed by the settlement scheduler.
type Transaction struct {
	ID            int             `json:"id"`
	FromAccountID *int            `json:"from_account_id,omitempty"`
	ToAccountID   *int            `json:"to_account_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type"`
	Status        string          `json:"status"`
	Description   string          `json:"description,omitempty"`
	IsDemo        bool            `json:"is_demo"`
	CreatedAt     time.Time       `json:"created_at"`
}
