package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account type constants
const (
	AccountTypeCash       = "cash"
	AccountTypeInvestment = "investment"
)

// ExternalAccountID is the sentinel account id callers pass when funds
// enter or leave the system (external deposits and withdrawals). No
// account row exists for it and no balance checks apply.
const ExternalAccountID = -1

// Account represents a user's cash or investment sub-account.
// Balance is mutated only by the ledger engine.
type Account struct {
	ID          int             `json:"id"`
	UserID      int             `json:"user_id"`
	AccountType string          `json:"account_type"`
	Balance     decimal.Decimal `json:"balance"`
	IsDemo      bool            `json:"is_demo"`
	CreatedAt   time.Time       `json:"created_at"`
}
