package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Investment represents a position held by an account. One row per
// (account, symbol); repeated buys merge via weighted-average cost.
type Investment struct {
	ID            int             `json:"id"`
	AccountID     int             `json:"account_id"`
	Symbol        string          `json:"symbol"`
	Shares        decimal.Decimal `json:"shares"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
