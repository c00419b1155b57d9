package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferNotification is the Kafka event published after a cross-owner
// transfer commits. Delivery is best-effort; downstream consumers turn
// it into SMS/WhatsApp alerts.
type TransferNotification struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	TransactionID int             `json:"transaction_id"`
	Actor         string          `json:"actor"`
	Amount        decimal.Decimal `json:"amount"`
	FromAccount   string          `json:"from_account"`
	ToAccount     string          `json:"to_account"`
	Timestamp     time.Time       `json:"timestamp"`
}

// EventTypeTransferPending is the only event type currently published.
const EventTypeTransferPending = "TRANSFER_PENDING"
