package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"spendwise/internal/core"
)

// EventTypeTransactionChanged is the only event type published today.
const EventTypeTransactionChanged = "transaction.changed"

// Action says what happened to the transaction.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// TransactionEvent carries enough of the transaction for consumers to act
// without reading it back; deleted rows can no longer be fetched.
type TransactionEvent struct {
	Type          string    `json:"type"`
	Action        Action    `json:"action"`
	UserID        string    `json:"user_id"`
	TransactionID string    `json:"transaction_id"`
	CategoryID    string    `json:"category_id"`
	TxType        string    `json:"tx_type"`
	AmountCents   int64     `json:"amount_cents"`
	Note          string    `json:"note,omitempty"`
	Date          time.Time `json:"date"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionEvent builds an event for tx.
func NewTransactionEvent(action Action, tx core.Transaction) TransactionEvent {
	return TransactionEvent{
		Type:          EventTypeTransactionChanged,
		Action:        action,
		UserID:        tx.UserID,
		TransactionID: tx.ID,
		CategoryID:    tx.CategoryID,
		TxType:        string(tx.Type),
		AmountCents:   tx.Amount.Cents,
		Note:          tx.Note,
		Date:          tx.Date.UTC(),
		Timestamp:     time.Now().UTC(),
	}
}

// Transaction rebuilds the domain value carried by the event.
func (e TransactionEvent) Transaction() core.Transaction {
	return core.Transaction{
		ID:         e.TransactionID,
		UserID:     e.UserID,
		CategoryID: e.CategoryID,
		Type:       core.TxType(e.TxType),
		Amount:     core.Money{Cents: e.AmountCents},
		Note:       e.Note,
		Date:       e.Date,
	}
}

// ToJSON converts the message to JSON bytes
func (e TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and sanity-checks an event body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var evt TransactionEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, err
	}
	if evt.Type != EventTypeTransactionChanged {
		return nil, fmt.Errorf("unexpected event type %q", evt.Type)
	}
	switch evt.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
	default:
		return nil, fmt.Errorf("unexpected action %q", evt.Action)
	}
	if evt.UserID == "" || evt.TransactionID == "" {
		return nil, fmt.Errorf("event missing user or transaction id")
	}
	return &evt, nil
}
