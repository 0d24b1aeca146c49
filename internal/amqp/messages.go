package amqp

import (
	"encoding/json"
	"time"
)

// Event types carried on the transaction queue.
const (
	TransactionCreated = "transaction.created"
	TransactionDeleted = "transaction.deleted"
)

// TransactionEvent is a lightweight notification about a stored transaction.
// Consumers load the full record from the database; SheetRow is only set on
// deletions of rows that were already mirrored.
type TransactionEvent struct {
	Type      string    `json:"type"`
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId,omitempty"`
	AccountID int64     `json:"accountId,omitempty"`
	SheetRow  string    `json:"sheetRow,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionEvent(typ string, id int64) *TransactionEvent {
	return &TransactionEvent{
		Type:      typ,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes an event and rejects unknown types.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if ev.Type != TransactionCreated && ev.Type != TransactionDeleted {
		return nil, &UnknownEventError{Type: ev.Type}
	}
	return &ev, nil
}

type UnknownEventError struct {
	Type string
}

func (e *UnknownEventError) Error() string {
	return "unknown event type " + e.Type
}
