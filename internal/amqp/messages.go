package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventOp names the store mutation an event reports.
type EventOp string

const (
	OpCreated EventOp = "created"
	OpUpdated EventOp = "updated"
	OpDeleted EventOp = "deleted"
)

// TransactionEvent announces a committed change to one transaction.
// It carries only the id; consumers read the current record from the store.
type TransactionEvent struct {
	ID        string    `json:"id"`
	Op        EventOp   `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionEvent(id string, op EventOp) *TransactionEvent {
	return &TransactionEvent{
		ID:        id,
		Op:        op,
		Timestamp: time.Now().UTC(),
	}
}

func (e *TransactionEvent) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("event without id")
	}
	switch e.Op {
	case OpCreated, OpUpdated, OpDeleted:
		return nil
	default:
		return fmt.Errorf("unknown event op %q", e.Op)
	}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and validates an event.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return &ev, nil
}
