package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"painel/internal/core"
)

// TransactionChangedMessage announces that an owner's transactions changed
// in a given month. Consumers reload what they need from the backend.
type TransactionChangedMessage struct {
	OwnerID       string        `json:"owner_id"`
	TransactionID string        `json:"transaction_id"`
	MonthKey      core.MonthKey `json:"month_key"`
	Timestamp     time.Time     `json:"timestamp"`
}

func NewTransactionChangedMessage(ownerID, transactionID string, key core.MonthKey) *TransactionChangedMessage {
	return &TransactionChangedMessage{
		OwnerID:       ownerID,
		TransactionID: transactionID,
		MonthKey:      key,
		Timestamp:     time.Now().UTC(),
	}
}

func (m *TransactionChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionChangedMessageFromJSON decodes and validates a message body.
func TransactionChangedMessageFromJSON(data []byte) (*TransactionChangedMessage, error) {
	var msg TransactionChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.OwnerID == "" {
		return nil, errors.New("message without owner_id")
	}
	if !msg.MonthKey.IsValid() {
		return nil, errors.New("message without valid month_key")
	}
	return &msg, nil
}
