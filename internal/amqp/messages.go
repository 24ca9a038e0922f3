package amqp

import (
	"encoding/json"
	"time"

	"budgetbabah/internal/core"
)

// BudgetChangedMessage is the lightweight change notification published
// after every local mutation. It carries what changed, not the data:
// consumers read the full snapshot from the store themselves.
type BudgetChangedMessage struct {
	Op        string        `json:"op"`
	Month     int           `json:"month"`
	Category  core.Category `json:"category,omitempty"`
	ItemID    string        `json:"itemId,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewBudgetChangedMessage(op string, month int, category core.Category, itemID string) *BudgetChangedMessage {
	return &BudgetChangedMessage{
		Op:        op,
		Month:     month,
		Category:  category,
		ItemID:    itemID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BudgetChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func BudgetChangedMessageFromJSON(data []byte) (*BudgetChangedMessage, error) {
	var msg BudgetChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
