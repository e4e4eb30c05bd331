package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// BudgetAlertMessage carries a rendered budget alert to the notifier worker.
type BudgetAlertMessage struct {
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBudgetAlertMessage(to, subject, body string) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		To:        to,
		Subject:   subject,
		Body:      body,
		Timestamp: time.Now(),
	}
}

func (m *BudgetAlertMessage) Validate() error {
	if m.To == "" {
		return errors.New("alert recipient is empty")
	}
	if m.Subject == "" {
		return errors.New("alert subject is empty")
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BudgetAlertMessageFromJSON decodes and validates a message.
func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
