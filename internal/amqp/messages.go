package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"scadenze/internal/core"
)

const (
	EventAccountCreated = "account.created"
	EventAccountUpdated = "account.updated"
)

// AccountEvent announces that an account was written to the store.
type AccountEvent struct {
	EventID      string     `json:"event_id"`
	Type         string     `json:"type"`
	AccountID    string     `json:"account_id"`
	AccountName  string     `json:"account_name"`
	Installments int        `json:"installments"`
	Total        core.Money `json:"total"`
	Timestamp    time.Time  `json:"timestamp"`
}

// NewAccountEvent builds the event for a save. action is "create" or "update".
func NewAccountEvent(action string, account core.AccountWithTotal) *AccountEvent {
	eventType := EventAccountCreated
	if action == "update" {
		eventType = EventAccountUpdated
	}
	return &AccountEvent{
		EventID:      uuid.NewString(),
		Type:         eventType,
		AccountID:    account.ID,
		AccountName:  account.Name,
		Installments: len(account.Details),
		Total:        account.TotalAmount,
		Timestamp:    time.Now(),
	}
}

func (m *AccountEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func AccountEventFromJSON(data []byte) (*AccountEvent, error) {
	var msg AccountEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// InstallmentReminder tells downstream notifiers that an installment is
// coming due. ReminderID is unique per publish; consumers deduplicate on
// (AccountID, InstallmentNumber, DueDate).
type InstallmentReminder struct {
	ReminderID        string     `json:"reminder_id"`
	AccountID         string     `json:"account_id"`
	AccountName       string     `json:"account_name"`
	InstallmentNumber int        `json:"installment_number"`
	DueDate           string     `json:"due_date"`
	Amount            core.Money `json:"amount"`
	DaysUntilDue      int        `json:"days_until_due"`
	Timestamp         time.Time  `json:"timestamp"`
}

// NewInstallmentReminder builds a reminder for the installment due on due.
func NewInstallmentReminder(account core.AccountRecord, det core.InstallmentDetail, due core.Date, daysUntilDue int) *InstallmentReminder {
	return &InstallmentReminder{
		ReminderID:        uuid.NewString(),
		AccountID:         account.ID,
		AccountName:       account.Name,
		InstallmentNumber: det.InstallmentNumber,
		DueDate:           due.String(),
		Amount:            det.Amount,
		DaysUntilDue:      daysUntilDue,
		Timestamp:         time.Now(),
	}
}

func (m *InstallmentReminder) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func InstallmentReminderFromJSON(data []byte) (*InstallmentReminder, error) {
	var msg InstallmentReminder
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
