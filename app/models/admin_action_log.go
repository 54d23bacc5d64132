package models

import (
	"encoding/json"
	"time"
)

// Audit action types recorded by the billing back office.
const (
	ActionSubscriptionActivation   = "subscription_activation"
	ActionSubscriptionCancellation = "subscription_cancellation"
	ActionBillingDeletion          = "billing_deletion"
	ActionBillingStatusChange      = "billing_status_change"
	ActionAutoActivationToggle     = "auto_activation_toggle"
)

// Audit target types.
const (
	TargetTypeUser          = "user"
	TargetTypeBillingRecord = "billing_record"
	TargetTypeSetting       = "setting"
)

// AdminActionLog is a write-once record of an administrative action. Rows are
// only ever appended; there is no update or delete path.
type AdminActionLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	AdminID    uint      `gorm:"not null;index" json:"admin_id"`
	ActionType string    `gorm:"type:varchar(50);not null;index" json:"action_type"`
	TargetID   uint      `gorm:"not null" json:"target_id"`
	TargetType string    `gorm:"type:varchar(50);not null" json:"target_type"`
	Details    string    `gorm:"type:text" json:"details,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (AdminActionLog) TableName() string {
	return "admin_action_logs"
}

// EncodeDetails marshals structured detail fields into the Details column.
func (l *AdminActionLog) EncodeDetails(details map[string]any) error {
	if len(details) == 0 {
		l.Details = ""
		return nil
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return err
	}
	l.Details = string(raw)
	return nil
}
