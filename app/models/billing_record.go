package models

import "time"

// BillingStatus is the closed set of billing record states. It is distinct
// from SubscriptionStatus on purpose so values cannot leak between tables.
type BillingStatus string

const (
	BillingStatusPending   BillingStatus = "pending"
	BillingStatusPaid      BillingStatus = "paid"
	BillingStatusFailed    BillingStatus = "failed"
	BillingStatusCancelled BillingStatus = "cancelled"
)

func (s BillingStatus) IsValid() bool {
	switch s {
	case BillingStatusPending, BillingStatusPaid, BillingStatusFailed, BillingStatusCancelled:
		return true
	}
	return false
}

// BillingRecord is one payment/activation attempt and its outcome. Rows are
// append-only except for the status and payment date; deletion happens only
// through the explicit administrative delete action.
type BillingRecord struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	UserID        uint          `gorm:"not null;index:idx_billing_history_user_plan,priority:1" json:"user_id"`
	AgencyID      uint          `gorm:"not null;index" json:"agency_id"`
	PlanID        uint          `gorm:"not null;index:idx_billing_history_user_plan,priority:2" json:"plan_id"`
	Amount        int64         `gorm:"not null" json:"amount"`
	Status        BillingStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	PaymentMethod string        `gorm:"type:varchar(50);not null" json:"payment_method"`
	TransactionID string        `gorm:"type:varchar(100);uniqueIndex" json:"transaction_id"`
	PromoCodeID   *uint         `gorm:"default:null" json:"promo_code_id,omitempty"`
	PaymentDate   *time.Time    `gorm:"type:timestamp;default:null" json:"payment_date,omitempty"`
	CreatedAt     time.Time     `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (BillingRecord) TableName() string {
	return "billing_history"
}

// IsPaid reports whether the record reached the paid state.
func (b *BillingRecord) IsPaid() bool {
	return b.Status == BillingStatusPaid
}
