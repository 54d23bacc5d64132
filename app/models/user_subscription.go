package models

import "time"

// SubscriptionStatus is the closed set of subscription states.
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case SubscriptionStatusActive, SubscriptionStatusCancelled, SubscriptionStatusExpired:
		return true
	}
	return false
}

// UserSubscription is the current plan assignment and validity period for a
// subscriber/agency pair. At most one row per (user, agency) may be active;
// activation cancels any prior active row before writing the new one.
type UserSubscription struct {
	ID            uint               `gorm:"primaryKey" json:"id"`
	UserID        uint               `gorm:"not null;index:idx_user_subscriptions_user_agency,priority:1" json:"user_id"`
	AgencyID      uint               `gorm:"not null;index:idx_user_subscriptions_user_agency,priority:2" json:"agency_id"`
	PlanID        uint               `gorm:"not null;index" json:"plan_id"`
	Status        SubscriptionStatus `gorm:"type:varchar(16);not null;default:'active';index" json:"status"`
	StartDate     time.Time          `gorm:"not null" json:"start_date"`
	EndDate       *time.Time         `gorm:"type:timestamp;default:null" json:"end_date,omitempty"`
	PaymentMethod string             `gorm:"type:varchar(50)" json:"payment_method"`
	AutoRenew     bool               `gorm:"default:false" json:"auto_renew"`
	CreatedAt     time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time          `gorm:"autoUpdateTime" json:"updated_at"`

	Plan *SubscriptionPlan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}

func (UserSubscription) TableName() string {
	return "user_subscriptions"
}

// IsCurrent reports whether the subscription is active and not past its end
// date at the given instant.
func (s *UserSubscription) IsCurrent(now time.Time) bool {
	if s.Status != SubscriptionStatusActive {
		return false
	}
	return s.EndDate == nil || s.EndDate.After(now)
}
