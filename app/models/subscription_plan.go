package models

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidBillingCycle is returned when a plan carries an unknown cycle.
var ErrInvalidBillingCycle = errors.New("invalid billing cycle")

// BillingCycle is the recurrence period of a subscription plan.
type BillingCycle string

const (
	BillingCycleWeekly     BillingCycle = "weekly"
	BillingCycleMonthly    BillingCycle = "monthly"
	BillingCycleQuarterly  BillingCycle = "quarterly"
	BillingCycleSemestrial BillingCycle = "semestrial"
	BillingCycleAnnual     BillingCycle = "annual"
)

var validBillingCycles = map[BillingCycle]bool{
	BillingCycleWeekly:     true,
	BillingCycleMonthly:    true,
	BillingCycleQuarterly:  true,
	BillingCycleSemestrial: true,
	BillingCycleAnnual:     true,
}

func (b BillingCycle) String() string {
	return string(b)
}

// IsValid reports whether the cycle is one of the known values. Period
// computation deliberately does not require validity (unknown cycles fall
// back to monthly); this is for admin-side plan validation only.
func (b BillingCycle) IsValid() bool {
	return validBillingCycles[b]
}

// SubscriptionPlan is a purchasable tier with a price, billing cycle and
// resource quotas. Prices are integer minor currency units (FCFA).
type SubscriptionPlan struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	Name          string       `gorm:"type:varchar(100);not null;uniqueIndex" json:"name" validate:"required,min=2,max=100"`
	Price         int64        `gorm:"not null;default:0" json:"price" validate:"gte=0"`
	BillingCycle  BillingCycle `gorm:"type:varchar(16);not null;default:'monthly'" json:"billing_cycle"`
	MaxProperties int          `gorm:"not null;default:1" json:"max_properties" validate:"gte=0"`
	MaxAgencies   int          `gorm:"not null;default:1" json:"max_agencies" validate:"gte=0"`
	MaxLeases     int          `gorm:"not null;default:2" json:"max_leases" validate:"gte=0"`
	MaxUsers      int          `gorm:"not null;default:1" json:"max_users" validate:"gte=0"`
	IsFree        bool         `gorm:"default:false" json:"is_free"`
	IsActive      bool         `gorm:"default:true;index" json:"is_active"`
	CreatedAt     time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SubscriptionPlan) TableName() string {
	return "subscription_plans"
}

func (p *SubscriptionPlan) Validate() error {
	v := validator.New()
	if err := v.Struct(p); err != nil {
		return err
	}
	if !p.BillingCycle.IsValid() {
		return ErrInvalidBillingCycle
	}
	return nil
}
