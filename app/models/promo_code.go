package models

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidDiscountType is returned when a promo code carries an unknown
// discount type.
var ErrInvalidDiscountType = errors.New("invalid discount type")

// DiscountType distinguishes percentage discounts from fixed amounts.
type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "percentage"
	DiscountTypeFixedAmount DiscountType = "fixed_amount"
)

func (d DiscountType) IsValid() bool {
	return d == DiscountTypePercentage || d == DiscountTypeFixedAmount
}

// PromoCode is a redeemable discount token with usage and eligibility
// constraints. UsageCount is the only field mutated after creation, and only
// on successful subscription activation.
type PromoCode struct {
	ID                uint         `gorm:"primaryKey" json:"id"`
	Code              string       `gorm:"type:varchar(50);not null;uniqueIndex" json:"code" validate:"required,min=2,max=50"`
	Name              string       `gorm:"type:varchar(150);not null" json:"name" validate:"required,max=150"`
	Description       string       `gorm:"type:text" json:"description,omitempty"`
	DiscountType      DiscountType `gorm:"type:varchar(16);not null" json:"discount_type"`
	DiscountValue     int64        `gorm:"not null" json:"discount_value" validate:"gt=0"`
	MaxDiscountAmount *int64       `gorm:"default:null" json:"max_discount_amount,omitempty"`
	MinOrderAmount    int64        `gorm:"not null;default:0" json:"min_order_amount" validate:"gte=0"`
	UsageLimit        *int         `gorm:"default:null" json:"usage_limit,omitempty"`
	UsageCount        int          `gorm:"not null;default:0" json:"usage_count"`
	UserUsageLimit    int          `gorm:"not null;default:1" json:"user_usage_limit" validate:"gte=1"`
	ValidFrom         *time.Time   `gorm:"type:timestamp;default:null" json:"valid_from,omitempty"`
	ValidUntil        *time.Time   `gorm:"type:timestamp;default:null" json:"valid_until,omitempty"`
	IsActive          bool         `gorm:"default:true;index" json:"is_active"`
	ApplicablePlans   string       `gorm:"type:text" json:"-"`
	CreatedBy         uint         `gorm:"default:0" json:"created_by"`
	CreatedAt         time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PromoCode) TableName() string {
	return "promo_codes"
}

// NormalizePromoCode is the canonical form codes are stored and compared in.
func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (p *PromoCode) Validate() error {
	v := validator.New()
	if err := v.Struct(p); err != nil {
		return err
	}
	if !p.DiscountType.IsValid() {
		return ErrInvalidDiscountType
	}
	return nil
}

// ApplicablePlanIDs decodes the plan allow-list. An empty list means the code
// applies to every plan.
func (p *PromoCode) ApplicablePlanIDs() []uint {
	if strings.TrimSpace(p.ApplicablePlans) == "" {
		return nil
	}
	var ids []uint
	if err := json.Unmarshal([]byte(p.ApplicablePlans), &ids); err != nil {
		return nil
	}
	return ids
}

// SetApplicablePlanIDs encodes the plan allow-list.
func (p *PromoCode) SetApplicablePlanIDs(ids []uint) error {
	if len(ids) == 0 {
		p.ApplicablePlans = ""
		return nil
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	p.ApplicablePlans = string(raw)
	return nil
}

// AppliesTo reports whether the code may be redeemed against the given plan.
func (p *PromoCode) AppliesTo(planID uint) bool {
	ids := p.ApplicablePlanIDs()
	if len(ids) == 0 {
		return true
	}
	for _, id := range ids {
		if id == planID {
			return true
		}
	}
	return false
}

// PromoCodeUsage is the append-only redemption trail; the per-user usage cap
// is enforced by counting these rows.
type PromoCodeUsage struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	PromoCodeID     uint      `gorm:"not null;index:idx_promo_usages_code_user,priority:1" json:"promo_code_id"`
	UserID          uint      `gorm:"not null;index:idx_promo_usages_code_user,priority:2" json:"user_id"`
	SubscriptionID  uint      `gorm:"not null" json:"subscription_id"`
	BillingRecordID uint      `gorm:"not null" json:"billing_record_id"`
	DiscountAmount  int64     `gorm:"not null;default:0" json:"discount_amount"`
	UsedAt          time.Time `gorm:"autoCreateTime" json:"used_at"`
}

func (PromoCodeUsage) TableName() string {
	return "promo_code_usages"
}
