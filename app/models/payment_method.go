package models

import "time"

// Payment method codes seeded by the migrations. ManualActivation marks
// records created by an administrator from the back office.
const (
	PaymentMethodManualActivation = "manual_activation"
	PaymentMethodMobileMoney      = "mobile_money"
	PaymentMethodBankTransfer     = "bank_transfer"
	PaymentMethodCash             = "cash"
)

// PaymentMethod is reference data describing how a subscriber can pay.
type PaymentMethod struct {
	ID                      uint      `gorm:"primaryKey" json:"id"`
	Name                    string    `gorm:"type:varchar(100);not null" json:"name"`
	Code                    string    `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	Description             string    `gorm:"type:text" json:"description,omitempty"`
	IsActive                bool      `gorm:"default:true;index" json:"is_active"`
	RequiresVerification    bool      `gorm:"default:false" json:"requires_verification"`
	ProcessingFeePercentage int64     `gorm:"not null;default:0" json:"processing_fee_percentage"`
	ProcessingFeeFixed      int64     `gorm:"not null;default:0" json:"processing_fee_fixed"`
	CreatedAt               time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt               time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PaymentMethod) TableName() string {
	return "payment_methods"
}
