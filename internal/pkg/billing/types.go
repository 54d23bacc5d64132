package billing

import "time"

// ActivationRequest is the input for a manual or payment-triggered
// subscription activation.
type ActivationRequest struct {
	UserID          uint   `json:"user_id" validate:"required"`
	PlanID          uint   `json:"plan_id" validate:"required"`
	PaymentMethodID uint   `json:"payment_method_id" validate:"required"`
	PromoCode       string `json:"promo_code,omitempty"`
	AdminID         uint   `json:"-"`
	AdminNote       string `json:"admin_note,omitempty"`
	TransactionID   string `json:"transaction_id,omitempty"`
}

// ActivationResult identifies the records written by a successful activation.
type ActivationResult struct {
	SubscriptionID  uint      `json:"subscription_id"`
	BillingRecordID uint      `json:"billing_record_id"`
	Amount          int64     `json:"amount"`
	DiscountAmount  int64     `json:"discount_amount"`
	EndDate         time.Time `json:"end_date"`
}

// PromoValidation is the outcome of a side-effect-free promo code check.
type PromoValidation struct {
	Valid          bool   `json:"valid"`
	PromoCodeID    uint   `json:"promo_code_id,omitempty"`
	PromoName      string `json:"promo_name,omitempty"`
	DiscountType   string `json:"discount_type,omitempty"`
	DiscountValue  int64  `json:"discount_value,omitempty"`
	DiscountAmount int64  `json:"discount_amount"`
	FinalAmount    int64  `json:"final_amount"`
	Error          string `json:"error,omitempty"`
	ErrorKind      string `json:"error_kind,omitempty"`
}

// DashboardStats aggregates billing history for the admin back office.
type DashboardStats struct {
	TotalPayments   int64 `json:"total_payments"`
	PendingPayments int64 `json:"pending_payments"`
	PaidPayments    int64 `json:"paid_payments"`
	TotalRevenue    int64 `json:"total_revenue"`
	MonthlyRevenue  int64 `json:"monthly_revenue"`
}
