package billing

import (
	"time"

	"github.com/didierkasongo/ndaku/app/models"
	"gorm.io/gorm"
)

// Repository provides DB operations used by the billing service. WithTx runs
// a function against a repository bound to one transaction so the multi-step
// activation is a single unit of work.
type Repository interface {
	WithTx(fn func(Repository) error) error

	GetUserByID(id uint) (*models.User, error)

	GetPlanByID(id uint) (*models.SubscriptionPlan, error)
	ListActivePlans() ([]models.SubscriptionPlan, error)
	GetFreePlan() (*models.SubscriptionPlan, error)

	GetPaymentMethodByID(id uint) (*models.PaymentMethod, error)
	GetPaymentMethodByCode(code string) (*models.PaymentMethod, error)
	ListActivePaymentMethods() ([]models.PaymentMethod, error)

	GetPromoCodeByCode(code string) (*models.PromoCode, error)
	GetPromoCodeByID(id uint) (*models.PromoCode, error)
	ListActivePromoCodes() ([]models.PromoCode, error)
	CreatePromoCode(promo *models.PromoCode) error
	SavePromoCode(promo *models.PromoCode) error
	IncrementPromoUsage(promoID uint) error
	CountPromoRedemptionsByUser(promoID, userID uint) (int64, error)
	RecordPromoRedemption(usage *models.PromoCodeUsage) error
	ListPromoRedemptions(promoID uint) ([]models.PromoCodeUsage, error)

	CreateBillingRecord(record *models.BillingRecord) error
	GetBillingRecordByID(id uint) (*models.BillingRecord, error)
	UpdateBillingStatus(id uint, status models.BillingStatus, paymentDate *time.Time) error
	DeleteBillingRecord(id uint) error
	LatestBillingRecordFor(userID, agencyID, planID uint) (*models.BillingRecord, error)
	CountRecentPaidActivations(userID, planID uint, since time.Time) (int64, error)
	ListBillingRecords(limit int) ([]models.BillingRecord, error)
	BillingStats(monthStart time.Time) (*DashboardStats, error)

	GetActiveSubscription(userID uint) (*models.UserSubscription, error)
	GetActiveSubscriptionForPair(userID, agencyID uint) (*models.UserSubscription, error)
	CreateSubscription(sub *models.UserSubscription) error
	SaveSubscription(sub *models.UserSubscription) error
	MarkSubscriptionsInactive(userID, agencyID uint, status models.SubscriptionStatus, endedAt time.Time) error
	ListOverdueSubscriptions(asOf time.Time) ([]models.UserSubscription, error)

	AppendAuditLog(entry *models.AdminActionLog) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) WithTx(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func (r *gormRepository) GetUserByID(id uint) (*models.User, error) {
	var u models.User
	if err := r.db.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *gormRepository) GetPlanByID(id uint) (*models.SubscriptionPlan, error) {
	var p models.SubscriptionPlan
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) ListActivePlans() ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	err := r.db.Where("is_active = ?", true).Order("price ASC").Find(&plans).Error
	return plans, err
}

func (r *gormRepository) GetFreePlan() (*models.SubscriptionPlan, error) {
	var p models.SubscriptionPlan
	if err := r.db.Where("is_free = ? AND is_active = ?", true, true).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) GetPaymentMethodByID(id uint) (*models.PaymentMethod, error) {
	var m models.PaymentMethod
	if err := r.db.First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *gormRepository) GetPaymentMethodByCode(code string) (*models.PaymentMethod, error) {
	var m models.PaymentMethod
	if err := r.db.Where("code = ?", code).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *gormRepository) ListActivePaymentMethods() ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	err := r.db.Where("is_active = ?", true).Order("name ASC").Find(&methods).Error
	return methods, err
}

func (r *gormRepository) GetPromoCodeByCode(code string) (*models.PromoCode, error) {
	var p models.PromoCode
	err := r.db.Where("code = ?", models.NormalizePromoCode(code)).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) GetPromoCodeByID(id uint) (*models.PromoCode, error) {
	var p models.PromoCode
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) ListActivePromoCodes() ([]models.PromoCode, error) {
	var codes []models.PromoCode
	err := r.db.Where("is_active = ?", true).Order("created_at DESC").Find(&codes).Error
	return codes, err
}

func (r *gormRepository) CreatePromoCode(promo *models.PromoCode) error {
	return r.db.Create(promo).Error
}

func (r *gormRepository) SavePromoCode(promo *models.PromoCode) error {
	return r.db.Save(promo).Error
}

func (r *gormRepository) IncrementPromoUsage(promoID uint) error {
	return r.db.Model(&models.PromoCode{}).
		Where("id = ?", promoID).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
}

func (r *gormRepository) CountPromoRedemptionsByUser(promoID, userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.PromoCodeUsage{}).
		Where("promo_code_id = ? AND user_id = ?", promoID, userID).
		Count(&count).Error
	return count, err
}

func (r *gormRepository) RecordPromoRedemption(usage *models.PromoCodeUsage) error {
	return r.db.Create(usage).Error
}

func (r *gormRepository) ListPromoRedemptions(promoID uint) ([]models.PromoCodeUsage, error) {
	var usages []models.PromoCodeUsage
	err := r.db.Where("promo_code_id = ?", promoID).Order("used_at DESC").Find(&usages).Error
	return usages, err
}

func (r *gormRepository) CreateBillingRecord(record *models.BillingRecord) error {
	return r.db.Create(record).Error
}

func (r *gormRepository) GetBillingRecordByID(id uint) (*models.BillingRecord, error) {
	var rec models.BillingRecord
	if err := r.db.First(&rec, id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *gormRepository) UpdateBillingStatus(id uint, status models.BillingStatus, paymentDate *time.Time) error {
	return r.db.Model(&models.BillingRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       status,
			"payment_date": paymentDate,
		}).Error
}

func (r *gormRepository) DeleteBillingRecord(id uint) error {
	return r.db.Delete(&models.BillingRecord{}, id).Error
}

func (r *gormRepository) LatestBillingRecordFor(userID, agencyID, planID uint) (*models.BillingRecord, error) {
	var rec models.BillingRecord
	err := r.db.Where("user_id = ? AND agency_id = ? AND plan_id = ?", userID, agencyID, planID).
		Order("created_at DESC").
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *gormRepository) CountRecentPaidActivations(userID, planID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.BillingRecord{}).
		Where("user_id = ? AND plan_id = ? AND payment_method = ? AND status = ? AND created_at >= ?",
			userID, planID, models.PaymentMethodManualActivation, models.BillingStatusPaid, since).
		Count(&count).Error
	return count, err
}

func (r *gormRepository) ListBillingRecords(limit int) ([]models.BillingRecord, error) {
	var records []models.BillingRecord
	q := r.db.Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&records).Error
	return records, err
}

func (r *gormRepository) BillingStats(monthStart time.Time) (*DashboardStats, error) {
	stats := &DashboardStats{}
	m := r.db.Model(&models.BillingRecord{})

	if err := m.Session(&gorm.Session{}).Count(&stats.TotalPayments).Error; err != nil {
		return nil, err
	}
	if err := m.Session(&gorm.Session{}).Where("status = ?", models.BillingStatusPending).Count(&stats.PendingPayments).Error; err != nil {
		return nil, err
	}
	if err := m.Session(&gorm.Session{}).Where("status = ?", models.BillingStatusPaid).Count(&stats.PaidPayments).Error; err != nil {
		return nil, err
	}

	var total struct{ Total int64 }
	if err := r.db.Model(&models.BillingRecord{}).
		Select("COALESCE(SUM(amount),0) AS total").
		Where("status = ?", models.BillingStatusPaid).
		Scan(&total).Error; err != nil {
		return nil, err
	}
	stats.TotalRevenue = total.Total

	var monthly struct{ Total int64 }
	if err := r.db.Model(&models.BillingRecord{}).
		Select("COALESCE(SUM(amount),0) AS total").
		Where("status = ? AND COALESCE(payment_date, created_at) >= ?", models.BillingStatusPaid, monthStart).
		Scan(&monthly).Error; err != nil {
		return nil, err
	}
	stats.MonthlyRevenue = monthly.Total

	return stats, nil
}

func (r *gormRepository) GetActiveSubscription(userID uint) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	err := r.db.Preload("Plan").
		Where("user_id = ? AND status = ?", userID, models.SubscriptionStatusActive).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) GetActiveSubscriptionForPair(userID, agencyID uint) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	err := r.db.Preload("Plan").
		Where("user_id = ? AND agency_id = ? AND status = ?", userID, agencyID, models.SubscriptionStatusActive).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) CreateSubscription(sub *models.UserSubscription) error {
	return r.db.Create(sub).Error
}

func (r *gormRepository) SaveSubscription(sub *models.UserSubscription) error {
	return r.db.Save(sub).Error
}

func (r *gormRepository) MarkSubscriptionsInactive(userID, agencyID uint, status models.SubscriptionStatus, endedAt time.Time) error {
	return r.db.Model(&models.UserSubscription{}).
		Where("user_id = ? AND agency_id = ? AND status = ?", userID, agencyID, models.SubscriptionStatusActive).
		Updates(map[string]interface{}{
			"status":   status,
			"end_date": endedAt,
		}).Error
}

func (r *gormRepository) ListOverdueSubscriptions(asOf time.Time) ([]models.UserSubscription, error) {
	var subs []models.UserSubscription
	err := r.db.Preload("Plan").
		Where("status = ? AND end_date IS NOT NULL AND end_date < ?", models.SubscriptionStatusActive, asOf).
		Find(&subs).Error
	return subs, err
}

func (r *gormRepository) AppendAuditLog(entry *models.AdminActionLog) error {
	return r.db.Create(entry).Error
}
