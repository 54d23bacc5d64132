package billing

import (
	"time"

	"github.com/didierkasongo/ndaku/app/models"
	"gorm.io/gorm"
)

// fakeRepo is an in-memory Repository for service tests. It is not safe for
// concurrent use; tests drive it from a single goroutine.
type fakeRepo struct {
	users          map[uint]*models.User
	plans          map[uint]*models.SubscriptionPlan
	methods        map[uint]*models.PaymentMethod
	promos         map[uint]*models.PromoCode
	redemptions    []models.PromoCodeUsage
	billingRecords []*models.BillingRecord
	subscriptions  []*models.UserSubscription
	auditLogs      []*models.AdminActionLog

	nextID uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:   map[uint]*models.User{},
		plans:   map[uint]*models.SubscriptionPlan{},
		methods: map[uint]*models.PaymentMethod{},
		promos:  map[uint]*models.PromoCode{},
		nextID:  1,
	}
}

func (f *fakeRepo) allocID() uint {
	id := f.nextID
	f.nextID++
	return id
}

func (f *fakeRepo) addUser(u models.User) *models.User {
	if u.ID == 0 {
		u.ID = f.allocID()
	}
	f.users[u.ID] = &u
	return &u
}

func (f *fakeRepo) addPlan(p models.SubscriptionPlan) *models.SubscriptionPlan {
	if p.ID == 0 {
		p.ID = f.allocID()
	}
	f.plans[p.ID] = &p
	return &p
}

func (f *fakeRepo) addMethod(m models.PaymentMethod) *models.PaymentMethod {
	if m.ID == 0 {
		m.ID = f.allocID()
	}
	f.methods[m.ID] = &m
	return &m
}

func (f *fakeRepo) addPromo(p models.PromoCode) *models.PromoCode {
	if p.ID == 0 {
		p.ID = f.allocID()
	}
	f.promos[p.ID] = &p
	return &p
}

// WithTx runs fn against the same store. The fake has no rollback; tests that
// need failure semantics assert on the error, not the store state.
func (f *fakeRepo) WithTx(fn func(Repository) error) error {
	return fn(f)
}

func (f *fakeRepo) GetUserByID(id uint) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeRepo) GetPlanByID(id uint) (*models.SubscriptionPlan, error) {
	p, ok := f.plans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f *fakeRepo) ListActivePlans() ([]models.SubscriptionPlan, error) {
	var out []models.SubscriptionPlan
	for _, p := range f.plans {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetFreePlan() (*models.SubscriptionPlan, error) {
	for _, p := range f.plans {
		if p.IsFree && p.IsActive {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) GetPaymentMethodByID(id uint) (*models.PaymentMethod, error) {
	m, ok := f.methods[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m, nil
}

func (f *fakeRepo) GetPaymentMethodByCode(code string) (*models.PaymentMethod, error) {
	for _, m := range f.methods {
		if m.Code == code {
			return m, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) ListActivePaymentMethods() ([]models.PaymentMethod, error) {
	var out []models.PaymentMethod
	for _, m := range f.methods {
		if m.IsActive {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetPromoCodeByCode(code string) (*models.PromoCode, error) {
	normalized := models.NormalizePromoCode(code)
	for _, p := range f.promos {
		if p.Code == normalized {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) GetPromoCodeByID(id uint) (*models.PromoCode, error) {
	p, ok := f.promos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f *fakeRepo) ListActivePromoCodes() ([]models.PromoCode, error) {
	var out []models.PromoCode
	for _, p := range f.promos {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreatePromoCode(promo *models.PromoCode) error {
	if promo.ID == 0 {
		promo.ID = f.allocID()
	}
	f.promos[promo.ID] = promo
	return nil
}

func (f *fakeRepo) SavePromoCode(promo *models.PromoCode) error {
	f.promos[promo.ID] = promo
	return nil
}

func (f *fakeRepo) IncrementPromoUsage(promoID uint) error {
	p, ok := f.promos[promoID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.UsageCount++
	return nil
}

func (f *fakeRepo) CountPromoRedemptionsByUser(promoID, userID uint) (int64, error) {
	var count int64
	for _, u := range f.redemptions {
		if u.PromoCodeID == promoID && u.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) RecordPromoRedemption(usage *models.PromoCodeUsage) error {
	usage.ID = f.allocID()
	usage.UsedAt = time.Now()
	f.redemptions = append(f.redemptions, *usage)
	return nil
}

func (f *fakeRepo) ListPromoRedemptions(promoID uint) ([]models.PromoCodeUsage, error) {
	var out []models.PromoCodeUsage
	for _, u := range f.redemptions {
		if u.PromoCodeID == promoID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateBillingRecord(record *models.BillingRecord) error {
	record.ID = f.allocID()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	f.billingRecords = append(f.billingRecords, record)
	return nil
}

func (f *fakeRepo) GetBillingRecordByID(id uint) (*models.BillingRecord, error) {
	for _, r := range f.billingRecords {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) UpdateBillingStatus(id uint, status models.BillingStatus, paymentDate *time.Time) error {
	for _, r := range f.billingRecords {
		if r.ID == id {
			r.Status = status
			r.PaymentDate = paymentDate
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepo) DeleteBillingRecord(id uint) error {
	for i, r := range f.billingRecords {
		if r.ID == id {
			f.billingRecords = append(f.billingRecords[:i], f.billingRecords[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeRepo) LatestBillingRecordFor(userID, agencyID, planID uint) (*models.BillingRecord, error) {
	var latest *models.BillingRecord
	for _, r := range f.billingRecords {
		if r.UserID != userID || r.AgencyID != agencyID || r.PlanID != planID {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (f *fakeRepo) CountRecentPaidActivations(userID, planID uint, since time.Time) (int64, error) {
	var count int64
	for _, r := range f.billingRecords {
		if r.UserID == userID && r.PlanID == planID &&
			r.PaymentMethod == models.PaymentMethodManualActivation &&
			r.Status == models.BillingStatusPaid &&
			!r.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) ListBillingRecords(limit int) ([]models.BillingRecord, error) {
	var out []models.BillingRecord
	for i := len(f.billingRecords) - 1; i >= 0; i-- {
		out = append(out, *f.billingRecords[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRepo) BillingStats(monthStart time.Time) (*DashboardStats, error) {
	stats := &DashboardStats{}
	for _, r := range f.billingRecords {
		stats.TotalPayments++
		switch r.Status {
		case models.BillingStatusPending:
			stats.PendingPayments++
		case models.BillingStatusPaid:
			stats.PaidPayments++
			stats.TotalRevenue += r.Amount
			when := r.CreatedAt
			if r.PaymentDate != nil {
				when = *r.PaymentDate
			}
			if !when.Before(monthStart) {
				stats.MonthlyRevenue += r.Amount
			}
		}
	}
	return stats, nil
}

func (f *fakeRepo) GetActiveSubscription(userID uint) (*models.UserSubscription, error) {
	var latest *models.UserSubscription
	for _, s := range f.subscriptions {
		if s.UserID == userID && s.Status == models.SubscriptionStatusActive {
			if latest == nil || s.ID > latest.ID {
				latest = s
			}
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	if latest.Plan == nil {
		latest.Plan = f.plans[latest.PlanID]
	}
	return latest, nil
}

func (f *fakeRepo) GetActiveSubscriptionForPair(userID, agencyID uint) (*models.UserSubscription, error) {
	var latest *models.UserSubscription
	for _, s := range f.subscriptions {
		if s.UserID == userID && s.AgencyID == agencyID && s.Status == models.SubscriptionStatusActive {
			if latest == nil || s.ID > latest.ID {
				latest = s
			}
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	if latest.Plan == nil {
		latest.Plan = f.plans[latest.PlanID]
	}
	return latest, nil
}

func (f *fakeRepo) CreateSubscription(sub *models.UserSubscription) error {
	sub.ID = f.allocID()
	f.subscriptions = append(f.subscriptions, sub)
	return nil
}

func (f *fakeRepo) SaveSubscription(sub *models.UserSubscription) error {
	for i, s := range f.subscriptions {
		if s.ID == sub.ID {
			f.subscriptions[i] = sub
			return nil
		}
	}
	f.subscriptions = append(f.subscriptions, sub)
	return nil
}

func (f *fakeRepo) MarkSubscriptionsInactive(userID, agencyID uint, status models.SubscriptionStatus, endedAt time.Time) error {
	for _, s := range f.subscriptions {
		if s.UserID == userID && s.AgencyID == agencyID && s.Status == models.SubscriptionStatusActive {
			s.Status = status
			ended := endedAt
			s.EndDate = &ended
		}
	}
	return nil
}

func (f *fakeRepo) ListOverdueSubscriptions(asOf time.Time) ([]models.UserSubscription, error) {
	var out []models.UserSubscription
	for _, s := range f.subscriptions {
		if s.Status == models.SubscriptionStatusActive && s.EndDate != nil && s.EndDate.Before(asOf) {
			copied := *s
			if copied.Plan == nil {
				copied.Plan = f.plans[copied.PlanID]
			}
			out = append(out, copied)
		}
	}
	return out, nil
}

func (f *fakeRepo) AppendAuditLog(entry *models.AdminActionLog) error {
	entry.ID = f.allocID()
	f.auditLogs = append(f.auditLogs, entry)
	return nil
}
