package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/didierkasongo/ndaku/app/models"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service orchestrates subscription activation, cancellation and billing
// reconciliation over an injected repository.
type Service struct {
	repo   Repository
	locker ActivationLocker
	now    func() time.Time
}

// NewService creates a billing service from an injected repository. The
// caller may attach an ActivationLocker; without one, concurrent activations
// for the same subscriber are only guarded by the duplicate window query.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// NewServiceFromDB creates a billing service from a GORM DB handle with the
// Redis per-subscriber activation lock attached.
func NewServiceFromDB(db *gorm.DB) *Service {
	s := NewService(NewRepository(db))
	s.locker = NewRedisActivationLocker()
	return s
}

// Activate transitions a subscriber onto a plan and writes the billing
// record, subscription, promo redemption and audit entry as one unit of
// work. Any prior active subscription for the (subscriber, agency) pair is
// cancelled, never deleted.
func (s *Service) Activate(ctx context.Context, req ActivationRequest) (*ActivationResult, error) {
	if err := validator.New().Struct(&req); err != nil {
		return nil, wrapError(KindValidation, "invalid activation request", err)
	}

	if s.locker != nil {
		key := activationLockKey(req.UserID)
		ok, err := s.locker.Acquire(ctx, key)
		if err != nil {
			return nil, wrapError(KindPersistence, "failed to acquire activation lock", err)
		}
		if !ok {
			return nil, newError(KindTooSoon, "another activation for this subscriber is in progress")
		}
		defer func() { _ = s.locker.Release(ctx, key) }()
	}

	now := s.now()

	user, err := s.repo.GetUserByID(req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "subscriber not found")
		}
		return nil, wrapError(KindPersistence, "failed to load subscriber", err)
	}
	if !user.IsAgencyMember() {
		return nil, newError(KindValidation, "subscriber is not associated with an agency")
	}
	agencyID := *user.AgencyID

	plan, err := s.repo.GetPlanByID(req.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "subscription plan not found")
		}
		return nil, wrapError(KindPersistence, "failed to load plan", err)
	}
	if !plan.IsActive {
		return nil, newError(KindValidation, "subscription plan is no longer active")
	}

	method, err := s.repo.GetPaymentMethodByID(req.PaymentMethodID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "payment method not found")
		}
		return nil, wrapError(KindPersistence, "failed to load payment method", err)
	}
	if !method.IsActive {
		return nil, newError(KindValidation, "payment method is not active")
	}

	if err := s.checkDuplicateActivation(s.repo, req.UserID, agencyID, req.PlanID, now); err != nil {
		return nil, err
	}

	var promo *models.PromoCode
	var discount int64
	if req.PromoCode != "" {
		promo, err = s.resolvePromoCode(s.repo, req.PromoCode, req.UserID, req.PlanID, plan.Price, now)
		if err != nil {
			return nil, err
		}
		discount = computeDiscount(promo, plan.Price)
	}

	amount := finalAmount(plan.Price, discount)
	endDate := ComputeEndDate(now, plan.BillingCycle)

	txnID := req.TransactionID
	if txnID == "" {
		txnID = "MAN-" + uuid.NewString()
	}

	result := &ActivationResult{
		Amount:         amount,
		DiscountAmount: discount,
		EndDate:        endDate,
	}

	err = s.repo.WithTx(func(tx Repository) error {
		record := &models.BillingRecord{
			UserID:        req.UserID,
			AgencyID:      agencyID,
			PlanID:        req.PlanID,
			Amount:        amount,
			Status:        models.BillingStatusPaid,
			PaymentMethod: method.Code,
			TransactionID: txnID,
			PaymentDate:   &now,
		}
		if promo != nil {
			record.PromoCodeID = &promo.ID
		}
		if err := tx.CreateBillingRecord(record); err != nil {
			return wrapError(KindPersistence, "failed to create billing record", err)
		}

		if err := tx.MarkSubscriptionsInactive(req.UserID, agencyID, models.SubscriptionStatusCancelled, now); err != nil {
			return wrapError(KindPersistence, "failed to cancel prior subscription", err)
		}

		sub := &models.UserSubscription{
			UserID:        req.UserID,
			AgencyID:      agencyID,
			PlanID:        req.PlanID,
			Status:        models.SubscriptionStatusActive,
			StartDate:     now,
			EndDate:       &endDate,
			PaymentMethod: method.Code,
			AutoRenew:     false,
		}
		if err := tx.CreateSubscription(sub); err != nil {
			return wrapError(KindPersistence, "failed to create subscription", err)
		}

		if promo != nil {
			usage := &models.PromoCodeUsage{
				PromoCodeID:     promo.ID,
				UserID:          req.UserID,
				SubscriptionID:  sub.ID,
				BillingRecordID: record.ID,
				DiscountAmount:  discount,
			}
			if err := tx.RecordPromoRedemption(usage); err != nil {
				return wrapError(KindPersistence, "failed to record promo redemption", err)
			}
			if err := tx.IncrementPromoUsage(promo.ID); err != nil {
				return wrapError(KindPersistence, "failed to increment promo usage", err)
			}
		}

		note := req.AdminNote
		if note == "" {
			note = fmt.Sprintf("manual activation of plan %s", plan.Name)
		}
		details := map[string]any{
			"plan_name":         plan.Name,
			"amount":            amount,
			"billing_record_id": record.ID,
			"note":              note,
		}
		if promo != nil {
			details["promo_code"] = promo.Code
			details["discount_amount"] = discount
		}
		entry := &models.AdminActionLog{
			AdminID:    req.AdminID,
			ActionType: models.ActionSubscriptionActivation,
			TargetID:   req.UserID,
			TargetType: models.TargetTypeUser,
		}
		if err := entry.EncodeDetails(details); err != nil {
			return wrapError(KindPersistence, "failed to encode audit details", err)
		}
		if err := tx.AppendAuditLog(entry); err != nil {
			return wrapError(KindPersistence, "failed to append audit entry", err)
		}

		result.SubscriptionID = sub.ID
		result.BillingRecordID = record.ID
		return nil
	})
	if err != nil {
		var be *Error
		if errors.As(err, &be) {
			return nil, be
		}
		return nil, wrapError(KindPersistence, "activation failed", err)
	}

	return result, nil
}

// Cancel sets the subscriber's active subscription to cancelled, closes its
// most recent billing record, and appends an audit entry. It reports
// NotFound instead of silently succeeding when there is nothing to cancel.
func (s *Service) Cancel(ctx context.Context, userID, adminID uint, note string) error {
	_ = ctx
	now := s.now()

	sub, err := s.repo.GetActiveSubscription(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(KindNotFound, "no active subscription for this subscriber")
		}
		return wrapError(KindPersistence, "failed to load subscription", err)
	}

	planName := ""
	if sub.Plan != nil {
		planName = sub.Plan.Name
	}

	return s.repo.WithTx(func(tx Repository) error {
		sub.Status = models.SubscriptionStatusCancelled
		sub.EndDate = &now
		if err := tx.SaveSubscription(sub); err != nil {
			return wrapError(KindPersistence, "failed to cancel subscription", err)
		}

		record, err := tx.LatestBillingRecordFor(sub.UserID, sub.AgencyID, sub.PlanID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return wrapError(KindPersistence, "failed to load billing record", err)
		}
		if record != nil && record.Status != models.BillingStatusCancelled {
			if err := tx.UpdateBillingStatus(record.ID, models.BillingStatusCancelled, record.PaymentDate); err != nil {
				return wrapError(KindPersistence, "failed to cancel billing record", err)
			}
		}

		entry := &models.AdminActionLog{
			AdminID:    adminID,
			ActionType: models.ActionSubscriptionCancellation,
			TargetID:   userID,
			TargetType: models.TargetTypeUser,
		}
		details := map[string]any{
			"subscription_id": sub.ID,
			"plan_name":       planName,
		}
		if note != "" {
			details["note"] = note
		}
		if record != nil {
			details["billing_record_id"] = record.ID
		}
		if err := entry.EncodeDetails(details); err != nil {
			return wrapError(KindPersistence, "failed to encode audit details", err)
		}
		if err := tx.AppendAuditLog(entry); err != nil {
			return wrapError(KindPersistence, "failed to append audit entry", err)
		}
		return nil
	})
}

// DeleteBillingRecord hard-deletes one billing record without touching the
// subscription. The audit entry captures the deleted amount and plan name
// since the row will no longer exist to inspect.
func (s *Service) DeleteBillingRecord(ctx context.Context, recordID, adminID uint) error {
	_ = ctx

	record, err := s.repo.GetBillingRecordByID(recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(KindNotFound, "billing record not found")
		}
		return wrapError(KindPersistence, "failed to load billing record", err)
	}

	planName := ""
	if plan, err := s.repo.GetPlanByID(record.PlanID); err == nil {
		planName = plan.Name
	}

	return s.repo.WithTx(func(tx Repository) error {
		if err := tx.DeleteBillingRecord(recordID); err != nil {
			return wrapError(KindPersistence, "failed to delete billing record", err)
		}

		entry := &models.AdminActionLog{
			AdminID:    adminID,
			ActionType: models.ActionBillingDeletion,
			TargetID:   recordID,
			TargetType: models.TargetTypeBillingRecord,
		}
		if err := entry.EncodeDetails(map[string]any{
			"user_id":   record.UserID,
			"plan_name": planName,
			"amount":    record.Amount,
			"status":    string(record.Status),
		}); err != nil {
			return wrapError(KindPersistence, "failed to encode audit details", err)
		}
		if err := tx.AppendAuditLog(entry); err != nil {
			return wrapError(KindPersistence, "failed to append audit entry", err)
		}
		return nil
	})
}

// MarkBillingPaid reconciles a pending billing record that has been paid
// outside the activation flow: the record becomes paid and the matching
// subscription is created or refreshed with a freshly computed period.
func (s *Service) MarkBillingPaid(ctx context.Context, recordID, adminID uint) error {
	_ = ctx
	now := s.now()

	record, err := s.repo.GetBillingRecordByID(recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(KindNotFound, "billing record not found")
		}
		return wrapError(KindPersistence, "failed to load billing record", err)
	}
	if record.Status != models.BillingStatusPending {
		return newError(KindValidation,
			fmt.Sprintf("billing record is %s; only pending records can be marked paid", record.Status))
	}

	plan, err := s.repo.GetPlanByID(record.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(KindNotFound, "subscription plan not found")
		}
		return wrapError(KindPersistence, "failed to load plan", err)
	}
	endDate := ComputeEndDate(now, plan.BillingCycle)

	return s.repo.WithTx(func(tx Repository) error {
		if err := tx.UpdateBillingStatus(recordID, models.BillingStatusPaid, &now); err != nil {
			return wrapError(KindPersistence, "failed to mark billing record paid", err)
		}

		if err := tx.MarkSubscriptionsInactive(record.UserID, record.AgencyID, models.SubscriptionStatusCancelled, now); err != nil {
			return wrapError(KindPersistence, "failed to cancel prior subscription", err)
		}
		sub := &models.UserSubscription{
			UserID:        record.UserID,
			AgencyID:      record.AgencyID,
			PlanID:        record.PlanID,
			Status:        models.SubscriptionStatusActive,
			StartDate:     now,
			EndDate:       &endDate,
			PaymentMethod: record.PaymentMethod,
			AutoRenew:     false,
		}
		if err := tx.CreateSubscription(sub); err != nil {
			return wrapError(KindPersistence, "failed to activate subscription", err)
		}

		entry := &models.AdminActionLog{
			AdminID:    adminID,
			ActionType: models.ActionBillingStatusChange,
			TargetID:   recordID,
			TargetType: models.TargetTypeBillingRecord,
		}
		if err := entry.EncodeDetails(map[string]any{
			"from":            string(models.BillingStatusPending),
			"to":              string(models.BillingStatusPaid),
			"subscription_id": sub.ID,
			"plan_name":       plan.Name,
		}); err != nil {
			return wrapError(KindPersistence, "failed to encode audit details", err)
		}
		if err := tx.AppendAuditLog(entry); err != nil {
			return wrapError(KindPersistence, "failed to append audit entry", err)
		}
		return nil
	})
}

// UpdateBillingStatus applies an administrative status change that does not
// activate anything (failed, cancelled, back to pending). Marking a record
// paid goes through MarkBillingPaid so the subscription stays consistent.
func (s *Service) UpdateBillingStatus(ctx context.Context, recordID uint, status models.BillingStatus, adminID uint) error {
	if status == models.BillingStatusPaid {
		return s.MarkBillingPaid(ctx, recordID, adminID)
	}
	if !status.IsValid() {
		return newError(KindValidation, fmt.Sprintf("unknown billing status %q", status))
	}

	record, err := s.repo.GetBillingRecordByID(recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(KindNotFound, "billing record not found")
		}
		return wrapError(KindPersistence, "failed to load billing record", err)
	}

	return s.repo.WithTx(func(tx Repository) error {
		if err := tx.UpdateBillingStatus(recordID, status, nil); err != nil {
			return wrapError(KindPersistence, "failed to update billing status", err)
		}
		entry := &models.AdminActionLog{
			AdminID:    adminID,
			ActionType: models.ActionBillingStatusChange,
			TargetID:   recordID,
			TargetType: models.TargetTypeBillingRecord,
		}
		if err := entry.EncodeDetails(map[string]any{
			"from": string(record.Status),
			"to":   string(status),
		}); err != nil {
			return wrapError(KindPersistence, "failed to encode audit details", err)
		}
		if err := tx.AppendAuditLog(entry); err != nil {
			return wrapError(KindPersistence, "failed to append audit entry", err)
		}
		return nil
	})
}

// HandlePaymentConfirmation records a payment reported by an external
// channel. When the auto-activation toggle is enabled the payment triggers a
// full activation; otherwise a pending billing record is queued for manual
// review. The toggle is read once per call.
func (s *Service) HandlePaymentConfirmation(ctx context.Context, userID, planID uint, methodCode, txnID string) (*ActivationResult, bool, error) {
	method, err := s.repo.GetPaymentMethodByCode(methodCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, newError(KindNotFound, "payment method not found")
		}
		return nil, false, wrapError(KindPersistence, "failed to load payment method", err)
	}

	// The toggle defaults to enabled, matching the LoadSettings default when
	// no settings row exists yet.
	autoActivate := true
	if settings := models.GetAppSettings(); settings != nil {
		autoActivate = settings.Snapshot().AutoSubscriptionActivation
	}
	if autoActivate {
		result, err := s.Activate(ctx, ActivationRequest{
			UserID:          userID,
			PlanID:          planID,
			PaymentMethodID: method.ID,
			TransactionID:   txnID,
			AdminNote:       "automatic activation from payment confirmation",
		})
		if err != nil {
			return nil, false, err
		}
		return result, true, nil
	}

	user, err := s.repo.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, newError(KindNotFound, "subscriber not found")
		}
		return nil, false, wrapError(KindPersistence, "failed to load subscriber", err)
	}
	if !user.IsAgencyMember() {
		return nil, false, newError(KindValidation, "subscriber is not associated with an agency")
	}
	plan, err := s.repo.GetPlanByID(planID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, newError(KindNotFound, "subscription plan not found")
		}
		return nil, false, wrapError(KindPersistence, "failed to load plan", err)
	}

	record := &models.BillingRecord{
		UserID:        userID,
		AgencyID:      *user.AgencyID,
		PlanID:        planID,
		Amount:        plan.Price,
		Status:        models.BillingStatusPending,
		PaymentMethod: method.Code,
		TransactionID: txnID,
	}
	if err := s.repo.CreateBillingRecord(record); err != nil {
		return nil, false, wrapError(KindPersistence, "failed to queue billing record", err)
	}
	return &ActivationResult{BillingRecordID: record.ID, Amount: plan.Price}, false, nil
}

// RecordAutoActivationToggle audits a change of the global auto-activation
// configuration. The toggle itself lives in AppSettings; flipping it never
// touches existing subscription state.
func (s *Service) RecordAutoActivationToggle(ctx context.Context, adminID uint, enabled bool) error {
	_ = ctx
	entry := &models.AdminActionLog{
		AdminID:    adminID,
		ActionType: models.ActionAutoActivationToggle,
		TargetID:   adminID,
		TargetType: models.TargetTypeSetting,
	}
	if err := entry.EncodeDetails(map[string]any{"enabled": enabled}); err != nil {
		return wrapError(KindPersistence, "failed to encode audit details", err)
	}
	if err := s.repo.AppendAuditLog(entry); err != nil {
		return wrapError(KindPersistence, "failed to append audit entry", err)
	}
	return nil
}

// ExpireOverdueSubscriptions marks active subscriptions past their end date
// as expired and moves paid-plan subscribers onto the free plan. Returns the
// subscriber IDs whose subscription was expired so the caller can trim their
// resources to the new quota.
func (s *Service) ExpireOverdueSubscriptions(ctx context.Context) ([]uint, error) {
	_ = ctx
	now := s.now()

	overdue, err := s.repo.ListOverdueSubscriptions(now)
	if err != nil {
		return nil, wrapError(KindPersistence, "failed to list overdue subscriptions", err)
	}

	freePlan, err := s.repo.GetFreePlan()
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, wrapError(KindPersistence, "failed to load free plan", err)
	}

	var expired []uint
	for i := range overdue {
		sub := overdue[i]
		err := s.repo.WithTx(func(tx Repository) error {
			sub.Status = models.SubscriptionStatusExpired
			if err := tx.SaveSubscription(&sub); err != nil {
				return err
			}
			wasPaidPlan := sub.Plan != nil && !sub.Plan.IsFree
			if wasPaidPlan && freePlan != nil {
				replacement := &models.UserSubscription{
					UserID:    sub.UserID,
					AgencyID:  sub.AgencyID,
					PlanID:    freePlan.ID,
					Status:    models.SubscriptionStatusActive,
					StartDate: now,
				}
				if err := tx.CreateSubscription(replacement); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return expired, wrapError(KindPersistence, "failed to expire subscription", err)
		}
		expired = append(expired, sub.UserID)
	}
	return expired, nil
}

// CurrentSubscription returns the subscriber's active subscription with its
// plan preloaded.
func (s *Service) CurrentSubscription(ctx context.Context, userID uint) (*models.UserSubscription, error) {
	_ = ctx
	sub, err := s.repo.GetActiveSubscription(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "no active subscription for this subscriber")
		}
		return nil, wrapError(KindPersistence, "failed to load subscription", err)
	}
	return sub, nil
}

// Stats aggregates billing history counters for the admin dashboard.
func (s *Service) Stats(ctx context.Context) (*DashboardStats, error) {
	_ = ctx
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	stats, err := s.repo.BillingStats(monthStart)
	if err != nil {
		return nil, wrapError(KindPersistence, "failed to aggregate billing stats", err)
	}
	return stats, nil
}

// ListPlans returns active plans ordered by price.
func (s *Service) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	_ = ctx
	return s.repo.ListActivePlans()
}

// PlanByID loads a single plan.
func (s *Service) PlanByID(ctx context.Context, planID uint) (*models.SubscriptionPlan, error) {
	_ = ctx
	plan, err := s.repo.GetPlanByID(planID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "subscription plan not found")
		}
		return nil, wrapError(KindPersistence, "failed to load plan", err)
	}
	return plan, nil
}

// ListPaymentMethods returns active payment methods.
func (s *Service) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	_ = ctx
	return s.repo.ListActivePaymentMethods()
}

// ListPromoCodes returns active promo codes, newest first.
func (s *Service) ListPromoCodes(ctx context.Context) ([]models.PromoCode, error) {
	_ = ctx
	return s.repo.ListActivePromoCodes()
}

// ActivationHistory returns recent billing records, newest first.
func (s *Service) ActivationHistory(ctx context.Context, limit int) ([]models.BillingRecord, error) {
	_ = ctx
	return s.repo.ListBillingRecords(limit)
}

// CreatePromoCode stores a new promo code with its code normalized.
func (s *Service) CreatePromoCode(ctx context.Context, promo *models.PromoCode) error {
	_ = ctx
	promo.Code = models.NormalizePromoCode(promo.Code)
	if err := promo.Validate(); err != nil {
		return wrapError(KindValidation, "invalid promo code", err)
	}
	if err := s.repo.CreatePromoCode(promo); err != nil {
		return wrapError(KindPersistence, "failed to create promo code", err)
	}
	return nil
}

// DeactivatePromoCode turns a code off without deleting its redemption
// history.
func (s *Service) DeactivatePromoCode(ctx context.Context, promoID uint) error {
	_ = ctx
	promo, err := s.repo.GetPromoCodeByID(promoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(KindNotFound, "promo code not found")
		}
		return wrapError(KindPersistence, "failed to load promo code", err)
	}
	promo.IsActive = false
	if err := s.repo.SavePromoCode(promo); err != nil {
		return wrapError(KindPersistence, "failed to deactivate promo code", err)
	}
	return nil
}

// PromoUsageHistory returns the redemption trail for a promo code.
func (s *Service) PromoUsageHistory(ctx context.Context, promoID uint) ([]models.PromoCodeUsage, error) {
	_ = ctx
	return s.repo.ListPromoRedemptions(promoID)
}
