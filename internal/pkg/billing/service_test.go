package billing

import (
	"context"
	"testing"
	"time"

	"github.com/didierkasongo/ndaku/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedActivationFixtures(repo *fakeRepo) (*models.User, *models.SubscriptionPlan, *models.PaymentMethod) {
	agencyID := uint(77)
	user := repo.addUser(models.User{
		FirstName: "Didier", LastName: "Kasongo",
		Email: "didier@example.cd", Status: "active", AgencyID: &agencyID,
	})
	plan := repo.addPlan(models.SubscriptionPlan{
		Name: "Pro", Price: 50000, BillingCycle: models.BillingCycleMonthly, IsActive: true,
	})
	method := repo.addMethod(models.PaymentMethod{
		Name: "Manual activation", Code: models.PaymentMethodManualActivation, IsActive: true,
	})
	return user, plan, method
}

func TestActivateWritesAllRecords(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	user, plan, method := seedActivationFixtures(repo)
	svc := newTestService(repo, now)

	result, err := svc.Activate(context.Background(), ActivationRequest{
		UserID:          user.ID,
		PlanID:          plan.ID,
		PaymentMethodID: method.ID,
		AdminID:         9,
	})
	require.NoError(t, err)

	assert.Equal(t, plan.Price, result.Amount)
	assert.Equal(t, int64(0), result.DiscountAmount)
	assert.True(t, result.EndDate.Equal(now.AddDate(0, 1, 0)))

	require.Len(t, repo.billingRecords, 1)
	record := repo.billingRecords[0]
	assert.Equal(t, models.BillingStatusPaid, record.Status)
	assert.Equal(t, *user.AgencyID, record.AgencyID)
	assert.NotEmpty(t, record.TransactionID)
	require.NotNil(t, record.PaymentDate)
	assert.True(t, record.PaymentDate.Equal(now))

	require.Len(t, repo.subscriptions, 1)
	sub := repo.subscriptions[0]
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	assert.False(t, sub.AutoRenew)
	assert.Equal(t, result.SubscriptionID, sub.ID)

	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.ActionSubscriptionActivation, repo.auditLogs[0].ActionType)
	assert.Equal(t, uint(9), repo.auditLogs[0].AdminID)
	assert.Equal(t, user.ID, repo.auditLogs[0].TargetID)
}

func TestActivateCancelsPriorSubscription(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	user, _, method := seedActivationFixtures(repo)
	basic := repo.addPlan(models.SubscriptionPlan{
		Name: "Basic", Price: 10000, BillingCycle: models.BillingCycleMonthly, IsActive: true,
	})
	pro := repo.addPlan(models.SubscriptionPlan{
		Name: "Pro Plus", Price: 90000, BillingCycle: models.BillingCycleMonthly, IsActive: true,
	})
	repo.subscriptions = append(repo.subscriptions, &models.UserSubscription{
		ID: 500, UserID: user.ID, AgencyID: *user.AgencyID, PlanID: basic.ID,
		Status: models.SubscriptionStatusActive, StartDate: now.Add(-48 * time.Hour),
	})
	svc := newTestService(repo, now)

	_, err := svc.Activate(context.Background(), ActivationRequest{
		UserID: user.ID, PlanID: pro.ID, PaymentMethodID: method.ID, AdminID: 9,
	})
	require.NoError(t, err)

	require.Len(t, repo.subscriptions, 2)
	old := repo.subscriptions[0]
	assert.Equal(t, models.SubscriptionStatusCancelled, old.Status)
	require.NotNil(t, old.EndDate)
	assert.True(t, old.EndDate.Equal(now))

	active, err := repo.GetActiveSubscription(user.ID)
	require.NoError(t, err)
	assert.Equal(t, pro.ID, active.PlanID)
}

func TestActivateWithPromoRedeemsOnce(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	user, plan, method := seedActivationFixtures(repo)
	promo := repo.addPromo(models.PromoCode{
		Code: "SAVE10", Name: "Save 10%", DiscountType: models.DiscountTypePercentage,
		DiscountValue: 10, UserUsageLimit: 1, IsActive: true,
	})
	svc := newTestService(repo, now)

	result, err := svc.Activate(context.Background(), ActivationRequest{
		UserID: user.ID, PlanID: plan.ID, PaymentMethodID: method.ID,
		PromoCode: "save10", AdminID: 9,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(5000), result.DiscountAmount)
	assert.Equal(t, int64(45000), result.Amount)
	assert.Equal(t, 1, promo.UsageCount)
	require.Len(t, repo.redemptions, 1)
	assert.Equal(t, promo.ID, repo.redemptions[0].PromoCodeID)
	assert.Equal(t, int64(5000), repo.redemptions[0].DiscountAmount)
	require.Len(t, repo.billingRecords, 1)
	require.NotNil(t, repo.billingRecords[0].PromoCodeID)
	assert.Equal(t, promo.ID, *repo.billingRecords[0].PromoCodeID)
}

func TestActivateRejectsInvalidPromo(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	user, plan, method := seedActivationFixtures(repo)
	svc := newTestService(repo, now)

	_, err := svc.Activate(context.Background(), ActivationRequest{
		UserID: user.ID, PlanID: plan.ID, PaymentMethodID: method.ID,
		PromoCode: "UNKNOWN", AdminID: 9,
	})
	assert.True(t, IsKind(err, KindPromoNotFound))
	assert.Empty(t, repo.billingRecords)
	assert.Empty(t, repo.subscriptions)
}

func TestActivateResubmitWithinWindowIsTooSoon(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	user, plan, method := seedActivationFixtures(repo)
	svc := newTestService(repo, now)

	req := ActivationRequest{UserID: user.ID, PlanID: plan.ID, PaymentMethodID: method.ID, AdminID: 9}
	_, err := svc.Activate(context.Background(), req)
	require.NoError(t, err)

	svc.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = svc.Activate(context.Background(), req)
	assert.True(t, IsKind(err, KindTooSoon))
	assert.Len(t, repo.billingRecords, 1)
	assert.Len(t, repo.subscriptions, 1)
}

func TestActivateRejectsDuplicatePlanAfterWindow(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	user, plan, method := seedActivationFixtures(repo)
	svc := newTestService(repo, now)

	req := ActivationRequest{UserID: user.ID, PlanID: plan.ID, PaymentMethodID: method.ID, AdminID: 9}
	_, err := svc.Activate(context.Background(), req)
	require.NoError(t, err)

	svc.now = func() time.Time { return now.Add(DuplicateWindow + time.Minute) }
	_, err = svc.Activate(context.Background(), req)
	assert.True(t, IsKind(err, KindNoopConflict))
	assert.Len(t, repo.billingRecords, 1)
	assert.Len(t, repo.subscriptions, 1)
}

func TestActivateRejectsUserWithoutAgency(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	_, plan, method := seedActivationFixtures(repo)
	loner := repo.addUser(models.User{
		FirstName: "Solo", LastName: "User", Email: "solo@example.cd", Status: "active",
	})
	svc := newTestService(repo, now)

	_, err := svc.Activate(context.Background(), ActivationRequest{
		UserID: loner.ID, PlanID: plan.ID, PaymentMethodID: method.ID, AdminID: 9,
	})
	assert.True(t, IsKind(err, KindValidation))
}

type stubLocker struct {
	held     map[string]bool
	acquired []string
	released []string
}

func (l *stubLocker) Acquire(_ context.Context, key string) (bool, error) {
	if l.held[key] {
		return false, nil
	}
	l.acquired = append(l.acquired, key)
	return true, nil
}

func (l *stubLocker) Release(_ context.Context, key string) error {
	l.released = append(l.released, key)
	return nil
}

func TestActivateHeldLockRejectsAndReleasesOnSuccess(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	user, plan, method := seedActivationFixtures(repo)
	locker := &stubLocker{held: map[string]bool{activationLockKey(user.ID): true}}
	svc := newTestService(repo, now)
	svc.locker = locker

	_, err := svc.Activate(context.Background(), ActivationRequest{
		UserID: user.ID, PlanID: plan.ID, PaymentMethodID: method.ID, AdminID: 9,
	})
	assert.True(t, IsKind(err, KindTooSoon))
	assert.Empty(t, repo.billingRecords)

	locker.held = map[string]bool{}
	_, err = svc.Activate(context.Background(), ActivationRequest{
		UserID: user.ID, PlanID: plan.ID, PaymentMethodID: method.ID, AdminID: 9,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{activationLockKey(user.ID)}, locker.released)
}

func TestHandlePaymentConfirmationActivatesWithoutLoadedSettings(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	user, plan, method := seedActivationFixtures(repo)
	svc := newTestService(repo, now)

	// No settings loaded in this process; the toggle falls back to enabled.
	result, activated, err := svc.HandlePaymentConfirmation(
		context.Background(), user.ID, plan.ID, method.Code, "txn-123")
	require.NoError(t, err)
	assert.True(t, activated)
	require.Len(t, repo.billingRecords, 1)
	assert.Equal(t, models.BillingStatusPaid, repo.billingRecords[0].Status)
	require.Len(t, repo.subscriptions, 1)
	assert.Equal(t, result.SubscriptionID, repo.subscriptions[0].ID)
}

func TestCancelActiveSubscription(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	user, plan, method := seedActivationFixtures(repo)
	svc := newTestService(repo, now)

	_, err := svc.Activate(context.Background(), ActivationRequest{
		UserID: user.ID, PlanID: plan.ID, PaymentMethodID: method.ID, AdminID: 9,
	})
	require.NoError(t, err)

	later := now.Add(72 * time.Hour)
	svc.now = func() time.Time { return later }

	require.NoError(t, svc.Cancel(context.Background(), user.ID, 9, "customer request"))

	sub := repo.subscriptions[0]
	assert.Equal(t, models.SubscriptionStatusCancelled, sub.Status)
	require.NotNil(t, sub.EndDate)
	assert.True(t, sub.EndDate.Equal(later))

	assert.Equal(t, models.BillingStatusCancelled, repo.billingRecords[0].Status)

	require.Len(t, repo.auditLogs, 2)
	assert.Equal(t, models.ActionSubscriptionCancellation, repo.auditLogs[1].ActionType)
}

func TestCancelWithoutActiveSubscription(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	svc := newTestService(repo, now)

	err := svc.Cancel(context.Background(), 404, 9, "")
	assert.True(t, IsKind(err, KindNotFound))
}

func TestDeleteBillingRecordAuditsDeletedAmount(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	user, plan, method := seedActivationFixtures(repo)
	svc := newTestService(repo, now)

	result, err := svc.Activate(context.Background(), ActivationRequest{
		UserID: user.ID, PlanID: plan.ID, PaymentMethodID: method.ID, AdminID: 9,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBillingRecord(context.Background(), result.BillingRecordID, 9))
	assert.Empty(t, repo.billingRecords)

	last := repo.auditLogs[len(repo.auditLogs)-1]
	assert.Equal(t, models.ActionBillingDeletion, last.ActionType)
	assert.Equal(t, result.BillingRecordID, last.TargetID)
	assert.Contains(t, last.Details, "Pro")
}

func TestDeleteBillingRecordNotFound(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(newFakeRepo(), now)

	err := svc.DeleteBillingRecord(context.Background(), 404, 9)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestMarkBillingPaidActivatesSubscription(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	user, plan, _ := seedActivationFixtures(repo)
	repo.billingRecords = append(repo.billingRecords, &models.BillingRecord{
		ID: 300, UserID: user.ID, AgencyID: *user.AgencyID, PlanID: plan.ID,
		Amount: plan.Price, Status: models.BillingStatusPending,
		PaymentMethod: models.PaymentMethodMobileMoney, CreatedAt: now.Add(-time.Hour),
	})
	svc := newTestService(repo, now)

	require.NoError(t, svc.MarkBillingPaid(context.Background(), 300, 9))

	record := repo.billingRecords[0]
	assert.Equal(t, models.BillingStatusPaid, record.Status)
	require.NotNil(t, record.PaymentDate)

	active, err := repo.GetActiveSubscription(user.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, active.PlanID)
	require.NotNil(t, active.EndDate)
	assert.True(t, active.EndDate.Equal(now.AddDate(0, 1, 0)))

	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.ActionBillingStatusChange, repo.auditLogs[0].ActionType)
}

func TestMarkBillingPaidRejectsNonPending(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	user, plan, _ := seedActivationFixtures(repo)
	repo.billingRecords = append(repo.billingRecords, &models.BillingRecord{
		ID: 300, UserID: user.ID, AgencyID: *user.AgencyID, PlanID: plan.ID,
		Amount: plan.Price, Status: models.BillingStatusPaid,
	})
	svc := newTestService(repo, now)

	err := svc.MarkBillingPaid(context.Background(), 300, 9)
	assert.True(t, IsKind(err, KindValidation))
}

func TestUpdateBillingStatusFailed(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	user, plan, _ := seedActivationFixtures(repo)
	repo.billingRecords = append(repo.billingRecords, &models.BillingRecord{
		ID: 300, UserID: user.ID, AgencyID: *user.AgencyID, PlanID: plan.ID,
		Amount: plan.Price, Status: models.BillingStatusPending,
	})
	svc := newTestService(repo, now)

	require.NoError(t, svc.UpdateBillingStatus(context.Background(), 300, models.BillingStatusFailed, 9))
	assert.Equal(t, models.BillingStatusFailed, repo.billingRecords[0].Status)
	// No subscription is created for a failed payment.
	assert.Empty(t, repo.subscriptions)
}

func TestExpireOverdueSubscriptionsDowngradesToFree(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	user, paidPlan, _ := seedActivationFixtures(repo)
	freePlan := repo.addPlan(models.SubscriptionPlan{
		Name: "Free", Price: 0, BillingCycle: models.BillingCycleMonthly, IsFree: true, IsActive: true,
	})
	end := now.Add(-time.Hour)
	repo.subscriptions = append(repo.subscriptions, &models.UserSubscription{
		ID: 600, UserID: user.ID, AgencyID: *user.AgencyID, PlanID: paidPlan.ID,
		Status: models.SubscriptionStatusActive, StartDate: now.AddDate(0, -1, 0), EndDate: &end,
	})
	svc := newTestService(repo, now)

	expired, err := svc.ExpireOverdueSubscriptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint{user.ID}, expired)

	active, err := repo.GetActiveSubscription(user.ID)
	require.NoError(t, err)
	assert.Equal(t, freePlan.ID, active.PlanID)
	assert.Nil(t, active.EndDate)
}

func TestExpireOverdueSubscriptionsFreePlanStaysExpired(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	user, _, _ := seedActivationFixtures(repo)
	freePlan := repo.addPlan(models.SubscriptionPlan{
		Name: "Free", Price: 0, BillingCycle: models.BillingCycleMonthly, IsFree: true, IsActive: true,
	})
	end := now.Add(-time.Hour)
	repo.subscriptions = append(repo.subscriptions, &models.UserSubscription{
		ID: 600, UserID: user.ID, AgencyID: *user.AgencyID, PlanID: freePlan.ID,
		Status: models.SubscriptionStatusActive, StartDate: now.AddDate(0, -1, 0), EndDate: &end,
	})
	svc := newTestService(repo, now)

	expired, err := svc.ExpireOverdueSubscriptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint{user.ID}, expired)

	_, err = repo.GetActiveSubscription(user.ID)
	assert.Error(t, err)
}

func TestStatsUsesCurrentMonth(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	user, plan, _ := seedActivationFixtures(repo)

	thisMonth := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2025, time.May, 20, 0, 0, 0, 0, time.UTC)
	repo.billingRecords = append(repo.billingRecords,
		&models.BillingRecord{ID: 1, UserID: user.ID, AgencyID: *user.AgencyID, PlanID: plan.ID,
			Amount: 50000, Status: models.BillingStatusPaid, PaymentDate: &thisMonth, CreatedAt: thisMonth},
		&models.BillingRecord{ID: 2, UserID: user.ID, AgencyID: *user.AgencyID, PlanID: plan.ID,
			Amount: 50000, Status: models.BillingStatusPaid, PaymentDate: &lastMonth, CreatedAt: lastMonth},
		&models.BillingRecord{ID: 3, UserID: user.ID, AgencyID: *user.AgencyID, PlanID: plan.ID,
			Amount: 50000, Status: models.BillingStatusPending, CreatedAt: thisMonth},
	)
	svc := newTestService(repo, now)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalPayments)
	assert.Equal(t, int64(1), stats.PendingPayments)
	assert.Equal(t, int64(2), stats.PaidPayments)
	assert.Equal(t, int64(100000), stats.TotalRevenue)
	assert.Equal(t, int64(50000), stats.MonthlyRevenue)
}
