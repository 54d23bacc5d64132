package billing

import (
	"testing"
	"time"

	"github.com/didierkasongo/ndaku/app/models"
	"github.com/stretchr/testify/assert"
)

func TestCheckDuplicateActivationSamePlanActive(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	end := now.Add(30 * 24 * time.Hour)
	repo.subscriptions = append(repo.subscriptions, &models.UserSubscription{
		ID: 100, UserID: 1, AgencyID: 2, PlanID: 3,
		Status: models.SubscriptionStatusActive, StartDate: now.Add(-time.Hour), EndDate: &end,
	})
	svc := newTestService(repo, now)

	err := svc.checkDuplicateActivation(repo, 1, 2, 3, now)
	assert.True(t, IsKind(err, KindNoopConflict))
}

func TestCheckDuplicateActivationExpiredSubscriptionDoesNotBlock(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	end := now.Add(-time.Hour)
	repo.subscriptions = append(repo.subscriptions, &models.UserSubscription{
		ID: 100, UserID: 1, AgencyID: 2, PlanID: 3,
		Status: models.SubscriptionStatusActive, StartDate: now.Add(-24 * time.Hour), EndDate: &end,
	})
	svc := newTestService(repo, now)

	assert.NoError(t, svc.checkDuplicateActivation(repo, 1, 2, 3, now))
}

func TestCheckDuplicateActivationDifferentPlanAllowed(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	repo.subscriptions = append(repo.subscriptions, &models.UserSubscription{
		ID: 100, UserID: 1, AgencyID: 2, PlanID: 3,
		Status: models.SubscriptionStatusActive, StartDate: now.Add(-time.Hour),
	})
	svc := newTestService(repo, now)

	assert.NoError(t, svc.checkDuplicateActivation(repo, 1, 2, 9, now))
}

func TestCheckDuplicateActivationRecentWindowWinsOverActivePlan(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	end := now.Add(30 * 24 * time.Hour)
	repo.subscriptions = append(repo.subscriptions, &models.UserSubscription{
		ID: 100, UserID: 1, AgencyID: 2, PlanID: 3,
		Status: models.SubscriptionStatusActive, StartDate: now.Add(-2 * time.Minute), EndDate: &end,
	})
	repo.billingRecords = append(repo.billingRecords, &models.BillingRecord{
		ID: 50, UserID: 1, AgencyID: 2, PlanID: 3, Amount: 10000,
		Status:        models.BillingStatusPaid,
		PaymentMethod: models.PaymentMethodManualActivation,
		CreatedAt:     now.Add(-2 * time.Minute),
	})
	svc := newTestService(repo, now)

	err := svc.checkDuplicateActivation(repo, 1, 2, 3, now)
	assert.True(t, IsKind(err, KindTooSoon))
}

func TestCheckDuplicateActivationRecentPaidWindow(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	repo.billingRecords = append(repo.billingRecords, &models.BillingRecord{
		ID: 50, UserID: 1, AgencyID: 2, PlanID: 3, Amount: 10000,
		Status:        models.BillingStatusPaid,
		PaymentMethod: models.PaymentMethodManualActivation,
		CreatedAt:     now.Add(-2 * time.Minute),
	})
	svc := newTestService(repo, now)

	err := svc.checkDuplicateActivation(repo, 1, 2, 3, now)
	assert.True(t, IsKind(err, KindTooSoon))
}

func TestCheckDuplicateActivationOldPaidRecordAllowed(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	repo.billingRecords = append(repo.billingRecords, &models.BillingRecord{
		ID: 50, UserID: 1, AgencyID: 2, PlanID: 3, Amount: 10000,
		Status:        models.BillingStatusPaid,
		PaymentMethod: models.PaymentMethodManualActivation,
		CreatedAt:     now.Add(-DuplicateWindow - time.Minute),
	})
	svc := newTestService(repo, now)

	assert.NoError(t, svc.checkDuplicateActivation(repo, 1, 2, 3, now))
}

func TestCheckDuplicateActivationPendingRecordDoesNotBlock(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	repo.billingRecords = append(repo.billingRecords, &models.BillingRecord{
		ID: 50, UserID: 1, AgencyID: 2, PlanID: 3, Amount: 10000,
		Status:        models.BillingStatusPending,
		PaymentMethod: models.PaymentMethodManualActivation,
		CreatedAt:     now.Add(-time.Minute),
	})
	svc := newTestService(repo, now)

	assert.NoError(t, svc.checkDuplicateActivation(repo, 1, 2, 3, now))
}
