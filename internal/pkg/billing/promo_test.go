package billing

import (
	"context"
	"testing"
	"time"

	"github.com/didierkasongo/ndaku/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(repo Repository, now time.Time) *Service {
	s := NewService(repo)
	s.now = func() time.Time { return now }
	return s
}

func TestValidatePromoCodePercentage(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	cap := int64(4000)
	repo.addPromo(models.PromoCode{
		Code:              "SAVE10",
		Name:              "Save 10%",
		DiscountType:      models.DiscountTypePercentage,
		DiscountValue:     10,
		MaxDiscountAmount: &cap,
		UserUsageLimit:    1,
		IsActive:          true,
	})
	svc := newTestService(repo, now)

	result, err := svc.ValidatePromoCode(context.Background(), "save10", 1, 1, 50000)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, "Save 10%", result.PromoName)
	// 10% of 50000 is 5000, capped at 4000.
	assert.Equal(t, int64(4000), result.DiscountAmount)
	assert.Equal(t, int64(46000), result.FinalAmount)
}

func TestValidatePromoCodePercentageRoundsHalfUp(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	repo.addPromo(models.PromoCode{
		Code:           "THIRD",
		Name:           "Third off",
		DiscountType:   models.DiscountTypePercentage,
		DiscountValue:  33,
		UserUsageLimit: 1,
		IsActive:       true,
	})
	svc := newTestService(repo, now)

	// 33% of 101 is 33.33, rounds to 33; 33% of 105 is 34.65, rounds to 35.
	result, err := svc.ValidatePromoCode(context.Background(), "THIRD", 1, 1, 101)
	require.NoError(t, err)
	assert.Equal(t, int64(33), result.DiscountAmount)

	result, err = svc.ValidatePromoCode(context.Background(), "THIRD", 1, 1, 105)
	require.NoError(t, err)
	assert.Equal(t, int64(35), result.DiscountAmount)
}

func TestValidatePromoCodeFixedAmountCappedAtBase(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	repo.addPromo(models.PromoCode{
		Code:           "FLAT5000",
		Name:           "Flat 5000",
		DiscountType:   models.DiscountTypeFixedAmount,
		DiscountValue:  5000,
		UserUsageLimit: 1,
		IsActive:       true,
	})
	svc := newTestService(repo, now)

	result, err := svc.ValidatePromoCode(context.Background(), "FLAT5000", 1, 1, 3000)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, int64(3000), result.DiscountAmount)
	assert.Equal(t, int64(0), result.FinalAmount)
}

func TestValidatePromoCodeFailures(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)
	usageLimit := 3

	tests := []struct {
		name     string
		promo    *models.PromoCode
		code     string
		amount   int64
		planID   uint
		wantKind ErrorKind
	}{
		{
			name:     "unknown code",
			promo:    nil,
			code:     "NOPE",
			amount:   10000,
			planID:   1,
			wantKind: KindPromoNotFound,
		},
		{
			name: "inactive code reads as not found",
			promo: &models.PromoCode{
				Code: "GONE", Name: "Gone", DiscountType: models.DiscountTypePercentage,
				DiscountValue: 10, UserUsageLimit: 1, IsActive: false,
			},
			code: "GONE", amount: 10000, planID: 1,
			wantKind: KindPromoNotFound,
		},
		{
			name: "not yet valid",
			promo: &models.PromoCode{
				Code: "SOON", Name: "Soon", DiscountType: models.DiscountTypePercentage,
				DiscountValue: 10, UserUsageLimit: 1, IsActive: true, ValidFrom: &future,
			},
			code: "SOON", amount: 10000, planID: 1,
			wantKind: KindPromoExpired,
		},
		{
			name: "expired",
			promo: &models.PromoCode{
				Code: "LATE", Name: "Late", DiscountType: models.DiscountTypePercentage,
				DiscountValue: 10, UserUsageLimit: 1, IsActive: true, ValidUntil: &past,
			},
			code: "LATE", amount: 10000, planID: 1,
			wantKind: KindPromoExpired,
		},
		{
			name: "below minimum order amount",
			promo: &models.PromoCode{
				Code: "BIGONLY", Name: "Big only", DiscountType: models.DiscountTypePercentage,
				DiscountValue: 10, MinOrderAmount: 20000, UserUsageLimit: 1, IsActive: true,
			},
			code: "BIGONLY", amount: 10000, planID: 1,
			wantKind: KindPromoBelowMinimum,
		},
		{
			name: "plan not eligible",
			promo: &models.PromoCode{
				Code: "PROONLY", Name: "Pro only", DiscountType: models.DiscountTypePercentage,
				DiscountValue: 10, UserUsageLimit: 1, IsActive: true, ApplicablePlans: "[7]",
			},
			code: "PROONLY", amount: 10000, planID: 1,
			wantKind: KindPromoPlanNotEligible,
		},
		{
			name: "global usage exhausted",
			promo: &models.PromoCode{
				Code: "SPENT", Name: "Spent", DiscountType: models.DiscountTypePercentage,
				DiscountValue: 10, UsageLimit: &usageLimit, UsageCount: 3, UserUsageLimit: 1, IsActive: true,
			},
			code: "SPENT", amount: 10000, planID: 1,
			wantKind: KindPromoUsageExhausted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			if tt.promo != nil {
				repo.addPromo(*tt.promo)
			}
			svc := newTestService(repo, now)

			result, err := svc.ValidatePromoCode(context.Background(), tt.code, 1, tt.planID, tt.amount)
			require.NoError(t, err)
			assert.False(t, result.Valid)
			assert.Equal(t, string(tt.wantKind), result.ErrorKind)
			assert.NotEmpty(t, result.Error)
			assert.Equal(t, tt.amount, result.FinalAmount)
		})
	}
}

func TestValidatePromoCodePerUserLimit(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	promo := repo.addPromo(models.PromoCode{
		Code: "ONCE", Name: "Once per user", DiscountType: models.DiscountTypeFixedAmount,
		DiscountValue: 1000, UserUsageLimit: 1, IsActive: true,
	})
	repo.redemptions = append(repo.redemptions, models.PromoCodeUsage{
		PromoCodeID: promo.ID, UserID: 42, DiscountAmount: 1000,
	})
	svc := newTestService(repo, now)

	result, err := svc.ValidatePromoCode(context.Background(), "ONCE", 42, 1, 10000)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, string(KindPromoUserUsageExceeded), result.ErrorKind)

	// A different subscriber can still redeem.
	result, err = svc.ValidatePromoCode(context.Background(), "ONCE", 43, 1, 10000)
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestValidatePromoCodeZeroUserLimitIsUnlimited(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	promo := repo.addPromo(models.PromoCode{
		Code: "OPEN", Name: "Open", DiscountType: models.DiscountTypeFixedAmount,
		DiscountValue: 1000, UserUsageLimit: 0, IsActive: true,
	})
	repo.redemptions = append(repo.redemptions, models.PromoCodeUsage{
		PromoCodeID: promo.ID, UserID: 42, DiscountAmount: 1000,
	})
	svc := newTestService(repo, now)

	result, err := svc.ValidatePromoCode(context.Background(), "OPEN", 42, 1, 10000)
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestValidatePromoCodeHasNoSideEffects(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	promo := repo.addPromo(models.PromoCode{
		Code: "FREEBIE", Name: "Freebie", DiscountType: models.DiscountTypePercentage,
		DiscountValue: 10, UserUsageLimit: 5, IsActive: true,
	})
	svc := newTestService(repo, now)

	for i := 0; i < 3; i++ {
		result, err := svc.ValidatePromoCode(context.Background(), "FREEBIE", 1, 1, 10000)
		require.NoError(t, err)
		assert.True(t, result.Valid)
	}
	assert.Equal(t, 0, promo.UsageCount)
	assert.Empty(t, repo.redemptions)
}
