package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/didierkasongo/ndaku/app/models"
	"gorm.io/gorm"
)

// ValidatePromoCode checks a code against its validity window, usage caps,
// minimum order amount and plan allow-list, and computes the discount for the
// given base amount. It is side-effect free and repeatable: the usage count
// is only incremented when an activation actually redeems the code.
func (s *Service) ValidatePromoCode(ctx context.Context, code string, userID, planID uint, amount int64) (*PromoValidation, error) {
	_ = ctx
	promo, err := s.resolvePromoCode(s.repo, code, userID, planID, amount, s.now())
	if err != nil {
		var be *Error
		if errors.As(err, &be) && be.Kind != KindPersistence {
			return &PromoValidation{
				Valid:       false,
				FinalAmount: amount,
				Error:       be.Message,
				ErrorKind:   string(be.Kind),
			}, nil
		}
		return nil, err
	}

	discount := computeDiscount(promo, amount)
	return &PromoValidation{
		Valid:          true,
		PromoCodeID:    promo.ID,
		PromoName:      promo.Name,
		DiscountType:   string(promo.DiscountType),
		DiscountValue:  promo.DiscountValue,
		DiscountAmount: discount,
		FinalAmount:    finalAmount(amount, discount),
	}, nil
}

// resolvePromoCode runs the ordered eligibility checks and returns the promo
// row when every check passes. Checks short-circuit on first failure.
func (s *Service) resolvePromoCode(repo Repository, code string, userID, planID uint, amount int64, now time.Time) (*models.PromoCode, error) {
	promo, err := repo.GetPromoCodeByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindPromoNotFound, "promo code not found")
		}
		return nil, wrapError(KindPersistence, "failed to load promo code", err)
	}
	if !promo.IsActive {
		return nil, newError(KindPromoNotFound, "promo code not found")
	}

	if promo.ValidFrom != nil && now.Before(*promo.ValidFrom) {
		return nil, newError(KindPromoExpired, "promo code is not yet valid")
	}
	if promo.ValidUntil != nil && now.After(*promo.ValidUntil) {
		return nil, newError(KindPromoExpired, "promo code has expired")
	}

	if amount < promo.MinOrderAmount {
		return nil, newError(KindPromoBelowMinimum,
			fmt.Sprintf("order amount is below the minimum of %d required by this promo code", promo.MinOrderAmount))
	}

	if !promo.AppliesTo(planID) {
		return nil, newError(KindPromoPlanNotEligible, "promo code does not apply to this plan")
	}

	if promo.UsageLimit != nil && promo.UsageCount >= *promo.UsageLimit {
		return nil, newError(KindPromoUsageExhausted, "promo code usage limit reached")
	}

	// A non-positive per-user limit means unlimited, same as a nil UsageLimit.
	if promo.UserUsageLimit > 0 {
		userUses, err := repo.CountPromoRedemptionsByUser(promo.ID, userID)
		if err != nil {
			return nil, wrapError(KindPersistence, "failed to count promo redemptions", err)
		}
		if userUses >= int64(promo.UserUsageLimit) {
			return nil, newError(KindPromoUserUsageExceeded, "promo code usage limit reached for this subscriber")
		}
	}

	return promo, nil
}

// computeDiscount applies the promo to a base amount in minor currency units.
// Percentage discounts round half-up and respect the max discount cap; fixed
// discounts never exceed the base amount.
func computeDiscount(promo *models.PromoCode, amount int64) int64 {
	var discount int64
	switch promo.DiscountType {
	case models.DiscountTypePercentage:
		discount = (amount*promo.DiscountValue + 50) / 100
		if promo.MaxDiscountAmount != nil && discount > *promo.MaxDiscountAmount {
			discount = *promo.MaxDiscountAmount
		}
	case models.DiscountTypeFixedAmount:
		discount = promo.DiscountValue
		if discount > amount {
			discount = amount
		}
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

func finalAmount(amount, discount int64) int64 {
	final := amount - discount
	if final < 0 {
		return 0
	}
	return final
}
