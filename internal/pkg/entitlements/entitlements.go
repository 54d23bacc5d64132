package entitlements

import (
	"errors"
	"time"

	"github.com/didierkasongo/ndaku/app/models"
	"gorm.io/gorm"
)

// Resource names the quota-bound entity kinds a subscription plan limits.
type Resource string

const (
	ResourceProperties Resource = "properties"
	ResourceAgencies   Resource = "agencies"
	ResourceLeases     Resource = "leases"
	ResourceUsers      Resource = "users"
)

// IsValid reports whether the resource is a known quota kind.
func (r Resource) IsValid() bool {
	switch r {
	case ResourceProperties, ResourceAgencies, ResourceLeases, ResourceUsers:
		return true
	}
	return false
}

// Fallback quotas for subscribers without any active subscription. Leases get
// two so a landlord can run a handover period with the old and new tenant.
var fallbackLimits = map[Resource]int{
	ResourceProperties: 1,
	ResourceAgencies:   1,
	ResourceLeases:     2,
	ResourceUsers:      1,
}

// LimitFor returns the quota the plan grants for a resource. A nil plan
// yields the free-tier fallback.
func LimitFor(plan *models.SubscriptionPlan, resource Resource) int {
	if plan == nil {
		return fallbackLimits[resource]
	}
	switch resource {
	case ResourceProperties:
		return plan.MaxProperties
	case ResourceAgencies:
		return plan.MaxAgencies
	case ResourceLeases:
		return plan.MaxLeases
	case ResourceUsers:
		return plan.MaxUsers
	default:
		return 0
	}
}

// LimitCheck is the outcome of comparing current usage against the plan quota.
type LimitCheck struct {
	Resource Resource `json:"resource"`
	Limit    int      `json:"limit"`
	Current  int64    `json:"current"`
	Allowed  bool     `json:"allowed"`
	PlanName string   `json:"plan_name,omitempty"`
}

// Check reports whether the subscriber may create one more of the given
// resource. The limit comes from the active subscription's plan, or the
// free-tier fallback when none is current.
func Check(db *gorm.DB, userID uint, resource Resource) (*LimitCheck, error) {
	plan, err := activePlan(db, userID)
	if err != nil {
		return nil, err
	}

	current, err := currentUsage(db, userID, resource)
	if err != nil {
		return nil, err
	}

	check := &LimitCheck{
		Resource: resource,
		Limit:    LimitFor(plan, resource),
		Current:  current,
	}
	if plan != nil {
		check.PlanName = plan.Name
	}
	check.Allowed = check.Current < int64(check.Limit)
	return check, nil
}

// DeactivateExcess flags the newest resources beyond the plan quota as
// inactive. It runs after a downgrade so the subscriber keeps their oldest
// records; nothing is deleted.
func DeactivateExcess(db *gorm.DB, userID uint, plan *models.SubscriptionPlan) (int64, error) {
	var total int64
	for _, resource := range []Resource{ResourceProperties, ResourceAgencies, ResourceLeases} {
		n, err := deactivateExcessOf(db, userID, resource, LimitFor(plan, resource))
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func activePlan(db *gorm.DB, userID uint) (*models.SubscriptionPlan, error) {
	var sub models.UserSubscription
	err := db.Preload("Plan").
		Where("user_id = ? AND status = ?", userID, models.SubscriptionStatusActive).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !sub.IsCurrent(time.Now()) {
		return nil, nil
	}
	return sub.Plan, nil
}

func currentUsage(db *gorm.DB, userID uint, resource Resource) (int64, error) {
	var count int64
	var err error
	switch resource {
	case ResourceProperties:
		err = db.Model(&models.Property{}).
			Where("owner_id = ? AND is_active = ?", userID, true).
			Count(&count).Error
	case ResourceAgencies:
		err = db.Model(&models.Agency{}).
			Where("owner_id = ? AND is_active = ?", userID, true).
			Count(&count).Error
	case ResourceLeases:
		err = db.Model(&models.Lease{}).
			Where("owner_id = ? AND is_active = ?", userID, true).
			Count(&count).Error
	case ResourceUsers:
		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			return 0, err
		}
		if !user.IsAgencyMember() {
			return 0, nil
		}
		err = db.Model(&models.User{}).
			Where("agency_id = ? AND status = ?", *user.AgencyID, "active").
			Count(&count).Error
	default:
		return 0, nil
	}
	return count, err
}

func deactivateExcessOf(db *gorm.DB, userID uint, resource Resource, limit int) (int64, error) {
	ids, err := excessIDs(db, userID, resource, limit)
	if err != nil || len(ids) == 0 {
		return 0, err
	}

	var res *gorm.DB
	switch resource {
	case ResourceProperties:
		res = db.Model(&models.Property{}).Where("id IN ?", ids).Update("is_active", false)
	case ResourceAgencies:
		res = db.Model(&models.Agency{}).Where("id IN ?", ids).Update("is_active", false)
	case ResourceLeases:
		res = db.Model(&models.Lease{}).Where("id IN ?", ids).Update("is_active", false)
	default:
		return 0, nil
	}
	return res.RowsAffected, res.Error
}

// excessIDs returns the IDs of active rows beyond the quota, newest first, so
// the oldest rows survive a downgrade.
func excessIDs(db *gorm.DB, userID uint, resource Resource, limit int) ([]uint, error) {
	if limit < 0 {
		limit = 0
	}
	var ids []uint
	var err error
	switch resource {
	case ResourceProperties:
		err = db.Model(&models.Property{}).
			Where("owner_id = ? AND is_active = ?", userID, true).
			Order("created_at DESC").
			Pluck("id", &ids).Error
	case ResourceAgencies:
		err = db.Model(&models.Agency{}).
			Where("owner_id = ? AND is_active = ?", userID, true).
			Order("created_at DESC").
			Pluck("id", &ids).Error
	case ResourceLeases:
		err = db.Model(&models.Lease{}).
			Where("owner_id = ? AND is_active = ?", userID, true).
			Order("created_at DESC").
			Pluck("id", &ids).Error
	}
	if err != nil {
		return nil, err
	}
	if len(ids) <= limit {
		return nil, nil
	}
	return ids[:len(ids)-limit], nil
}
