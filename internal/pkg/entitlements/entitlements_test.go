package entitlements

import (
	"testing"

	"github.com/didierkasongo/ndaku/app/models"
	"github.com/stretchr/testify/assert"
)

func TestLimitForPlanQuotas(t *testing.T) {
	plan := &models.SubscriptionPlan{
		Name:          "Pro",
		MaxProperties: 50,
		MaxAgencies:   3,
		MaxLeases:     100,
		MaxUsers:      10,
	}

	assert.Equal(t, 50, LimitFor(plan, ResourceProperties))
	assert.Equal(t, 3, LimitFor(plan, ResourceAgencies))
	assert.Equal(t, 100, LimitFor(plan, ResourceLeases))
	assert.Equal(t, 10, LimitFor(plan, ResourceUsers))
	assert.Equal(t, 0, LimitFor(plan, Resource("unknown")))
}

func TestLimitForFallbackWithoutPlan(t *testing.T) {
	assert.Equal(t, 1, LimitFor(nil, ResourceProperties))
	assert.Equal(t, 1, LimitFor(nil, ResourceAgencies))
	assert.Equal(t, 2, LimitFor(nil, ResourceLeases))
	assert.Equal(t, 1, LimitFor(nil, ResourceUsers))
}

func TestResourceIsValid(t *testing.T) {
	for _, r := range []Resource{ResourceProperties, ResourceAgencies, ResourceLeases, ResourceUsers} {
		assert.True(t, r.IsValid())
	}
	assert.False(t, Resource("images").IsValid())
}
