package billing

import (
	"testing"
	"time"

	"github.com/didierkasongo/ndaku/app/models"
	"github.com/stretchr/testify/assert"
)

func TestComputeEndDate(t *testing.T) {
	start := time.Date(2025, time.March, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		cycle models.BillingCycle
		want  time.Time
	}{
		{"weekly", models.BillingCycleWeekly, start.AddDate(0, 0, 7)},
		{"monthly", models.BillingCycleMonthly, time.Date(2025, time.April, 15, 10, 30, 0, 0, time.UTC)},
		{"quarterly", models.BillingCycleQuarterly, time.Date(2025, time.June, 15, 10, 30, 0, 0, time.UTC)},
		{"semestrial", models.BillingCycleSemestrial, time.Date(2025, time.September, 15, 10, 30, 0, 0, time.UTC)},
		{"annual", models.BillingCycleAnnual, time.Date(2026, time.March, 15, 10, 30, 0, 0, time.UTC)},
		{"unknown cycle falls back to monthly", models.BillingCycle("fortnightly"), time.Date(2025, time.April, 15, 10, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeEndDate(start, tt.cycle)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestComputeEndDateMonthRollover(t *testing.T) {
	// Jan 31 + 1 month normalizes per time.AddDate.
	start := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
	got := ComputeEndDate(start, models.BillingCycleMonthly)
	assert.Equal(t, time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC), got)
}

func TestComputeEndDateLeapYear(t *testing.T) {
	start := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)
	got := ComputeEndDate(start, models.BillingCycleAnnual)
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), got)
}
