package billing

import (
	"time"

	"github.com/didierkasongo/ndaku/app/models"
)

// ComputeEndDate returns the end of a billing period starting at start for
// the given cycle. Calendar arithmetic follows time.AddDate, so Jan 31 plus
// one month normalizes per Go's calendar rules. An unrecognized cycle falls
// back to monthly; this is a documented permissive default, not an error.
func ComputeEndDate(start time.Time, cycle models.BillingCycle) time.Time {
	switch cycle {
	case models.BillingCycleWeekly:
		return start.AddDate(0, 0, 7)
	case models.BillingCycleMonthly:
		return start.AddDate(0, 1, 0)
	case models.BillingCycleQuarterly:
		return start.AddDate(0, 3, 0)
	case models.BillingCycleSemestrial:
		return start.AddDate(0, 6, 0)
	case models.BillingCycleAnnual:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 1, 0)
	}
}
