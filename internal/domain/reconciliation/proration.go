package reconciliation

import (
	"time"

	"github.com/shopspring/decimal"

	"stayledger/internal/core/apperror"
	"stayledger/internal/core/types"
	"stayledger/internal/domain/booking"
)

// Proration is the share of a lease's monthly rent attributable to one
// calendar month.
type Proration struct {
	Amount types.Money

	// EffectiveStart/EffectiveEnd are the lease dates clipped to the month.
	EffectiveStart time.Time
	EffectiveEnd   time.Time

	// Days counts clipped lease days, both endpoints inclusive.
	Days        int
	DaysInMonth int
}

// Prorate clips a lease to [monthStart, monthEnd] and allocates
// monthly_rent / days_in_month * days to the month.
//
// Leases that do not intersect the month, or that produce a non-positive
// day count or rent, return a DataIntegrity error; callers skip and log
// rather than ever emitting negative revenue.
func Prorate(mt booking.MidTerm, monthStart, monthEnd time.Time) (Proration, error) {
	if !mt.Overlaps(monthStart, monthEnd) {
		return Proration{}, apperror.NewDataIntegrity("lease does not intersect month").
			WithDetail("lease_id", mt.ID.String()).
			WithDetail("month", monthStart.Format(monthLayout))
	}

	start := truncateToDay(mt.Start)
	if start.Before(monthStart) {
		start = monthStart
	}
	end := truncateToDay(mt.End)
	if end.After(monthEnd) {
		end = monthEnd
	}

	days := daysBetweenInclusive(start, end)
	if days <= 0 {
		return Proration{}, apperror.NewDataIntegrity("lease produced non-positive day count").
			WithDetail("lease_id", mt.ID.String()).
			WithDetail("days", days)
	}

	if mt.MonthlyRent.IsNegative() {
		return Proration{}, apperror.NewDataIntegrity("lease has negative monthly rent").
			WithDetail("lease_id", mt.ID.String()).
			WithDetail("monthly_rent", mt.MonthlyRent.String())
	}

	dim := DaysInMonth(monthStart)

	// Multiply before dividing so a lease spanning the whole month comes
	// out at exactly the monthly rent.
	amount := mt.MonthlyRent.
		Mul(decimal.NewFromInt(int64(days))).
		Div(decimal.NewFromInt(int64(dim))).
		Round(2)

	return Proration{
		Amount:         amount,
		EffectiveStart: start,
		EffectiveEnd:   end,
		Days:           days,
		DaysInMonth:    dim,
	}, nil
}
