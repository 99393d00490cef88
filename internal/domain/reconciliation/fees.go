package reconciliation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"stayledger/internal/core/types"
	"stayledger/internal/domain/booking"
)

// Order-minimum tiers. The tier is chosen by average nightly rate across
// the property's counted short-term bookings for the month.
var (
	orderMinLow  = types.MustMoney("250.00")
	orderMinMid  = types.MustMoney("400.00")
	orderMinHigh = types.MustMoney("750.00")

	tierLowCeiling = types.MustMoney("200.00")
	tierMidCeiling = types.MustMoney("400.00")
)

// AverageNightlyRate computes total booking revenue divided by total
// nights across the given bookings. Bookings with a non-positive amount
// or fewer than one night are ignored. Returns (zero, false) when no
// booking qualifies.
func AverageNightlyRate(stays []booking.Record) (types.Money, bool) {
	total := types.Zero()
	nights := 0
	for _, st := range stays {
		n := st.Nights()
		if n < 1 || !st.TotalAmount.IsPositive() {
			continue
		}
		total = total.Add(st.TotalAmount)
		nights += n
	}
	if nights == 0 {
		return types.Zero(), false
	}
	return total.Div(decimal.NewFromInt(int64(nights))).Round(2), true
}

// OrderMinimumTier maps an average nightly rate to the monthly
// order-minimum fee. Months with no short-term activity fall into the
// lowest tier; an active mid-term lease waives the fee entirely, which
// callers handle before reaching here.
func OrderMinimumTier(avgNightlyRate types.Money, hasRate bool) types.Money {
	switch {
	case !hasRate:
		return orderMinLow
	case avgNightlyRate.LessThan(tierLowCeiling):
		return orderMinLow
	case avgNightlyRate.LessThanOrEqual(tierMidCeiling):
		return orderMinMid
	default:
		return orderMinHigh
	}
}

// RevenueTotals is the revenue summary a fee policy assesses against.
type RevenueTotals struct {
	ShortTerm types.Money
	MidTerm   types.Money
	Total     types.Money
}

// FeePolicy computes the management fee and the order-minimum deduction
// for a month. Policies are pure: same inputs, same outputs.
//
// The computed tier is always recorded on the reconciliation for
// reporting even when a policy folds it into the management fee.
type FeePolicy interface {
	Name() string

	// Assess returns the management fee and the amount deducted from the
	// owner as a separate order-minimum line item.
	Assess(rev RevenueTotals, feePercent, orderMinimum types.Money) (managementFee, orderMinimumDeduction types.Money)
}

// AdditivePolicy charges the percentage fee and the order-minimum tier
// as two independent deductions.
type AdditivePolicy struct{}

func (AdditivePolicy) Name() string { return "additive" }

func (AdditivePolicy) Assess(rev RevenueTotals, feePercent, orderMinimum types.Money) (types.Money, types.Money) {
	fee := rev.Total.Mul(feePercent).Round(2)
	return fee, orderMinimum
}

// SubsumePolicy treats the order minimum as a floor on the management
// fee: the owner pays max(percentage fee, order minimum) and no separate
// order-minimum deduction. The order_minimum line item is still emitted,
// zero-valued, so the ledger records that the floor was evaluated.
type SubsumePolicy struct{}

func (SubsumePolicy) Name() string { return "subsume" }

func (SubsumePolicy) Assess(rev RevenueTotals, feePercent, orderMinimum types.Money) (types.Money, types.Money) {
	fee := rev.ShortTerm.Add(rev.MidTerm).Mul(feePercent).Round(2)
	if fee.LessThan(orderMinimum) {
		fee = orderMinimum
	}
	return fee, types.Zero()
}

// PolicyByName resolves a configured policy name.
func PolicyByName(name string) (FeePolicy, error) {
	switch name {
	case "", AdditivePolicy{}.Name():
		return AdditivePolicy{}, nil
	case SubsumePolicy{}.Name():
		return SubsumePolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown fee policy %q", name)
	}
}
