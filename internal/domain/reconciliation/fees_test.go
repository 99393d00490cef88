package reconciliation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayledger/internal/core/id"
	"stayledger/internal/core/types"
	"stayledger/internal/domain/booking"
)

func TestAverageNightlyRate(t *testing.T) {
	propID := id.New()

	// 5 nights at 1000 total plus 2 nights at 400 total: 1400 / 7 = 200.
	a := stay(propID, "A", day(2026, 4, 1), day(2026, 4, 6))
	a.TotalAmount = types.MustMoney("1000.00")
	b := stay(propID, "B", day(2026, 4, 10), day(2026, 4, 12))
	b.TotalAmount = types.MustMoney("400.00")

	avg, ok := AverageNightlyRate([]booking.Record{a, b})
	require.True(t, ok)
	assert.True(t, avg.Equal(types.MustMoney("200.00")), "got %s", avg)
}

func TestAverageNightlyRate_SkipsInvalidBookings(t *testing.T) {
	propID := id.New()

	valid := stay(propID, "A", day(2026, 4, 1), day(2026, 4, 3))
	valid.TotalAmount = types.MustMoney("300.00")

	zeroAmount := stay(propID, "B", day(2026, 4, 5), day(2026, 4, 7))
	zeroAmount.TotalAmount = types.Zero()

	inverted := stay(propID, "C", day(2026, 4, 10), day(2026, 4, 8))

	avg, ok := AverageNightlyRate([]booking.Record{valid, zeroAmount, inverted})
	require.True(t, ok)
	assert.True(t, avg.Equal(types.MustMoney("150.00")), "got %s", avg)
}

func TestAverageNightlyRate_NoQualifyingBookings(t *testing.T) {
	_, ok := AverageNightlyRate(nil)
	assert.False(t, ok)
}

func TestOrderMinimumTier(t *testing.T) {
	tests := []struct {
		name    string
		rate    string
		hasRate bool
		want    string
	}{
		{"no activity falls to lowest tier", "0", false, "250.00"},
		{"below 200", "199.99", true, "250.00"},
		{"exactly 200 is mid tier", "200.00", true, "400.00"},
		{"between 200 and 400", "305.50", true, "400.00"},
		{"exactly 400 is mid tier", "400.00", true, "400.00"},
		{"above 400", "400.01", true, "750.00"},
		{"high rate", "1200.00", true, "750.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OrderMinimumTier(types.MustMoney(tt.rate), tt.hasRate)
			assert.True(t, got.Equal(types.MustMoney(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestAdditivePolicy(t *testing.T) {
	rev := RevenueTotals{
		ShortTerm: types.MustMoney("1000.00"),
		MidTerm:   types.MustMoney("3000.00"),
		Total:     types.MustMoney("4000.00"),
	}

	fee, deduction := AdditivePolicy{}.Assess(rev, types.MustMoney("0.10"), types.MustMoney("250.00"))

	assert.True(t, fee.Equal(types.MustMoney("400.00")), "got %s", fee)
	assert.True(t, deduction.Equal(types.MustMoney("250.00")), "got %s", deduction)
}

func TestSubsumePolicy_PercentageAboveFloor(t *testing.T) {
	rev := RevenueTotals{
		ShortTerm: types.MustMoney("5000.00"),
		MidTerm:   types.MustMoney("3000.00"),
		Total:     types.MustMoney("8000.00"),
	}

	fee, deduction := SubsumePolicy{}.Assess(rev, types.MustMoney("0.10"), types.MustMoney("400.00"))

	assert.True(t, fee.Equal(types.MustMoney("800.00")), "got %s", fee)
	assert.True(t, deduction.IsZero())
}

func TestSubsumePolicy_FloorApplies(t *testing.T) {
	rev := RevenueTotals{
		ShortTerm: types.MustMoney("1000.00"),
		Total:     types.MustMoney("1000.00"),
	}
	rev.MidTerm = types.Zero()

	fee, deduction := SubsumePolicy{}.Assess(rev, types.MustMoney("0.10"), types.MustMoney("400.00"))

	assert.True(t, fee.Equal(types.MustMoney("400.00")), "got %s", fee)
	assert.True(t, deduction.IsZero())
}

func TestPolicyByName(t *testing.T) {
	p, err := PolicyByName("additive")
	require.NoError(t, err)
	assert.Equal(t, "additive", p.Name())

	p, err = PolicyByName("subsume")
	require.NoError(t, err)
	assert.Equal(t, "subsume", p.Name())

	p, err = PolicyByName("")
	require.NoError(t, err)
	assert.Equal(t, "additive", p.Name())

	_, err = PolicyByName("bogus")
	assert.Error(t, err)
}
