package reconciliation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayledger/internal/core/apperror"
	"stayledger/internal/core/id"
	"stayledger/internal/core/types"
	"stayledger/internal/domain/booking"
)

func TestProrate_FullMonthEqualsMonthlyRent(t *testing.T) {
	monthStart, monthEnd := MonthBounds(day(2026, 4, 1))
	mt := lease(id.New(), "Tenant", day(2026, 1, 1), day(2026, 12, 31))

	p, err := Prorate(mt, monthStart, monthEnd)
	require.NoError(t, err)

	assert.Equal(t, 30, p.Days)
	assert.Equal(t, 30, p.DaysInMonth)
	assert.True(t, p.Amount.Equal(mt.MonthlyRent), "full month must equal monthly rent, got %s", p.Amount)
}

func TestProrate_HalfMonth(t *testing.T) {
	// April 16-30 is 15 of 30 days.
	monthStart, monthEnd := MonthBounds(day(2026, 4, 1))
	mt := lease(id.New(), "Tenant", day(2026, 4, 16), day(2026, 7, 15))

	p, err := Prorate(mt, monthStart, monthEnd)
	require.NoError(t, err)

	assert.Equal(t, 15, p.Days)
	assert.True(t, p.Amount.Equal(types.MustMoney("1500.00")), "got %s", p.Amount)
	assert.Equal(t, day(2026, 4, 16), p.EffectiveStart)
	assert.Equal(t, day(2026, 4, 30), p.EffectiveEnd)
}

func TestProrate_LeaseEndsInsideMonth(t *testing.T) {
	// March 1-10 is 10 of 31 days: 3000 * 10 / 31 = 967.74.
	monthStart, monthEnd := MonthBounds(day(2026, 3, 1))
	mt := lease(id.New(), "Tenant", day(2025, 11, 1), day(2026, 3, 10))

	p, err := Prorate(mt, monthStart, monthEnd)
	require.NoError(t, err)

	assert.Equal(t, 10, p.Days)
	assert.True(t, p.Amount.Equal(types.MustMoney("967.74")), "got %s", p.Amount)
}

func TestProrate_SingleDay(t *testing.T) {
	monthStart, monthEnd := MonthBounds(day(2026, 2, 1))
	mt := lease(id.New(), "Tenant", day(2026, 2, 28), day(2026, 2, 28))

	p, err := Prorate(mt, monthStart, monthEnd)
	require.NoError(t, err)

	assert.Equal(t, 1, p.Days)
	assert.Equal(t, 28, p.DaysInMonth)
}

func TestProrate_FebruaryLeapYear(t *testing.T) {
	monthStart, monthEnd := MonthBounds(day(2028, 2, 1))
	mt := lease(id.New(), "Tenant", day(2028, 1, 1), day(2028, 12, 31))

	p, err := Prorate(mt, monthStart, monthEnd)
	require.NoError(t, err)

	assert.Equal(t, 29, p.Days)
	assert.True(t, p.Amount.Equal(mt.MonthlyRent))
}

func TestProrate_NoIntersection(t *testing.T) {
	monthStart, monthEnd := MonthBounds(day(2026, 4, 1))
	mt := lease(id.New(), "Tenant", day(2026, 6, 1), day(2026, 8, 31))

	_, err := Prorate(mt, monthStart, monthEnd)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDataIntegrity, appErr.Code)
}

func TestProrate_InvertedLeaseDates(t *testing.T) {
	monthStart, monthEnd := MonthBounds(day(2026, 4, 1))
	mt := booking.MidTerm{
		ID:          id.New(),
		PropertyID:  id.New(),
		TenantName:  "Tenant",
		Start:       day(2026, 4, 20),
		End:         day(2026, 4, 10),
		MonthlyRent: types.MustMoney("3000.00"),
		Active:      true,
	}

	_, err := Prorate(mt, monthStart, monthEnd)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDataIntegrity, appErr.Code)
}

func TestProrate_TimeOfDayIgnored(t *testing.T) {
	monthStart, monthEnd := MonthBounds(day(2026, 4, 1))
	mt := lease(id.New(), "Tenant",
		time.Date(2026, 4, 16, 15, 30, 0, 0, time.UTC),
		time.Date(2026, 7, 15, 11, 0, 0, 0, time.UTC),
	)

	p, err := Prorate(mt, monthStart, monthEnd)
	require.NoError(t, err)
	assert.Equal(t, 15, p.Days)
}
