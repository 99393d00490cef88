package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stayledger/internal/core/id"
	"stayledger/internal/domain/booking"
)

const (
	shortTermTable = "short_term_bookings"
	midTermTable   = "mid_term_bookings"
)

var _ booking.Reader = (*BookingRepo)(nil)

// BookingRepo reads the booking feeds the channel-sync job maintains.
// This engine never writes these tables.
type BookingRepo struct {
	txm         *TxManager
	shortCols   []string
	midTermCols []string
}

// NewBookingRepo creates the booking reader.
func NewBookingRepo(txm *TxManager) *BookingRepo {
	return &BookingRepo{
		txm:         txm,
		shortCols:   ExtractDBColumns[booking.Record](),
		midTermCols: ExtractDBColumns[booking.MidTerm](),
	}
}

func (r *BookingRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// ShortTermInMonth implements booking.Reader.
func (r *BookingRepo) ShortTermInMonth(ctx context.Context, propertyID id.ID, monthStart, monthEnd time.Time) ([]booking.Record, error) {
	q := r.builder().
		Select(r.shortCols...).
		From(shortTermTable).
		Where(squirrel.Eq{"property_id": propertyID}).
		Where(squirrel.GtOrEq{"check_in": monthStart}).
		Where(squirrel.Lt{"check_in": monthEnd.AddDate(0, 0, 1)}).
		OrderBy("check_in ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	stays := []booking.Record{}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &stays, sql, args...); err != nil {
		return nil, fmt.Errorf("list short-term bookings: %w", err)
	}
	return stays, nil
}

// ActiveMidTermOverlapping implements booking.Reader.
func (r *BookingRepo) ActiveMidTermOverlapping(ctx context.Context, propertyID id.ID, monthStart, monthEnd time.Time) ([]booking.MidTerm, error) {
	q := r.builder().
		Select(r.midTermCols...).
		From(midTermTable).
		Where(squirrel.Eq{"property_id": propertyID}).
		Where(squirrel.Eq{"active": true}).
		Where(squirrel.LtOrEq{"start_date": monthEnd}).
		Where(squirrel.GtOrEq{"end_date": monthStart}).
		OrderBy("start_date ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	leases := []booking.MidTerm{}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &leases, sql, args...); err != nil {
		return nil, fmt.Errorf("list mid-term bookings: %w", err)
	}
	return leases, nil
}
