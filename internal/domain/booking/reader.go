package booking

import (
	"context"
	"time"

	"stayledger/internal/core/id"
)

// Reader provides the reconciliation engine's view of the booking feeds.
// Implementations must return empty slices, not errors, when no rows match.
type Reader interface {
	// ShortTermInMonth returns short-term stays whose check-in falls
	// inside [monthStart, monthEnd].
	ShortTermInMonth(ctx context.Context, propertyID id.ID, monthStart, monthEnd time.Time) ([]Record, error)

	// ActiveMidTermOverlapping returns active leases whose [start, end]
	// interval intersects [monthStart, monthEnd].
	ActiveMidTermOverlapping(ctx context.Context, propertyID id.ID, monthStart, monthEnd time.Time) ([]MidTerm, error)
}
