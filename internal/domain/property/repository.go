package property

import (
	"context"

	"stayledger/internal/core/id"
	"stayledger/internal/core/types"
	"stayledger/internal/domain"
)

// Repository defines the interface for Property persistence.
type Repository interface {
	GetByID(ctx context.Context, propertyID id.ID) (*Property, error)

	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Property], error)

	Create(ctx context.Context, p *Property) error

	// UpdateComputedRates caches the nightly rate and order-minimum fee
	// computed during reconciliation back onto the property.
	UpdateComputedRates(ctx context.Context, propertyID id.ID, nightlyRate, orderMinimumFee types.Money) error
}
