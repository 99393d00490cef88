// Package property provides the managed property directory.
// Properties are maintained by out-of-scope back-office flows; the
// reconciliation engine reads them and caches computed rates back.
package property

import (
	"context"

	"stayledger/internal/core/apperror"
	"stayledger/internal/core/entity"
	"stayledger/internal/core/types"
)

// Property represents a managed rental property.
type Property struct {
	entity.BaseDocument

	Name    string `db:"name" json:"name"`
	Address string `db:"address" json:"address"`

	OwnerName  string `db:"owner_name" json:"ownerName"`
	OwnerEmail string `db:"owner_email" json:"ownerEmail,omitempty"`

	// FeePercent is the management fee rate as a fraction (0.10 = 10%).
	FeePercent types.Money `db:"fee_percent" json:"feePercent"`

	// NightlyRate and OrderMinimumFee are computed during reconciliation
	// and cached here for reporting.
	NightlyRate     types.Money `db:"nightly_rate" json:"nightlyRate"`
	OrderMinimumFee types.Money `db:"order_minimum_fee" json:"orderMinimumFee"`

	Active bool `db:"active" json:"active"`
}

// New creates a new Property with required fields.
func New(name, address, ownerName string, feePercent types.Money) *Property {
	return &Property{
		BaseDocument: entity.NewBaseDocument(),
		Name:         name,
		Address:      address,
		OwnerName:    ownerName,
		FeePercent:   feePercent,
		Active:       true,
	}
}

// Validate implements entity.Validatable.
func (p *Property) Validate(ctx context.Context) error {
	if p.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if p.FeePercent.IsNegative() || p.FeePercent.GreaterThan(types.NewMoneyFromInt(1)) {
		return apperror.NewValidation("fee percent must be a fraction between 0 and 1").
			WithDetail("field", "feePercent").
			WithDetail("value", p.FeePercent.String())
	}
	return nil
}
