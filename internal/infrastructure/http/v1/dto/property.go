package dto

import (
	"stayledger/internal/domain/property"
)

// PropertyResponse is a managed property.
type PropertyResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`

	OwnerName  string `json:"ownerName,omitempty"`
	OwnerEmail string `json:"ownerEmail,omitempty"`

	FeePercent      string `json:"feePercent"`
	NightlyRate     string `json:"nightlyRate"`
	OrderMinimumFee string `json:"orderMinimumFee"`

	Active  bool `json:"active"`
	Version int  `json:"version"`
}

// FromProperty maps the domain property to its response shape.
func FromProperty(p *property.Property) PropertyResponse {
	return PropertyResponse{
		ID:              p.ID.String(),
		Name:            p.Name,
		Address:         p.Address,
		OwnerName:       p.OwnerName,
		OwnerEmail:      p.OwnerEmail,
		FeePercent:      p.FeePercent.String(),
		NightlyRate:     p.NightlyRate.String(),
		OrderMinimumFee: p.OrderMinimumFee.String(),
		Active:          p.Active,
		Version:         p.Version,
	}
}

// FromPropertyList maps a list of properties.
func FromPropertyList(props []*property.Property) []PropertyResponse {
	out := make([]PropertyResponse, 0, len(props))
	for _, p := range props {
		out = append(out, FromProperty(p))
	}
	return out
}
