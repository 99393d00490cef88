// Package booking provides read-only access to the two booking feeds the
// channel-sync job maintains: short-term channel stays and mid-term leases.
// The reconciliation engine never writes these tables.
package booking

import (
	"time"

	"stayledger/internal/core/id"
	"stayledger/internal/core/types"
)

// Record is a short-term stay as reported by a booking channel.
type Record struct {
	ID         id.ID `db:"id" json:"id"`
	PropertyID id.ID `db:"property_id" json:"propertyId"`

	GuestName string `db:"guest_name" json:"guestName"`

	CheckIn  time.Time `db:"check_in" json:"checkIn"`
	CheckOut time.Time `db:"check_out" json:"checkOut"`

	// TotalAmount is the full amount charged to the guest.
	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	// Itemized revenue breakdown; channels do not always provide it.
	AccommodationRevenue types.NullMoney `db:"accommodation_revenue" json:"accommodationRevenue,omitempty"`
	CleaningFee          types.NullMoney `db:"cleaning_fee" json:"cleaningFee,omitempty"`
	PetFee               types.NullMoney `db:"pet_fee" json:"petFee,omitempty"`
}

// Nights returns the number of nights in the stay, rounding partial days
// up. Returns 0 for inverted or zero-length date ranges.
func (r Record) Nights() int {
	d := r.CheckOut.Sub(r.CheckIn)
	if d <= 0 {
		return 0
	}
	nights := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		nights++
	}
	return nights
}

// Accommodation returns the accommodation-only revenue, falling back to
// the total amount when the channel did not itemize.
func (r Record) Accommodation() types.Money {
	if r.AccommodationRevenue.Valid {
		return r.AccommodationRevenue.Decimal
	}
	return r.TotalAmount
}

// MidTerm is a lease with fixed monthly rent.
type MidTerm struct {
	ID         id.ID `db:"id" json:"id"`
	PropertyID id.ID `db:"property_id" json:"propertyId"`

	TenantName string `db:"tenant_name" json:"tenantName"`

	Start time.Time `db:"start_date" json:"start"`
	End   time.Time `db:"end_date" json:"end"`

	MonthlyRent types.Money `db:"monthly_rent" json:"monthlyRent"`

	Active bool `db:"active" json:"active"`
}

// Overlaps reports whether the lease interval intersects [from, to],
// endpoints inclusive.
func (m MidTerm) Overlaps(from, to time.Time) bool {
	return !m.Start.After(to) && !m.End.Before(from)
}
