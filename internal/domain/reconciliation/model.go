// Package reconciliation implements the monthly reconciliation engine:
// for each managed property and calendar month it computes revenue earned,
// expenses incurred, the management fee owed and the net amount due to the
// owner, and persists that computation as an auditable, re-computable
// financial record.
package reconciliation

import (
	"context"
	"time"

	"stayledger/internal/core/apperror"
	"stayledger/internal/core/entity"
	"stayledger/internal/core/id"
	"stayledger/internal/core/types"
)

// Status is the lifecycle state of a reconciliation.
//
// This engine creates draft records directly and advances preview records
// to draft. Later states (sent, paid) are owned by downstream statement
// and payment flows and are never regressed here.
type Status string

const (
	StatusPreview Status = "preview"
	StatusDraft   Status = "draft"
	StatusSent    Status = "sent"
	StatusPaid    Status = "paid"
)

// Deletable reports whether a reconciliation in this state may be deleted.
func (s Status) Deletable() bool {
	return s == StatusDraft
}

// EditableByEngine reports whether this engine may still write to the record.
func (s Status) EditableByEngine() bool {
	return s == StatusPreview || s == StatusDraft
}

// MonthlyReconciliation is the computed financial record for one property
// for one calendar month. At most one non-deleted record may exist per
// (property, month) pair; the store enforces this with a partial unique
// index in addition to the pre-insert existence check.
type MonthlyReconciliation struct {
	entity.BaseDocument

	PropertyID id.ID `db:"property_id" json:"propertyId"`

	// Month is the first day of the calendar month, UTC.
	Month time.Time `db:"month" json:"month"`

	Status Status `db:"status" json:"status"`

	// FeePercent is the property's management fee rate snapshotted at
	// computation time.
	FeePercent types.Money `db:"fee_percent" json:"feePercent"`

	TotalRevenue     types.Money `db:"total_revenue" json:"totalRevenue"`
	ShortTermRevenue types.Money `db:"short_term_revenue" json:"shortTermRevenue"`
	MidTermRevenue   types.Money `db:"mid_term_revenue" json:"midTermRevenue"`
	VisitFees        types.Money `db:"visit_fees" json:"visitFees"`
	TotalExpenses    types.Money `db:"total_expenses" json:"totalExpenses"`
	ManagementFee    types.Money `db:"management_fee" json:"managementFee"`
	OrderMinimumFee  types.Money `db:"order_minimum_fee" json:"orderMinimumFee"`
	NetToOwner       types.Money `db:"net_to_owner" json:"netToOwner"`

	// Items is the signed ledger backing the totals above.
	Items []LineItem `db:"-" json:"items,omitempty"`
}

// New creates a reconciliation shell for a property and month.
func New(propertyID id.ID, month time.Time, feePercent types.Money) *MonthlyReconciliation {
	return &MonthlyReconciliation{
		BaseDocument: entity.NewBaseDocument(),
		PropertyID:   propertyID,
		Month:        FirstOfMonth(month),
		Status:       StatusDraft,
		FeePercent:   feePercent,
	}
}

// Validate implements entity.Validatable.
func (r *MonthlyReconciliation) Validate(ctx context.Context) error {
	if id.IsNil(r.PropertyID) {
		return apperror.NewValidation("property is required").
			WithDetail("field", "propertyId")
	}
	if r.Month.IsZero() {
		return apperror.NewValidation("month is required").
			WithDetail("field", "month")
	}
	if !r.Month.Equal(FirstOfMonth(r.Month)) {
		return apperror.NewValidation("month must be the first day of a calendar month").
			WithDetail("field", "month").
			WithDetail("value", r.Month.Format(monthLayout))
	}
	return nil
}

// CanModify returns an error when the record is past the states this
// engine owns.
func (r *MonthlyReconciliation) CanModify() error {
	if !r.Status.EditableByEngine() {
		return apperror.NewPeriodClosed(r.Month.Format(monthLayout)).
			WithDetail("reconciliation_id", r.ID.String()).
			WithDetail("status", string(r.Status))
	}
	return nil
}

// ItemType classifies a ledger entry.
type ItemType string

const (
	ItemTypeBooking        ItemType = "booking"
	ItemTypeMidTermBooking ItemType = "mid_term_booking"
	ItemTypePassThroughFee ItemType = "pass_through_fee"
	ItemTypeExpense        ItemType = "expense"
	ItemTypeVisit          ItemType = "visit"
	ItemTypeOrderMinimum   ItemType = "order_minimum"
)

// ItemKey is the natural identity of a ledger entry within one
// reconciliation. Modeled as a typed pair, not a concatenated string, so
// natural ids containing delimiters cannot collide.
type ItemKey struct {
	Type      ItemType
	NaturalID string
}

// LineItem is one signed monetary fact contributing to a reconciliation.
// Positive amounts are revenue, negative amounts are deductions.
// Line items are appended, never overwritten.
type LineItem struct {
	ID               id.ID `db:"id" json:"id"`
	ReconciliationID id.ID `db:"reconciliation_id" json:"reconciliationId"`

	ItemType ItemType `db:"item_type" json:"itemType"`
	ItemID   string   `db:"item_id" json:"itemId"`

	Amount   types.Money `db:"amount" json:"amount"`
	Date     time.Time   `db:"date" json:"date"`
	Category string      `db:"category" json:"category"`
	Verified bool        `db:"verified" json:"verified"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Key returns the dedup key of this item.
func (li LineItem) Key() ItemKey {
	return ItemKey{Type: li.ItemType, NaturalID: li.ItemID}
}

// KeySet builds the existing-key set from persisted items.
func KeySet(items []LineItem) map[ItemKey]struct{} {
	keys := make(map[ItemKey]struct{}, len(items))
	for _, li := range items {
		keys[li.Key()] = struct{}{}
	}
	return keys
}
