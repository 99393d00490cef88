// Package expense provides read access to the expense and visit ledgers
// maintained by back-office UI flows. The reconciliation engine reads them
// and relies on line-item keys (not the exported/billed flags, which are
// flipped by a collaborator) to avoid double counting.
package expense

import (
	"context"
	"time"

	"stayledger/internal/core/id"
	"stayledger/internal/core/types"
)

// Expense is a cost fact charged against a property.
type Expense struct {
	ID         id.ID `db:"id" json:"id"`
	PropertyID id.ID `db:"property_id" json:"propertyId"`

	Description string      `db:"description" json:"description"`
	Category    string      `db:"category" json:"category"`
	Amount      types.Money `db:"amount" json:"amount"`
	Date        time.Time   `db:"date" json:"date"`

	// Exported marks expenses already pulled into a statement.
	Exported bool `db:"exported" json:"exported"`
}

// Visit is a billable property visit.
type Visit struct {
	ID         id.ID `db:"id" json:"id"`
	PropertyID id.ID `db:"property_id" json:"propertyId"`

	Date  time.Time   `db:"date" json:"date"`
	Price types.Money `db:"price" json:"price"`
	Notes string      `db:"notes" json:"notes,omitempty"`

	// Billed marks visits already pulled into a statement.
	Billed bool `db:"billed" json:"billed"`
}

// Reader provides the reconciliation engine's view of the cost ledgers.
// Implementations must return empty slices, not errors, when no rows match.
type Reader interface {
	// ExpensesInMonth returns expenses dated inside [monthStart, monthEnd].
	ExpensesInMonth(ctx context.Context, propertyID id.ID, monthStart, monthEnd time.Time) ([]Expense, error)

	// VisitsInMonth returns visits dated inside [monthStart, monthEnd].
	VisitsInMonth(ctx context.Context, propertyID id.ID, monthStart, monthEnd time.Time) ([]Visit, error)
}
