package reconciliation

import (
	"context"
	"time"

	"stayledger/internal/core/id"
	"stayledger/internal/domain"
)

// ListFilter narrows reconciliation listings.
type ListFilter struct {
	domain.ListFilter

	PropertyID *id.ID
	Status     *Status
}

// DefaultListFilter returns a filter with sane pagination defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{ListFilter: domain.DefaultListFilter()}
}

// Repository persists reconciliations and their ledgers.
type Repository interface {
	// GetByID loads a reconciliation with its line items.
	GetByID(ctx context.Context, recID id.ID) (*MonthlyReconciliation, error)

	// GetByPropertyMonth loads the non-deleted reconciliation for a
	// property and month, or a NotFound error.
	GetByPropertyMonth(ctx context.Context, propertyID id.ID, month time.Time) (*MonthlyReconciliation, error)

	// Create inserts the record and its initial line items atomically.
	// A concurrent insert for the same (property, month) surfaces as a
	// Conflict error via the store's partial unique index.
	Create(ctx context.Context, rec *MonthlyReconciliation, items []LineItem) error

	// SaveItems appends line items and updates the record's stored totals
	// atomically.
	SaveItems(ctx context.Context, rec *MonthlyReconciliation, items []LineItem) error

	// GetItems returns the persisted ledger for a reconciliation.
	GetItems(ctx context.Context, recID id.ID) ([]LineItem, error)

	// ListDueForFinalize returns preview reconciliations for months
	// strictly before the given month start.
	ListDueForFinalize(ctx context.Context, before time.Time) ([]*MonthlyReconciliation, error)

	// TransitionToDraft advances a preview record to draft. The update is
	// guarded on the current status being preview; a lost race returns a
	// ConcurrentModification error.
	TransitionToDraft(ctx context.Context, recID id.ID) error

	// SetDeletionMark soft-deletes a draft reconciliation.
	SetDeletionMark(ctx context.Context, recID id.ID, deleted bool) error

	// List returns reconciliations matching the filter, newest first by
	// default, without line items.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*MonthlyReconciliation], error)
}

// AuditLogger records engine actions against a reconciliation for the
// audit trail endpoint.
type AuditLogger interface {
	Log(ctx context.Context, entityType string, entityID id.ID, action string, details map[string]any) error
}
