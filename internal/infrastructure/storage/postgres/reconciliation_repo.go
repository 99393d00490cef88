package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stayledger/internal/core/apperror"
	"stayledger/internal/core/id"
	"stayledger/internal/domain"
	"stayledger/internal/domain/reconciliation"
)

const (
	reconciliationTable = "monthly_reconciliations"
	lineItemTable       = "reconciliation_line_items"

	// Partial unique index on (property_id, month) WHERE NOT deletion_mark.
	reconciliationMonthConstraint = "uq_reconciliations_property_month"
)

var _ reconciliation.Repository = (*ReconciliationRepo)(nil)

// ReconciliationRepo persists reconciliations and their ledgers.
type ReconciliationRepo struct {
	txm        *TxManager
	selectCols []string
	itemCols   []string
}

// NewReconciliationRepo creates the reconciliation repository.
func NewReconciliationRepo(txm *TxManager) *ReconciliationRepo {
	return &ReconciliationRepo{
		txm:        txm,
		selectCols: ExtractDBColumns[reconciliation.MonthlyReconciliation](),
		itemCols:   ExtractDBColumns[reconciliation.LineItem](),
	}
}

func (r *ReconciliationRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *ReconciliationRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().Select(r.selectCols...).From(reconciliationTable)
}

// GetByID loads a reconciliation with its line items.
func (r *ReconciliationRepo) GetByID(ctx context.Context, recID id.ID) (*reconciliation.MonthlyReconciliation, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": recID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rec reconciliation.MonthlyReconciliation
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &rec, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("reconciliation", recID.String())
		}
		return nil, fmt.Errorf("get reconciliation: %w", err)
	}

	items, err := r.GetItems(ctx, recID)
	if err != nil {
		return nil, err
	}
	rec.Items = items
	return &rec, nil
}

// GetByPropertyMonth loads the non-deleted reconciliation for a property
// and month.
func (r *ReconciliationRepo) GetByPropertyMonth(ctx context.Context, propertyID id.ID, month time.Time) (*reconciliation.MonthlyReconciliation, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"property_id": propertyID}).
		Where(squirrel.Eq{"month": month}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rec reconciliation.MonthlyReconciliation
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &rec, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("reconciliation", month.Format("2006-01"))
		}
		return nil, fmt.Errorf("get reconciliation by month: %w", err)
	}
	return &rec, nil
}

// Create inserts the record and its initial line items.
func (r *ReconciliationRepo) Create(ctx context.Context, rec *reconciliation.MonthlyReconciliation, items []reconciliation.LineItem) error {
	data := filterColumns(StructToMap(rec), r.selectCols)

	q := r.builder().Insert(reconciliationTable).SetMap(data)
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		// The partial unique index backs the service-level existence
		// check against concurrent creates.
		if isUniqueViolation(err, reconciliationMonthConstraint) {
			return apperror.NewConflict("reconciliation for this property and month already exists").
				WithDetail("property_id", rec.PropertyID.String()).
				WithDetail("month", rec.Month.Format("2006-01")).
				WithCause(err)
		}
		if isForeignKeyViolation(err) {
			return apperror.NewNotFound("property", rec.PropertyID.String()).WithCause(err)
		}
		return apperror.NewPersistenceFailure("reconciliation", err)
	}

	return r.insertItems(ctx, items)
}

// SaveItems appends line items and refreshes the record's stored totals.
func (r *ReconciliationRepo) SaveItems(ctx context.Context, rec *reconciliation.MonthlyReconciliation, items []reconciliation.LineItem) error {
	if err := r.insertItems(ctx, items); err != nil {
		return err
	}

	q := r.builder().
		Update(reconciliationTable).
		Set("total_revenue", rec.TotalRevenue).
		Set("short_term_revenue", rec.ShortTermRevenue).
		Set("mid_term_revenue", rec.MidTermRevenue).
		Set("visit_fees", rec.VisitFees).
		Set("total_expenses", rec.TotalExpenses).
		Set("management_fee", rec.ManagementFee).
		Set("order_minimum_fee", rec.OrderMinimumFee).
		Set("net_to_owner", rec.NetToOwner).
		Set("updated_at", squirrel.Expr("now()")).
		Set("updated_by", rec.UpdatedBy).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": rec.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewPersistenceFailure("reconciliation", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("reconciliation", rec.ID.String())
	}
	return nil
}

func (r *ReconciliationRepo) insertItems(ctx context.Context, items []reconciliation.LineItem) error {
	if len(items) == 0 {
		return nil
	}

	q := r.builder().
		Insert(lineItemTable).
		Columns("id", "reconciliation_id", "item_type", "item_id",
			"amount", "date", "category", "verified", "created_at")
	for _, li := range items {
		q = q.Values(li.ID, li.ReconciliationID, li.ItemType, li.ItemID,
			li.Amount, li.Date, li.Category, li.Verified, li.CreatedAt)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build item insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err, "") {
			return apperror.NewDuplicate("line_item", "item_id", "").WithCause(err)
		}
		return apperror.NewPersistenceFailure("line_item", err)
	}
	return nil
}

// GetItems returns the persisted ledger for a reconciliation, oldest
// entries first.
func (r *ReconciliationRepo) GetItems(ctx context.Context, recID id.ID) ([]reconciliation.LineItem, error) {
	q := r.builder().
		Select(r.itemCols...).
		From(lineItemTable).
		Where(squirrel.Eq{"reconciliation_id": recID}).
		OrderBy("created_at ASC", "item_type ASC", "item_id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	items := []reconciliation.LineItem{}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list line items: %w", err)
	}
	return items, nil
}

// ListDueForFinalize returns preview reconciliations for months strictly
// before the given month start, without line items; finalize re-reads
// each record through GetByID.
func (r *ReconciliationRepo) ListDueForFinalize(ctx context.Context, before time.Time) ([]*reconciliation.MonthlyReconciliation, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"status": reconciliation.StatusPreview}).
		Where(squirrel.Lt{"month": before}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("month ASC", "created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	recs := []*reconciliation.MonthlyReconciliation{}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &recs, sql, args...); err != nil {
		return nil, fmt.Errorf("list due reconciliations: %w", err)
	}
	return recs, nil
}

// TransitionToDraft advances a preview record to draft, guarded on the
// current status so a concurrent finalize cannot double-apply.
func (r *ReconciliationRepo) TransitionToDraft(ctx context.Context, recID id.ID) error {
	q := r.builder().
		Update(reconciliationTable).
		Set("status", reconciliation.StatusDraft).
		Set("updated_at", squirrel.Expr("now()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": recID}).
		Where(squirrel.Eq{"status": reconciliation.StatusPreview})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewPersistenceFailure("reconciliation", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("reconciliation", recID.String())
	}
	return nil
}

// SetDeletionMark soft-deletes or restores a reconciliation.
func (r *ReconciliationRepo) SetDeletionMark(ctx context.Context, recID id.ID, deleted bool) error {
	q := r.builder().
		Update(reconciliationTable).
		Set("deletion_mark", deleted).
		Set("updated_at", squirrel.Expr("now()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": recID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewPersistenceFailure("reconciliation", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("reconciliation", recID.String())
	}
	return nil
}

// List returns reconciliations matching the filter, without line items.
func (r *ReconciliationRepo) List(ctx context.Context, filter reconciliation.ListFilter) (domain.ListResult[*reconciliation.MonthlyReconciliation], error) {
	result := domain.ListResult[*reconciliation.MonthlyReconciliation]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()
	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.PropertyID != nil {
		q = q.Where(squirrel.Eq{"property_id": *filter.PropertyID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}

	countQ := r.builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count reconciliations: %w", err)
	}

	orderBy, err := parseOrderBy(filter.OrderBy, r.selectCols, "month DESC")
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list reconciliations: %w", err)
	}
	return result, nil
}
