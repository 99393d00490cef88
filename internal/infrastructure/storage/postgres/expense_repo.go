package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stayledger/internal/core/id"
	"stayledger/internal/domain/expense"
)

const (
	expenseTable = "expenses"
	visitTable   = "visits"
)

var _ expense.Reader = (*ExpenseRepo)(nil)

// ExpenseRepo reads the expense and visit ledgers maintained by
// back-office flows.
type ExpenseRepo struct {
	txm         *TxManager
	expenseCols []string
	visitCols   []string
}

// NewExpenseRepo creates the cost reader.
func NewExpenseRepo(txm *TxManager) *ExpenseRepo {
	return &ExpenseRepo{
		txm:         txm,
		expenseCols: ExtractDBColumns[expense.Expense](),
		visitCols:   ExtractDBColumns[expense.Visit](),
	}
}

func (r *ExpenseRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// ExpensesInMonth implements expense.Reader.
func (r *ExpenseRepo) ExpensesInMonth(ctx context.Context, propertyID id.ID, monthStart, monthEnd time.Time) ([]expense.Expense, error) {
	q := r.builder().
		Select(r.expenseCols...).
		From(expenseTable).
		Where(squirrel.Eq{"property_id": propertyID}).
		Where(squirrel.GtOrEq{"date": monthStart}).
		Where(squirrel.Lt{"date": monthEnd.AddDate(0, 0, 1)}).
		OrderBy("date ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	expenses := []expense.Expense{}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &expenses, sql, args...); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// VisitsInMonth implements expense.Reader.
func (r *ExpenseRepo) VisitsInMonth(ctx context.Context, propertyID id.ID, monthStart, monthEnd time.Time) ([]expense.Visit, error) {
	q := r.builder().
		Select(r.visitCols...).
		From(visitTable).
		Where(squirrel.Eq{"property_id": propertyID}).
		Where(squirrel.GtOrEq{"date": monthStart}).
		Where(squirrel.Lt{"date": monthEnd.AddDate(0, 0, 1)}).
		OrderBy("date ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	visits := []expense.Visit{}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &visits, sql, args...); err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	return visits, nil
}
