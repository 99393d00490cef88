package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stayledger/internal/core/apperror"
	"stayledger/internal/core/id"
	"stayledger/internal/core/types"
	"stayledger/internal/domain"
	"stayledger/internal/domain/property"
)

const propertyTable = "properties"

var _ property.Repository = (*PropertyRepo)(nil)

// PropertyRepo is the PostgreSQL property directory.
type PropertyRepo struct {
	txm        *TxManager
	selectCols []string
}

// NewPropertyRepo creates the property repository.
func NewPropertyRepo(txm *TxManager) *PropertyRepo {
	return &PropertyRepo{
		txm:        txm,
		selectCols: ExtractDBColumns[property.Property](),
	}
}

func (r *PropertyRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *PropertyRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().Select(r.selectCols...).From(propertyTable)
}

// GetByID retrieves a property by id.
func (r *PropertyRepo) GetByID(ctx context.Context, propertyID id.ID) (*property.Property, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": propertyID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p property.Property
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("property", propertyID.String())
		}
		return nil, fmt.Errorf("get property: %w", err)
	}
	return &p, nil
}

// List retrieves properties with filtering and pagination.
func (r *PropertyRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*property.Property], error) {
	result := domain.ListResult[*property.Property]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()
	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"address": pattern},
			squirrel.ILike{"owner_name": pattern},
		})
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
		return result, fmt.Errorf("count properties: %w", err)
	}

	orderBy, err := parseOrderBy(filter.OrderBy, r.selectCols, "name ASC")
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
		return result, fmt.Errorf("list properties: %w", err)
	}
	return result, nil
}

// Create inserts a property.
func (r *PropertyRepo) Create(ctx context.Context, p *property.Property) error {
	data := StructToMap(p)

	q := r.builder().Insert(propertyTable).SetMap(filterColumns(data, r.selectCols))
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err, "") {
			return apperror.NewDuplicate("property", "name", p.Name).WithCause(err)
		}
		return apperror.NewPersistenceFailure("property", err)
	}
	return nil
}

// UpdateComputedRates caches reconciliation-derived rates on the property.
func (r *PropertyRepo) UpdateComputedRates(ctx context.Context, propertyID id.ID, nightlyRate, orderMinimumFee types.Money) error {
	q := r.builder().
		Update(propertyTable).
		Set("nightly_rate", nightlyRate).
		Set("order_minimum_fee", orderMinimumFee).
		Set("updated_at", squirrel.Expr("now()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": propertyID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewPersistenceFailure("property", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("property", propertyID.String())
	}
	return nil
}

// filterColumns keeps only keys present in the column whitelist.
func filterColumns(data map[string]any, cols []string) map[string]any {
	filtered := make(map[string]any, len(cols))
	for _, col := range cols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}
	return filtered
}

// parseOrderBy validates an "[-]field" order expression against a column
// whitelist, returning fallback for empty input.
func parseOrderBy(orderBy string, cols []string, fallback string) (string, error) {
	if orderBy == "" {
		return fallback, nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}
	field = strings.TrimSpace(field)

	for _, col := range cols {
		if col == field {
			return field + " " + direction, nil
		}
	}
	return "", apperror.NewValidation("invalid orderBy").
		WithDetail("orderBy", orderBy).
		WithDetail("field", field)
}
