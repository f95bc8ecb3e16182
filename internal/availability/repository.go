package availability

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	// ListRules returns all weekly rules for a business in one read.
	ListRules(ctx context.Context, businessID string) ([]Rule, error)

	// ListOverrides returns the per-date overrides intersecting [from, to]
	// (inclusive date strings) in one read.
	ListOverrides(ctx context.Context, businessID, from, to string) ([]Override, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) ListRules(ctx context.Context, businessID string) ([]Rule, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "business_id", "weekday", "start_time", "end_time", "available").
		From("public.availability_rules").
		Where(squirrel.Eq{"business_id": businessID}).
		OrderBy("weekday").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list rules query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rules failed: %w", err)
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		var rule Rule
		if err := rows.Scan(&rule.ID, &rule.BusinessID, &rule.Weekday, &rule.StartTime, &rule.EndTime, &rule.Available); err != nil {
			return nil, fmt.Errorf("scan rule failed: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *pgxRepository) ListOverrides(ctx context.Context, businessID, from, to string) ([]Override, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "business_id", "to_char(date, 'YYYY-MM-DD')", "available", "start_time", "end_time").
		From("public.date_overrides").
		Where(squirrel.Eq{"business_id": businessID}).
		Where(squirrel.GtOrEq{"date": from}).
		Where(squirrel.LtOrEq{"date": to}).
		OrderBy("date").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list overrides query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list overrides failed: %w", err)
	}
	defer rows.Close()

	var overrides []Override
	for rows.Next() {
		var o Override
		if err := rows.Scan(&o.ID, &o.BusinessID, &o.Date, &o.Available, &o.StartTime, &o.EndTime); err != nil {
			return nil, fmt.Errorf("scan override failed: %w", err)
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}
