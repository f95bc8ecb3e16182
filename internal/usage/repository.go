package usage

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgxLimiter struct {
	pool *pgxpool.Pool
}

func NewPgxLimiter(pool *pgxpool.Pool) Limiter {
	return &pgxLimiter{pool: pool}
}

func (l *pgxLimiter) Check(ctx context.Context, businessID, tier string) (*Status, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("bookings_count").
		From("public.usage_counters").
		Where(squirrel.Eq{"business_id": businessID, "month": CurrentMonth()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build usage check query failed: %w", err)
	}

	var count int
	if err := l.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("usage check failed: %w", err)
		}
		count = 0
	}

	limit := LimitFor(tier)
	return &Status{
		Allowed: limit < 0 || count < limit,
		Count:   count,
		Limit:   limit,
	}, nil
}

func (l *pgxLimiter) Increment(ctx context.Context, businessID string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.usage_counters").
		Columns("business_id", "month", "bookings_count").
		Values(businessID, CurrentMonth(), 1).
		Suffix("ON CONFLICT (business_id, month) DO UPDATE SET bookings_count = usage_counters.bookings_count + 1").
		ToSql()
	if err != nil {
		return fmt.Errorf("build usage increment query failed: %w", err)
	}

	if _, err := l.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("usage increment failed: %w", err)
	}
	return nil
}
