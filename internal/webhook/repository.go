package webhook

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	// Insert records the event in the ledger. claimed is false when a row for
	// (provider, event_id) already exists, meaning this delivery is a replay.
	Insert(ctx context.Context, provider, eventID, eventType string) (claimed bool, err error)

	// IsProcessed reports whether a previously claimed event finished its
	// handler. False means the first attempt died mid-flight and the replay
	// should run the handler again.
	IsProcessed(ctx context.Context, provider, eventID string) (bool, error)

	MarkProcessed(ctx context.Context, provider, eventID string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Insert(ctx context.Context, provider, eventID, eventType string) (bool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.webhook_events").
		Columns("provider", "event_id", "event_type").
		Values(provider, eventID, eventType).
		Suffix("ON CONFLICT (provider, event_id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert webhook event query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert webhook event failed: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (r *pgxRepository) IsProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("processed").
		From("public.webhook_events").
		Where(squirrel.Eq{"provider": provider, "event_id": eventID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build webhook processed query failed: %w", err)
	}

	var processed bool
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&processed); err != nil {
		return false, fmt.Errorf("check webhook processed failed: %w", err)
	}
	return processed, nil
}

func (r *pgxRepository) MarkProcessed(ctx context.Context, provider, eventID string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.webhook_events").
		Set("processed", true).
		Set("processed_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"provider": provider, "event_id": eventID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark webhook processed query failed: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("mark webhook processed failed: %w", err)
	}
	return nil
}
