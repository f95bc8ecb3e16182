package business

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*Business, error)
	GetByWidgetID(ctx context.Context, widgetID string) (*Business, error)
	UpsertByExternalID(ctx context.Context, req UpsertRequest) (*Business, error)
	SetTier(ctx context.Context, externalID, tier string) error
	SetActive(ctx context.Context, externalID string, active bool) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var businessColumns = []string{
	"id", "widget_id", "external_id", "name", "email", "timezone", "tier",
	"calendar_connected", "calendar_token", "active", "created_at", "updated_at",
}

func scanBusiness(row pgx.Row) (*Business, error) {
	var b Business
	if err := row.Scan(
		&b.ID, &b.WidgetID, &b.ExternalID, &b.Name, &b.Email, &b.Timezone, &b.Tier,
		&b.CalendarConnected, &b.CalendarToken, &b.Active, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan business failed: %w", err)
	}
	return &b, nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Business, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(businessColumns...).
		From("public.businesses").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get business query failed: %w", err)
	}
	return scanBusiness(r.pool.QueryRow(ctx, query, args...))
}

func (r *pgxRepository) GetByWidgetID(ctx context.Context, widgetID string) (*Business, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(businessColumns...).
		From("public.businesses").
		Where(squirrel.Eq{"widget_id": widgetID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get business by widget query failed: %w", err)
	}
	return scanBusiness(r.pool.QueryRow(ctx, query, args...))
}

func upsertBusinessSQL(req UpsertRequest) (string, []any, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	return psql.Insert("public.businesses").
		Columns("external_id", "widget_id", "name", "email", "timezone").
		Values(req.ExternalID, squirrel.Expr("gen_random_uuid()::text"), req.Name, req.Email, req.Timezone).
		Suffix(`ON CONFLICT (external_id) DO UPDATE
			SET name = EXCLUDED.name, email = EXCLUDED.email,
			    timezone = EXCLUDED.timezone, updated_at = now()
			RETURNING ` + strings.Join(businessColumns, ", ")).
		ToSql()
}

func (r *pgxRepository) UpsertByExternalID(ctx context.Context, req UpsertRequest) (*Business, error) {
	query, args, err := upsertBusinessSQL(req)
	if err != nil {
		return nil, fmt.Errorf("build upsert business query failed: %w", err)
	}
	return scanBusiness(r.pool.QueryRow(ctx, query, args...))
}

func (r *pgxRepository) SetTier(ctx context.Context, externalID, tier string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.businesses").
		Set("tier", tier).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"external_id": externalID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set tier query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set tier failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) SetActive(ctx context.Context, externalID string, active bool) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.businesses").
		Set("active", active).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"external_id": externalID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set active query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set active failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
