package appointmenttype

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*AppointmentType, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*AppointmentType, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(
		"id", "business_id", "name", "duration_minutes", "buffer_before", "buffer_after",
		"require_payment", "price", "deposit_percent", "currency", "enable_google_meet",
		"refund_policy", "active", "created_at",
	).
		From("public.appointment_types").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get appointment type query failed: %w", err)
	}

	var t AppointmentType
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&t.ID, &t.BusinessID, &t.Name, &t.DurationMinutes, &t.BufferBefore, &t.BufferAfter,
		&t.RequirePayment, &t.Price, &t.DepositPercent, &t.Currency, &t.EnableGoogleMeet,
		&t.RefundPolicy, &t.Active, &t.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get appointment type failed: %w", err)
	}
	return &t, nil
}
