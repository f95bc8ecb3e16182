package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openslot/openslot-backend/internal/pkg/interval"
)

type Repository interface {
	// Create persists a confirmed appointment. The commit-time conflict
	// re-check runs inside the same transaction as the insert; a racing
	// double-insert additionally trips the storage exclusion constraint.
	// Either path surfaces as ErrSlotTaken.
	Create(ctx context.Context, a *Appointment) error

	GetByCancellationToken(ctx context.Context, token string) (*Appointment, error)

	// ListActiveWindows returns the buffered windows of non-cancelled
	// appointments intersecting [from, to) in one read.
	ListActiveWindows(ctx context.Context, businessID string, from, to time.Time) ([]interval.Span, error)

	// PaymentIntentInUse reports whether any appointment already references
	// the payment intent (replay protection).
	PaymentIntentInUse(ctx context.Context, intentID string) (bool, error)

	Cancel(ctx context.Context, id string, refundID *string, refundAmount *int64) error
	SetCalendarEvent(ctx context.Context, id, eventID, meetingLink string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Create(ctx context.Context, a *Appointment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create appointment tx failed: %w", err)
	}
	defer tx.Rollback(ctx)

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	// Authoritative re-check: same three-way overlap rule as the slot
	// generator, evaluated against each existing row's own buffered window.
	checkSQL, checkArgs, err := psql.Select("1").
		From("public.appointments").
		Where(squirrel.Eq{"business_id": a.BusinessID}).
		Where(squirrel.NotEq{"status": StatusCancelled}).
		Where(squirrel.Lt{"buffered_start": a.BufferedEnd}).
		Where(squirrel.Gt{"buffered_end": a.BufferedStart}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build conflict check query failed: %w", err)
	}

	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS ("+checkSQL+")", checkArgs...).Scan(&exists); err != nil {
		return fmt.Errorf("conflict check failed: %w", err)
	}
	if exists {
		return ErrSlotTaken
	}

	insertSQL, insertArgs, err := psql.Insert("public.appointments").
		Columns(
			"business_id", "appointment_type_id", "start_time", "end_time",
			"buffered_start", "buffered_end", "status", "visitor_name", "visitor_email",
			"visitor_phone", "notes", "form_responses", "payment_intent_id",
			"payment_status", "amount_paid", "cancellation_token",
		).
		Values(
			a.BusinessID, a.AppointmentTypeID, a.StartTime, a.EndTime,
			a.BufferedStart, a.BufferedEnd, a.Status, a.VisitorName, a.VisitorEmail,
			a.VisitorPhone, a.Notes, a.FormResponses, a.PaymentIntentID,
			a.PaymentStatus, a.AmountPaid, a.CancellationToken,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create appointment query failed: %w", err)
	}

	if err := tx.QueryRow(ctx, insertSQL, insertArgs...).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return mapPgError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return mapPgError(err)
	}
	return nil
}

// mapPgError surfaces constraint races as domain errors: a racing
// double-insert loses to the exclusion constraint, a replayed payment intent
// to the unique index.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.ExclusionViolation:
			return ErrSlotTaken
		case pgerrcode.UniqueViolation:
			if pgErr.ConstraintName == "appointments_payment_intent_id_key" {
				return ErrPaymentAlreadyUsed
			}
		}
	}
	return fmt.Errorf("create appointment failed: %w", err)
}

var appointmentColumns = []string{
	"a.id", "a.business_id", "a.appointment_type_id", "a.start_time", "a.end_time",
	"a.buffered_start", "a.buffered_end", "a.status", "a.visitor_name", "a.visitor_email",
	"a.visitor_phone", "a.notes", "a.form_responses", "a.payment_intent_id",
	"a.payment_status", "a.amount_paid", "a.refund_id", "a.refund_amount",
	"a.cancellation_token", "a.calendar_event_id", "a.meeting_link",
	"a.created_at", "a.updated_at",
	"t.name", "t.refund_policy", "t.currency",
}

func (r *pgxRepository) GetByCancellationToken(ctx context.Context, token string) (*Appointment, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(appointmentColumns...).
		From("public.appointments a").
		Join("public.appointment_types t ON a.appointment_type_id = t.id").
		Where(squirrel.Eq{"a.cancellation_token": token}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get appointment query failed: %w", err)
	}

	var a Appointment
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&a.ID, &a.BusinessID, &a.AppointmentTypeID, &a.StartTime, &a.EndTime,
		&a.BufferedStart, &a.BufferedEnd, &a.Status, &a.VisitorName, &a.VisitorEmail,
		&a.VisitorPhone, &a.Notes, &a.FormResponses, &a.PaymentIntentID,
		&a.PaymentStatus, &a.AmountPaid, &a.RefundID, &a.RefundAmount,
		&a.CancellationToken, &a.CalendarEventID, &a.MeetingLink,
		&a.CreatedAt, &a.UpdatedAt,
		&a.AppointmentTypeName, &a.RefundPolicy, &a.Currency,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get appointment failed: %w", err)
	}
	return &a, nil
}

func (r *pgxRepository) ListActiveWindows(ctx context.Context, businessID string, from, to time.Time) ([]interval.Span, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("buffered_start", "buffered_end").
		From("public.appointments").
		Where(squirrel.Eq{"business_id": businessID}).
		Where(squirrel.NotEq{"status": StatusCancelled}).
		Where(squirrel.Lt{"buffered_start": to}).
		Where(squirrel.Gt{"buffered_end": from}).
		OrderBy("buffered_start").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list active windows query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active windows failed: %w", err)
	}
	defer rows.Close()

	var windows []interval.Span
	for rows.Next() {
		var w interval.Span
		if err := rows.Scan(&w.Start, &w.End); err != nil {
			return nil, fmt.Errorf("scan active window failed: %w", err)
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

func (r *pgxRepository) PaymentIntentInUse(ctx context.Context, intentID string) (bool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sub, args, err := psql.Select("1").
		From("public.appointments").
		Where(squirrel.Eq{"payment_intent_id": intentID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build payment intent check query failed: %w", err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, "SELECT EXISTS ("+sub+")", args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("payment intent check failed: %w", err)
	}
	return exists, nil
}

func (r *pgxRepository) Cancel(ctx context.Context, id string, refundID *string, refundAmount *int64) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.appointments").
		Set("status", StatusCancelled).
		Set("refund_id", refundID).
		Set("refund_amount", refundAmount).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build cancel appointment query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("cancel appointment failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) SetCalendarEvent(ctx context.Context, id, eventID, meetingLink string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.appointments").
		Set("calendar_event_id", eventID).
		Set("meeting_link", meetingLink).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set calendar event query failed: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("set calendar event failed: %w", err)
	}
	return nil
}
