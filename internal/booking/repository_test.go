package booking

import (
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

// A racing double-insert loses to the exclusion constraint and must surface
// exactly as a slot conflict, same as the in-transaction re-check.
func TestMapPgErrorExclusionViolation(t *testing.T) {
	err := mapPgError(&pgconn.PgError{
		Code:           pgerrcode.ExclusionViolation,
		ConstraintName: "appointments_no_double_booking",
	})
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestMapPgErrorPaymentIntentReplay(t *testing.T) {
	err := mapPgError(&pgconn.PgError{
		Code:           pgerrcode.UniqueViolation,
		ConstraintName: "appointments_payment_intent_id_key",
	})
	assert.ErrorIs(t, err, ErrPaymentAlreadyUsed)
}

func TestMapPgErrorOtherUniqueViolation(t *testing.T) {
	err := mapPgError(&pgconn.PgError{
		Code:           pgerrcode.UniqueViolation,
		ConstraintName: "appointments_cancellation_token_key",
	})
	assert.NotErrorIs(t, err, ErrPaymentAlreadyUsed)
	assert.NotErrorIs(t, err, ErrSlotTaken)
}

func TestMapPgErrorPlainError(t *testing.T) {
	cause := errors.New("connection reset")
	err := mapPgError(cause)
	assert.ErrorIs(t, err, cause)
}
