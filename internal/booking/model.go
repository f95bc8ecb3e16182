package booking

import (
	"fmt"
	"net/http"
	"time"

	"github.com/openslot/openslot-backend/internal/pkg/apperror"
)

var (
	ErrNotFound           = apperror.New(http.StatusNotFound, apperror.KindNotFound, "appointment not found")
	ErrSlotTaken          = apperror.New(http.StatusConflict, apperror.KindSlotTaken, "time slot is no longer available, please pick a new time")
	ErrPaymentRejected    = apperror.New(http.StatusBadRequest, apperror.KindPaymentRejected, "payment could not be verified")
	ErrPaymentAlreadyUsed = apperror.New(http.StatusConflict, apperror.KindPaymentAlreadyUsed, "payment is already linked to another appointment")
	ErrStartTimePast      = apperror.New(http.StatusBadRequest, apperror.KindValidationFailed, "cannot book an appointment in the past")
	ErrVisitorRequired    = apperror.New(http.StatusBadRequest, apperror.KindValidationFailed, "visitor name and email are required")
)

// PaymentRequiredError is returned when a paid appointment type is booked
// without a payment intent. It carries the pricing the widget needs to start
// the payment flow.
type PaymentRequiredError struct {
	Price          int64
	Deposit        int64
	DepositPercent int
	Currency       string
}

func (e *PaymentRequiredError) Error() string {
	return fmt.Sprintf("payment of %d %s required before booking", e.Deposit, e.Currency)
}

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Appointment is a committed booking. Never hard-deleted; cancellation flips
// the status and keeps the row for history.
type Appointment struct {
	ID                string
	BusinessID        string
	AppointmentTypeID string
	StartTime         time.Time
	EndTime           time.Time

	// Own-type buffers baked in at insert time; the storage-level exclusion
	// constraint and the commit-time re-check both test these columns.
	BufferedStart time.Time
	BufferedEnd   time.Time

	Status        Status
	VisitorName   string
	VisitorEmail  string
	VisitorPhone  *string
	Notes         *string
	FormResponses map[string]string

	PaymentIntentID *string
	PaymentStatus   *string
	AmountPaid      *int64
	RefundID        *string
	RefundAmount    *int64

	// CancellationToken is the only credential a visitor holds; it must be
	// long enough to resist enumeration.
	CancellationToken string

	CalendarEventID *string
	MeetingLink     *string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Joined from appointment_types on reads that need them.
	AppointmentTypeName string
	RefundPolicy        string
	Currency            string
}
