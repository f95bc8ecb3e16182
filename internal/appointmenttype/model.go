package appointmenttype

import (
	"net/http"
	"time"

	"github.com/openslot/openslot-backend/internal/pkg/apperror"
)

var (
	ErrNotFound = apperror.New(http.StatusNotFound, apperror.KindNotFound, "appointment type not found")
	ErrInactive = apperror.New(http.StatusForbidden, apperror.KindInactive, "appointment type is inactive")
)

// RefundPolicy controls how much of a paid booking is returned on cancellation.
type RefundPolicy string

const (
	RefundFull    RefundPolicy = "full"
	RefundPartial RefundPolicy = "partial" // fixed 50%
	RefundNone    RefundPolicy = "none"
)

// AppointmentType defines one bookable service of a business. Read by value
// during slot generation; never mutated by the engine.
type AppointmentType struct {
	ID               string
	BusinessID       string
	Name             string
	DurationMinutes  int
	BufferBefore     int // minutes
	BufferAfter      int // minutes
	RequirePayment   bool
	Price            int64 // smallest currency unit
	DepositPercent   int   // 0 means full price up front
	Currency         string
	EnableGoogleMeet bool
	RefundPolicy     RefundPolicy
	Active           bool
	CreatedAt        time.Time
}

// Duration returns the appointment length.
func (t *AppointmentType) Duration() time.Duration {
	return time.Duration(t.DurationMinutes) * time.Minute
}

// Buffers returns the before/after conflict padding.
func (t *AppointmentType) Buffers() (before, after time.Duration) {
	return time.Duration(t.BufferBefore) * time.Minute,
		time.Duration(t.BufferAfter) * time.Minute
}

// ChargeAmount returns the amount charged at booking time. With a deposit
// percent set, only that fraction of the price is collected up front.
func (t *AppointmentType) ChargeAmount() (amount int64, isDeposit bool) {
	if t.DepositPercent > 0 && t.DepositPercent < 100 {
		return t.Price * int64(t.DepositPercent) / 100, true
	}
	return t.Price, false
}
