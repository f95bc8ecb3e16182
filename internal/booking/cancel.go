package booking

import (
	"context"
	"net/http"

	"github.com/openslot/openslot-backend/internal/appointmenttype"
	"github.com/openslot/openslot-backend/internal/cache"
	"github.com/openslot/openslot-backend/internal/notify"
	"github.com/openslot/openslot-backend/internal/pkg/apperror"
)

// RefundSummary describes the refund issued during cancellation, nil when no
// money moved.
type RefundSummary struct {
	ID       string
	Amount   int64
	Currency string
}

// CancelResult reports the outcome of a cancellation. AlreadyCancelled marks
// the idempotent replay case; the appointment stays in its final state.
type CancelResult struct {
	Appointment      *Appointment
	AlreadyCancelled bool
	Refund           *RefundSummary
}

// CancelBooking cancels the appointment behind the token and refunds per the
// type's refund policy. A second call with the same token is a no-op success.
// Refund and calendar failures are logged and do not block the cancellation.
func (s *Service) CancelBooking(ctx context.Context, token string) (*CancelResult, error) {
	appt, err := s.repo.GetByCancellationToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if appt.Status == StatusCancelled {
		return &CancelResult{Appointment: appt, AlreadyCancelled: true}, nil
	}

	refund := s.issueRefund(ctx, appt)

	var refundID *string
	var refundAmount *int64
	if refund != nil {
		refundID = &refund.ID
		refundAmount = &refund.Amount
	}
	if err := s.repo.Cancel(ctx, appt.ID, refundID, refundAmount); err != nil {
		return nil, apperror.Wrap(err, http.StatusInternalServerError, apperror.KindInternal, "could not cancel booking")
	}
	appt.Status = StatusCancelled
	appt.RefundID = refundID
	appt.RefundAmount = refundAmount

	s.afterCancel(context.WithoutCancel(ctx), appt, refund)

	return &CancelResult{Appointment: appt, Refund: refund}, nil
}

// issueRefund computes the refundable amount from the type's policy and asks
// the payment provider for it. A failed refund is recorded for manual
// reconciliation; the cancellation itself still proceeds.
func (s *Service) issueRefund(ctx context.Context, appt *Appointment) *RefundSummary {
	if appt.PaymentIntentID == nil || appt.AmountPaid == nil || *appt.AmountPaid == 0 {
		return nil
	}

	var amount int64
	switch appointmenttype.RefundPolicy(appt.RefundPolicy) {
	case appointmenttype.RefundFull:
		amount = *appt.AmountPaid
	case appointmenttype.RefundPartial:
		amount = *appt.AmountPaid / 2
	default:
		return nil
	}
	if amount == 0 {
		return nil
	}

	refund, err := s.payments.RefundIntent(ctx, *appt.PaymentIntentID, amount)
	if err != nil {
		s.logger.Error("refund failed, cancellation continues",
			"stage", "refund", "appointment_id", appt.ID,
			"payment_intent_id", *appt.PaymentIntentID, "amount", amount,
			"manual_reconciliation", true, "error", err)
		return nil
	}
	return &RefundSummary{ID: refund.ID, Amount: refund.Amount, Currency: appt.Currency}
}

func (s *Service) afterCancel(ctx context.Context, appt *Appointment, refund *RefundSummary) {
	biz, err := s.businesses.GetByID(ctx, appt.BusinessID)
	if err != nil {
		s.logger.Error("post-cancel task failed",
			"stage", "load_business", "appointment_id", appt.ID, "error", err)
		biz = nil
	}

	if biz != nil && biz.CalendarConnected && appt.CalendarEventID != nil {
		if err := s.events.DeleteEvent(ctx, biz, *appt.CalendarEventID); err != nil {
			s.logger.Error("post-cancel task failed",
				"stage", "calendar_delete", "appointment_id", appt.ID, "error", err)
		}
	}

	if err := cache.InvalidateBusiness(ctx, s.store, appt.BusinessID); err != nil {
		s.logger.Error("post-cancel task failed",
			"stage", "cache_invalidate", "appointment_id", appt.ID, "error", err)
	}

	msg := notify.BookingMessage{
		AppointmentID:   appt.ID,
		BusinessID:      appt.BusinessID,
		AppointmentName: appt.AppointmentTypeName,
		VisitorName:     appt.VisitorName,
		VisitorEmail:    appt.VisitorEmail,
		StartTime:       appt.StartTime,
		EndTime:         appt.EndTime,
	}
	if biz != nil {
		msg.BusinessName = biz.Name
		msg.Timezone = biz.Timezone
	}
	if refund != nil {
		msg.RefundAmount = refund.Amount
		msg.Currency = refund.Currency
	}
	if err := s.notifier.BookingCancelled(ctx, msg); err != nil {
		s.logger.Error("post-cancel task failed",
			"stage", "notify_cancelled", "appointment_id", appt.ID, "error", err)
	}
}
