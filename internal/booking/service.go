package booking

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/openslot/openslot-backend/internal/appointmenttype"
	"github.com/openslot/openslot-backend/internal/business"
	"github.com/openslot/openslot-backend/internal/cache"
	"github.com/openslot/openslot-backend/internal/calendar"
	"github.com/openslot/openslot-backend/internal/notify"
	"github.com/openslot/openslot-backend/internal/payment"
	"github.com/openslot/openslot-backend/internal/pkg/apperror"
	"github.com/openslot/openslot-backend/internal/pkg/timeutil"
	"github.com/openslot/openslot-backend/internal/usage"
)

// CommitRequest is a visitor's attempt to book a concrete start time.
type CommitRequest struct {
	WidgetID          string
	AppointmentTypeID string
	StartTime         time.Time
	VisitorName       string
	VisitorEmail      string
	VisitorPhone      string
	Notes             string
	Timezone          string
	FormResponses     map[string]string
	PaymentIntentID   string
}

// CommitResult is the confirmed booking plus the display values the widget
// renders on the confirmation screen.
type CommitResult struct {
	Appointment     *Appointment
	BusinessName    string
	AppointmentName string
	StartLocal      string
	EndLocal        string
	Timezone        string
}

type Service struct {
	repo       Repository
	businesses business.Service
	types      appointmenttype.Service
	usage      usage.Limiter
	payments   payment.Provider
	events     calendar.EventWriter
	store      cache.Cache
	notifier   notify.Notifier
	logger     hclog.Logger

	now func() time.Time
}

func NewService(
	repo Repository,
	businesses business.Service,
	types appointmenttype.Service,
	usageLimiter usage.Limiter,
	payments payment.Provider,
	events calendar.EventWriter,
	store cache.Cache,
	notifier notify.Notifier,
	logger hclog.Logger,
) *Service {
	return &Service{
		repo:       repo,
		businesses: businesses,
		types:      types,
		usage:      usageLimiter,
		payments:   payments,
		events:     events,
		store:      store,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

// CommitBooking runs the full commit pipeline: resolve tenant and type,
// enforce the usage quota, verify payment when the type requires it, then
// insert with the conflict re-check. Side effects after the insert never fail
// the booking.
func (s *Service) CommitBooking(ctx context.Context, req CommitRequest) (*CommitResult, error) {
	biz, err := s.businesses.GetByWidgetID(ctx, req.WidgetID)
	if err != nil {
		return nil, err
	}

	at, err := s.types.GetForBusiness(ctx, biz.ID, req.AppointmentTypeID)
	if err != nil {
		return nil, err
	}

	if err := s.checkUsage(ctx, biz); err != nil {
		return nil, err
	}

	if req.VisitorName == "" || req.VisitorEmail == "" {
		return nil, ErrVisitorRequired
	}
	if !req.StartTime.After(s.now()) {
		return nil, ErrStartTimePast
	}

	appt := &Appointment{
		BusinessID:        biz.ID,
		AppointmentTypeID: at.ID,
		StartTime:         req.StartTime.UTC(),
		EndTime:           req.StartTime.Add(at.Duration()).UTC(),
		Status:            StatusConfirmed,
		VisitorName:       req.VisitorName,
		VisitorEmail:      req.VisitorEmail,
		FormResponses:     req.FormResponses,
	}
	before, after := at.Buffers()
	appt.BufferedStart = appt.StartTime.Add(-before)
	appt.BufferedEnd = appt.EndTime.Add(after)
	if req.VisitorPhone != "" {
		appt.VisitorPhone = &req.VisitorPhone
	}
	if req.Notes != "" {
		appt.Notes = &req.Notes
	}

	if at.RequirePayment {
		if err := s.verifyPayment(ctx, at, req.PaymentIntentID, appt); err != nil {
			return nil, err
		}
	}

	token, err := newCancellationToken()
	if err != nil {
		return nil, apperror.Wrap(err, http.StatusInternalServerError, apperror.KindInternal, "could not create booking")
	}
	appt.CancellationToken = token

	if err := s.repo.Create(ctx, appt); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperror.Wrap(err, http.StatusInternalServerError, apperror.KindInternal, "could not create booking")
	}

	// The booking is committed; everything below is best-effort.
	s.afterCommit(context.WithoutCancel(ctx), biz, at, appt)

	return s.buildResult(biz, at, appt), nil
}

// checkUsage enforces the tier quota. An unreachable counter fails open so a
// storage hiccup never blocks bookings; a definitive over-limit answer blocks.
func (s *Service) checkUsage(ctx context.Context, biz *business.Business) error {
	status, err := s.usage.Check(ctx, biz.ID, biz.Tier)
	if err != nil {
		s.logger.Warn("usage check failed, allowing booking",
			"stage", "usage_check", "business_id", biz.ID, "error", err)
		return nil
	}
	if !status.Allowed {
		s.logger.Info("booking blocked by usage limit",
			"business_id", biz.ID, "count", status.Count, "limit", status.Limit)
		return usage.ErrLimitReached
	}
	return nil
}

// verifyPayment gates a paid booking on a succeeded intent minted for this
// appointment type. Replay of an intent across bookings is caught here and,
// under a race, again by the unique index at insert time.
func (s *Service) verifyPayment(ctx context.Context, at *appointmenttype.AppointmentType, intentID string, appt *Appointment) error {
	if intentID == "" {
		amount, _ := at.ChargeAmount()
		return &PaymentRequiredError{
			Price:          at.Price,
			Deposit:        amount,
			DepositPercent: at.DepositPercent,
			Currency:       at.Currency,
		}
	}

	intent, err := s.payments.VerifyIntent(ctx, intentID)
	if err != nil {
		return err
	}
	if intent.Status != payment.StatusSucceeded {
		s.logger.Info("payment intent not succeeded",
			"intent_id", intentID, "status", intent.Status)
		return ErrPaymentRejected
	}
	if intent.Metadata["appointment_type_id"] != at.ID {
		s.logger.Warn("payment intent minted for a different appointment type",
			"intent_id", intentID, "appointment_type_id", at.ID)
		return ErrPaymentRejected
	}

	inUse, err := s.repo.PaymentIntentInUse(ctx, intentID)
	if err != nil {
		return apperror.Wrap(err, http.StatusInternalServerError, apperror.KindInternal, "could not verify payment")
	}
	if inUse {
		return ErrPaymentAlreadyUsed
	}

	status := intent.Status
	appt.PaymentIntentID = &intent.ID
	appt.PaymentStatus = &status
	appt.AmountPaid = &intent.Amount
	return nil
}

// afterCommit runs the post-insert tasks in order, isolating failures: each
// task is logged and the rest still run. The caller already holds a committed
// booking, so nothing here may surface an error to the visitor.
func (s *Service) afterCommit(ctx context.Context, biz *business.Business, at *appointmenttype.AppointmentType, appt *Appointment) {
	if err := s.usage.Increment(ctx, biz.ID); err != nil {
		s.logger.Error("post-commit task failed",
			"stage", "usage_increment", "appointment_id", appt.ID, "error", err)
	}

	if biz.CalendarConnected {
		s.createCalendarEvent(ctx, biz, at, appt)
	}

	if err := cache.InvalidateBusiness(ctx, s.store, biz.ID); err != nil {
		s.logger.Error("post-commit task failed",
			"stage", "cache_invalidate", "appointment_id", appt.ID, "error", err)
	}

	msg := notify.BookingMessage{
		AppointmentID:   appt.ID,
		BusinessID:      biz.ID,
		BusinessName:    biz.Name,
		AppointmentName: at.Name,
		VisitorName:     appt.VisitorName,
		VisitorEmail:    appt.VisitorEmail,
		StartTime:       appt.StartTime,
		EndTime:         appt.EndTime,
		Timezone:        biz.Timezone,
	}
	if appt.MeetingLink != nil {
		msg.MeetingLink = *appt.MeetingLink
	}
	if err := s.notifier.BookingConfirmed(ctx, msg); err != nil {
		s.logger.Error("post-commit task failed",
			"stage", "notify_confirmed", "appointment_id", appt.ID, "error", err)
	}
}

func (s *Service) createCalendarEvent(ctx context.Context, biz *business.Business, at *appointmenttype.AppointmentType, appt *Appointment) {
	created, err := s.events.CreateEvent(ctx, biz, calendar.EventRequest{
		Summary:       fmt.Sprintf("%s - %s", at.Name, appt.VisitorName),
		Description:   eventDescription(appt),
		Start:         appt.StartTime,
		End:           appt.EndTime,
		AttendeeEmail: appt.VisitorEmail,
		WithMeet:      at.EnableGoogleMeet,
	})
	if err != nil {
		s.logger.Error("post-commit task failed",
			"stage", "calendar_create", "appointment_id", appt.ID, "error", err)
		return
	}

	if err := s.repo.SetCalendarEvent(ctx, appt.ID, created.ID, created.MeetingLink); err != nil {
		s.logger.Error("post-commit task failed",
			"stage", "calendar_persist", "appointment_id", appt.ID, "error", err)
		return
	}
	appt.CalendarEventID = &created.ID
	if created.MeetingLink != "" {
		link := created.MeetingLink
		appt.MeetingLink = &link
	}
}

func eventDescription(appt *Appointment) string {
	desc := fmt.Sprintf("Booked by %s (%s)", appt.VisitorName, appt.VisitorEmail)
	if appt.Notes != nil {
		desc += "\n\nNotes: " + *appt.Notes
	}
	return desc
}

func (s *Service) buildResult(biz *business.Business, at *appointmenttype.AppointmentType, appt *Appointment) *CommitResult {
	res := &CommitResult{
		Appointment:     appt,
		BusinessName:    biz.Name,
		AppointmentName: at.Name,
		Timezone:        biz.Timezone,
	}
	if loc, err := time.LoadLocation(biz.Timezone); err == nil {
		res.StartLocal = timeutil.InstantToLocalDisplay(appt.StartTime, loc)
		res.EndLocal = timeutil.InstantToLocalDisplay(appt.EndTime, loc)
	}
	return res
}

// newCancellationToken mints a 256-bit hex token. It is the visitor's only
// credential over the booking.
func newCancellationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate cancellation token failed: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
