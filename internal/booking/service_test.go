package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openslot/openslot-backend/internal/appointmenttype"
	"github.com/openslot/openslot-backend/internal/business"
	"github.com/openslot/openslot-backend/internal/cache"
	"github.com/openslot/openslot-backend/internal/calendar"
	"github.com/openslot/openslot-backend/internal/notify"
	"github.com/openslot/openslot-backend/internal/payment"
	"github.com/openslot/openslot-backend/internal/pkg/interval"
	"github.com/openslot/openslot-backend/internal/usage"
)

type fakeRepo struct {
	createFn          func(ctx context.Context, a *Appointment) error
	getByTokenFn      func(ctx context.Context, token string) (*Appointment, error)
	intentInUseFn     func(ctx context.Context, intentID string) (bool, error)
	cancelFn          func(ctx context.Context, id string, refundID *string, refundAmount *int64) error
	setCalendarFn     func(ctx context.Context, id, eventID, meetingLink string) error
	created           *Appointment
	cancelled         bool
	cancelledRefundID *string
	cancelledAmount   *int64
}

func (f *fakeRepo) Create(ctx context.Context, a *Appointment) error {
	if f.createFn != nil {
		return f.createFn(ctx, a)
	}
	a.ID = "appt-1"
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	f.created = a
	return nil
}

func (f *fakeRepo) GetByCancellationToken(ctx context.Context, token string) (*Appointment, error) {
	if f.getByTokenFn != nil {
		return f.getByTokenFn(ctx, token)
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) ListActiveWindows(_ context.Context, _ string, _, _ time.Time) ([]interval.Span, error) {
	return nil, nil
}

func (f *fakeRepo) PaymentIntentInUse(ctx context.Context, intentID string) (bool, error) {
	if f.intentInUseFn != nil {
		return f.intentInUseFn(ctx, intentID)
	}
	return false, nil
}

func (f *fakeRepo) Cancel(ctx context.Context, id string, refundID *string, refundAmount *int64) error {
	if f.cancelFn != nil {
		return f.cancelFn(ctx, id, refundID, refundAmount)
	}
	f.cancelled = true
	f.cancelledRefundID = refundID
	f.cancelledAmount = refundAmount
	return nil
}

func (f *fakeRepo) SetCalendarEvent(ctx context.Context, id, eventID, meetingLink string) error {
	if f.setCalendarFn != nil {
		return f.setCalendarFn(ctx, id, eventID, meetingLink)
	}
	return nil
}

type fakeBusinesses struct {
	biz *business.Business
}

func (f *fakeBusinesses) GetByID(_ context.Context, _ string) (*business.Business, error) {
	return f.biz, nil
}

func (f *fakeBusinesses) GetByWidgetID(_ context.Context, _ string) (*business.Business, error) {
	if f.biz == nil {
		return nil, business.ErrNotFound
	}
	return f.biz, nil
}

func (f *fakeBusinesses) UpsertFromIdentity(_ context.Context, _ business.UpsertRequest) (*business.Business, error) {
	return f.biz, nil
}

func (f *fakeBusinesses) SetTier(_ context.Context, _, _ string) error { return nil }

func (f *fakeBusinesses) SetActive(_ context.Context, _ string, _ bool) error { return nil }

type fakeTypes struct {
	at *appointmenttype.AppointmentType
}

func (f *fakeTypes) GetByID(_ context.Context, _ string) (*appointmenttype.AppointmentType, error) {
	return f.at, nil
}

func (f *fakeTypes) GetForBusiness(_ context.Context, _, _ string) (*appointmenttype.AppointmentType, error) {
	if f.at == nil {
		return nil, appointmenttype.ErrNotFound
	}
	return f.at, nil
}

type fakeUsage struct {
	checkFn    func(ctx context.Context, businessID, tier string) (*usage.Status, error)
	increments int
}

func (f *fakeUsage) Check(ctx context.Context, businessID, tier string) (*usage.Status, error) {
	if f.checkFn != nil {
		return f.checkFn(ctx, businessID, tier)
	}
	return &usage.Status{Allowed: true, Count: 0, Limit: 30}, nil
}

func (f *fakeUsage) Increment(_ context.Context, _ string) error {
	f.increments++
	return nil
}

type fakePayments struct {
	verifyFn func(ctx context.Context, intentID string) (*payment.Intent, error)
	refundFn func(ctx context.Context, intentID string, amount int64) (*payment.Refund, error)
}

func (f *fakePayments) CreateIntent(_ context.Context, _ payment.CreateIntentRequest) (*payment.Intent, error) {
	return nil, errors.New("not implemented")
}

func (f *fakePayments) VerifyIntent(ctx context.Context, intentID string) (*payment.Intent, error) {
	if f.verifyFn != nil {
		return f.verifyFn(ctx, intentID)
	}
	return nil, payment.ErrRejected
}

func (f *fakePayments) RefundIntent(ctx context.Context, intentID string, amount int64) (*payment.Refund, error) {
	if f.refundFn != nil {
		return f.refundFn(ctx, intentID, amount)
	}
	return nil, payment.ErrRejected
}

type fakeEvents struct {
	createFn func(ctx context.Context, biz *business.Business, req calendar.EventRequest) (*calendar.CreatedEvent, error)
	deleted  []string
}

func (f *fakeEvents) CreateEvent(ctx context.Context, biz *business.Business, req calendar.EventRequest) (*calendar.CreatedEvent, error) {
	if f.createFn != nil {
		return f.createFn(ctx, biz, req)
	}
	return &calendar.CreatedEvent{ID: "evt-1"}, nil
}

func (f *fakeEvents) DeleteEvent(_ context.Context, _ *business.Business, eventID string) error {
	f.deleted = append(f.deleted, eventID)
	return nil
}

type fakeNotifier struct {
	confirmed []notify.BookingMessage
	cancelled []notify.BookingMessage
}

func (f *fakeNotifier) BookingConfirmed(_ context.Context, msg notify.BookingMessage) error {
	f.confirmed = append(f.confirmed, msg)
	return nil
}

func (f *fakeNotifier) BookingCancelled(_ context.Context, msg notify.BookingMessage) error {
	f.cancelled = append(f.cancelled, msg)
	return nil
}

type fixture struct {
	svc      *Service
	repo     *fakeRepo
	usage    *fakeUsage
	payments *fakePayments
	events   *fakeEvents
	store    *cache.MemoryCache
	notifier *fakeNotifier
}

func newFixture(biz *business.Business, at *appointmenttype.AppointmentType) *fixture {
	f := &fixture{
		repo:     &fakeRepo{},
		usage:    &fakeUsage{},
		payments: &fakePayments{},
		events:   &fakeEvents{},
		store:    cache.NewMemoryCache(),
		notifier: &fakeNotifier{},
	}
	f.svc = NewService(
		f.repo, &fakeBusinesses{biz: biz}, &fakeTypes{at: at},
		f.usage, f.payments, f.events, f.store, f.notifier,
		hclog.NewNullLogger(),
	)
	f.svc.now = func() time.Time { return time.Date(2026, 9, 14, 8, 0, 0, 0, time.UTC) }
	return f
}

func freeBusiness() *business.Business {
	return &business.Business{
		ID:       "b-1",
		WidgetID: "w-1",
		Name:     "Studio One",
		Timezone: "America/New_York",
		Tier:     "free",
		Active:   true,
	}
}

func freeType() *appointmenttype.AppointmentType {
	return &appointmenttype.AppointmentType{
		ID:              "t-1",
		BusinessID:      "b-1",
		Name:            "Consultation",
		DurationMinutes: 60,
		BufferBefore:    10,
		BufferAfter:     15,
		Active:          true,
	}
}

func paidType() *appointmenttype.AppointmentType {
	at := freeType()
	at.RequirePayment = true
	at.Price = 10000
	at.Currency = "usd"
	return at
}

func validRequest() CommitRequest {
	return CommitRequest{
		WidgetID:          "w-1",
		AppointmentTypeID: "t-1",
		StartTime:         time.Date(2026, 9, 14, 14, 0, 0, 0, time.UTC),
		VisitorName:       "Ada Lovelace",
		VisitorEmail:      "ada@example.com",
	}
}

func TestCommitBookingFreeType(t *testing.T) {
	f := newFixture(freeBusiness(), freeType())

	res, err := f.svc.CommitBooking(context.Background(), validRequest())
	require.NoError(t, err)

	appt := res.Appointment
	assert.Equal(t, "appt-1", appt.ID)
	assert.Equal(t, StatusConfirmed, appt.Status)
	assert.Equal(t, time.Date(2026, 9, 14, 15, 0, 0, 0, time.UTC), appt.EndTime)
	assert.Equal(t, time.Date(2026, 9, 14, 13, 50, 0, 0, time.UTC), appt.BufferedStart)
	assert.Equal(t, time.Date(2026, 9, 14, 15, 15, 0, 0, time.UTC), appt.BufferedEnd)
	assert.Len(t, appt.CancellationToken, 64)
	assert.Nil(t, appt.PaymentIntentID)

	assert.Equal(t, "Studio One", res.BusinessName)
	assert.Equal(t, "10:00 AM", res.StartLocal)
	assert.Equal(t, "America/New_York", res.Timezone)

	assert.Equal(t, 1, f.usage.increments)
	require.Len(t, f.notifier.confirmed, 1)
	assert.Equal(t, "ada@example.com", f.notifier.confirmed[0].VisitorEmail)
}

func TestCommitBookingVisitorRequired(t *testing.T) {
	f := newFixture(freeBusiness(), freeType())

	req := validRequest()
	req.VisitorEmail = ""
	_, err := f.svc.CommitBooking(context.Background(), req)
	assert.ErrorIs(t, err, ErrVisitorRequired)
}

func TestCommitBookingStartTimeInPast(t *testing.T) {
	f := newFixture(freeBusiness(), freeType())

	req := validRequest()
	req.StartTime = time.Date(2026, 9, 14, 7, 0, 0, 0, time.UTC)
	_, err := f.svc.CommitBooking(context.Background(), req)
	assert.ErrorIs(t, err, ErrStartTimePast)
}

func TestCommitBookingSlotTaken(t *testing.T) {
	f := newFixture(freeBusiness(), freeType())
	f.repo.createFn = func(_ context.Context, _ *Appointment) error {
		return ErrSlotTaken
	}

	_, err := f.svc.CommitBooking(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.Equal(t, 0, f.usage.increments)
	assert.Empty(t, f.notifier.confirmed)
}

func TestCommitBookingPaidTypeWithoutIntent(t *testing.T) {
	f := newFixture(freeBusiness(), paidType())

	_, err := f.svc.CommitBooking(context.Background(), validRequest())

	var payErr *PaymentRequiredError
	require.ErrorAs(t, err, &payErr)
	assert.Equal(t, int64(10000), payErr.Price)
	assert.Equal(t, int64(10000), payErr.Deposit)
	assert.Equal(t, "usd", payErr.Currency)
}

func TestCommitBookingDepositAmount(t *testing.T) {
	at := paidType()
	at.DepositPercent = 30
	f := newFixture(freeBusiness(), at)

	_, err := f.svc.CommitBooking(context.Background(), validRequest())

	var payErr *PaymentRequiredError
	require.ErrorAs(t, err, &payErr)
	assert.Equal(t, int64(3000), payErr.Deposit)
	assert.Equal(t, 30, payErr.DepositPercent)
}

func TestCommitBookingVerifiedPayment(t *testing.T) {
	f := newFixture(freeBusiness(), paidType())
	f.payments.verifyFn = func(_ context.Context, intentID string) (*payment.Intent, error) {
		return &payment.Intent{
			ID:       intentID,
			Status:   payment.StatusSucceeded,
			Amount:   10000,
			Currency: "usd",
			Metadata: map[string]string{"appointment_type_id": "t-1"},
		}, nil
	}

	req := validRequest()
	req.PaymentIntentID = "pi_123"
	res, err := f.svc.CommitBooking(context.Background(), req)
	require.NoError(t, err)

	require.NotNil(t, res.Appointment.PaymentIntentID)
	assert.Equal(t, "pi_123", *res.Appointment.PaymentIntentID)
	require.NotNil(t, res.Appointment.AmountPaid)
	assert.Equal(t, int64(10000), *res.Appointment.AmountPaid)
}

func TestCommitBookingPaymentNotSucceeded(t *testing.T) {
	f := newFixture(freeBusiness(), paidType())
	f.payments.verifyFn = func(_ context.Context, intentID string) (*payment.Intent, error) {
		return &payment.Intent{ID: intentID, Status: "requires_payment_method"}, nil
	}

	req := validRequest()
	req.PaymentIntentID = "pi_123"
	_, err := f.svc.CommitBooking(context.Background(), req)
	assert.ErrorIs(t, err, ErrPaymentRejected)
}

func TestCommitBookingPaymentForDifferentType(t *testing.T) {
	f := newFixture(freeBusiness(), paidType())
	f.payments.verifyFn = func(_ context.Context, intentID string) (*payment.Intent, error) {
		return &payment.Intent{
			ID:       intentID,
			Status:   payment.StatusSucceeded,
			Metadata: map[string]string{"appointment_type_id": "t-other"},
		}, nil
	}

	req := validRequest()
	req.PaymentIntentID = "pi_123"
	_, err := f.svc.CommitBooking(context.Background(), req)
	assert.ErrorIs(t, err, ErrPaymentRejected)
}

func TestCommitBookingPaymentAlreadyUsed(t *testing.T) {
	f := newFixture(freeBusiness(), paidType())
	f.payments.verifyFn = func(_ context.Context, intentID string) (*payment.Intent, error) {
		return &payment.Intent{
			ID:       intentID,
			Status:   payment.StatusSucceeded,
			Metadata: map[string]string{"appointment_type_id": "t-1"},
		}, nil
	}
	f.repo.intentInUseFn = func(_ context.Context, _ string) (bool, error) {
		return true, nil
	}

	req := validRequest()
	req.PaymentIntentID = "pi_123"
	_, err := f.svc.CommitBooking(context.Background(), req)
	assert.ErrorIs(t, err, ErrPaymentAlreadyUsed)
}

func TestCommitBookingUsageLimitBlocks(t *testing.T) {
	f := newFixture(freeBusiness(), freeType())
	f.usage.checkFn = func(_ context.Context, _, _ string) (*usage.Status, error) {
		return &usage.Status{Allowed: false, Count: 30, Limit: 30}, nil
	}

	_, err := f.svc.CommitBooking(context.Background(), validRequest())
	assert.ErrorIs(t, err, usage.ErrLimitReached)
}

func TestCommitBookingUsageCheckFailureFailsOpen(t *testing.T) {
	f := newFixture(freeBusiness(), freeType())
	f.usage.checkFn = func(_ context.Context, _, _ string) (*usage.Status, error) {
		return nil, errors.New("counter unavailable")
	}

	_, err := f.svc.CommitBooking(context.Background(), validRequest())
	require.NoError(t, err)
}

func TestCommitBookingCreatesCalendarEvent(t *testing.T) {
	biz := freeBusiness()
	biz.CalendarConnected = true
	at := freeType()
	at.EnableGoogleMeet = true

	f := newFixture(biz, at)
	var gotReq calendar.EventRequest
	f.events.createFn = func(_ context.Context, _ *business.Business, req calendar.EventRequest) (*calendar.CreatedEvent, error) {
		gotReq = req
		return &calendar.CreatedEvent{ID: "evt-1", MeetingLink: "https://meet.example/abc"}, nil
	}

	res, err := f.svc.CommitBooking(context.Background(), validRequest())
	require.NoError(t, err)

	assert.True(t, gotReq.WithMeet)
	assert.Equal(t, "ada@example.com", gotReq.AttendeeEmail)
	require.NotNil(t, res.Appointment.MeetingLink)
	assert.Equal(t, "https://meet.example/abc", *res.Appointment.MeetingLink)
}

func TestCommitBookingCalendarFailureDoesNotFailBooking(t *testing.T) {
	biz := freeBusiness()
	biz.CalendarConnected = true

	f := newFixture(biz, freeType())
	f.events.createFn = func(_ context.Context, _ *business.Business, _ calendar.EventRequest) (*calendar.CreatedEvent, error) {
		return nil, calendar.ErrTimeout
	}

	res, err := f.svc.CommitBooking(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Nil(t, res.Appointment.CalendarEventID)
	require.Len(t, f.notifier.confirmed, 1)
}
