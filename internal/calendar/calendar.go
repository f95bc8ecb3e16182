package calendar

import (
	"context"
	"net/http"
	"time"

	"github.com/openslot/openslot-backend/internal/business"
	"github.com/openslot/openslot-backend/internal/pkg/apperror"
	"github.com/openslot/openslot-backend/internal/pkg/interval"
)

var (
	ErrNotConnected = apperror.New(http.StatusConflict, apperror.KindValidationFailed, "no calendar connected")
	ErrTimeout      = apperror.New(http.StatusGatewayTimeout, apperror.KindUpstreamTimeout, "calendar provider timed out")
	ErrRejected     = apperror.New(http.StatusBadGateway, apperror.KindUpstreamRejected, "calendar provider rejected the request")
)

// BusyProvider fetches external calendar busy intervals for a business,
// batched per date range. It is the engine's only read dependency on the
// external calendar; results are cached per (business, date) by the caller.
type BusyProvider interface {
	BusyIntervals(ctx context.Context, biz *business.Business, from, to time.Time) ([]interval.Span, error)
}

// EventRequest describes a calendar event to mirror a confirmed booking.
type EventRequest struct {
	Summary       string
	Description   string
	Start         time.Time
	End           time.Time
	AttendeeEmail string
	WithMeet      bool
}

// CreatedEvent is the provider's handle on a created event.
type CreatedEvent struct {
	ID          string
	MeetingLink string
}

// EventWriter creates and deletes external calendar events. Both operations
// are best-effort from the booking engine's point of view.
type EventWriter interface {
	CreateEvent(ctx context.Context, biz *business.Business, req EventRequest) (*CreatedEvent, error)
	DeleteEvent(ctx context.Context, biz *business.Business, eventID string) error
}
