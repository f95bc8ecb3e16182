package calendar

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/sony/gobreaker/v2"

	"github.com/openslot/openslot-backend/internal/business"
	"github.com/openslot/openslot-backend/internal/pkg/interval"
)

// BreakerProvider wraps a BusyProvider and EventWriter in circuit breakers so
// a misbehaving calendar provider sheds load fast instead of stalling every
// availability read behind a timeout. An open breaker surfaces as ErrRejected;
// the availability service already degrades that to "no busy intervals".
type BreakerProvider struct {
	inner interface {
		BusyProvider
		EventWriter
	}
	busy   *gobreaker.CircuitBreaker[[]interval.Span]
	events *gobreaker.CircuitBreaker[*CreatedEvent]
	logger hclog.Logger
}

func NewBreakerProvider(inner *GoogleProvider, logger hclog.Logger) *BreakerProvider {
	settings := func(name string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:    name,
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("calendar breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			},
		}
	}

	return &BreakerProvider{
		inner:  inner,
		busy:   gobreaker.NewCircuitBreaker[[]interval.Span](settings("calendar-busy")),
		events: gobreaker.NewCircuitBreaker[*CreatedEvent](settings("calendar-events")),
		logger: logger,
	}
}

func (p *BreakerProvider) BusyIntervals(ctx context.Context, biz *business.Business, from, to time.Time) ([]interval.Span, error) {
	return p.busy.Execute(func() ([]interval.Span, error) {
		return p.inner.BusyIntervals(ctx, biz, from, to)
	})
}

func (p *BreakerProvider) CreateEvent(ctx context.Context, biz *business.Business, req EventRequest) (*CreatedEvent, error) {
	return p.events.Execute(func() (*CreatedEvent, error) {
		return p.inner.CreateEvent(ctx, biz, req)
	})
}

func (p *BreakerProvider) DeleteEvent(ctx context.Context, biz *business.Business, eventID string) error {
	_, err := p.events.Execute(func() (*CreatedEvent, error) {
		return nil, p.inner.DeleteEvent(ctx, biz, eventID)
	})
	return err
}
