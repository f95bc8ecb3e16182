package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/openslot/openslot-backend/internal/business"
	"github.com/openslot/openslot-backend/internal/pkg/interval"
)

// GoogleProvider talks to the Google Calendar API with each business's
// stored OAuth token. Token refresh is handled by the oauth2 transport; the
// token lifecycle itself (connect/disconnect) lives outside this engine.
type GoogleProvider struct {
	oauthConfig *oauth2.Config
	timeout     time.Duration
}

func NewGoogleProvider(clientID, clientSecret string, timeout time.Duration) *GoogleProvider {
	return &GoogleProvider{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Scopes: []string{
				gcal.CalendarEventsScope,
				gcal.CalendarReadonlyScope,
			},
			Endpoint: google.Endpoint,
		},
		timeout: timeout,
	}
}

func (p *GoogleProvider) service(ctx context.Context, biz *business.Business) (*gcal.Service, error) {
	if !biz.CalendarConnected || len(biz.CalendarToken) == 0 {
		return nil, ErrNotConnected
	}

	var token oauth2.Token
	if err := json.Unmarshal(biz.CalendarToken, &token); err != nil {
		return nil, fmt.Errorf("decode calendar token: %w", err)
	}

	client := p.oauthConfig.Client(ctx, &token)
	srv, err := gcal.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return srv, nil
}

// BusyIntervals issues one FreeBusy query covering the whole range.
func (p *GoogleProvider) BusyIntervals(ctx context.Context, biz *business.Business, from, to time.Time) ([]interval.Span, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	srv, err := p.service(ctx, biz)
	if err != nil {
		return nil, err
	}

	req := &gcal.FreeBusyRequest{
		TimeMin: from.Format(time.RFC3339),
		TimeMax: to.Format(time.RFC3339),
		Items:   []*gcal.FreeBusyRequestItem{{Id: "primary"}},
	}

	resp, err := srv.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, classify(err)
	}

	cal, ok := resp.Calendars["primary"]
	if !ok {
		return nil, nil
	}

	var spans []interval.Span
	for _, period := range cal.Busy {
		start, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			continue
		}
		spans = append(spans, interval.Span{Start: start, End: end})
	}
	return spans, nil
}

func (p *GoogleProvider) CreateEvent(ctx context.Context, biz *business.Business, req EventRequest) (*CreatedEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	srv, err := p.service(ctx, biz)
	if err != nil {
		return nil, err
	}

	event := &gcal.Event{
		Summary:     req.Summary,
		Description: req.Description,
		Start:       &gcal.EventDateTime{DateTime: req.Start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: req.End.Format(time.RFC3339)},
	}
	if req.AttendeeEmail != "" {
		event.Attendees = []*gcal.EventAttendee{{Email: req.AttendeeEmail}}
	}
	if req.WithMeet {
		event.ConferenceData = &gcal.ConferenceData{
			CreateRequest: &gcal.CreateConferenceRequest{
				RequestId:             uuid.NewString(),
				ConferenceSolutionKey: &gcal.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		}
	}

	call := srv.Events.Insert("primary", event).Context(ctx)
	if req.WithMeet {
		call = call.ConferenceDataVersion(1)
	}

	created, err := call.Do()
	if err != nil {
		return nil, classify(err)
	}

	return &CreatedEvent{
		ID:          created.Id,
		MeetingLink: created.HangoutLink,
	}, nil
}

func (p *GoogleProvider) DeleteEvent(ctx context.Context, biz *business.Business, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	srv, err := p.service(ctx, biz)
	if err != nil {
		return err
	}

	if err := srv.Events.Delete("primary", eventID).Context(ctx).Do(); err != nil {
		return classify(err)
	}
	return nil
}

// classify separates timeouts from provider rejections so callers can decide
// whether a retry is safe.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return fmt.Errorf("%w: %v", ErrRejected, err)
}
