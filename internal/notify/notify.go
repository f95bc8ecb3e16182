package notify

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"
)

// BookingMessage carries everything a downstream mailer needs to render a
// confirmation or cancellation email. Delivery itself happens outside this
// engine; the engine only publishes.
type BookingMessage struct {
	AppointmentID   string    `json:"appointmentId"`
	BusinessID      string    `json:"businessId"`
	BusinessName    string    `json:"businessName"`
	AppointmentName string    `json:"appointmentName"`
	VisitorName     string    `json:"visitorName"`
	VisitorEmail    string    `json:"visitorEmail"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	Timezone        string    `json:"timezone"`
	MeetingLink     string    `json:"meetingLink,omitempty"`
	RefundAmount    int64     `json:"refundAmount,omitempty"`
	Currency        string    `json:"currency,omitempty"`
}

// Notifier dispatches booking lifecycle notifications. Failures are logged by
// the caller and never fail the booking or cancellation.
type Notifier interface {
	BookingConfirmed(ctx context.Context, msg BookingMessage) error
	BookingCancelled(ctx context.Context, msg BookingMessage) error
}

// LogNotifier is the fallback when no message broker is configured: it logs
// the notification so local development still shows the dispatch.
type LogNotifier struct {
	logger hclog.Logger
}

func NewLogNotifier(logger hclog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) BookingConfirmed(_ context.Context, msg BookingMessage) error {
	n.logger.Info("booking confirmed notification", "appointment_id", msg.AppointmentID, "visitor_email", msg.VisitorEmail)
	return nil
}

func (n *LogNotifier) BookingCancelled(_ context.Context, msg BookingMessage) error {
	n.logger.Info("booking cancelled notification", "appointment_id", msg.AppointmentID, "visitor_email", msg.VisitorEmail)
	return nil
}
