package payment

import (
	"context"
	"net/http"

	"github.com/openslot/openslot-backend/internal/pkg/apperror"
)

var (
	ErrTimeout  = apperror.New(http.StatusGatewayTimeout, apperror.KindUpstreamTimeout, "payment provider timed out")
	ErrRejected = apperror.New(http.StatusBadGateway, apperror.KindUpstreamRejected, "payment provider rejected the request")
)

// IntentStatus values mirror the provider's payment intent lifecycle; only
// StatusSucceeded satisfies the booking gate.
const StatusSucceeded = "succeeded"

// Intent is the provider's view of a payment intent.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
	Metadata     map[string]string
}

// CreateIntentRequest describes a new payment intent for a booking.
type CreateIntentRequest struct {
	Amount       int64
	Currency     string
	ReceiptEmail string
	Description  string
	Metadata     map[string]string
}

// Refund is the provider's record of an issued refund.
type Refund struct {
	ID     string
	Amount int64
	Status string
}

// Provider is the engine's capability on the external payment system.
// Verification failures are terminal for a booking; refund failures are not
// terminal for a cancellation.
type Provider interface {
	CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error)
	VerifyIntent(ctx context.Context, intentID string) (*Intent, error)
	RefundIntent(ctx context.Context, intentID string, amount int64) (*Refund, error)
}
