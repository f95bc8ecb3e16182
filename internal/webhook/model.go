package webhook

import (
	"net/http"
	"time"

	"github.com/openslot/openslot-backend/internal/pkg/apperror"
)

var (
	ErrBadSignature    = apperror.New(http.StatusUnauthorized, apperror.KindValidationFailed, "webhook signature verification failed")
	ErrUnknownProvider = apperror.New(http.StatusNotFound, apperror.KindNotFound, "unknown webhook provider")
)

// Event is one row of the idempotency ledger. The (provider, event_id) pair
// is unique, so a redelivered event maps onto its first row.
type Event struct {
	ID          string
	Provider    string
	EventID     string
	EventType   string
	Processed   bool
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// Envelope is the decoded wire form shared by both providers: an id, a type
// and an opaque payload the per-type handler decodes further.
type Envelope struct {
	ID   string       `json:"id"`
	Type string       `json:"type"`
	Data EnvelopeData `json:"data"`
}

type EnvelopeData struct {
	Object map[string]any `json:"object"`
}

// str reads a string field out of the payload object, returning "" when the
// field is absent or not a string.
func (d EnvelopeData) str(key string) string {
	v, _ := d.Object[key].(string)
	return v
}
