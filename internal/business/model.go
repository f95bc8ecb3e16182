package business

import (
	"net/http"
	"time"

	"github.com/openslot/openslot-backend/internal/pkg/apperror"
)

var (
	ErrNotFound = apperror.New(http.StatusNotFound, apperror.KindNotFound, "business not found")
	ErrInactive = apperror.New(http.StatusForbidden, apperror.KindInactive, "business is inactive")
)

// Business is a tenant: the owner of an availability schedule, appointment
// types and the connected external calendar. Visitors reach it through its
// widget id, never its internal id.
type Business struct {
	ID                string
	WidgetID          string
	ExternalID        *string // identity-provider subject, set by webhook sync
	Name              string
	Email             string
	Timezone          string // IANA zone name, e.g. "America/New_York"
	Tier              string
	CalendarConnected bool
	CalendarToken     []byte // oauth2 token JSON for the connected calendar
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
