package availability

import (
	"net/http"
	"time"

	"github.com/openslot/openslot-backend/internal/pkg/apperror"
)

var (
	ErrInvalidRange    = apperror.New(http.StatusBadRequest, apperror.KindValidationFailed, "invalid date range")
	ErrInvalidTimezone = apperror.New(http.StatusInternalServerError, apperror.KindInternal, "business timezone is invalid")
)

// Rule is one weekly recurring availability window, wall-clock in the
// business's timezone. At most one rule per (business, weekday).
type Rule struct {
	ID         string
	BusinessID string
	Weekday    int    // 0=Sunday..6=Saturday
	StartTime  string // "HH:MM"
	EndTime    string
	Available  bool
}

// Override replaces the recurring rule for one calendar date. A non-available
// override blanks the whole day; an available one may carry its own window,
// falling back to the rule's times when nil.
type Override struct {
	ID         string
	BusinessID string
	Date       string // "2006-01-02"
	Available  bool
	StartTime  *string
	EndTime    *string
}

// Slot is one candidate bookable interval of exactly the appointment type's
// duration. Local display strings are rendered in the business's timezone.
type Slot struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	StartLocal string    `json:"startLocal"`
	EndLocal   string    `json:"endLocal"`
	Available  bool      `json:"available"`
}

// DaySlots is the ordered slot sequence for one date.
type DaySlots struct {
	Date  string `json:"date"`
	Slots []Slot `json:"slots"`
}

// cachedDay is the cache representation of one day's computed slots.
type cachedDay struct {
	Slots    []Slot    `json:"slots"`
	CachedAt time.Time `json:"cachedAt"`
}
