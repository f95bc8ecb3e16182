package usage

import (
	"context"
	"net/http"
	"time"

	"github.com/openslot/openslot-backend/internal/pkg/apperror"
)

var ErrLimitReached = apperror.New(http.StatusForbidden, apperror.KindUsageLimitReached, "monthly booking limit reached")

// tierLimits maps a subscription tier to its monthly booking cap.
// A negative cap means unlimited. The scheduling core only consults this
// table through the Limiter capability; billing knowledge stays out.
var tierLimits = map[string]int{
	"free":     30,
	"pro":      500,
	"business": -1,
}

// LimitFor returns the monthly booking cap for a tier. Unknown tiers get the
// free cap.
func LimitFor(tier string) int {
	if limit, ok := tierLimits[tier]; ok {
		return limit
	}
	return tierLimits["free"]
}

// Status is the result of a usage check: allowed/blocked plus the current count.
type Status struct {
	Allowed bool
	Count   int
	Limit   int
}

// Limiter is the usage-counter capability injected into the booking service.
type Limiter interface {
	Check(ctx context.Context, businessID, tier string) (*Status, error)
	Increment(ctx context.Context, businessID string) error
}

// CurrentMonth returns the counter bucket for now, e.g. "2026-09".
func CurrentMonth() string {
	return time.Now().UTC().Format("2006-01")
}
