package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openslot/openslot-backend/internal/ratelimit"
)

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:52000"
	r.ServeHTTP(w, req)
	return w
}

// Each endpoint draws from its own limiter, so exhausting the booking
// budget must not lock a visitor out of creating payment intents.
func TestEndpointBudgetsAreIndependent(t *testing.T) {
	bookLimiter := ratelimit.NewLimiter(1, time.Minute)
	defer bookLimiter.Close()
	intentLimiter := ratelimit.NewLimiter(1, time.Minute)
	defer intentLimiter.Close()

	r := NewRouter(Config{
		BookLimiter:          bookLimiter,
		PaymentIntentLimiter: intentLimiter,
		Logger:               hclog.NewNullLogger(),
	})

	// Empty bodies fail validation, but only after a token is spent.
	w := postJSON(r, "/v1/book", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(r, "/v1/book", `{}`)
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	w = postJSON(r, "/v1/payment-intent", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "payment-intent should keep its own budget")
}

func TestPaymentIntentBudgetExhausts(t *testing.T) {
	intentLimiter := ratelimit.NewLimiter(1, time.Minute)
	defer intentLimiter.Close()

	r := NewRouter(Config{
		PaymentIntentLimiter: intentLimiter,
		Logger:               hclog.NewNullLogger(),
	})

	w := postJSON(r, "/v1/payment-intent", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(r, "/v1/payment-intent", `{}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
