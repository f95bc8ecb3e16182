package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openslot/openslot-backend/internal/webhook"
)

type stubLedger struct {
	processed []string
}

func (s *stubLedger) Insert(_ context.Context, _, _, _ string) (bool, error) { return true, nil }

func (s *stubLedger) IsProcessed(_ context.Context, _, _ string) (bool, error) { return false, nil }

func (s *stubLedger) MarkProcessed(_ context.Context, _, eventID string) error {
	s.processed = append(s.processed, eventID)
	return nil
}

const secret = "whsec_test"

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func newWebhookRouter(ledger *stubLedger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	processor := webhook.NewProcessor(ledger, hclog.NewNullLogger())
	processor.Register(webhook.ProviderPayment, secret, map[string]webhook.EventHandler{
		"payment_intent.succeeded": func(context.Context, webhook.Envelope) error { return nil },
	})
	r := gin.New()
	RegisterRoutes(r.Group("/v1"), NewHandler(processor))
	return r
}

func deliver(r http.Handler, body []byte, signature string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/payment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, signature)
	r.ServeHTTP(w, req)
	return w
}

func TestReceiveSignedEvent(t *testing.T) {
	ledger := &stubLedger{}
	r := newWebhookRouter(ledger)

	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{}}}`)
	w := deliver(r, body, sign(body))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"received": true}`, w.Body.String())
	assert.Equal(t, []string{"evt_1"}, ledger.processed)
}

func TestReceiveRejectsOversizedBody(t *testing.T) {
	ledger := &stubLedger{}
	r := newWebhookRouter(ledger)

	body := bytes.Repeat([]byte("a"), maxBodyBytes+1)
	w := deliver(r, body, sign(body))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, ledger.processed)
}

func TestReceiveBadSignature(t *testing.T) {
	ledger := &stubLedger{}
	r := newWebhookRouter(ledger)

	body := []byte(`{"id":"evt_2","type":"payment_intent.succeeded","data":{"object":{}}}`)
	w := deliver(r, body, "deadbeef")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, ledger.processed)
}
