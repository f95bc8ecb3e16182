package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/hashicorp/go-hclog"

	"github.com/openslot/openslot-backend/internal/pkg/apperror"
)

// EventHandler applies one event type's business effect. Handlers must be
// safe to re-run: the ledger only guarantees at-least-once execution for
// events whose first attempt died before MarkProcessed.
type EventHandler func(ctx context.Context, env Envelope) error

// Processor verifies, deduplicates and dispatches webhook deliveries. One
// Processor serves every provider; each provider carries its own secret and
// handler table.
type Processor struct {
	repo     Repository
	secrets  map[string]string
	handlers map[string]map[string]EventHandler
	logger   hclog.Logger
}

func NewProcessor(repo Repository, logger hclog.Logger) *Processor {
	return &Processor{
		repo:     repo,
		secrets:  make(map[string]string),
		handlers: make(map[string]map[string]EventHandler),
		logger:   logger,
	}
}

// Register adds a provider with its signing secret and per-event-type
// handlers. Event types without a handler are acknowledged and ignored.
func (p *Processor) Register(provider, secret string, handlers map[string]EventHandler) {
	p.secrets[provider] = secret
	p.handlers[provider] = handlers
}

// Process runs the full pipeline for one delivery: signature first, ledger
// claim second, handler third, processed mark last. Returning an error tells
// the provider to redeliver.
func (p *Processor) Process(ctx context.Context, provider string, body []byte, signature string) error {
	secret, ok := p.secrets[provider]
	if !ok {
		return ErrUnknownProvider
	}

	// Nothing touches the ledger before the signature holds, so forged
	// deliveries cannot claim or poison real event ids.
	if !verifySignature(secret, body, signature) {
		p.logger.Warn("webhook signature rejected", "provider", provider)
		return ErrBadSignature
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return apperror.Wrap(err, http.StatusBadRequest, apperror.KindValidationFailed, "malformed webhook payload")
	}
	if env.ID == "" || env.Type == "" {
		return apperror.New(http.StatusBadRequest, apperror.KindValidationFailed, "webhook event missing id or type")
	}

	claimed, err := p.repo.Insert(ctx, provider, env.ID, env.Type)
	if err != nil {
		return apperror.Wrap(err, http.StatusInternalServerError, apperror.KindInternal, "webhook ledger unavailable")
	}
	if !claimed {
		processed, err := p.repo.IsProcessed(ctx, provider, env.ID)
		if err != nil {
			return apperror.Wrap(err, http.StatusInternalServerError, apperror.KindInternal, "webhook ledger unavailable")
		}
		if processed {
			p.logger.Info("webhook event already processed, acknowledging",
				"provider", provider, "event_id", env.ID, "event_type", env.Type)
			return nil
		}
		// First attempt claimed the row but never finished; fall through and
		// run the handler on this delivery.
	}

	handler, ok := p.handlers[provider][env.Type]
	if !ok {
		p.logger.Debug("webhook event type unhandled, acknowledging",
			"provider", provider, "event_type", env.Type)
		if err := p.repo.MarkProcessed(ctx, provider, env.ID); err != nil {
			return apperror.Wrap(err, http.StatusInternalServerError, apperror.KindInternal, "webhook ledger unavailable")
		}
		return nil
	}

	if err := handler(ctx, env); err != nil {
		// The row stays unprocessed so the provider's retry runs the handler
		// again.
		p.logger.Error("webhook handler failed",
			"provider", provider, "event_id", env.ID, "event_type", env.Type, "error", err)
		return apperror.Wrap(err, http.StatusInternalServerError, apperror.KindInternal, "webhook processing failed")
	}

	if err := p.repo.MarkProcessed(ctx, provider, env.ID); err != nil {
		return apperror.Wrap(err, http.StatusInternalServerError, apperror.KindInternal, "webhook ledger unavailable")
	}
	return nil
}

// verifySignature checks an HMAC-SHA256 hex signature over the raw body with
// a constant-time compare.
func verifySignature(secret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
