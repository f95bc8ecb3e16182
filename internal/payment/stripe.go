package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const stripeBaseURL = "https://api.stripe.com/v1"

// StripeProvider talks to the Stripe REST API directly with form-encoded
// requests authenticated by the secret key.
type StripeProvider struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

func NewStripeProvider(secretKey string, timeout time.Duration) *StripeProvider {
	return &StripeProvider{
		secretKey: secretKey,
		baseURL:   stripeBaseURL,
		client:    &http.Client{Timeout: timeout},
	}
}

type stripeIntent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Status       string            `json:"status"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Metadata     map[string]string `json:"metadata"`
}

type stripeRefund struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *StripeProvider) CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.Amount, 10))
	form.Set("currency", req.Currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	if req.ReceiptEmail != "" {
		form.Set("receipt_email", req.ReceiptEmail)
	}
	if req.Description != "" {
		form.Set("description", req.Description)
	}
	for k, v := range req.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	var out stripeIntent
	if err := p.do(ctx, http.MethodPost, "/payment_intents", form, &out); err != nil {
		return nil, err
	}
	return toIntent(&out), nil
}

func (p *StripeProvider) VerifyIntent(ctx context.Context, intentID string) (*Intent, error) {
	var out stripeIntent
	if err := p.do(ctx, http.MethodGet, "/payment_intents/"+url.PathEscape(intentID), nil, &out); err != nil {
		return nil, err
	}
	return toIntent(&out), nil
}

func (p *StripeProvider) RefundIntent(ctx context.Context, intentID string, amount int64) (*Refund, error) {
	form := url.Values{}
	form.Set("payment_intent", intentID)
	form.Set("amount", strconv.FormatInt(amount, 10))

	var out stripeRefund
	if err := p.do(ctx, http.MethodPost, "/refunds", form, &out); err != nil {
		return nil, err
	}
	return &Refund{ID: out.ID, Amount: out.Amount, Status: out.Status}, nil
}

func (p *StripeProvider) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build payment request: %w", err)
	}
	req.SetBasicAuth(p.secretKey, "")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return ErrTimeout
		}
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read payment response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var se stripeError
		if json.Unmarshal(raw, &se) == nil && se.Error.Message != "" {
			return fmt.Errorf("%w: %s", ErrRejected, se.Error.Message)
		}
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode payment response: %w", err)
	}
	return nil
}

func toIntent(in *stripeIntent) *Intent {
	return &Intent{
		ID:           in.ID,
		ClientSecret: in.ClientSecret,
		Status:       in.Status,
		Amount:       in.Amount,
		Currency:     in.Currency,
		Metadata:     in.Metadata,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
