// Package gateway talks to the external payment provider. Calls go through a
// circuit breaker so a struggling provider sheds load fast instead of tying
// up request handlers.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"storefront-backend/internal/domain"
)

// Intent is the provider's representation of a pending payment, to be
// completed client-side.
type Intent struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type Gateway interface {
	// CreateIntent mints a payment intent for amount in the smallest
	// currency unit.
	CreateIntent(ctx context.Context, amount int64, currency, receipt string) (*Intent, error)
	// Refund reverses up to amount against a settled transaction and
	// returns the provider's refund id.
	Refund(ctx context.Context, transactionID string, amount int64) (string, error)
}

type Client struct {
	http    *http.Client
	baseURL string
	keyID   string
	secret  string
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *log.Logger
}

func NewClient(baseURL, keyID, secret string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "payment-gateway",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Printf("gateway: breaker %s %s -> %s", name, from, to)
		},
	})
	return &Client{
		http:    &http.Client{Timeout: 15 * time.Second},
		baseURL: baseURL,
		keyID:   keyID,
		secret:  secret,
		breaker: breaker,
		logger:  logger,
	}
}

func (c *Client) CreateIntent(ctx context.Context, amount int64, currency, receipt string) (*Intent, error) {
	payload := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}
	body, err := c.do(ctx, http.MethodPost, "/orders", payload)
	if err != nil {
		return nil, &domain.UpstreamError{Op: "create intent", Message: "payment provider is unavailable", Err: err}
	}

	var intent Intent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, &domain.UpstreamError{Op: "create intent", Message: "unexpected provider response", Err: err}
	}
	return &intent, nil
}

func (c *Client) Refund(ctx context.Context, transactionID string, amount int64) (string, error) {
	payload := map[string]interface{}{"amount": amount}
	body, err := c.do(ctx, http.MethodPost, "/payments/"+transactionID+"/refund", payload)
	if err != nil {
		return "", &domain.UpstreamError{Op: "refund", Message: "payment provider is unavailable", Err: err}
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", &domain.UpstreamError{Op: "refund", Message: "unexpected provider response", Err: err}
	}
	return out.ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.SetBasicAuth(c.keyID, c.secret)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			c.logger.Printf("gateway: %s %s status=%d", method, path, resp.StatusCode)
			return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
		}
		return body, nil
	})
}
