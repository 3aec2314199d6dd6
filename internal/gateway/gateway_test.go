package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront-backend/internal/domain"
)

func TestCreateIntent(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"id":"order_abc","amount":141600,"currency":"INR"}`)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key", "secret", nil)
	intent, err := client.CreateIntent(context.Background(), 141600, "INR", "receipt-1")
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}

	if intent.ID != "order_abc" || intent.Amount != 141600 || intent.Currency != "INR" {
		t.Fatalf("unexpected intent %+v", intent)
	}
	if gotPath != "/orders" {
		t.Fatalf("expected POST /orders, got %s", gotPath)
	}
	if gotAuth == "" {
		t.Fatalf("expected basic auth header")
	}
	if gotBody["amount"] != float64(141600) || gotBody["currency"] != "INR" {
		t.Fatalf("unexpected request body %v", gotBody)
	}
}

func TestCreateIntent_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key", "secret", nil)
	_, err := client.CreateIntent(context.Background(), 100, "INR", "r")

	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
}

func TestRefund(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if _, err := w.Write([]byte(`{"id":"rfnd_1"}`)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key", "secret", nil)
	refundID, err := client.Refund(context.Background(), "txn_1", 5000)
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if refundID != "rfnd_1" {
		t.Fatalf("expected rfnd_1, got %q", refundID)
	}
	if gotPath != "/payments/txn_1/refund" {
		t.Fatalf("unexpected path %s", gotPath)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key", "secret", nil)
	for i := 0; i < 5; i++ {
		if _, err := client.CreateIntent(context.Background(), 100, "INR", "r"); err == nil {
			t.Fatalf("expected failure on attempt %d", i)
		}
	}
	if hits != 5 {
		t.Fatalf("expected 5 provider hits, got %d", hits)
	}

	// The breaker is open now; the next call must not reach the provider.
	if _, err := client.CreateIntent(context.Background(), 100, "INR", "r"); err == nil {
		t.Fatalf("expected open breaker to reject the call")
	}
	if hits != 5 {
		t.Fatalf("expected no provider hit while breaker open, got %d", hits)
	}
}
