package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Peterboktor1993/replate-checkout/internal/config"
)

func TestPlaceOrderSendsGuestTokenFallback(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(PlaceOrderResult{Success: true, OrderID: "ord-77"})
	}))
	t.Cleanup(srv.Close)

	c := NewOrderClient(&config.OrderAPI{BaseURL: srv.URL, GuestToken: "guest-token"})

	result, err := c.PlaceOrder(context.Background(), []byte(`{"items":[]}`), "")
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if !result.Success || result.OrderID != "ord-77" {
		t.Errorf("result = %+v", result)
	}
	if gotAuth != "Bearer guest-token" {
		t.Errorf("auth = %q, want guest token fallback", gotAuth)
	}
}

func TestPlaceOrderPrefersCustomerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(PlaceOrderResult{Success: true, OrderID: "ord-78"})
	}))
	t.Cleanup(srv.Close)

	c := NewOrderClient(&config.OrderAPI{BaseURL: srv.URL, GuestToken: "guest-token"})

	if _, err := c.PlaceOrder(context.Background(), []byte(`{}`), "customer-token"); err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if gotAuth != "Bearer customer-token" {
		t.Errorf("auth = %q, want customer token", gotAuth)
	}
}

func TestPlaceOrderBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c := NewOrderClient(&config.OrderAPI{BaseURL: srv.URL})

	if _, err := c.PlaceOrder(context.Background(), []byte(`{}`), ""); err == nil {
		t.Fatal("expected error for 500 response")
	}
}
