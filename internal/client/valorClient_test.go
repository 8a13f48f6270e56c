package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Peterboktor1993/replate-checkout/internal/config"
	"github.com/Peterboktor1993/replate-checkout/internal/model"
)

func newTestValorClient(t *testing.T, handler http.HandlerFunc) ValorClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewValorClient(&config.Valor{
		BaseApiURL: srv.URL,
		AppID:      "test-app",
		AppKey:     "test-key",
		EPI:        "1234567890",
	})
}

func TestCreateSessionExtractsUID(t *testing.T) {
	var gotBody map[string]any
	c := newTestValorClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/txn/sale" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(model.ValorSessionResult{
			ErrorNo:    "S00",
			PaymentURL: "https://pay.valor.test/hosted?uid=abc-123&epi=1234567890",
		})
	})

	result, err := c.CreateSession(context.Background(), SessionParams{
		Amount:        "25.50",
		InvoiceNumber: "INV-1",
		CustomerName:  "Jane Doe",
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if result.UID != "abc-123" {
		t.Errorf("uid = %q, want abc-123", result.UID)
	}
	if result.URL == "" {
		t.Error("expected payment url")
	}
	if gotBody["appid"] != "test-app" || gotBody["epi"] != "1234567890" {
		t.Errorf("credentials not sent: %v", gotBody)
	}
	if gotBody["amount"] != "25.50" || gotBody["invoicenumber"] != "INV-1" || gotBody["customer_name"] != "Jane Doe" {
		t.Errorf("session params not sent: %v", gotBody)
	}
}

func TestCreateSessionWithoutUIDIsMalformed(t *testing.T) {
	c := newTestValorClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.ValorSessionResult{
			ErrorNo:    "S00",
			PaymentURL: "https://pay.valor.test/hosted?epi=1234567890",
		})
	})

	_, err := c.CreateSession(context.Background(), SessionParams{
		Amount: "10.00", InvoiceNumber: "INV-2", CustomerName: "Jane",
	})
	if !errors.Is(err, ErrMalformedGatewayResponse) {
		t.Fatalf("err = %v, want ErrMalformedGatewayResponse", err)
	}
}

func TestCreateSessionGatewayErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-2xx status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "gateway error code",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(model.ValorSessionResult{ErrorNo: "E99", Mesg: "invalid epi"})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestValorClient(t, tt.handler)
			_, err := c.CreateSession(context.Background(), SessionParams{
				Amount: "10.00", InvoiceNumber: "INV-3", CustomerName: "Jane",
			})
			if !errors.Is(err, ErrGatewayUnavailable) {
				t.Fatalf("err = %v, want ErrGatewayUnavailable", err)
			}
		})
	}
}

func TestVerifyTransactionMatchesUID(t *testing.T) {
	c := newTestValorClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.ValorTxnListResult{
			ErrorNo: "S00",
			Transactions: []model.ValorTransaction{
				{UID: "other", ResponseCode: "00", TxnType: "SALE"},
				{UID: "abc", InvoiceNumber: "INV-1", ResponseCode: "00", TxnType: "SALE", Status: "APPROVED"},
			},
		})
	})

	txn, err := c.VerifyTransaction(context.Background(), "abc", "")
	if err != nil {
		t.Fatalf("VerifyTransaction: %v", err)
	}
	if txn == nil || txn.UID != "abc" {
		t.Fatalf("txn = %+v, want uid abc", txn)
	}
}

func TestVerifyTransactionUsesListLevelErrorNo(t *testing.T) {
	// some gateway responses report success only via the list-level
	// error_no; the matched record then carries no RESPONSE_CODE
	c := newTestValorClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.ValorTxnListResult{
			ErrorNo: "S00",
			Transactions: []model.ValorTransaction{
				{UID: "abc", InvoiceNumber: "INV-1", Status: "approved"},
			},
		})
	})

	txn, err := c.VerifyTransaction(context.Background(), "abc", "")
	if err != nil {
		t.Fatalf("VerifyTransaction: %v", err)
	}
	if txn == nil || txn.ResponseCode != "S00" {
		t.Fatalf("txn = %+v, want list-level error_no as response code", txn)
	}
}

func TestVerifyTransactionNotFound(t *testing.T) {
	c := newTestValorClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.ValorTxnListResult{ErrorNo: "S00"})
	})

	txn, err := c.VerifyTransaction(context.Background(), "missing", "")
	if err != nil {
		t.Fatalf("VerifyTransaction: %v", err)
	}
	if txn != nil {
		t.Fatalf("txn = %+v, want nil for unknown transaction", txn)
	}
}
