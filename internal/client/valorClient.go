package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Peterboktor1993/replate-checkout/internal/config"
	"github.com/Peterboktor1993/replate-checkout/internal/model"
)

var (
	// ErrGatewayUnavailable covers transport failures and non-2xx gateway
	// responses. Callers may retry.
	ErrGatewayUnavailable = errors.New("valor gateway unavailable")
	// ErrMalformedGatewayResponse means the gateway answered 2xx but the
	// payload broke the contract (no extractable uid). Not retryable.
	ErrMalformedGatewayResponse = errors.New("malformed valor gateway response")
)

type ValorClient interface {
	CreateSession(ctx context.Context, params SessionParams) (*CreateSessionResult, error)
	VerifyTransaction(ctx context.Context, uid, invoiceNumber string) (*model.ValorTransaction, error)
	CheckStatus(ctx context.Context, uid string) (*model.ValorTransaction, error)
}

type valorClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	appID      string
	appKey     string
	epi        string
}

type SessionParams struct {
	Amount        string
	InvoiceNumber string
	CustomerName  string
}

type CreateSessionResult struct {
	URL string
	UID string
}

func NewValorClient(valorCfg *config.Valor) ValorClient {
	return &valorClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL: valorCfg.BaseApiURL,
		appID:      valorCfg.AppID,
		appKey:     valorCfg.AppKey,
		epi:        valorCfg.EPI,
	}
}

func (c *valorClientImpl) post(ctx context.Context, path string, payload map[string]any, out any) error {
	payload["appid"] = c.appID
	payload["appkey"] = c.appKey
	payload["epi"] = c.epi

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal req payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status=%d body=%s", ErrGatewayUnavailable, resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode valor response: %w", err)
	}
	return nil
}

// CreateSession opens a sale transaction on the gateway's hosted page. The
// uid is extracted from the returned payment URL; the gateway is the only
// source of uids and a 2xx response without one is a contract break.
func (c *valorClientImpl) CreateSession(ctx context.Context, params SessionParams) (*CreateSessionResult, error) {
	var result model.ValorSessionResult
	err := c.post(ctx, "/txn/sale", map[string]any{
		"txn_type":      "sale",
		"amount":        params.Amount,
		"invoicenumber": params.InvoiceNumber,
		"customer_name": params.CustomerName,
	}, &result)
	if err != nil {
		return nil, err
	}

	if result.ErrorNo != "S00" && result.ErrorNo != "00" {
		return nil, fmt.Errorf("%w: error_no=%s mesg=%s", ErrGatewayUnavailable, result.ErrorNo, result.Mesg)
	}

	uid := extractUID(result.PaymentURL)
	if uid == "" {
		return nil, fmt.Errorf("%w: no uid in payment url %q", ErrMalformedGatewayResponse, result.PaymentURL)
	}

	return &CreateSessionResult{
		URL: result.PaymentURL,
		UID: uid,
	}, nil
}

// VerifyTransaction looks the transaction up on the gateway's list endpoint.
// A nil transaction with nil error means the gateway does not know the
// transaction yet (caller should keep polling).
func (c *valorClientImpl) VerifyTransaction(ctx context.Context, uid, invoiceNumber string) (*model.ValorTransaction, error) {
	payload := map[string]any{}
	if uid != "" {
		payload["uid"] = uid
	}
	if invoiceNumber != "" {
		payload["invoicenumber"] = invoiceNumber
	}

	var result model.ValorTxnListResult
	if err := c.post(ctx, "/txn/list", payload, &result); err != nil {
		return nil, err
	}

	for i := range result.Transactions {
		txn := &result.Transactions[i]
		if (uid != "" && txn.UID == uid) ||
			(uid == "" && invoiceNumber != "" && txn.InvoiceNumber == invoiceNumber) {
			// some gateway responses carry the code only at the list level
			if txn.ResponseCode == "" && (result.ErrorNo == "S00" || result.ErrorNo == "00") {
				txn.ResponseCode = result.ErrorNo
			}
			return txn, nil
		}
	}
	return nil, nil
}

// CheckStatus is the polling variant keyed by uid only.
func (c *valorClientImpl) CheckStatus(ctx context.Context, uid string) (*model.ValorTransaction, error) {
	return c.VerifyTransaction(ctx, uid, "")
}

func extractUID(paymentURL string) string {
	u, err := url.Parse(paymentURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("uid")
}
