package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Peterboktor1993/replate-checkout/internal/config"
)

// OrderClient talks to the restaurant/order backend. Placement is keyed by
// invoice number so the backend can deduplicate a repeated request for the
// same payment.
type OrderClient interface {
	PlaceOrder(ctx context.Context, payload json.RawMessage, token string) (*PlaceOrderResult, error)
	GetOrderDetails(ctx context.Context, orderID, token string) (json.RawMessage, error)
}

type orderClientImpl struct {
	httpClient *http.Client
	baseURL    string
	guestToken string
}

type PlaceOrderResult struct {
	Success bool   `json:"success"`
	OrderID string `json:"order_id"`
	Error   string `json:"error,omitempty"`
}

func NewOrderClient(orderCfg *config.OrderAPI) OrderClient {
	return &orderClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:    orderCfg.BaseURL,
		guestToken: orderCfg.GuestToken,
	}
}

func (c *orderClientImpl) token(token string) string {
	if token == "" {
		return c.guestToken
	}
	return token
}

func (c *orderClientImpl) PlaceOrder(ctx context.Context, payload json.RawMessage, token string) (*PlaceOrderResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/customer/order/place", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token(token))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("order api place order: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("order api error %d: %s", resp.StatusCode, string(body))
	}

	var result PlaceOrderResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode order api response: %w", err)
	}
	return &result, nil
}

func (c *orderClientImpl) GetOrderDetails(ctx context.Context, orderID, token string) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/api/v1/customer/order/details?order_id=%s", c.baseURL, orderID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token(token))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("order api get details: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read order api response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("order api error %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
