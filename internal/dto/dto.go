package dto

import "encoding/json"

type CreateSessionRequest struct {
	Amount        string `json:"amount"`
	InvoiceNumber string `json:"invoicenumber"`
	CustomerName  string `json:"customer_name"`
	RestaurantID  string `json:"restaurant_id"`
}

type CreateSessionResponse struct {
	Success       bool   `json:"success"`
	URL           string `json:"url"`
	UID           string `json:"uid"`
	Amount        string `json:"amount"`
	InvoiceNumber string `json:"invoicenumber"`
	CustomerName  string `json:"customer_name"`
}

type VerifyRequest struct {
	UID           string `json:"uid"`
	InvoiceNumber string `json:"invoicenumber"`
}

type VerifyResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"` // approved, declined, processing
}

type StageOrderRequest struct {
	RestaurantID  string          `json:"restaurant_id"`
	InvoiceNumber string          `json:"invoicenumber"`
	Amount        string          `json:"amount"`
	Payload       json.RawMessage `json:"payload"`
}

type StageOrderResponse struct {
	Success       bool   `json:"success"`
	InvoiceNumber string `json:"invoicenumber"`
}

// PayRequest drives POST /api/pay: either a confirmation signal relayed from
// the payment window (signal set) or a finalize request after approval.
type PayRequest struct {
	UID           string `json:"uid"`
	InvoiceNumber string `json:"invoicenumber"`
	RestaurantID  string `json:"restaurant_id"`
	Signal        string `json:"signal,omitempty"` // success, failed, closed
}

type PayResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	OrderID string `json:"order_id,omitempty"`
}

type IncompletePaymentResponse struct {
	Success       bool   `json:"success"`
	Found         bool   `json:"found"`
	OrderID       string `json:"order_id,omitempty"`
	UID           string `json:"uid,omitempty"`
	InvoiceNumber string `json:"invoicenumber,omitempty"`
	Amount        string `json:"amount,omitempty"`
	RestaurantID  string `json:"restaurant_id,omitempty"`
	Status        string `json:"status,omitempty"`
	Timestamp     int64  `json:"timestamp,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
