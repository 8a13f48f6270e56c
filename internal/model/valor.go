package model

// Wire types for the Valor gateway API.

type ValorSessionResult struct {
	ErrorNo string `json:"error_no"`
	Mesg    string `json:"mesg"`
	Desc    string `json:"desc"`
	// hosted payment page URL; carries the uid query parameter
	PaymentURL string `json:"payment_url"`
}

type ValorTransaction struct {
	UID           string `json:"uid"`
	InvoiceNumber string `json:"invoicenumber"`
	Amount        string `json:"amount"`
	ResponseCode  string `json:"RESPONSE_CODE"`
	TxnType       string `json:"txn_type"` // SALE, AUTH, REFUND, ...
	Status        string `json:"status"`   // APPROVED, FAILED, DECLINED, TIMEOUT, CANCELLED
	IsVoid        bool   `json:"is_void"`
}

type ValorTxnListResult struct {
	ErrorNo      string             `json:"error_no"`
	Mesg         string             `json:"mesg"`
	Transactions []ValorTransaction `json:"data"`
}
