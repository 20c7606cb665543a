package models

import "time"

type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// OrderRecord is one row of the submission ledger.
type OrderRecord struct {
	ID             string        `json:"id"`
	ReferenceID    string        `json:"reference_id"`
	PaymentMethod  PaymentMethod `json:"payment_method"`
	Amount         int64         `json:"amount"`
	Currency       string        `json:"currency"`
	Status         PaymentStatus `json:"status"`
	GatewayOrderID string        `json:"gateway_order_id,omitempty"`
	CardLastFour   string        `json:"card_last_four,omitempty"`
	ErrorMessage   string        `json:"error_message,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}
