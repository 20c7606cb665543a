package payment

import (
	"context"

	"pagseguro-payment-api/models"
	"pagseguro-payment-api/services/payment/pagseguro"
)

// Gateway submits an assembled order. *pagseguro.Client implements it.
type Gateway interface {
	CreateOrder(ctx context.Context, order *pagseguro.OrderRequest) (map[string]interface{}, error)
}

// PaymentProcessor is the surface the HTTP handlers depend on.
// The Prepare methods run the same checks without submitting, so callers can
// reject bad input before reserving anything.
type PaymentProcessor interface {
	PrepareOrder(customer models.Customer, address models.Address, items []models.Item,
		method models.PaymentMethod, config models.PaymentConfig, card *models.CardData) (*pagseguro.OrderRequest, error)
	PreparePayment(req models.PaymentRequest) (*pagseguro.OrderRequest, error)
	CreatePayment(ctx context.Context, customer models.Customer, address models.Address, items []models.Item,
		method models.PaymentMethod, config models.PaymentConfig, card *models.CardData) (map[string]interface{}, error)
	ProcessPayment(ctx context.Context, req models.PaymentRequest) (map[string]interface{}, error)
}
