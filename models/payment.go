package models

const DefaultCurrency = "BRL"

// PaymentAmount is expressed in centavos.
type PaymentAmount struct {
	Value    int64  `json:"value"`
	Currency string `json:"currency"`
}

func NewPaymentAmount(value int64) PaymentAmount {
	return PaymentAmount{Value: value, Currency: DefaultCurrency}
}

// ChargeConfig identifies a charge; ReferenceID doubles as the idempotency key.
type ChargeConfig struct {
	ReferenceID string `json:"reference_id"`
	Description string `json:"description"`
}

type PaymentConfig struct {
	Amount         PaymentAmount `json:"amount"`
	Charge         ChargeConfig  `json:"charge"`
	Installments   *int          `json:"installments,omitempty"`
	Capture        *bool         `json:"capture,omitempty"`
	SoftDescriptor *string       `json:"soft_descriptor,omitempty"`
}

// OrderRequest is the structured submission accepted by POST /api/orders.
type OrderRequest struct {
	Customer      Customer      `json:"customer"`
	Address       Address       `json:"address"`
	Items         []Item        `json:"items"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Config        PaymentConfig `json:"config"`
	Card          *CardData     `json:"card,omitempty"`
}

// PaymentRequest is the loosely typed submission normalized by the payment
// service: free-text method, decimal amount and "YYYY-MM" card expiry.
type PaymentRequest struct {
	Customer       Customer    `json:"customer"`
	Address        Address     `json:"address"`
	Items          []Item      `json:"items"`
	PaymentMethod  string      `json:"payment_method"`
	Amount         interface{} `json:"amount"`
	Currency       string      `json:"currency,omitempty"`
	ReferenceID    string      `json:"reference_id,omitempty"`
	Description    string      `json:"description,omitempty"`
	Installments   *int        `json:"installments,omitempty"`
	Capture        *bool       `json:"capture,omitempty"`
	SoftDescriptor *string     `json:"soft_descriptor,omitempty"`
	Card           *CardInput  `json:"card,omitempty"`
}

type CardInput struct {
	Number               string                `json:"number"`
	Expiration           string                `json:"expiration,omitempty"`
	ExpMonth             int                   `json:"exp_month,omitempty"`
	ExpYear              int                   `json:"exp_year,omitempty"`
	SecurityCode         string                `json:"security_code"`
	Holder               *CardHolder           `json:"holder,omitempty"`
	Store                *bool                 `json:"store,omitempty"`
	AuthenticationMethod *AuthenticationMethod `json:"authentication_method,omitempty"`
}
