package pagseguro

// OrderRequest is the body of POST /orders. Exactly one of Charges or
// QRCodes is set.
type OrderRequest struct {
	Customer    Customer `json:"customer"`
	Shipping    Shipping `json:"shipping"`
	Items       []Item   `json:"items"`
	ReferenceID string   `json:"reference_id"`
	Charges     []Charge `json:"charges,omitempty"`
	QRCodes     []QRCode `json:"qr_codes,omitempty"`
}

type Customer struct {
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	TaxID  string  `json:"tax_id"`
	Phones []Phone `json:"phones"`
}

type Phone struct {
	Country string `json:"country"`
	Area    string `json:"area"`
	Number  string `json:"number"`
	Type    string `json:"type"`
}

type Shipping struct {
	Address Address `json:"address"`
}

type Address struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	Locality   string `json:"locality"`
	City       string `json:"city"`
	RegionCode string `json:"region_code"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
}

type Item struct {
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	UnitAmount int64  `json:"unit_amount"`
}

type Amount struct {
	Value    int64  `json:"value"`
	Currency string `json:"currency"`
}

type Charge struct {
	ReferenceID   string        `json:"reference_id"`
	Description   string        `json:"description"`
	Amount        Amount        `json:"amount"`
	PaymentMethod PaymentMethod `json:"payment_method"`
}

// PaymentMethod carries installments, capture and soft_descriptor only for
// credit charges and authentication_method only for debit charges.
type PaymentMethod struct {
	Type                 string                `json:"type"`
	Card                 Card                  `json:"card"`
	Installments         *int                  `json:"installments,omitempty"`
	Capture              *bool                 `json:"capture,omitempty"`
	SoftDescriptor       *string               `json:"soft_descriptor,omitempty"`
	AuthenticationMethod *AuthenticationMethod `json:"authentication_method,omitempty"`
}

type Card struct {
	Number       string  `json:"number"`
	ExpMonth     int     `json:"exp_month"`
	ExpYear      int     `json:"exp_year"`
	SecurityCode string  `json:"security_code"`
	Holder       *Holder `json:"holder,omitempty"`
}

type Holder struct {
	TaxID string `json:"tax_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AuthenticationMethod struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	CAVV string `json:"cavv"`
	ECI  string `json:"eci"`
}

type QRCode struct {
	Amount         QRCodeAmount `json:"amount"`
	ExpirationDate string       `json:"expiration_date"`
}

type QRCodeAmount struct {
	Value int64 `json:"value"`
}
