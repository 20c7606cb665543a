package models

const PhoneTypeMobile = "MOBILE"

type Phone struct {
	Country string `json:"country"`
	Area    string `json:"area"`
	Number  string `json:"number"`
	Type    string `json:"type"`
}

// NewPhone builds a mobile phone; use the struct literal for other types.
func NewPhone(country, area, number string) Phone {
	return Phone{
		Country: country,
		Area:    area,
		Number:  number,
		Type:    PhoneTypeMobile,
	}
}

type Customer struct {
	Name   string  `json:"name" validate:"required"`
	Email  string  `json:"email" validate:"required"`
	TaxID  string  `json:"tax_id" validate:"required"`
	Phones []Phone `json:"phones"`
}

type Address struct {
	Street     string `json:"street" validate:"required"`
	Number     string `json:"number" validate:"required"`
	Locality   string `json:"locality"`
	City       string `json:"city" validate:"required"`
	RegionCode string `json:"region_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
}

// Item amounts are in centavos.
type Item struct {
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	UnitAmount int64  `json:"unit_amount"`
}
