package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidExpiryFormat = errors.New("formato de data de expiração inválido, use YYYY-MM")

type CardHolder struct {
	TaxID string `json:"tax_id" validate:"required"`
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required"`
}

// AuthenticationMethod carries the 3-D Secure result required by debit charges.
type AuthenticationMethod struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	CAVV string `json:"cavv"`
	ECI  string `json:"eci"`
}

type CardData struct {
	Number               string                `json:"number"`
	ExpMonth             int                   `json:"exp_month"`
	ExpYear              int                   `json:"exp_year"`
	SecurityCode         string                `json:"security_code"`
	Holder               *CardHolder           `json:"holder,omitempty"`
	// Store is accepted from callers but not forwarded to the gateway.
	Store                *bool                 `json:"store,omitempty"`
	AuthenticationMethod *AuthenticationMethod `json:"authentication_method,omitempty"`
}

// NewCardDataFromExpiry builds card data from a combined "YYYY-MM" expiration.
func NewCardDataFromExpiry(number, expiry, securityCode string, holder *CardHolder) (*CardData, error) {
	month, year, err := ParseCardExpiry(expiry)
	if err != nil {
		return nil, err
	}
	return &CardData{
		Number:       number,
		ExpMonth:     month,
		ExpYear:      year,
		SecurityCode: securityCode,
		Holder:       holder,
	}, nil
}

// ParseCardExpiry splits "YYYY-MM" into month and year.
func ParseCardExpiry(expiry string) (month, year int, err error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(expiry))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidExpiryFormat, expiry)
	}
	return int(t.Month()), t.Year(), nil
}

// LastFour returns the trailing digits used in logs and the order ledger.
func (c *CardData) LastFour() string {
	if c == nil || len(c.Number) < 4 {
		return ""
	}
	return c.Number[len(c.Number)-4:]
}
