package models

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// PaymentMethod is the closed set of methods accepted by the PagSeguro orders API.
type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard  PaymentMethod = "DEBIT_CARD"
	PaymentMethodPix        PaymentMethod = "PIX"
)

var ErrUnsupportedPaymentMethod = errors.New("método de pagamento não suportado")

// paymentMethodAliases is keyed by the folded form produced by foldMethodText.
var paymentMethodAliases = map[string]PaymentMethod{
	"credit card":       PaymentMethodCreditCard,
	"credit":            PaymentMethodCreditCard,
	"cc":                PaymentMethodCreditCard,
	"credito":           PaymentMethodCreditCard,
	"cartao de credito": PaymentMethodCreditCard,
	"cartao credito":    PaymentMethodCreditCard,
	"debit card":        PaymentMethodDebitCard,
	"debit":             PaymentMethodDebitCard,
	"dc":                PaymentMethodDebitCard,
	"debito":            PaymentMethodDebitCard,
	"cartao de debito":  PaymentMethodDebitCard,
	"cartao debito":     PaymentMethodDebitCard,
	"pix":               PaymentMethodPix,
}

func (m PaymentMethod) String() string {
	return string(m)
}

func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodCreditCard || m == PaymentMethodDebitCard || m == PaymentMethodPix
}

// IsCard reports whether the method is charged against card data.
func (m PaymentMethod) IsCard() bool {
	return m == PaymentMethodCreditCard || m == PaymentMethodDebitCard
}

// ParsePaymentMethod maps free text such as "crédito", "CREDIT CARD" or "pix"
// onto a PaymentMethod. Matching ignores case, accents and "_"/"-" separators.
func ParsePaymentMethod(text string) (PaymentMethod, error) {
	key := foldMethodText(text)
	if method, ok := paymentMethodAliases[key]; ok {
		return method, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedPaymentMethod, text)
}

func foldMethodText(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	folded = strings.ToLower(folded)
	folded = strings.NewReplacer("_", " ", "-", " ").Replace(folded)
	return strings.Join(strings.Fields(folded), " ")
}
