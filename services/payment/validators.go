package payment

import (
	"encoding/json"
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"pagseguro-payment-api/models"
)

const (
	MinAmount       int64 = 100
	MaxAmount       int64 = 100000000
	MinInstallments       = 1
	MaxInstallments       = 12

	// defaultAmount is returned for a nil amount. Existing integrations send
	// no amount for R$1,00 verification charges and rely on it.
	defaultAmount int64 = 100
)

var (
	nonDigitRegex   = regexp.MustCompile(`[^0-9]`)
	areaCodeRegex   = regexp.MustCompile(`^[1-9][0-9]$`)
	phoneRegex      = regexp.MustCompile(`^9[0-9]{8}$|^[2-8][0-9]{7}$`)
	emailRegex      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	regionCodeRegex = regexp.MustCompile(`^[A-Z]{2}$`)
	currencyRegex   = regexp.MustCompile(`^[A-Z]{3}$`)

	hundred = decimal.NewFromInt(100)
)

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkRequired runs the struct tags and reports the first failing field.
func checkRequired(record interface{}, prefix string) error {
	err := structValidator.Struct(record)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return validationError("%s inválido: %v", prefix, err)
	}
	return validationError("%s: %s", prefix, fieldErrs[0].Field())
}

func onlyDigits(s string) string {
	return nonDigitRegex.ReplaceAllString(s, "")
}

// ValidateCPF checks length, repeated digits and both mod-11 check digits.
func ValidateCPF(cpf string) error {
	cpf = onlyDigits(cpf)

	if len(cpf) != 11 {
		return validationError("CPF deve conter 11 dígitos")
	}

	if cpf == strings.Repeat(cpf[:1], 11) {
		return validationError("CPF inválido")
	}

	for i := 9; i < 11; i++ {
		sum := 0
		for n := 0; n < i; n++ {
			sum += int(cpf[n]-'0') * (i + 1 - n)
		}
		digit := ((sum * 10) % 11) % 10
		if digit != int(cpf[i]-'0') {
			return validationError("CPF inválido")
		}
	}
	return nil
}

func ValidatePhone(phone models.Phone) error {
	if phone.Country == "" || phone.Area == "" || phone.Number == "" {
		return validationError("Dados do telefone incompletos")
	}

	if !areaCodeRegex.MatchString(phone.Area) {
		return validationError("DDD inválido")
	}

	if !phoneRegex.MatchString(phone.Number) {
		return validationError("Número de telefone inválido")
	}
	return nil
}

// ValidateAmount converts a decimal amount in reais to centavos and checks
// the R$1,00 to R$1.000.000,00 bounds. Accepted inputs are nil, Go numbers,
// decimal.Decimal, json.Number, numeric strings and maps with a "value" key.
// A nil amount yields 100 centavos instead of an error.
func ValidateAmount(amount interface{}, method *models.PaymentMethod) (int64, error) {
	if amount == nil {
		return defaultAmount, nil
	}

	reais, err := toDecimal(amount)
	if err != nil {
		if method != nil {
			return 0, validationError("Valor inválido para %s: %v", *method, err)
		}
		return 0, validationError("Valor inválido: %v", err)
	}

	value := reais.Mul(hundred).Truncate(0).IntPart()
	if err := checkAmountBounds(value); err != nil {
		return 0, err
	}
	return value, nil
}

func toDecimal(amount interface{}) (decimal.Decimal, error) {
	switch v := amount.(type) {
	case decimal.Decimal:
		return v, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	case map[string]interface{}:
		value, ok := v["value"]
		if !ok || value == nil {
			return decimal.NewFromInt(defaultAmount), nil
		}
		return toDecimal(value)
	}
	if n, ok := asInteger(amount); ok {
		return decimal.NewFromInt(n), nil
	}
	return decimal.Zero, errors.New("tipo não suportado")
}

func checkAmountBounds(value int64) error {
	if value < MinAmount {
		return validationError("Valor mínimo de R$ 1,00 não atingido")
	}
	if value > MaxAmount {
		return validationError("Valor máximo de R$ 1.000.000,00 excedido")
	}
	return nil
}

// asInteger accepts only Go integer kinds; 2.0 is not an installment count.
func asInteger(v interface{}) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), true
	}
	return 0, false
}

func ValidateCardExpiration(month, year int) error {
	now := time.Now()

	if year < now.Year() {
		return validationError("Cartão expirado")
	}

	if year == now.Year() && month < int(now.Month()) {
		return validationError("Cartão expirado")
	}

	if month < 1 || month > 12 {
		return validationError("Mês de expiração inválido")
	}
	return nil
}

func ValidateInstallments(installments interface{}) error {
	n, ok := asInteger(installments)
	if !ok {
		return validationError("Número de parcelas deve ser um número inteiro")
	}
	if n < MinInstallments || n > MaxInstallments {
		return validationError("Número de parcelas deve estar entre 1 e 12")
	}
	return nil
}

func ValidateCardData(card *models.CardData) error {
	if card == nil {
		return validationError("Dados do cartão são obrigatórios")
	}

	if card.Number == "" {
		return validationError("Número do cartão é obrigatório")
	}

	if card.SecurityCode == "" {
		return validationError("Código de segurança é obrigatório")
	}

	if card.ExpMonth == 0 || card.ExpYear == 0 {
		return validationError("Mês e ano de expiração são obrigatórios")
	}

	if card.ExpMonth < 1 || card.ExpMonth > 12 {
		return validationError("Mês de expiração inválido")
	}

	if err := ValidateCardExpiration(card.ExpMonth, card.ExpYear); err != nil {
		return err
	}

	if card.Holder == nil {
		return validationError("Nome do titular do cartão é obrigatório")
	}
	return checkRequired(*card.Holder, "Campo do titular obrigatório ausente")
}

// ValidatePaymentConfig checks a loosely typed configuration, as received
// before normalization.
func ValidatePaymentConfig(config map[string]interface{}) error {
	if _, ok := config["amount"]; !ok {
		return validationError("Campo obrigatório ausente: amount")
	}

	if installments, ok := config["installments"]; ok {
		return ValidateInstallments(installments)
	}
	return nil
}

// ValidateConfig is the typed counterpart of ValidatePaymentConfig; it also
// enforces the amount bounds and the currency format.
func ValidateConfig(config models.PaymentConfig) error {
	if err := checkAmountBounds(config.Amount.Value); err != nil {
		return err
	}

	if config.Amount.Currency != "" && !currencyRegex.MatchString(config.Amount.Currency) {
		return validationError("Moeda deve conter 3 letras maiúsculas")
	}

	if config.Charge.ReferenceID == "" {
		return validationError("Campo obrigatório ausente: reference_id")
	}

	if config.Installments != nil {
		return ValidateInstallments(*config.Installments)
	}
	return nil
}

func ValidateCustomer(customer models.Customer) error {
	if err := checkRequired(customer, "Campo obrigatório ausente"); err != nil {
		return err
	}

	if !emailRegex.MatchString(customer.Email) {
		return validationError("Formato de email inválido")
	}
	return nil
}

func ValidateAddress(address models.Address) error {
	if err := checkRequired(address, "Campo de endereço obrigatório ausente"); err != nil {
		return err
	}

	if len(onlyDigits(address.PostalCode)) != 8 {
		return validationError("CEP deve conter 8 dígitos")
	}

	if !regionCodeRegex.MatchString(address.RegionCode) {
		return validationError("Código do estado deve conter 2 letras maiúsculas")
	}
	return nil
}

// ValidatePixExpiration accepts every value. See DESIGN.md for why the
// timestamp check stays off.
func ValidatePixExpiration(expiration string) error {
	return nil
}

func ValidatePaymentMethod(method models.PaymentMethod, card *models.CardData) error {
	if !method.IsValid() {
		return newError(KindUnsupportedMethod, "método de pagamento não suportado: "+strconv.Quote(string(method)), nil)
	}

	if method.IsCard() {
		if card == nil {
			return validationError("Dados do cartão são obrigatórios para pagamento com %s", method)
		}

		if method == models.PaymentMethodDebitCard && card.Holder == nil {
			return validationError("Dados do titular são obrigatórios para cartão de débito")
		}
	}
	return nil
}

func ValidateItems(items []models.Item) error {
	if len(items) == 0 {
		return validationError("Lista de itens não pode estar vazia")
	}

	for _, item := range items {
		if item.Name == "" {
			return validationError("Nome do item é obrigatório")
		}
		if item.Quantity <= 0 {
			return validationError("Quantidade do item deve ser um número inteiro positivo")
		}
		if item.UnitAmount <= 0 {
			return validationError("Valor unitário do item deve ser positivo")
		}
	}
	return nil
}

// ValidateGatewayConfig fails before any network activity when the gateway
// cannot be reached or authenticated.
func ValidateGatewayConfig(baseURL, token string) error {
	if baseURL == "" {
		return configError("PAGSEGURO_BASE_URL não configurado")
	}
	if token == "" {
		return configError("PAGSEGURO_TOKEN não configurado")
	}
	return nil
}

// ValidateCardNumber applies length and Luhn checks. The gateway runs its own
// checks; callers use this to reject typos before submitting.
func ValidateCardNumber(number string) error {
	digits := onlyDigits(number)
	if len(digits) < 13 || len(digits) > 19 || len(digits) != len(number) {
		return validationError("Número do cartão inválido")
	}
	if !validateLuhn(digits) {
		return validationError("Número do cartão inválido")
	}
	return nil
}

func validateLuhn(cardNumber string) bool {
	sum := 0
	isEven := len(cardNumber)%2 == 0

	for i, r := range cardNumber {
		digit := int(r - '0')

		if digit < 0 || digit > 9 {
			return false
		}

		if isEven == (i%2 == 0) {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
	}

	return sum%10 == 0
}
