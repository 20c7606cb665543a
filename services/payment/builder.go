package payment

import (
	"pagseguro-payment-api/models"
	"pagseguro-payment-api/services/payment/pagseguro"
)

// Builder turns validated records into the PagSeguro order document.
type Builder struct {
	// PixExpiration is the expiration_date sent with every PIX QR code.
	PixExpiration string
}

func (b Builder) Build(customer models.Customer, address models.Address, items []models.Item,
	method models.PaymentMethod, config models.PaymentConfig, card *models.CardData) (*pagseguro.OrderRequest, error) {
	// Checked again here because callers may skip Service.CreatePayment.
	if err := ValidatePaymentMethod(method, card); err != nil {
		return nil, err
	}

	order := &pagseguro.OrderRequest{
		Customer:    toGatewayCustomer(customer),
		Shipping:    pagseguro.Shipping{Address: toGatewayAddress(address)},
		Items:       toGatewayItems(items),
		ReferenceID: config.Charge.ReferenceID,
	}

	if method == models.PaymentMethodPix {
		if b.PixExpiration == "" {
			return nil, configError("PIX_EXPIRATION_DATE não configurado")
		}
		if err := ValidatePixExpiration(b.PixExpiration); err != nil {
			return nil, err
		}
		order.QRCodes = []pagseguro.QRCode{{
			Amount:         pagseguro.QRCodeAmount{Value: config.Amount.Value},
			ExpirationDate: b.PixExpiration,
		}}
		return order, nil
	}

	paymentMethod, err := buildCardPayment(method, card, config)
	if err != nil {
		return nil, err
	}

	currency := config.Amount.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}

	order.Charges = []pagseguro.Charge{{
		ReferenceID: config.Charge.ReferenceID,
		Description: config.Charge.Description,
		Amount: pagseguro.Amount{
			Value:    config.Amount.Value,
			Currency: currency,
		},
		PaymentMethod: *paymentMethod,
	}}
	return order, nil
}

func buildCardPayment(method models.PaymentMethod, card *models.CardData, config models.PaymentConfig) (*pagseguro.PaymentMethod, error) {
	pm := &pagseguro.PaymentMethod{
		Type: method.String(),
		Card: pagseguro.Card{
			Number:       card.Number,
			ExpMonth:     card.ExpMonth,
			ExpYear:      card.ExpYear,
			SecurityCode: card.SecurityCode,
		},
	}

	if card.Holder != nil {
		pm.Card.Holder = &pagseguro.Holder{
			TaxID: card.Holder.TaxID,
			Name:  card.Holder.Name,
			Email: card.Holder.Email,
		}
	}

	switch method {
	case models.PaymentMethodCreditCard:
		installments := 1
		if config.Installments != nil {
			installments = *config.Installments
		}
		capture := true
		if config.Capture != nil {
			capture = *config.Capture
		}
		pm.Installments = &installments
		pm.Capture = &capture
		pm.SoftDescriptor = config.SoftDescriptor

	case models.PaymentMethodDebitCard:
		if card.Holder == nil {
			return nil, validationError("Dados do titular são obrigatórios para cartão de débito")
		}
		if card.AuthenticationMethod == nil {
			return nil, validationError("Método de autenticação é obrigatório para cartão de débito")
		}
		auth := card.AuthenticationMethod
		pm.AuthenticationMethod = &pagseguro.AuthenticationMethod{
			Type: auth.Type,
			ID:   auth.ID,
			CAVV: auth.CAVV,
			ECI:  auth.ECI,
		}
	}
	return pm, nil
}

func toGatewayCustomer(c models.Customer) pagseguro.Customer {
	phones := make([]pagseguro.Phone, 0, len(c.Phones))
	for _, p := range c.Phones {
		phoneType := p.Type
		if phoneType == "" {
			phoneType = models.PhoneTypeMobile
		}
		phones = append(phones, pagseguro.Phone{
			Country: p.Country,
			Area:    p.Area,
			Number:  p.Number,
			Type:    phoneType,
		})
	}
	return pagseguro.Customer{
		Name:   c.Name,
		Email:  c.Email,
		TaxID:  c.TaxID,
		Phones: phones,
	}
}

func toGatewayAddress(a models.Address) pagseguro.Address {
	return pagseguro.Address{
		Street:     a.Street,
		Number:     a.Number,
		Locality:   a.Locality,
		City:       a.City,
		RegionCode: a.RegionCode,
		Country:    a.Country,
		PostalCode: a.PostalCode,
	}
}

func toGatewayItems(items []models.Item) []pagseguro.Item {
	out := make([]pagseguro.Item, 0, len(items))
	for _, item := range items {
		out = append(out, pagseguro.Item{
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitAmount: item.UnitAmount,
		})
	}
	return out
}
