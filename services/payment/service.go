package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pagseguro-payment-api/models"
	"pagseguro-payment-api/services/payment/pagseguro"
)

// Settings are the gateway inputs that do not come from the caller.
type Settings struct {
	PixExpiration string
}

type Service struct {
	gateway Gateway
	builder Builder
	logger  *zap.Logger
}

func NewService(gateway Gateway, settings Settings, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		gateway: gateway,
		builder: Builder{PixExpiration: settings.PixExpiration},
		logger:  logger,
	}
}

// PrepareOrder validates every record and assembles the order document
// without contacting the gateway.
func (s *Service) PrepareOrder(customer models.Customer, address models.Address, items []models.Item,
	method models.PaymentMethod, config models.PaymentConfig, card *models.CardData) (*pagseguro.OrderRequest, error) {
	if method == models.PaymentMethodPix && s.builder.PixExpiration == "" {
		return nil, configError("PIX_EXPIRATION_DATE não configurado")
	}
	if err := ValidateCustomer(customer); err != nil {
		return nil, err
	}
	if err := ValidateCPF(customer.TaxID); err != nil {
		return nil, err
	}
	for _, phone := range customer.Phones {
		if err := ValidatePhone(phone); err != nil {
			return nil, err
		}
	}
	if err := ValidateAddress(address); err != nil {
		return nil, err
	}
	if err := ValidateItems(items); err != nil {
		return nil, err
	}
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}
	if err := ValidatePaymentMethod(method, card); err != nil {
		return nil, err
	}
	if method.IsCard() {
		if err := ValidateCardData(card); err != nil {
			return nil, err
		}
	}

	return s.builder.Build(customer, address, items, method, config, card)
}

// CreatePayment validates, builds and submits one order.
func (s *Service) CreatePayment(ctx context.Context, customer models.Customer, address models.Address, items []models.Item,
	method models.PaymentMethod, config models.PaymentConfig, card *models.CardData) (map[string]interface{}, error) {
	log := s.logger.With(
		zap.String("reference_id", config.Charge.ReferenceID),
		zap.String("payment_method", method.String()))

	order, err := s.PrepareOrder(customer, address, items, method, config, card)
	if err != nil {
		log.Warn("Payment rejected before submission", zap.Error(err))
		return nil, err
	}

	if card != nil {
		log = log.With(zap.String("card_last_four", card.LastFour()))
	}
	log.Info("Submitting payment", zap.Int64("amount", config.Amount.Value))

	result, err := s.gateway.CreateOrder(ctx, order)
	if err != nil {
		log.Error("Payment submission failed", zap.Error(err))
		var gwErr *pagseguro.GatewayError
		if errors.As(err, &gwErr) {
			return nil, newError(KindGateway, "gateway recusou o pedido", err)
		}
		return nil, newError(KindGateway, "falha de comunicação com o gateway", err)
	}

	log.Info("Payment submitted", zap.Any("order_id", result["id"]))
	return result, nil
}

// ProcessPayment accepts a loosely typed request, normalizes it into the
// structured records and delegates to CreatePayment. Every failure comes back
// as a KindProcessing error wrapping the original cause.
func (s *Service) ProcessPayment(ctx context.Context, req models.PaymentRequest) (map[string]interface{}, error) {
	result, err := s.processPayment(ctx, req)
	if err != nil {
		return nil, newError(KindProcessing, "Erro ao processar pagamento", err)
	}
	return result, nil
}

// PreparePayment runs every check ProcessPayment runs and returns the order
// document without contacting the gateway. Failures are wrapped the same way.
func (s *Service) PreparePayment(req models.PaymentRequest) (*pagseguro.OrderRequest, error) {
	order, err := s.preparePayment(req)
	if err != nil {
		return nil, newError(KindProcessing, "Erro ao processar pagamento", err)
	}
	return order, nil
}

func (s *Service) preparePayment(req models.PaymentRequest) (*pagseguro.OrderRequest, error) {
	n, err := s.normalize(req)
	if err != nil {
		return nil, err
	}
	return s.PrepareOrder(req.Customer, req.Address, req.Items, n.method, n.config, n.card)
}

func (s *Service) processPayment(ctx context.Context, req models.PaymentRequest) (map[string]interface{}, error) {
	n, err := s.normalize(req)
	if err != nil {
		return nil, err
	}
	return s.CreatePayment(ctx, req.Customer, req.Address, req.Items, n.method, n.config, n.card)
}

type normalizedPayment struct {
	method models.PaymentMethod
	config models.PaymentConfig
	card   *models.CardData
}

func (s *Service) normalize(req models.PaymentRequest) (normalizedPayment, error) {
	method, err := models.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return normalizedPayment{}, newError(KindUnsupportedMethod, "método de pagamento não suportado", err)
	}

	value, err := ValidateAmount(req.Amount, &method)
	if err != nil {
		return normalizedPayment{}, err
	}

	config, err := s.normalizeConfig(req, method, value)
	if err != nil {
		return normalizedPayment{}, err
	}

	card, err := normalizeCard(req.Card)
	if err != nil {
		return normalizedPayment{}, err
	}

	return normalizedPayment{method: method, config: config, card: card}, nil
}

func (s *Service) normalizeConfig(req models.PaymentRequest, method models.PaymentMethod, value int64) (models.PaymentConfig, error) {
	currency := req.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}

	referenceID := req.ReferenceID
	if referenceID == "" {
		referenceID = uuid.New().String()
		s.logger.Debug("Derived reference id", zap.String("reference_id", referenceID))
	}

	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Pagamento %s", method)
	}

	if req.Installments != nil {
		if err := ValidateInstallments(*req.Installments); err != nil {
			return models.PaymentConfig{}, err
		}
	}

	return models.PaymentConfig{
		Amount: models.PaymentAmount{Value: value, Currency: currency},
		Charge: models.ChargeConfig{
			ReferenceID: referenceID,
			Description: description,
		},
		Installments:   req.Installments,
		Capture:        req.Capture,
		SoftDescriptor: req.SoftDescriptor,
	}, nil
}

func normalizeCard(in *models.CardInput) (*models.CardData, error) {
	if in == nil {
		return nil, nil
	}

	month, year := in.ExpMonth, in.ExpYear
	if in.Expiration != "" {
		var err error
		month, year, err = models.ParseCardExpiry(in.Expiration)
		if err != nil {
			return nil, newError(KindValidation, "Formato de data de expiração inválido", err)
		}
	}

	return &models.CardData{
		Number:               in.Number,
		ExpMonth:             month,
		ExpYear:              year,
		SecurityCode:         in.SecurityCode,
		Holder:               in.Holder,
		Store:                in.Store,
		AuthenticationMethod: in.AuthenticationMethod,
	}, nil
}
