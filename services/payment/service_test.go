package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pagseguro-payment-api/models"
	"pagseguro-payment-api/services/payment/pagseguro"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateOrder(ctx context.Context, order *pagseguro.OrderRequest) (map[string]interface{}, error) {
	args := m.Called(ctx, order)
	result, _ := args.Get(0).(map[string]interface{})
	return result, args.Error(1)
}

func newTestService(pixExpiration string) (*Service, *mockGateway) {
	gateway := &mockGateway{}
	return NewService(gateway, Settings{PixExpiration: pixExpiration}, zap.NewNop()), gateway
}

func TestCreatePaymentSubmitsOrder(t *testing.T) {
	svc, gateway := newTestService("")
	gateway.On("CreateOrder", mock.Anything, mock.MatchedBy(func(o *pagseguro.OrderRequest) bool {
		return o.ReferenceID == "ref-123" && len(o.Charges) == 1 && o.Charges[0].Amount.Value == 15000
	})).Return(map[string]interface{}{"id": "ORDE_1"}, nil).Once()

	result, err := svc.CreatePayment(context.Background(), validCustomer(), validAddress(), validItems(),
		models.PaymentMethodCreditCard, creditConfig(), validCard())
	require.NoError(t, err)
	assert.Equal(t, "ORDE_1", result["id"])
	gateway.AssertExpectations(t)
}

func TestCreatePaymentValidationStopsBeforeGateway(t *testing.T) {
	badPhone := validCustomer()
	badPhone.Phones = []models.Phone{models.NewPhone("55", "11", "12")}

	badCPF := validCustomer()
	badCPF.TaxID = "52998224726"

	badAddress := validAddress()
	badAddress.PostalCode = "123"

	expiredCard := validCard()
	expiredCard.ExpYear = time.Now().Year() - 1

	lowAmount := creditConfig()
	lowAmount.Amount.Value = 50

	tests := []struct {
		name     string
		customer models.Customer
		address  models.Address
		items    []models.Item
		method   models.PaymentMethod
		config   models.PaymentConfig
		card     *models.CardData
		kind     Kind
	}{
		{"bad phone", badPhone, validAddress(), validItems(), models.PaymentMethodCreditCard, creditConfig(), validCard(), KindValidation},
		{"bad cpf", badCPF, validAddress(), validItems(), models.PaymentMethodCreditCard, creditConfig(), validCard(), KindValidation},
		{"bad address", validCustomer(), badAddress, validItems(), models.PaymentMethodCreditCard, creditConfig(), validCard(), KindValidation},
		{"no items", validCustomer(), validAddress(), nil, models.PaymentMethodCreditCard, creditConfig(), validCard(), KindValidation},
		{"low amount", validCustomer(), validAddress(), validItems(), models.PaymentMethodCreditCard, lowAmount, validCard(), KindValidation},
		{"expired card", validCustomer(), validAddress(), validItems(), models.PaymentMethodCreditCard, creditConfig(), expiredCard, KindValidation},
		{"unknown method", validCustomer(), validAddress(), validItems(), models.PaymentMethod("BOLETO"), creditConfig(), nil, KindUnsupportedMethod},
		{"pix without expiration", validCustomer(), validAddress(), validItems(), models.PaymentMethodPix, creditConfig(), nil, KindConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, gateway := newTestService("")
			_, err := svc.CreatePayment(context.Background(), tt.customer, tt.address, tt.items, tt.method, tt.config, tt.card)
			assertKind(t, err, tt.kind)
			gateway.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
		})
	}
}

func TestCreatePaymentGatewayError(t *testing.T) {
	svc, gateway := newTestService(testPixExpiration)
	gwErr := &pagseguro.GatewayError{StatusCode: 400, Body: `{"error_messages":[{"code":"40002"}]}`}
	gateway.On("CreateOrder", mock.Anything, mock.Anything).Return(nil, gwErr)

	_, err := svc.CreatePayment(context.Background(), validCustomer(), validAddress(), validItems(),
		models.PaymentMethodPix, creditConfig(), nil)

	assert.ErrorIs(t, err, ErrGateway)
	var target *pagseguro.GatewayError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, 400, target.StatusCode)
	assert.Contains(t, err.Error(), "40002")
}

func TestCreatePaymentTransportError(t *testing.T) {
	svc, gateway := newTestService(testPixExpiration)
	gateway.On("CreateOrder", mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded)

	_, err := svc.CreatePayment(context.Background(), validCustomer(), validAddress(), validItems(),
		models.PaymentMethodPix, creditConfig(), nil)

	assert.ErrorIs(t, err, ErrGateway)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPrepareOrderDoesNotSubmit(t *testing.T) {
	svc, gateway := newTestService(testPixExpiration)

	order, err := svc.PrepareOrder(validCustomer(), validAddress(), validItems(), models.PaymentMethodPix, creditConfig(), nil)
	require.NoError(t, err)
	require.Len(t, order.QRCodes, 1)
	assert.Empty(t, order.Charges)
	gateway.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func paymentRequest() models.PaymentRequest {
	return models.PaymentRequest{
		Customer:      validCustomer(),
		Address:       validAddress(),
		Items:         validItems(),
		PaymentMethod: "Cartão de Crédito",
		Amount:        150.0,
		Card: &models.CardInput{
			Number:       "4111111111111111",
			Expiration:   "2099-08",
			SecurityCode: "123",
			Holder:       validHolder(),
		},
	}
}

func TestProcessPaymentNormalizesRequest(t *testing.T) {
	svc, gateway := newTestService("")

	var submitted *pagseguro.OrderRequest
	gateway.On("CreateOrder", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { submitted = args.Get(1).(*pagseguro.OrderRequest) }).
		Return(map[string]interface{}{"id": "ORDE_2"}, nil)

	result, err := svc.ProcessPayment(context.Background(), paymentRequest())
	require.NoError(t, err)
	assert.Equal(t, "ORDE_2", result["id"])

	require.NotNil(t, submitted)
	require.Len(t, submitted.Charges, 1)
	charge := submitted.Charges[0]
	assert.NotEmpty(t, submitted.ReferenceID, "reference id is derived when missing")
	assert.Equal(t, submitted.ReferenceID, charge.ReferenceID)
	assert.Equal(t, int64(15000), charge.Amount.Value)
	assert.Equal(t, "BRL", charge.Amount.Currency)
	assert.Equal(t, "Pagamento CREDIT_CARD", charge.Description)
	assert.Equal(t, "CREDIT_CARD", charge.PaymentMethod.Type)
	assert.Equal(t, 8, charge.PaymentMethod.Card.ExpMonth)
	assert.Equal(t, 2099, charge.PaymentMethod.Card.ExpYear)
}

func TestProcessPaymentKeepsReferenceID(t *testing.T) {
	svc, gateway := newTestService("")
	gateway.On("CreateOrder", mock.Anything, mock.MatchedBy(func(o *pagseguro.OrderRequest) bool {
		return o.ReferenceID == "pedido-42"
	})).Return(map[string]interface{}{}, nil)

	req := paymentRequest()
	req.ReferenceID = "pedido-42"
	_, err := svc.ProcessPayment(context.Background(), req)
	require.NoError(t, err)
	gateway.AssertExpectations(t)
}

func TestProcessPaymentWrapsFailures(t *testing.T) {
	badInstallments := 15

	tests := []struct {
		name   string
		mutate func(r *models.PaymentRequest)
		cause  Kind
	}{
		{"unsupported method", func(r *models.PaymentRequest) { r.PaymentMethod = "boleto" }, KindUnsupportedMethod},
		{"bad amount", func(r *models.PaymentRequest) { r.Amount = "muito" }, KindValidation},
		{"bad expiry", func(r *models.PaymentRequest) { r.Card.Expiration = "08/2099" }, KindValidation},
		{"bad installments", func(r *models.PaymentRequest) { r.Installments = &badInstallments }, KindValidation},
		{"invalid cpf", func(r *models.PaymentRequest) { r.Customer.TaxID = "11111111111" }, KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, gateway := newTestService("")
			req := paymentRequest()
			tt.mutate(&req)

			_, err := svc.ProcessPayment(context.Background(), req)
			require.Error(t, err)

			var outer *Error
			require.True(t, errors.As(err, &outer))
			assert.Equal(t, KindProcessing, outer.Kind)
			assert.Equal(t, "Erro ao processar pagamento", outer.Message)
			assert.ErrorIs(t, err, ErrProcessing)
			assert.Equal(t, tt.cause, KindOf(err))
			gateway.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
		})
	}
}

func TestProcessPaymentGatewayFailureKeepsCause(t *testing.T) {
	svc, gateway := newTestService("")
	gateway.On("CreateOrder", mock.Anything, mock.Anything).
		Return(nil, &pagseguro.GatewayError{StatusCode: 401, Body: "unauthorized"})

	_, err := svc.ProcessPayment(context.Background(), paymentRequest())
	assert.ErrorIs(t, err, ErrProcessing)
	assert.ErrorIs(t, err, ErrGateway)
	assert.Equal(t, KindGateway, KindOf(err))
}

func TestErrorIsMatchesKindOnly(t *testing.T) {
	err := validationError("CPF inválido")
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrConfig)
	assert.False(t, errors.Is(err, &Error{Kind: KindValidation, Message: "outro"}))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestPrepareOrderReportsMissingPixExpirationFirst(t *testing.T) {
	svc, _ := newTestService("")

	badCustomer := validCustomer()
	badCustomer.TaxID = "11111111111"

	_, err := svc.PrepareOrder(badCustomer, models.Address{}, nil, models.PaymentMethodPix, models.PaymentConfig{}, nil)
	require.Error(t, err)
	assert.Equal(t, KindConfig, KindOf(err))
	assert.Contains(t, err.Error(), "PIX_EXPIRATION_DATE")
}

func TestPreparePaymentMatchesProcessPayment(t *testing.T) {
	svc, gateway := newTestService("")

	req := paymentRequest()
	req.ReferenceID = "pedido-7"
	order, err := svc.PreparePayment(req)
	require.NoError(t, err)
	require.Len(t, order.Charges, 1)
	assert.Equal(t, "pedido-7", order.ReferenceID)
	assert.Equal(t, int64(15000), order.Charges[0].Amount.Value)

	req.Card.Expiration = "2000-01"
	_, err = svc.PreparePayment(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProcessing)
	assert.Equal(t, KindValidation, KindOf(err))

	gateway.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}
