package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"pagseguro-payment-api/database"
	"pagseguro-payment-api/models"
	"pagseguro-payment-api/services/payment"
	"pagseguro-payment-api/services/payment/pagseguro"
	"pagseguro-payment-api/utils"
)

// OrderLedger records every submission. *database.Connection implements it.
type OrderLedger interface {
	SaveOrder(ctx context.Context, order *models.OrderRecord) error
	UpdateOrderResult(ctx context.Context, referenceID string, status models.PaymentStatus, gatewayOrderID, errorMessage string) error
	GetOrderByReference(ctx context.Context, referenceID string) (*models.OrderRecord, error)
}

// ReferenceLocker serializes submissions per reference id. *cache.ReferenceLock
// implements it.
type ReferenceLocker interface {
	Acquire(ctx context.Context, referenceID string) (bool, error)
	Release(ctx context.Context, referenceID string) error
}

var errReferenceInUse = errors.New("reference id already in use")

type PaymentHandler struct {
	service payment.PaymentProcessor
	ledger  OrderLedger
	locks   ReferenceLocker
	logger  *zap.Logger
}

// NewPaymentHandler requires the service; ledger and locks may be nil, in
// which case submissions are neither recorded nor serialized.
func NewPaymentHandler(service payment.PaymentProcessor, ledger OrderLedger, locks ReferenceLocker, logger *zap.Logger) (*PaymentHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("payment service is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentHandler{
		service: service,
		ledger:  ledger,
		locks:   locks,
		logger:  logger,
	}, nil
}

// CreateOrder handles POST /api/orders with fully structured records.
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if _, err := h.service.PrepareOrder(req.Customer, req.Address, req.Items, req.PaymentMethod, req.Config, req.Card); err != nil {
		h.sendPaymentError(w, h.logger.With(zap.String("reference_id", req.Config.Charge.ReferenceID)), err)
		return
	}

	record := models.OrderRecord{
		ReferenceID:   req.Config.Charge.ReferenceID,
		PaymentMethod: req.PaymentMethod,
		Amount:        req.Config.Amount.Value,
		Currency:      req.Config.Amount.Currency,
		CardLastFour:  req.Card.LastFour(),
	}

	h.submit(w, r, record, func(ctx context.Context) (map[string]interface{}, error) {
		return h.service.CreatePayment(ctx, req.Customer, req.Address, req.Items, req.PaymentMethod, req.Config, req.Card)
	})
}

// ProcessPayment handles POST /api/payments, the free-form variant that
// accepts method text and a decimal amount in reais.
func (h *PaymentHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()

	var req models.PaymentRequest
	if err := decoder.Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	// Fixed here rather than in the service so the ledger row and the lock
	// use the same key the gateway sees.
	if req.ReferenceID == "" {
		req.ReferenceID = uuid.New().String()
	}

	if _, err := h.service.PreparePayment(req); err != nil {
		h.sendPaymentError(w, h.logger.With(zap.String("reference_id", req.ReferenceID)), err)
		return
	}

	method, _ := models.ParsePaymentMethod(req.PaymentMethod)
	amount, _ := payment.ValidateAmount(req.Amount, nil)
	record := models.OrderRecord{
		ReferenceID:   req.ReferenceID,
		PaymentMethod: method,
		Amount:        amount,
		Currency:      req.Currency,
	}
	if req.Card != nil {
		record.CardLastFour = (&models.CardData{Number: req.Card.Number}).LastFour()
	}

	h.submit(w, r, record, func(ctx context.Context) (map[string]interface{}, error) {
		return h.service.ProcessPayment(ctx, req)
	})
}

func (h *PaymentHandler) submit(w http.ResponseWriter, r *http.Request, record models.OrderRecord,
	call func(ctx context.Context) (map[string]interface{}, error)) {
	ctx := r.Context()
	log := h.logger.With(
		zap.String("reference_id", record.ReferenceID),
		zap.String("payment_method", record.PaymentMethod.String()))

	if record.Currency == "" {
		record.Currency = models.DefaultCurrency
	}

	if record.ReferenceID != "" {
		release, err := h.lock(ctx, record.ReferenceID)
		if errors.Is(err, errReferenceInUse) {
			utils.SendErrorResponse(w, http.StatusConflict, "Pagamento com este reference_id já está em processamento")
			return
		}
		if err != nil {
			log.Error("Error acquiring reference lock", zap.Error(err))
			utils.SendErrorResponse(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		defer release()

		if err := h.recordStart(ctx, &record); err != nil {
			if errors.Is(err, database.ErrDuplicateOrder) {
				utils.SendErrorResponse(w, http.StatusConflict, "Pagamento com este reference_id já foi enviado")
				return
			}
			log.Error("Error recording order", zap.Error(err))
			utils.SendErrorResponse(w, http.StatusInternalServerError, "Internal server error")
			return
		}
	}

	result, err := call(ctx)
	h.recordResult(ctx, record.ReferenceID, result, err)

	if err != nil {
		h.sendPaymentError(w, log, err)
		return
	}

	log.Info("Payment created",
		zap.Any("order_id", result["id"]),
		zap.String("amount", utils.FormatCentavos(record.Amount)))

	utils.SendJSON(w, http.StatusCreated, models.APIResponse{
		Status:  "success",
		Message: "Pagamento criado com sucesso",
		Data:    result,
	})
}

func (h *PaymentHandler) sendPaymentError(w http.ResponseWriter, log *zap.Logger, err error) {
	status := errorStatus(err)
	log.Warn("Payment failed",
		zap.String("kind", string(payment.KindOf(err))),
		zap.Int("http_status", status),
		zap.Error(err))
	if status == http.StatusInternalServerError {
		utils.SendErrorResponse(w, status, "Erro interno ao processar pagamento")
		return
	}
	utils.SendErrorResponse(w, status, err.Error())
}

func (h *PaymentHandler) lock(ctx context.Context, referenceID string) (func(), error) {
	if h.locks == nil {
		return func() {}, nil
	}

	acquired, err := h.locks.Acquire(ctx, referenceID)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, errReferenceInUse
	}

	return func() {
		// The request context may already be cancelled.
		if err := h.locks.Release(context.Background(), referenceID); err != nil {
			h.logger.Warn("Error releasing reference lock",
				zap.String("reference_id", referenceID),
				zap.Error(err))
		}
	}, nil
}

func (h *PaymentHandler) recordStart(ctx context.Context, record *models.OrderRecord) error {
	if h.ledger == nil {
		return nil
	}
	record.Status = models.PaymentStatusProcessing
	return h.ledger.SaveOrder(ctx, record)
}

func (h *PaymentHandler) recordResult(ctx context.Context, referenceID string, result map[string]interface{}, callErr error) {
	if h.ledger == nil || referenceID == "" {
		return
	}

	status := models.PaymentStatusSuccess
	gatewayOrderID := ""
	errorMessage := ""

	if callErr != nil {
		errorMessage = callErr.Error()
		status = models.PaymentStatusFailed
		var gwErr *pagseguro.GatewayError
		if errors.As(callErr, &gwErr) {
			status = models.PaymentStatusRejected
		}
	} else if id, ok := result["id"].(string); ok {
		gatewayOrderID = id
	}

	if err := h.ledger.UpdateOrderResult(context.WithoutCancel(ctx), referenceID, status, gatewayOrderID, errorMessage); err != nil {
		h.logger.Error("Error updating order result",
			zap.String("reference_id", referenceID),
			zap.Error(err))
	}
}

// GetOrder handles GET /api/orders/{reference_id}.
func (h *PaymentHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	if h.ledger == nil {
		utils.SendErrorResponse(w, http.StatusServiceUnavailable, "Order ledger is not configured")
		return
	}

	referenceID := mux.Vars(r)["reference_id"]
	order, err := h.ledger.GetOrderByReference(r.Context(), referenceID)
	if errors.Is(err, database.ErrOrderNotFound) {
		utils.SendErrorResponse(w, http.StatusNotFound, "Pedido não encontrado")
		return
	}
	if err != nil {
		h.logger.Error("Error loading order", zap.String("reference_id", referenceID), zap.Error(err))
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: order.Status.String(),
		Data:    order,
	})
}

// NormalizeMethod handles GET /api/payment-methods/{text}.
func (h *PaymentHandler) NormalizeMethod(w http.ResponseWriter, r *http.Request) {
	text := mux.Vars(r)["text"]
	method, err := models.ParsePaymentMethod(text)
	if err != nil {
		utils.SendErrorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Método de pagamento reconhecido",
		Data: map[string]string{
			"input":          text,
			"payment_method": method.String(),
		},
	})
}

func errorStatus(err error) int {
	switch payment.KindOf(err) {
	case payment.KindValidation, payment.KindUnsupportedMethod:
		return http.StatusUnprocessableEntity
	case payment.KindGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
