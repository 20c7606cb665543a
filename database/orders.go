package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"pagseguro-payment-api/models"
)

const mysqlDuplicateEntry = 1062

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrDuplicateOrder = errors.New("order with this reference id already exists")
)

const createOrdersTable = `
	CREATE TABLE IF NOT EXISTS payment_orders (
		id               CHAR(36)     NOT NULL PRIMARY KEY,
		reference_id     VARCHAR(64)  NOT NULL,
		payment_method   VARCHAR(16)  NOT NULL,
		amount           BIGINT       NOT NULL,
		currency         CHAR(3)      NOT NULL,
		status           TINYINT      NOT NULL,
		gateway_order_id VARCHAR(64)  NULL,
		card_last_four   CHAR(4)      NULL,
		error_message    TEXT         NULL,
		created_at       DATETIME     NOT NULL,
		updated_at       DATETIME     NOT NULL,
		UNIQUE KEY uq_payment_orders_reference (reference_id)
	)`

func (c *Connection) EnsureSchema(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, createOrdersTable); err != nil {
		return fmt.Errorf("failed to create payment_orders table: %w", err)
	}
	return nil
}

// SaveOrder inserts a new ledger row. ID and CreatedAt are filled in when
// empty. A second row for the same reference id yields ErrDuplicateOrder.
func (c *Connection) SaveOrder(ctx context.Context, order *models.OrderRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO payment_orders (
			id, reference_id, payment_method, amount, currency, status,
			gateway_order_id, card_last_four, error_message, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.ExecContext(ctx, query,
		order.ID,
		order.ReferenceID,
		order.PaymentMethod.String(),
		order.Amount,
		order.Currency,
		int(order.Status),
		nullString(order.GatewayOrderID),
		nullString(order.CardLastFour),
		nullString(order.ErrorMessage),
		order.CreatedAt,
		order.CreatedAt,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return ErrDuplicateOrder
		}
		c.logger.Error("Error saving order",
			zap.String("reference_id", order.ReferenceID),
			zap.Error(err))
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

// UpdateOrderResult stores the outcome of the gateway call.
func (c *Connection) UpdateOrderResult(ctx context.Context, referenceID string, status models.PaymentStatus, gatewayOrderID, errorMessage string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := `
		UPDATE payment_orders
		SET status = ?, gateway_order_id = ?, error_message = ?, updated_at = ?
		WHERE reference_id = ?
	`

	result, err := c.db.ExecContext(ctx, query,
		int(status),
		nullString(gatewayOrderID),
		nullString(errorMessage),
		time.Now().UTC(),
		referenceID,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rows == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (c *Connection) GetOrderByReference(ctx context.Context, referenceID string) (*models.OrderRecord, error) {
	query := `
		SELECT id, reference_id, payment_method, amount, currency, status,
			gateway_order_id, card_last_four, error_message, created_at
		FROM payment_orders
		WHERE reference_id = ?
	`

	var (
		order          models.OrderRecord
		method         string
		status         int
		gatewayOrderID sql.NullString
		cardLastFour   sql.NullString
		errorMessage   sql.NullString
	)

	err := c.db.QueryRowContext(ctx, query, referenceID).Scan(
		&order.ID,
		&order.ReferenceID,
		&method,
		&order.Amount,
		&order.Currency,
		&status,
		&gatewayOrderID,
		&cardLastFour,
		&errorMessage,
		&order.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting order: %w", err)
	}

	order.PaymentMethod = models.PaymentMethod(method)
	order.Status = models.PaymentStatus(status)
	order.GatewayOrderID = gatewayOrderID.String
	order.CardLastFour = cardLastFour.String
	order.ErrorMessage = errorMessage.String
	return &order, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
