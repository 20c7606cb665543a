package pagseguro

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	SandboxBaseURL    = "https://sandbox.api.pagseguro.com"
	ProductionBaseURL = "https://api.pagseguro.com"
	RequestTimeout    = 30 * time.Second
	ordersPath        = "/orders"
)

var (
	ErrMissingBaseURL = errors.New("base URL is required")
	ErrMissingToken   = errors.New("token is required")
)

// GatewayError is returned when PagSeguro answers with anything other than
// 200 or 201. Body holds the raw response for diagnostics.
type GatewayError struct {
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("Erro ao criar pagamento (HTTP %d): %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL string
	http    *resty.Client
	logger  *zap.Logger
}

type Option func(*Client)

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(timeout)
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTransport replaces the pooled transport, mostly for tests.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *Client) {
		c.http.SetTransport(transport)
	}
}

func NewClient(baseURL, token string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}
	if token == "" {
		return nil, ErrMissingToken
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		MaxConnsPerHost:     100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	httpClient := resty.New().
		SetTransport(transport).
		SetTimeout(RequestTimeout).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CreateOrder posts the order and returns the decoded response body.
func (c *Client) CreateOrder(ctx context.Context, order *OrderRequest) (map[string]interface{}, error) {
	startTime := time.Now()

	c.logger.Info("Sending order to PagSeguro",
		zap.String("reference_id", order.ReferenceID),
		zap.Int("charges", len(order.Charges)),
		zap.Int("qr_codes", len(order.QRCodes)))

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(order).
		Post(c.baseURL + ordersPath)
	if err != nil {
		c.logger.Error("PagSeguro request failed",
			zap.String("reference_id", order.ReferenceID),
			zap.Error(err))
		return nil, fmt.Errorf("error making request: %w", err)
	}

	c.logger.Info("PagSeguro response received",
		zap.String("reference_id", order.ReferenceID),
		zap.Int("status_code", resp.StatusCode()),
		zap.Duration("elapsed", time.Since(startTime)))

	body := strings.TrimPrefix(resp.String(), "\ufeff")

	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return nil, &GatewayError{StatusCode: resp.StatusCode(), Body: body}
	}

	result := map[string]interface{}{}
	if strings.TrimSpace(body) == "" {
		return result, nil
	}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		return nil, fmt.Errorf("error decoding response: %w, response body: %s", err, body)
	}
	return result, nil
}
