package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/tierpay/internal/catalog"
	"github.com/angelmondragon/tierpay/internal/payments"
	"github.com/angelmondragon/tierpay/internal/sessions"
	pkgerrors "github.com/angelmondragon/tierpay/pkg/errors"
)

const (
	defaultBaseURL            = "http://localhost:8080/api"
	errorBodyReadLimit  int64 = 4096
	defaultClientTimeout      = 30 * time.Second
)

// Client is the typed HTTP client for the tierpay backend API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// New builds the API client.
func New(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultClientTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// IntentRequest is the payload for CreatePaymentIntent.
type IntentRequest struct {
	ProductID     string `json:"productId"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	CustomerEmail string `json:"customerEmail,omitempty"`
	CustomerName  string `json:"customerName,omitempty"`
}

// CheckoutRequest is the payload for CreateCheckoutSession.
type CheckoutRequest struct {
	PriceID       string `json:"priceId"`
	CustomerEmail string `json:"customerEmail,omitempty"`
	CustomerName  string `json:"customerName,omitempty"`
}

// GetProducts lists every pricing tier.
func (c *Client) GetProducts(ctx context.Context) ([]catalog.ProductDTO, error) {
	var out []catalog.ProductDTO
	if err := c.get(ctx, "products", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProduct fetches one pricing tier by id.
func (c *Client) GetProduct(ctx context.Context, productID string) (*catalog.ProductDTO, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	var out catalog.ProductDTO
	if err := c.get(ctx, "products/"+url.PathEscape(productID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetConfig fetches the publishable key used to initialize the payment SDK.
func (c *Client) GetConfig(ctx context.Context) (string, error) {
	var out struct {
		PublishableKey string `json:"publishableKey"`
	}
	if err := c.get(ctx, "config", &out); err != nil {
		return "", err
	}
	if out.PublishableKey == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "publishable key missing from config")
	}
	return out.PublishableKey, nil
}

// CreatePaymentIntent starts a direct card payment.
func (c *Client) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*payments.IntentDTO, error) {
	var out payments.IntentDTO
	if err := c.post(ctx, "create-payment-intent", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPaymentStatus fetches the processor status of an intent.
func (c *Client) GetPaymentStatus(ctx context.Context, paymentIntentID string) (*payments.IntentDTO, error) {
	if strings.TrimSpace(paymentIntentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id is required")
	}
	var out payments.IntentDTO
	if err := c.get(ctx, "payment-status/"+url.PathEscape(paymentIntentID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCheckoutSession starts a hosted checkout flow.
func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*sessions.CheckoutRedirectDTO, error) {
	var out sessions.CheckoutRedirectDTO
	if err := c.post(ctx, "create-checkout-session", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCheckoutSession fetches the state of a hosted checkout session.
func (c *Client) GetCheckoutSession(ctx context.Context, sessionID string) (*sessions.PurchaseSessionDTO, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	var out sessions.PurchaseSessionDTO
	if err := c.get(ctx, "checkout-session/"+url.PathEscape(sessionID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSessions fetches the full purchase history.
func (c *Client) ListSessions(ctx context.Context) ([]sessions.PurchaseSessionDTO, error) {
	var out []sessions.PurchaseSessionDTO
	if err := c.get(ctx, "purchases/sessions", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListSessionsByCustomer fetches purchases made under one email address.
func (c *Client) ListSessionsByCustomer(ctx context.Context, email string) ([]sessions.PurchaseSessionDTO, error) {
	if strings.TrimSpace(email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email is required")
	}
	var out []sessions.PurchaseSessionDTO
	if err := c.get(ctx, "purchases/sessions/customer/"+url.PathEscape(email), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListSessionsByDateRange fetches purchases between two inclusive YYYY-MM-DD days.
func (c *Client) ListSessionsByDateRange(ctx context.Context, startDate, endDate string) ([]sessions.PurchaseSessionDTO, error) {
	if startDate == "" || endDate == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "start and end dates are required")
	}
	query := url.Values{"start": {startDate}, "end": {endDate}}
	var out []sessions.PurchaseSessionDTO
	if err := c.get(ctx, "purchases/sessions/date-range?"+query.Encode(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(path), nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build request")
	}
	return c.do(req, dest)
}

func (c *Client) post(ctx context.Context, path string, body, dest any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(path), bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, dest)
}

func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Caller cancellation is not a timeout; only deadline expiry is.
		switch req.Context().Err() {
		case context.DeadlineExceeded:
			return pkgerrors.Wrap(pkgerrors.CodeTimeout, err, "request timed out")
		case context.Canceled:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "request cancelled")
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return pkgerrors.Wrap(pkgerrors.CodeTimeout, err, "request timed out")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return c.decodeError(resp)
	}

	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode response")
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode response payload")
	}
	return nil
}

func (c *Client) decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Code != "" {
		return pkgerrors.New(codeFromWire(envelope.Error.Code, resp.StatusCode), envelope.Error.Message)
	}
	return pkgerrors.New(codeFromStatus(resp.StatusCode),
		fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
}

func codeFromWire(code string, status int) pkgerrors.Code {
	switch pkgerrors.Code(code) {
	case pkgerrors.CodeValidation, pkgerrors.CodeNotFound, pkgerrors.CodePayment,
		pkgerrors.CodeDependency, pkgerrors.CodeTimeout, pkgerrors.CodeInternal:
		return pkgerrors.Code(code)
	}
	return codeFromStatus(status)
}

func codeFromStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusPaymentRequired:
		return pkgerrors.CodePayment
	case http.StatusGatewayTimeout:
		return pkgerrors.CodeTimeout
	case http.StatusServiceUnavailable:
		return pkgerrors.CodeDependency
	default:
		return pkgerrors.CodeInternal
	}
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
