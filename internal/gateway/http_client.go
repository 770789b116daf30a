package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the HTTP gateway client.
type Options struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Timeout   time.Duration
}

// httpClient implements Client against the gateway's REST API.
type httpClient struct {
	opts   Options
	http   *http.Client
	logger zerolog.Logger
}

// NewHTTPClient creates a gateway client. Every call is bounded by opts.Timeout.
func NewHTTPClient(opts Options, logger zerolog.Logger) Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	return &httpClient{
		opts:   opts,
		http:   &http.Client{},
		logger: logger.With().Str("component", "gateway").Logger(),
	}
}

type createOrderRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	PaymentCapture int    `json:"payment_capture"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder registers an order with the gateway.
func (c *httpClient) CreateOrder(ctx context.Context, amountMinor int64, currency, receiptID string) (*Order, error) {
	if amountMinor <= 0 {
		return nil, &Error{Code: "BAD_REQUEST_ERROR", Description: fmt.Sprintf("amount must be positive, got %d", amountMinor)}
	}

	body, err := json.Marshal(createOrderRequest{
		Amount:         amountMinor,
		Currency:       currency,
		Receipt:        receiptID,
		PaymentCapture: 1,
	})
	if err != nil {
		return nil, &Error{Err: fmt.Errorf("failed to encode order request: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Err: fmt.Errorf("failed to build order request: %w", err)}
	}
	req.SetBasicAuth(c.opts.KeyID, c.opts.KeySecret)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("receipt", receiptID).Dur("duration", time.Since(start)).Msg("gateway request failed")
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &Error{Code: "TIMEOUT", Description: "gateway did not respond in time", Err: err}
		}
		return nil, &Error{Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		gwErr := &Error{StatusCode: resp.StatusCode}
		var e errorResponse
		if json.Unmarshal(payload, &e) == nil {
			gwErr.Code = e.Error.Code
			gwErr.Description = e.Error.Description
		}
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("code", gwErr.Code).
			Str("receipt", receiptID).
			Msg("gateway rejected order")
		return nil, gwErr
	}

	var order Order
	if err := json.Unmarshal(payload, &order); err != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode order: %w", err)}
	}
	if order.ID == "" {
		return nil, &Error{StatusCode: resp.StatusCode, Description: "gateway response missing order id"}
	}

	c.logger.Info().
		Str("gateway_order_id", order.ID).
		Int64("amount", order.Amount).
		Str("currency", order.Currency).
		Dur("duration", time.Since(start)).
		Msg("gateway order created")

	return &order, nil
}

// KeyID returns the public key id.
func (c *httpClient) KeyID() string {
	return c.opts.KeyID
}
