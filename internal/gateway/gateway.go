// Package gateway talks to the hosted payment gateway: it creates gateway
// orders and verifies the signatures the gateway attaches to payment callbacks.
package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Client creates orders on the payment gateway.
type Client interface {
	// CreateOrder registers an order for amountMinor in the gateway.
	// receiptID must be unique per call.
	CreateOrder(ctx context.Context, amountMinor int64, currency, receiptID string) (*Order, error)

	// KeyID returns the public key id handed to the checkout widget.
	KeyID() string
}

// Order is the gateway's view of a created order.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Error is returned for every failed gateway call, including timeouts and
// transport errors. StatusCode is zero when no HTTP response was received.
type Error struct {
	StatusCode  int
	Code        string
	Description string
	Err         error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("payment gateway error")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Code != "" {
		b.WriteString(": " + e.Code)
	}
	if e.Description != "" {
		b.WriteString(": " + e.Description)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewReceiptID returns a receipt id unique per call and within the gateway's 40 character limit.
func NewReceiptID() string {
	return "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
