package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentState is the payment lifecycle state of an order.
type PaymentState string

const (
	PaymentStateCreated PaymentState = "created"
	PaymentStatePaid    PaymentState = "paid"
	PaymentStateFailed  PaymentState = "failed"
)

// IsTerminal reports whether no further transition is allowed out of the state.
func (s PaymentState) IsTerminal() bool {
	return s == PaymentStatePaid || s == PaymentStateFailed
}

// Order represents a customer order correlated with a payment gateway order.
type Order struct {
	ID              uuid.UUID        `json:"id" db:"id"`
	GatewayOrderID  string           `json:"gatewayOrderId" db:"gateway_order_id"`
	BuyerID         string           `json:"buyerId" db:"buyer_id"`
	LineItems       []LineItem       `json:"lineItems" db:"line_items"`
	ItemsTotal      int64            `json:"itemsTotal" db:"items_total"`
	Currency        string           `json:"currency" db:"currency"`
	PaymentState    PaymentState     `json:"paymentState" db:"payment_state"`
	PaymentRef      *string          `json:"paymentRef,omitempty" db:"payment_ref"`
	ShippingAddress *ShippingAddress `json:"shippingAddress,omitempty" db:"shipping_address"`
	StockApplied    bool             `json:"stockApplied" db:"stock_applied"`
	CreatedAt       time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time        `json:"updatedAt" db:"updated_at"`
	PaidAt          *time.Time       `json:"paidAt,omitempty" db:"paid_at"`
	FailedAt        *time.Time       `json:"failedAt,omitempty" db:"failed_at"`
}

// LineItem is a product line captured at order creation time.
// UnitPriceMinor is never recomputed from the live catalogue.
type LineItem struct {
	ProductRef     string `json:"productRef"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceMinor int64  `json:"unitPriceAtOrderTime"`
}

// ShippingAddress is where a paid order is delivered.
type ShippingAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country,omitempty"`
}

// CartLineItem is a single untrusted cart entry submitted by the client.
type CartLineItem struct {
	ProductRef string `json:"productRef"`
	Quantity   int    `json:"quantity"`
}

// OrderRequest represents the request payload for initiating an order.
// ItemsPrice is advisory only; totals are recomputed from the catalogue.
type OrderRequest struct {
	OrderItems []CartLineItem   `json:"orderItems"`
	ItemsPrice *decimal.Decimal `json:"itemsPrice,omitempty"`
}

// OrderResponse carries the gateway order fields the client needs to open the checkout widget.
type OrderResponse struct {
	ID       string    `json:"id"`
	Amount   int64     `json:"amount"`
	Currency string    `json:"currency"`
	KeyID    string    `json:"keyId,omitempty"`
	OrderID  uuid.UUID `json:"orderId"`
}

// VerifyRequest is the payment callback payload returned to the client by the gateway.
type VerifyRequest struct {
	GatewayOrderID   string           `json:"gatewayOrderId"`
	GatewayPaymentID string           `json:"gatewayPaymentId"`
	Signature        string           `json:"signature"`
	ShippingAddress  *ShippingAddress `json:"shippingAddress,omitempty"`
}

// Settlement is the outcome of verifying a payment callback.
// Replayed is true when the order had already been settled by an earlier call.
type Settlement struct {
	Order    *Order
	Replayed bool
}
