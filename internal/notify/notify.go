// Package notify sends buyer notifications after a payment settles.
package notify

import (
	"context"
	"fmt"
	"strings"

	"kart-checkout/internal/model"

	"github.com/shopspring/decimal"
)

// Notifier is told about orders that have just transitioned to paid.
type Notifier interface {
	PaymentSettled(ctx context.Context, buyer model.Buyer, order *model.Order) error
}

// Nop is a Notifier that does nothing.
type Nop struct{}

// PaymentSettled implements Notifier.
func (Nop) PaymentSettled(context.Context, model.Buyer, *model.Order) error { return nil }

func settlementSubject(order *model.Order) string {
	return fmt.Sprintf("Payment received for order %s", order.GatewayOrderID)
}

func settlementBody(order *model.Order) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Thank you, your payment for order %s has been received.\n\n", order.GatewayOrderID)
	for _, item := range order.LineItems {
		line := decimal.New(item.UnitPriceMinor*int64(item.Quantity), -2)
		fmt.Fprintf(&b, "  %d x %s  %s %s\n", item.Quantity, item.Name, line.StringFixed(2), order.Currency)
	}
	fmt.Fprintf(&b, "\nTotal: %s %s\n", decimal.New(order.ItemsTotal, -2).StringFixed(2), order.Currency)

	if order.PaymentRef != nil {
		fmt.Fprintf(&b, "Payment reference: %s\n", *order.PaymentRef)
	}

	if addr := order.ShippingAddress; addr != nil {
		fmt.Fprintf(&b, "\nShipping to:\n  %s\n  %s, %s %s\n", addr.Street, addr.City, addr.State, addr.Zip)
		if addr.Country != "" {
			fmt.Fprintf(&b, "  %s\n", addr.Country)
		}
	}

	return b.String()
}
