package service

import (
	"context"

	"kart-checkout/internal/model"

	"github.com/google/uuid"
)

// ProductService defines operations for product management.
type ProductService interface {
	// GetAll retrieves all products with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)
}

// OrderService reconciles storefront orders with the payment gateway.
//
// An order moves from created to exactly one of paid or failed and never
// leaves a terminal state. Stock is decremented once, in the same database
// transaction that moves the order to paid.
type OrderService interface {
	// InitiateOrder prices the cart from the live catalogue, registers a gateway
	// order for that amount and records it in the created state.
	InitiateOrder(ctx context.Context, buyer model.Buyer, req *model.OrderRequest) (*model.OrderResponse, error)

	// VerifyAndSettle checks the gateway signature on a payment callback and settles
	// the order. Repeating a call for a paid order returns the stored order with
	// Replayed set and has no side effects.
	VerifyAndSettle(ctx context.Context, buyer model.Buyer, req *model.VerifyRequest) (*model.Settlement, error)

	// GetByID returns one of the buyer's orders.
	GetByID(ctx context.Context, buyer model.Buyer, id uuid.UUID) (*model.Order, error)

	// ListMine returns the buyer's orders, newest first.
	ListMine(ctx context.Context, buyer model.Buyer) ([]model.Order, error)

	// List returns every order, newest first.
	List(ctx context.Context, limit, offset int) ([]model.Order, error)
}
